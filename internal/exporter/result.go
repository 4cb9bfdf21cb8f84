package exporter

import (
	"errors"
	"fmt"
	"time"

	"clipexport/internal/history"
	"clipexport/internal/selection"
)

// Run modes.
const (
	ModeExport = "export"
	ModeSync   = "sync"
)

// Result is the outcome of one pass.
type Result struct {
	RunID      string `json:"run_id"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Mode       string `json:"mode"`
	DryRun     bool   `json:"dry_run,omitempty"`
	Standalone bool   `json:"standalone,omitempty"`

	SequenceName   string  `json:"sequence_name,omitempty"`
	SequenceMethod string  `json:"sequence_method,omitempty"`
	Locale         string  `json:"locale,omitempty"`
	FrameRate      float64 `json:"frame_rate,omitempty"`
	Track          string  `json:"track,omitempty"`
	OutputDir      string  `json:"output_dir,omitempty"`

	Criterion     string `json:"criterion,omitempty"`
	Scenes        []int  `json:"scenes,omitempty"`
	SceneFallback bool   `json:"scene_fallback,omitempty"`

	Scanned  int           `json:"scanned"`
	Exported int           `json:"exported"`
	Skipped  int           `json:"skipped"`
	Errors   []ClipError   `json:"errors,omitempty"`
	Clips    []ClipDetail  `json:"clips,omitempty"`
	Cleanup  CleanupReport `json:"cleanup"`
	Encoding *EncodeReport `json:"encoding,omitempty"`

	MappingGenerated bool   `json:"mapping_generated"`
	MappingPath      string `json:"mapping_path,omitempty"`
	MappingError     string `json:"mapping_error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// ClipError records a clip that could not be handed to the encoder.
type ClipError struct {
	ClipIndex int    `json:"clip_index"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error"`
}

// ClipDetail is the per-clip view of a pass.
type ClipDetail struct {
	Index            int     `json:"index"`
	Name             string  `json:"name"`
	SourceIndex      *int    `json:"source_index,omitempty"`
	Included         bool    `json:"included"`
	Output           string  `json:"output,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds"`
	NativeStartFrame int     `json:"native_start_frame"`
	GapStartFrame    int     `json:"gap_start_frame"`
	GapFrames        int     `json:"gap_frames"`
}

// CleanupReport summarises the cleanup step.
type CleanupReport struct {
	Mode      string   `json:"mode,omitempty"`
	Planned   int      `json:"planned"`
	Removed   int      `json:"removed"`
	Failed    int      `json:"failed"`
	Preserved []string `json:"preserved,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
}

// EncodeReport is filled in when the caller waited for the encode queue.
type EncodeReport struct {
	Completed int         `json:"completed"`
	Failed    []ClipError `json:"failed,omitempty"`
}

// ConfigError marks a pass that could not start: no timeline, no clips, or a
// required path that cannot be resolved.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// HistoryEntry converts the result into a history record.
func (r Result) HistoryEntry() history.Entry {
	return history.Entry{
		ID:               r.RunID,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		Mode:             r.Mode,
		DryRun:           r.DryRun,
		SequenceName:     r.SequenceName,
		Locale:           r.Locale,
		Criterion:        r.Criterion,
		Scanned:          r.Scanned,
		Exported:         r.Exported,
		Skipped:          r.Skipped,
		ErrorCount:       len(r.Errors),
		Success:          r.Success,
		Message:          r.Message,
		MappingPath:      r.MappingPath,
		MappingGenerated: r.MappingGenerated,
	}
}

func summaryMessage(r Result) string {
	var msg string
	switch {
	case r.Mode == ModeSync:
		msg = fmt.Sprintf("synced mapping (scanned %d clips, nothing exported)", r.Scanned)
	case len(r.Scenes) > 0:
		msg = fmt.Sprintf("exported %d clips (scenes %s, skipped %d)", r.Exported, selection.FormatInts(r.Scenes), r.Skipped)
	case r.Skipped > 0:
		msg = fmt.Sprintf("exported %d clips (skipped %d)", r.Exported, r.Skipped)
	default:
		msg = fmt.Sprintf("exported %d clips", r.Exported)
	}
	if n := len(r.Errors); n > 0 {
		msg += fmt.Sprintf(" (%d errors)", n)
	}
	if r.DryRun {
		msg = "dry run: " + msg
	}
	return msg
}
