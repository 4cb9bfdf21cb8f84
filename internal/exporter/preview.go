package exporter

import (
	"fmt"
	"log/slog"

	"clipexport/internal/cleanup"
	"clipexport/internal/config"
	"clipexport/internal/logging"
	"clipexport/internal/selection"
	"clipexport/internal/timeline"
	"clipexport/internal/timing"
)

// Preview is the read-only view of a pass: what would be selected, when
// each clip would start, and what cleanup would remove.
type Preview struct {
	SequenceName string
	OutputDir    string
	FrameRate    float64
	Clips        []timeline.Clip
	Resolution   selection.Resolution
	Records      []timing.Record
	Plan         cleanup.Plan
	// PlanErr is set when the output directory could not be read.
	PlanErr error
}

// PreviewRun resolves selection, timing and the cleanup plan for cfg without
// touching the output directory. It returns a *ConfigError when the inputs
// are unusable and a *annotation.ContinuityError for broken scene numbering.
func PreviewRun(cfg *config.Config, logger *slog.Logger) (*Preview, error) {
	if cfg == nil {
		return nil, &ConfigError{Reason: "configuration is required"}
	}
	if err := cfg.Selection.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	logger = logging.NewComponentLogger(logger, "preview")
	in, err := prepare(cfg, logger)
	if err != nil {
		return nil, err
	}
	clips := in.track.Clips
	resolution, err := selection.Resolve(clips, criteriaFromConfig(cfg.Selection), selection.Options{
		SceneText:   in.sceneText,
		SceneTextOK: in.sceneOK,
		ScenePath:   in.scenePath,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	preview := &Preview{
		SequenceName: in.sequence.Name,
		OutputDir:    in.outputDir,
		FrameRate:    in.fps,
		Clips:        clips,
		Resolution:   resolution,
		Records:      timing.Resolve(clips, in.fps, in.lines, cfg.Export.DefaultGapFrames),
	}
	preview.Plan, preview.PlanErr = PlanFor(cfg, in.outputDir, resolution.Criterion, clips, resolution.Decisions)
	return preview, nil
}
