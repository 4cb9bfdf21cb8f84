package api

import (
	"clipexport/internal/annotation"
	"clipexport/internal/config"
	"clipexport/internal/exporter"
	"clipexport/internal/history"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	UptimeS int64            `json:"uptime_s"`
	LastRun *exporter.Result `json:"last_run,omitempty"`
}

// RunRequest is the optional body of POST /api/runs. Any selection field
// replaces the configured selection as a whole.
type RunRequest struct {
	Scenes          []int `json:"scenes,omitempty"`
	SceneStart      *int  `json:"scene_start,omitempty"`
	SceneEnd        *int  `json:"scene_end,omitempty"`
	SourceIndices   []int `json:"source_indices,omitempty"`
	SourceStart     *int  `json:"source_start,omitempty"`
	SourceEnd       *int  `json:"source_end,omitempty"`
	SyncMappingOnly bool  `json:"sync_mapping_only,omitempty"`
	DryRun          bool  `json:"dry_run,omitempty"`
}

// HasSelection reports whether the request overrides the selection.
func (r RunRequest) HasSelection() bool {
	return len(r.Scenes) > 0 || r.SceneStart != nil || r.SceneEnd != nil ||
		len(r.SourceIndices) > 0 || r.SourceStart != nil || r.SourceEnd != nil
}

// Options converts the request into service options.
func (r RunRequest) Options() exporter.Options {
	opts := exporter.Options{SyncMappingOnly: r.SyncMappingOnly, DryRun: r.DryRun}
	if r.HasSelection() {
		opts.Selection = &config.Selection{
			Scenes:        r.Scenes,
			SceneStart:    r.SceneStart,
			SceneEnd:      r.SceneEnd,
			SourceIndices: r.SourceIndices,
			SourceStart:   r.SourceStart,
			SourceEnd:     r.SourceEnd,
		}
	}
	return opts
}

// RunResponse wraps a pass result. Gaps is set for continuity violations.
type RunResponse struct {
	Result exporter.Result       `json:"result"`
	Gaps   []annotation.SceneGap `json:"gaps,omitempty"`
}

// RunListResponse is returned by GET /api/runs.
type RunListResponse struct {
	Runs []history.Entry `json:"runs"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
