package preflight

import (
	"context"

	"clipexport/internal/config"
	"clipexport/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which the output check fails.
const minFreeBytes = 256 << 20

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if !cfg.Standalone() || cfg.Paths.ProjectRoot != "" {
		results = append(results, CheckDirectoryAccess("Project root", cfg.Paths.ProjectRoot))
	}

	if path, err := cfg.TimelinePath(); err != nil {
		results = append(results, Result{Name: "Timeline", Detail: err.Error()})
	} else {
		results = append(results, CheckFile("Timeline", path, false))
	}

	if path, err := cfg.SubtitlePath(); err != nil {
		results = append(results, Result{Name: "Annotations", Passed: true, Detail: "not configured (default gaps apply)"})
	} else {
		results = append(results, CheckFile("Annotations", path, true))
	}

	if cfg.Paths.SceneFile != "" {
		results = append(results, CheckFile("Scene annotations", cfg.Paths.SceneFile, true))
	}

	if dir, err := cfg.OutputDirectory(); err != nil {
		results = append(results, Result{Name: "Output directory", Detail: err.Error()})
	} else {
		results = append(results, CheckOutputDirectory("Output directory", dir))
		results = append(results, CheckFreeSpace("Output free space", dir, minFreeBytes))
	}

	if cfg.Encoder.Kind == config.EncoderFFmpeg {
		if cfg.Encoder.SourceMedia == "" {
			results = append(results, Result{Name: "Source media", Detail: "encoder.source_media is not configured"})
		} else {
			results = append(results, CheckFile("Source media", cfg.Encoder.SourceMedia, false))
		}
	}

	results = append(results, CheckOutputDirectory("State directory", cfg.Paths.StateDir))
	return results
}

// CheckSystemDeps evaluates the external binaries for the given config.
// ffmpeg is required only when it is the configured encoder.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	optional := cfg.Encoder.Kind != config.EncoderFFmpeg
	return []deps.Status{deps.CheckFFmpeg(ctx, cfg.FFmpegBinary(), optional)}
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
