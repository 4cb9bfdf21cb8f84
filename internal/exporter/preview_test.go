package exporter_test

import (
	"errors"
	"path/filepath"
	"testing"

	"clipexport/internal/annotation"
	"clipexport/internal/cleanup"
	"clipexport/internal/config"
	"clipexport/internal/exporter"
	"clipexport/internal/testsupport"
)

func TestPreviewRunDoesNotTouchOutputs(t *testing.T) {
	start, end := 45, 50
	cfg := newProject(t, rangeClips, testsupport.WithSelection(config.Selection{SourceStart: &start, SourceEnd: &end}))
	out := outputDir(t, cfg)
	testsupport.WriteOutputs(t, out, "02.wav", "04.wav")

	preview, err := exporter.PreviewRun(cfg, nil)
	if err != nil {
		t.Fatalf("PreviewRun: %v", err)
	}
	if preview.SequenceName != "processed" || len(preview.Clips) != 4 || len(preview.Records) != 4 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if preview.Resolution.Included != 2 || preview.Resolution.Skipped != 2 {
		t.Fatalf("included=%d skipped=%d", preview.Resolution.Included, preview.Resolution.Skipped)
	}
	if preview.PlanErr != nil || preview.Plan.Mode != cleanup.ModeTargeted {
		t.Fatalf("unexpected plan %+v err=%v", preview.Plan, preview.PlanErr)
	}
	if len(preview.Plan.Candidates) != 1 || preview.Plan.Candidates[0].Name != "02.wav" {
		t.Fatalf("candidates = %+v", preview.Plan.Candidates)
	}
	if !exists(filepath.Join(out, "02.wav")) {
		t.Fatal("preview removed an output")
	}
	if exists(filepath.Join(out, "clip_mapping.json")) {
		t.Fatal("preview wrote the mapping")
	}
}

func TestPreviewRunPropagatesContinuityError(t *testing.T) {
	cfg := newProject(t, rangeClips, testsupport.WithSelection(config.Selection{Scenes: []int{5}}))
	writeSubtitles(t, cfg, "[sc5]\n[10]\n[11]\n[13]\n")

	_, err := exporter.PreviewRun(cfg, nil)
	var contErr *annotation.ContinuityError
	if !errors.As(err, &contErr) {
		t.Fatalf("expected continuity error, got %v", err)
	}
}

func TestPreviewRunWithoutTimeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := exporter.PreviewRun(cfg, nil)
	if !exporter.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}
