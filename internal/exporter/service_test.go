package exporter_test

import (
	"context"
	"errors"
	"testing"

	"clipexport/internal/config"
	"clipexport/internal/encode"
	"clipexport/internal/exporter"
	"clipexport/internal/runlock"
	"clipexport/internal/testsupport"
)

func TestServiceRecordsHistory(t *testing.T) {
	cfg := newProject(t, rangeClips)
	store := testsupport.MustOpenHistory(t, cfg)
	svc := exporter.NewService(cfg, store, nil)

	start := 48
	res, err := svc.Run(context.Background(), exporter.Options{
		Selection: &config.Selection{SourceStart: &start},
		Sink:      &encode.Recorder{},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Exported != 2 {
		t.Fatalf("selection override not applied: %+v", res)
	}
	if len(cfg.Selection.SourceIndices) != 0 || cfg.Selection.SourceStart != nil {
		t.Fatal("overrides must not leak into the shared config")
	}

	entry, err := store.Get(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if entry.Exported != 2 || entry.Skipped != 2 || entry.Mode != exporter.ModeExport || !entry.MappingGenerated {
		t.Fatalf("unexpected history entry %+v", entry)
	}
	last, ok := svc.Last()
	if !ok || last.RunID != res.RunID {
		t.Fatalf("Last() = %+v, %v", last, ok)
	}
}

func TestServiceRejectsOutOfRangeSceneOverride(t *testing.T) {
	cfg := newProject(t, rangeClips)
	svc := exporter.NewService(cfg, nil, nil)

	end := 2_000_000_000
	res, err := svc.Run(context.Background(), exporter.Options{
		Selection: &config.Selection{SceneEnd: &end},
		Sink:      &encode.Recorder{},
	})
	if !errors.Is(err, exporter.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if res.Success || res.RunID != "" {
		t.Fatalf("invalid override must not start a pass: %+v", res)
	}
}

func TestServiceRejectsConcurrentRun(t *testing.T) {
	cfg := newProject(t, rangeClips)
	lock, err := runlock.TryAcquire(cfg.LockPath())
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer lock.Release()

	svc := exporter.NewService(cfg, nil, nil)
	_, err = svc.Run(context.Background(), exporter.Options{SyncMappingOnly: true})
	if !errors.Is(err, runlock.ErrLocked) || !exporter.IsLocked(err) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

type waitingSink struct {
	encode.Recorder
	summary encode.Summary
}

func (w *waitingSink) Wait() encode.Summary { return w.summary }

func TestServiceWaitReportsEncodeOutcome(t *testing.T) {
	cfg := newProject(t, threeClips)
	sink := &waitingSink{summary: encode.Summary{
		Completed: []string{"01.wav", "03.wav"},
		Failed:    []encode.JobError{{Job: encode.Job{ClipIndex: 2}, Err: errors.New("ffmpeg exited 1")}},
	}}
	svc := exporter.NewService(cfg, nil, nil)
	res, err := svc.Run(context.Background(), exporter.Options{Sink: sink, Wait: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Encoding == nil || res.Encoding.Completed != 2 || len(res.Encoding.Failed) != 1 || res.Encoding.Failed[0].ClipIndex != 2 {
		t.Fatalf("unexpected encode report %+v", res.Encoding)
	}
}

func TestResultHistoryEntry(t *testing.T) {
	res := exporter.Result{RunID: "r1", Mode: exporter.ModeSync, Scanned: 4, Errors: []exporter.ClipError{{ClipIndex: 1}}}
	entry := res.HistoryEntry()
	if entry.ID != "r1" || entry.ErrorCount != 1 || entry.Scanned != 4 || entry.Mode != exporter.ModeSync {
		t.Fatalf("unexpected entry %+v", entry)
	}
}
