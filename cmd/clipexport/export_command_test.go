package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipexport/internal/history"
	"clipexport/internal/mapping"
	"clipexport/internal/testsupport"
)

func TestExportJSONWritesMapping(t *testing.T) {
	env := setupCLITestEnv(t, true)
	env.writeSubtitles(t, "one\n{GAP:10} two\nthree\nfour\n")

	out, _, err := runCLI(t, []string{"export", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var payload exportJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !payload.Result.Success || payload.Result.Exported != 4 || !payload.Result.MappingGenerated {
		t.Fatalf("unexpected result %+v", payload.Result)
	}

	artifact, err := mapping.Load(filepath.Join(env.outputDir(t), "clip_mapping.json"))
	if err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if artifact.TotalClips != 4 || artifact.ClipStartFrames[2] != 40 {
		t.Fatalf("unexpected mapping %+v", artifact)
	}
}

func TestExportSourceRangeText(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"export", "--source-start", "45", "--source-end", "50"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "exported 2 clips (skipped 2)")
	requireContains(t, out, "Cleanup:    targeted")
	requireContains(t, out, "Mapping:")
}

func TestExportDryRunLeavesOutputs(t *testing.T) {
	env := setupCLITestEnv(t, true)
	stale := testsupport.WriteOutputs(t, env.outputDir(t), "07.wav")[0]

	out, _, err := runCLI(t, []string{"export", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "dry run: exported 4 clips")
	requireContains(t, out, "would remove 1")
	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("dry run removed %s: %v", stale, err)
	}
}

func TestExportContinuityErrorShowsGaps(t *testing.T) {
	env := setupCLITestEnv(t, true)
	env.writeSubtitles(t, "[sc5]\n[10]\n[11]\n[13]\n")

	out, _, err := runCLI(t, []string{"export", "--scenes", "5"}, env.configPath)
	if err == nil {
		t.Fatal("expected continuity error")
	}
	requireContains(t, out, "not continuous")
	requireContains(t, out, "[12]")
}

func TestExportWithoutTimelineFails(t *testing.T) {
	env := setupCLITestEnv(t, false)

	_, _, err := runCLI(t, []string{"export"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure without a timeline")
	}
	requireContains(t, err.Error(), "no usable timeline")
}

func TestMappingCommandSyncsOnly(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"mapping"}, env.configPath)
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	requireContains(t, out, "synced mapping (scanned 4 clips, nothing exported)")
	requireContains(t, out, "Cleanup:    skipped")
}

func TestMappingCommandListsClipsBySource(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"mapping", "--source", "45", "--source", "99"}, env.configPath)
	if err != nil {
		t.Fatalf("mapping --source: %v", err)
	}
	requireContains(t, out, "CLIPS")
	requireContains(t, out, "[2]")
	if strings.Contains(out, "[4]") {
		t.Fatalf("unexpected clips for unrequested sources:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"mapping", "--by-source"}, env.configPath)
	if err != nil {
		t.Fatalf("mapping --by-source: %v", err)
	}
	for _, src := range []string{"44", "45", "48", "51"} {
		requireContains(t, out, src)
	}
	requireContains(t, out, "[4]")
}

func TestHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t, true)
	if _, _, err := runCLI(t, []string{"mapping"}, env.configPath); err != nil {
		t.Fatalf("mapping: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 1 || entries[0].Mode != "sync" || !entries[0].Success {
		t.Fatalf("unexpected history %+v", entries)
	}

	out, _, err = runCLI(t, []string{"history", entries[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	requireContains(t, out, "Clips:     4 scanned, 0 exported")

	if _, _, err := runCLI(t, []string{"history", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
