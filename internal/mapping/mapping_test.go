package mapping

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"clipexport/internal/timeline"
	"clipexport/internal/timing"
)

func sampleArtifact() Artifact {
	clips := []timeline.Clip{
		{Index: 1, SourceIndex: 44, HasSourceIndex: true},
		{Index: 2, SourceIndex: 10, HasSourceIndex: true},
		{Index: 3},
		{Index: 4, SourceIndex: 44, HasSourceIndex: true},
		{Index: 10, SourceIndex: 2, HasSourceIndex: true},
	}
	records := []timing.Record{
		{DurationSeconds: 2, NativeStartFrame: 0, GapStartFrame: 0},
		{DurationSeconds: 1.5, NativeStartFrame: 60, GapStartFrame: 70},
		{DurationSeconds: 3, NativeStartFrame: 105, GapStartFrame: 115},
		{DurationSeconds: 0.033, NativeStartFrame: 195, GapStartFrame: 211},
		{DurationSeconds: 1.25, NativeStartFrame: 196, GapStartFrame: 218},
	}
	meta := Meta{
		Locale:       "en",
		SequenceName: "processed",
		GeneratedAt:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local),
	}
	return Build(clips, []bool{true, false, true, false, true}, records, meta)
}

func TestBuildRecordsEveryClip(t *testing.T) {
	a := sampleArtifact()

	if a.TotalClips != 5 {
		t.Fatalf("total clips = %d", a.TotalClips)
	}
	if a.GeneratedAt != "2026-03-04T05:06:07" {
		t.Fatalf("generatedAt = %q", a.GeneratedAt)
	}
	if !reflect.DeepEqual(a.SourceToClips, map[int][]int{44: {1, 4}, 10: {2}, 2: {10}}) {
		t.Fatalf("sourceToClips = %v", a.SourceToClips)
	}
	if _, ok := a.ClipToSource[3]; ok {
		t.Fatal("clip without source index must not appear in clipToSource")
	}
	for _, idx := range []int{1, 2, 3, 4, 10} {
		if _, ok := a.ClipDurations[idx]; !ok {
			t.Fatalf("clip %d missing from durations", idx)
		}
		if _, ok := a.ClipStartFrames[idx]; !ok {
			t.Fatalf("clip %d missing from gap-adjusted frames", idx)
		}
		if _, ok := a.ClipStartFramesPR[idx]; !ok {
			t.Fatalf("clip %d missing from native frames", idx)
		}
	}
	if !reflect.DeepEqual(a.Sources(), []int{2, 10, 44}) {
		t.Fatalf("sources = %v", a.Sources())
	}
	if got := a.ClipsForSource(44); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Fatalf("clips for source 44 = %v", got)
	}
	if got := a.ClipsForSource(7); got != nil {
		t.Fatalf("clips for unknown source = %v", got)
	}
}

func TestMarshalIndentLayout(t *testing.T) {
	got := string(sampleArtifact().MarshalIndent())
	want := `{
  "generatedAt": "2026-03-04T05:06:07",
  "locale": "en",
  "sequenceName": "processed",
  "totalClips": 5,
  "sourceToClips": {
    "2": [10],
    "10": [2],
    "44": [1, 4]
  },
  "clipToSource": {
    "1": 44,
    "2": 10,
    "4": 44,
    "10": 2
  },
  "clipDurations": {
    "1": 2,
    "2": 1.5,
    "3": 3,
    "4": 0.033,
    "10": 1.25
  },
  "clipStartFramesPR": {
    "1": 0,
    "2": 60,
    "3": 105,
    "4": 195,
    "10": 196
  },
  "clipStartFrames": {
    "1": 0,
    "2": 70,
    "3": 115,
    "4": 211,
    "10": 218
  }
}
`
	if got != want {
		t.Fatalf("unexpected layout:\n%s", got)
	}
}

func TestMarshalJSONKeyOrderAndRoundTrip(t *testing.T) {
	a := sampleArtifact()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	order := []string{"generatedAt", "locale", "sequenceName", "totalClips", "sourceToClips", "clipToSource", "clipDurations", "clipStartFramesPR", "clipStartFrames"}
	last := -1
	for _, key := range order {
		pos := strings.Index(text, `"`+key+`"`)
		if pos <= last {
			t.Fatalf("key %q out of order in %s", key, text)
		}
		last = pos
	}
	if strings.Index(text, `"2":[10]`) > strings.Index(text, `"10":[2]`) {
		t.Fatalf("numeric keys must sort numerically: %s", text)
	}

	var back Artifact
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, a) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", back, a)
	}
}

func TestMarshalEmptyArtifact(t *testing.T) {
	a := Build(nil, nil, nil, Meta{Locale: `zh"x`, GeneratedAt: time.Now()})
	var decoded map[string]any
	if err := json.Unmarshal(a.MarshalIndent(), &decoded); err != nil {
		t.Fatalf("empty artifact is not valid JSON: %v", err)
	}
	if decoded["locale"] != `zh"x` {
		t.Fatalf("locale not escaped correctly: %v", decoded["locale"])
	}
	if m, ok := decoded["sourceToClips"].(map[string]any); !ok || len(m) != 0 {
		t.Fatalf("expected empty object, got %v", decoded["sourceToClips"])
	}
}

func TestWriteReplacesExistingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "voiceovers", "en")
	path := filepath.Join(dir, "clip_mapping.json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"stale": true, "extra": [1,2,3]}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	a := sampleArtifact()
	if err := Write(path, a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "stale") {
		t.Fatal("previous artifact content must be fully replaced")
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(*loaded, a) {
		t.Fatalf("loaded artifact differs")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteFailureLeavesPreviousArtifact(t *testing.T) {
	original := renameFile
	t.Cleanup(func() { renameFile = original })
	renameFile = func(string, string) error { return errors.New("disk full") }

	dir := t.TempDir()
	path := filepath.Join(dir, "clip_mapping.json")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Write(path, sampleArtifact()); err == nil {
		t.Fatal("expected write error")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Fatalf("previous artifact clobbered: %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file not cleaned up: %v", entries)
	}
}
