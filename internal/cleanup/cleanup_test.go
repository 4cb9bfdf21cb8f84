package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"clipexport/internal/logging"
	"clipexport/internal/timeline"
)

var audioExts = []string{".wav", ".mp3", ".aac", ".flac", ".m4a", ".ogg"}

func naming() Naming {
	return Naming{ZeroPad: true, PadWidth: 2, Extensions: audioExts, ReservedDir: "original"}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func candidateNames(plan Plan) []string {
	var names []string
	for _, c := range plan.Candidates {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func fourClips() []timeline.Clip {
	clips := make([]timeline.Clip, 4)
	for i := range clips {
		clips[i] = timeline.Clip{Index: i + 1}
	}
	return clips
}

func TestPlanFullRemovesAudioAndKeepsReservedDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "01.wav", "02.MP3", "notes.txt", "clip_mapping.json", "03.ogg")
	if err := os.Mkdir(filepath.Join(dir, "Original"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	touch(t, filepath.Join(dir, "Original"), "01.wav")
	if err := os.Mkdir(filepath.Join(dir, "other"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := Snapshot(dir)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	plan := PlanCleanup(dir, ModeFull, fourClips(), nil, entries, naming())

	if want := []string{"01.wav", "02.MP3", "03.ogg"}; !reflect.DeepEqual(candidateNames(plan), want) {
		t.Fatalf("candidates = %v, want %v", candidateNames(plan), want)
	}
	if !reflect.DeepEqual(plan.Preserved, []string{"Original"}) {
		t.Fatalf("preserved = %v", plan.Preserved)
	}

	res := Execute(context.Background(), plan, logging.NewNop())
	if len(res.Removed) != 3 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "Original", "01.wav")); err != nil {
		t.Fatalf("reserved directory content must survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("non-audio file must survive: %v", err)
	}
}

func TestPlanTargetedOnlyTouchesIncludedClips(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "01.wav", "02.wav", "02.mp3", "03.wav", "04.flac", "05.wav", "2.wav", "02.wav.bak")

	entries, err := Snapshot(dir)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	decisions := []bool{false, true, false, true}
	plan := PlanCleanup(dir, ModeTargeted, fourClips(), decisions, entries, naming())

	if want := []string{"02.mp3", "02.wav", "04.flac"}; !reflect.DeepEqual(candidateNames(plan), want) {
		t.Fatalf("candidates = %v, want %v", candidateNames(plan), want)
	}
	allowed := map[string]bool{}
	for i, clip := range fourClips() {
		if !decisions[i] {
			continue
		}
		for _, ext := range audioExts {
			allowed[clip.OutputName(true, 2)+ext] = true
		}
	}
	for _, c := range plan.Candidates {
		if !allowed[c.Name] {
			t.Fatalf("targeted cleanup planned %q which belongs to no included clip", c.Name)
		}
	}

	Execute(context.Background(), plan, logging.NewNop())
	for _, keep := range []string{"01.wav", "03.wav", "05.wav", "2.wav", "02.wav.bak"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Fatalf("%s should survive targeted cleanup: %v", keep, err)
		}
	}
}

func TestPlanTargetedWithoutZeroPad(t *testing.T) {
	entries := []Entry{{Name: "2.wav"}, {Name: "02.wav"}}
	n := naming()
	n.ZeroPad = false
	plan := PlanCleanup("/out", ModeTargeted, fourClips(), []bool{false, true, false, false}, entries, n)
	if want := []string{"2.wav"}; !reflect.DeepEqual(candidateNames(plan), want) {
		t.Fatalf("candidates = %v", candidateNames(plan))
	}
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	original := removeFile
	t.Cleanup(func() { removeFile = original })

	var attempted []string
	removeFile = func(path string) error {
		attempted = append(attempted, filepath.Base(path))
		switch filepath.Base(path) {
		case "02.wav":
			return errors.New("permission denied")
		case "03.wav":
			return os.ErrNotExist
		}
		return nil
	}

	plan := Plan{Mode: ModeTargeted, Candidates: []Candidate{
		{Name: "01.wav", Path: "/out/01.wav", ClipIndex: 1},
		{Name: "02.wav", Path: "/out/02.wav", ClipIndex: 2},
		{Name: "03.wav", Path: "/out/03.wav", ClipIndex: 3},
		{Name: "04.wav", Path: "/out/04.wav", ClipIndex: 4},
	}}
	res := Execute(context.Background(), plan, nil)

	if len(attempted) != 4 {
		t.Fatalf("expected every candidate attempted, got %v", attempted)
	}
	if !reflect.DeepEqual(res.Removed, []string{"/out/01.wav", "/out/04.wav"}) {
		t.Fatalf("removed = %v", res.Removed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Path != "/out/02.wav" {
		t.Fatalf("errors = %+v", res.Errors)
	}
}

func TestExecuteStopsRemovingWhenCancelled(t *testing.T) {
	original := removeFile
	t.Cleanup(func() { removeFile = original })
	removeFile = func(string) error {
		t.Fatal("no removal expected after cancellation")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Execute(ctx, Plan{Candidates: []Candidate{{Path: "/out/01.wav"}}}, logging.NewNop())
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0].Error, context.Canceled) {
		t.Fatalf("expected cancellation error, got %+v", res.Errors)
	}
}

func TestSnapshotMissingDirectory(t *testing.T) {
	entries, err := Snapshot(filepath.Join(t.TempDir(), "absent"))
	if err != nil || entries != nil {
		t.Fatalf("expected empty snapshot, got %v %v", entries, err)
	}
}

func TestHasExtension(t *testing.T) {
	if !HasExtension("01.WAV", audioExts) {
		t.Fatal("extension match should ignore case")
	}
	if HasExtension("README", audioExts) || HasExtension("01.wav.tmp", audioExts) {
		t.Fatal("unexpected match")
	}
}
