package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettlerCoalescesUntilQuiet(t *testing.T) {
	s := newSettler(time.Second)
	now := time.Now()

	s.note("/p/en.txt", now)
	s.note("/p/scenes.txt", now.Add(300*time.Millisecond))
	s.note("/p/en.txt", now.Add(600*time.Millisecond))

	if got := s.ready(now.Add(1200 * time.Millisecond)); got != nil {
		t.Fatalf("expected nothing before the window passes, got %v", got)
	}
	got := s.ready(now.Add(1700 * time.Millisecond))
	if len(got) != 2 || got[0] != "/p/en.txt" || got[1] != "/p/scenes.txt" {
		t.Fatalf("unexpected batch %v", got)
	}
	if again := s.ready(now.Add(5 * time.Second)); again != nil {
		t.Fatalf("batch must be emitted once, got %v", again)
	}
}

func TestNewRequiresFiles(t *testing.T) {
	if _, err := New(nil, time.Second, nil); err == nil {
		t.Fatal("expected error for empty path list")
	}
}

func TestNewSharesDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "en.txt"), filepath.Join(dir, "scenes.txt")}, time.Second, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if len(w.dirs) != 1 || len(w.Files()) != 2 {
		t.Fatalf("unexpected watch set dirs=%v files=%v", w.dirs, w.Files())
	}
}

func TestRunTriggersOnSettledWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "en.txt")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(target, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{target}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("first\n{GAP:12}second\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-batches:
		if len(changed) != 1 || changed[0] != target {
			t.Fatalf("unexpected batch %v", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trigger")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
