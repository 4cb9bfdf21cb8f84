// Package watch re-syncs the clip mapping when annotation files change.
//
// Editors usually save by writing a temp file and renaming it over the
// original, so the watcher subscribes to the parent directories and filters
// events by file name. Changes are coalesced until no event has arrived for
// the settle window, then the trigger runs once with every changed file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clipexport/internal/logging"
)

// Trigger is invoked once per settled batch of changes.
type Trigger func(ctx context.Context, changed []string)

// Watcher observes a fixed set of files.
type Watcher struct {
	files     map[string]struct{}
	dirs      []string
	settle    *settler
	logger    *slog.Logger
	fs        *fsnotify.Watcher
	closeOnce sync.Once
}

// New prepares a watcher for paths. Paths that share a directory share one
// fsnotify subscription. The directories must exist.
func New(paths []string, settleFor time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	w := &Watcher{
		files:  make(map[string]struct{}, len(paths)),
		settle: newSettler(settleFor),
		logger: logging.NewComponentLogger(logger, "watch"),
	}
	seenDirs := make(map[string]struct{})
	for _, path := range paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	if len(w.files) == 0 {
		return nil, errors.New("no files to watch")
	}
	sort.Strings(w.dirs)

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fs = fs
	return w, nil
}

// Files returns the watched files in sorted order.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run blocks until ctx is cancelled, calling trigger for each settled batch.
// Trigger runs on the watcher goroutine, so batches never overlap.
func (w *Watcher) Run(ctx context.Context, trigger Trigger) error {
	defer w.Close()
	w.logger.Info("watching annotation files",
		logging.Int("files", len(w.files)),
		logging.Duration("settle", w.settle.window),
	)

	tick := w.settle.window / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.relevant(evt) {
				w.logger.Debug("annotation change", logging.String("path", evt.Name), logging.String("op", evt.Op.String()))
				w.settle.note(filepath.Clean(evt.Name), time.Now())
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "file watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a change may be picked up late"),
			)
		case now := <-ticker.C:
			if changed := w.settle.ready(now); len(changed) > 0 {
				trigger(ctx, changed)
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) && !evt.Has(fsnotify.Remove) {
		return false
	}
	_, ok := w.files[filepath.Clean(evt.Name)]
	return ok
}

// settler coalesces changes until the window passes without new events.
type settler struct {
	window  time.Duration
	pending map[string]struct{}
	last    time.Time
}

func newSettler(window time.Duration) *settler {
	if window <= 0 {
		window = 750 * time.Millisecond
	}
	return &settler{window: window, pending: make(map[string]struct{})}
}

func (s *settler) note(path string, now time.Time) {
	s.pending[path] = struct{}{}
	s.last = now
}

// ready returns the pending batch once the window has elapsed since the last
// change, and nil otherwise.
func (s *settler) ready(now time.Time) []string {
	if len(s.pending) == 0 || now.Sub(s.last) < s.window {
		return nil
	}
	out := make([]string, 0, len(s.pending))
	for path := range s.pending {
		out = append(out, path)
	}
	sort.Strings(out)
	s.pending = make(map[string]struct{})
	return out
}
