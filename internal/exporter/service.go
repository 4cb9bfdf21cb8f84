package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"clipexport/internal/config"
	"clipexport/internal/encode"
	"clipexport/internal/history"
	"clipexport/internal/logging"
	"clipexport/internal/runlock"
)

// Options adjusts a single Service run without touching the shared config.
type Options struct {
	// Selection replaces the configured selection when non-nil.
	Selection       *config.Selection
	SyncMappingOnly bool
	DryRun          bool
	// Wait blocks until the encode queue drains, holding the run lock.
	Wait bool
	// Sink overrides the configured encode sink.
	Sink encode.Sink
}

// Service serialises runs with the run lock and records them in history.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	history *history.Store

	mu   sync.Mutex
	last *Result
}

// NewService builds a Service. store may be nil to skip history.
func NewService(cfg *config.Config, store *history.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		history: store,
		logger:  logging.NewComponentLogger(logger, "export-service"),
	}
}

// Config returns the base configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// History returns the history store, which may be nil.
func (s *Service) History() *history.Store {
	return s.history
}

// Run acquires the run lock and performs one pass. runlock.ErrLocked is
// returned when another pass is in progress; continuity errors pass through
// from Run.
func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Selection != nil {
		if err := opts.Selection.Validate(); err != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidSelection, err)
			return Result{Success: false, Message: err.Error()}, err
		}
	}
	cfg := s.effectiveConfig(opts)

	lock, err := runlock.TryAcquire(cfg.LockPath())
	if err != nil {
		return Result{Success: false, Message: err.Error()}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(s.logger, "failed to release run lock", "run_lock_release_failed",
				logging.String("path", lock.Path()),
				logging.Error(err),
			)
		}
	}()

	sink := opts.Sink
	if sink == nil && !opts.DryRun && !cfg.Export.SyncMappingOnly && cfg.Encoder.SourceMedia != "" {
		sink = NewSink(cfg, s.logger)
	}

	res, runErr := Run(ctx, Request{Config: cfg, Sink: sink, Logger: s.logger, DryRun: opts.DryRun})

	if opts.Wait && !opts.DryRun && res.Exported > 0 {
		if waiter, ok := sink.(encode.Waiter); ok {
			res.Encoding = encodeReport(waiter.Wait())
		}
	}

	s.record(ctx, res)
	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()
	return res, runErr
}

// Last returns the most recent result produced by this service.
func (s *Service) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

func (s *Service) effectiveConfig(opts Options) *config.Config {
	cfg := *s.cfg
	if opts.Selection != nil {
		cfg.Selection = *opts.Selection
	}
	if opts.SyncMappingOnly {
		cfg.Export.SyncMappingOnly = true
	}
	return &cfg
}

func (s *Service) record(ctx context.Context, res Result) {
	if s.history == nil || res.RunID == "" {
		return
	}
	if _, err := s.history.Record(context.WithoutCancel(ctx), res.HistoryEntry()); err != nil {
		logging.WarnWithContext(s.logger, "run not recorded in history", "history_record_failed",
			logging.String(logging.FieldRunID, res.RunID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the run is missing from clipexport history"),
		)
	}
}

func encodeReport(summary encode.Summary) *EncodeReport {
	report := &EncodeReport{Completed: len(summary.Completed)}
	for _, failure := range summary.Failed {
		report.Failed = append(report.Failed, ClipError{
			ClipIndex: failure.Job.ClipIndex,
			Name:      failure.Job.Name,
			Error:     failure.Err.Error(),
		})
	}
	return report
}

// ErrInvalidSelection wraps validation failures of a run-time selection override.
var ErrInvalidSelection = errors.New("invalid selection")

// IsLocked reports whether err means another run holds the lock.
func IsLocked(err error) bool {
	return errors.Is(err, runlock.ErrLocked)
}
