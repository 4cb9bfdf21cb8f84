package encode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"clipexport/internal/logging"
)

var commandContext = exec.CommandContext

// FFmpegOptions configures FFmpegQueue.
type FFmpegOptions struct {
	Binary     string
	SampleRate int
	Channels   int
}

// FFmpegQueue encodes jobs one at a time with ffmpeg in a background
// goroutine. Each output is written to a hidden temporary file beside the
// target and renamed into place on success.
type FFmpegQueue struct {
	opts   FFmpegOptions
	logger *slog.Logger

	mu      sync.Mutex
	pending []Job
	started bool
	done    chan struct{}
	summary Summary
}

// NewFFmpegQueue constructs an idle queue.
func NewFFmpegQueue(opts FFmpegOptions, logger *slog.Logger) *FFmpegQueue {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "ffmpeg"
	}
	return &FFmpegQueue{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "encode"),
		done:   make(chan struct{}),
	}
}

// Enqueue validates and queues a job.
func (q *FFmpegQueue) Enqueue(_ context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(job.Source) == "" {
		return fmt.Errorf("clip %d: source media is not configured", job.ClipIndex)
	}
	if _, err := os.Stat(job.Source); err != nil {
		return fmt.Errorf("clip %d: source media: %w", job.ClipIndex, err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrStarted
	}
	q.pending = append(q.pending, job)
	return nil
}

// Pending returns the number of queued jobs.
func (q *FFmpegQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the worker. The worker stops early when ctx is cancelled.
func (q *FFmpegQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return ErrStarted
	}
	q.started = true
	jobs := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.logger.Info("encode queue started", logging.Int("jobs", len(jobs)))
	go q.run(ctx, jobs)
	return nil
}

// Wait blocks until the worker finishes and returns its summary. Wait on a
// queue that was never started returns immediately.
func (q *FFmpegQueue) Wait() Summary {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return Summary{}
	}
	<-q.done
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.summary
}

func (q *FFmpegQueue) run(ctx context.Context, jobs []Job) {
	defer close(q.done)
	var summary Summary
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			summary.Failed = append(summary.Failed, JobError{Job: job, Err: err})
			continue
		}
		if err := q.encode(ctx, job); err != nil {
			summary.Failed = append(summary.Failed, JobError{Job: job, Err: err})
			logging.ErrorWithContext(q.logger, "clip encode failed", "encode_failed",
				logging.Int("clip", job.ClipIndex),
				logging.String("output", job.Output),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run clipexport doctor and check the source media"),
			)
			continue
		}
		summary.Completed = append(summary.Completed, job.Output)
		q.logger.Info("clip encoded", logging.Int("clip", job.ClipIndex), logging.String("output", job.Output))
	}
	q.mu.Lock()
	q.summary = summary
	q.mu.Unlock()
	q.logger.Info("encode queue finished",
		logging.Int("completed", len(summary.Completed)),
		logging.Int("failed", len(summary.Failed)),
	)
}

func (q *FFmpegQueue) encode(ctx context.Context, job Job) error {
	dir := filepath.Dir(job.Output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := TempPath(job.Output)
	defer os.Remove(tmp)

	cmd := commandContext(ctx, q.opts.Binary, q.args(job, tmp)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg produced an empty file")
	}
	if err := os.Rename(tmp, job.Output); err != nil {
		return fmt.Errorf("move encoded clip into place: %w", err)
	}
	return nil
}

func (q *FFmpegQueue) args(job Job, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(job.StartSeconds),
		"-t", formatSeconds(job.DurationSeconds),
		"-i", job.Source,
		"-vn",
		"-sn",
		"-dn",
	}
	if q.opts.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(q.opts.Channels))
	}
	if q.opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(q.opts.SampleRate))
	}
	return append(args, dest)
}

// TempPath returns the hidden in-progress name for output. The extension is
// kept so ffmpeg picks the right muxer.
func TempPath(output string) string {
	dir, name := filepath.Split(output)
	ext := filepath.Ext(name)
	return filepath.Join(dir, "."+strings.TrimSuffix(name, ext)+".partial"+ext)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
