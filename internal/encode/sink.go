// Package encode hands selected clips to an encoder.
//
// The export engine only enqueues work and starts the queue; it never waits
// for encodes to finish. FFmpegQueue cuts each clip out of a rendered source
// file in a background worker. Recorder keeps jobs in memory for dry runs.
package encode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Job is one clip to encode.
type Job struct {
	ClipIndex       int
	Name            string
	Source          string
	StartSeconds    float64
	DurationSeconds float64
	// Output is the final file path including extension.
	Output string
}

// Validate checks the job fields the encoders rely on.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Output) == "" {
		return errors.New("output path is required")
	}
	if j.StartSeconds < 0 {
		return fmt.Errorf("clip %d: negative start %.3fs", j.ClipIndex, j.StartSeconds)
	}
	if j.DurationSeconds <= 0 {
		return fmt.Errorf("clip %d: duration must be positive, got %.3fs", j.ClipIndex, j.DurationSeconds)
	}
	return nil
}

// Sink accepts clips for encoding. Enqueue may reject a single job without
// affecting others; Start begins processing and returns without waiting.
type Sink interface {
	Enqueue(ctx context.Context, job Job) error
	Start(ctx context.Context) error
}

// Waiter is implemented by sinks whose completion can be awaited.
type Waiter interface {
	Wait() Summary
}

// Summary reports finished work.
type Summary struct {
	Completed []string
	Failed    []JobError
}

// JobError pairs a job with its failure.
type JobError struct {
	Job Job
	Err error
}

func (e JobError) Error() string {
	return fmt.Sprintf("clip %d (%s): %v", e.Job.ClipIndex, e.Job.Output, e.Err)
}

// ErrStarted is returned by Enqueue once the queue has been started.
var ErrStarted = errors.New("encode queue already started")
