package encode

import (
	"context"
	"sync"
)

// Recorder is a Sink that only remembers what it was given.
type Recorder struct {
	mu      sync.Mutex
	jobs    []Job
	started bool
	// Reject, when set, is consulted for every job and may refuse it.
	Reject func(Job) error
}

// Enqueue records job.
func (r *Recorder) Enqueue(_ context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if r.Reject != nil {
		if err := r.Reject(job); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Start marks the recorder started.
func (r *Recorder) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}
	r.started = true
	return nil
}

// Jobs returns the recorded jobs in enqueue order.
func (r *Recorder) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Job(nil), r.jobs...)
}

// Started reports whether Start was called.
func (r *Recorder) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}
