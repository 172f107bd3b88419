package workers

import (
	"context"
	"time"
)

// Job is the post-call work for one finished session. It owns a copy of the
// transcript, so the session can be discarded as soon as the job is queued.
type Job struct {
	ID         string
	SessionID  string
	CallSid    string
	Transcript string
	Utterances int
	EndReason  string
	EndedAt    time.Time
}

// JobProcessor defines the interface for processing post-call jobs.
type JobProcessor interface {
	// Process handles a single job. A returned error is logged by the pool;
	// jobs are never retried.
	Process(ctx context.Context, job Job) error

	// Name returns the processor name for logging and metrics.
	Name() string
}

// WorkerPool defines the interface for managing a pool of job workers.
type WorkerPool interface {
	// Start initializes the worker pool with N workers.
	Start(ctx context.Context) error

	// Submit adds a job to the queue. Blocks while the queue is full.
	Submit(ctx context.Context, job Job) error

	// Drain stops accepting new jobs and waits for queued and in-flight jobs.
	Drain(ctx context.Context) error

	// Stop immediately stops all workers.
	Stop()
}
