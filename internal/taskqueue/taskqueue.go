package taskqueue

import (
	"context"
	"time"
)

// Job is a unit of work for a worker: run one submitted task's pipeline.
// The task row itself lives in the task store; the job only carries what a
// worker needs to claim and execute the run.
type Job struct {
	// TaskID identifies the pending task row this job belongs to.
	TaskID string

	// Preset names the pipeline configuration to build.
	Preset string

	// Options is the caller-supplied options bag passed at submission.
	Options map[string]any

	EnqueuedAt time.Time

	// NotBefore is the earliest time this job should be eligible for
	// processing. Zero value means "immediately".
	NotBefore time.Time

	// Attempts counts how many times a worker has already picked this job up.
	Attempts int
}

// Queue is a simple async job queue interface.
type Queue interface {
	// Enqueue adds a job to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue removes and returns the next job, blocking until one is
	// available or the context is cancelled.
	Dequeue(ctx context.Context) (*Job, error)

	// Len returns the approximate number of jobs queued.
	Len() int
}
