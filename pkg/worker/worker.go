// Package worker pulls ingestion jobs from a queue and drives their
// pipelines through the coordinator. Workers run as background goroutines
// or separate processes; one worker owns a claimed task until it reaches a
// terminal state.
package worker

import (
	"context"
	"errors"

	"github.com/abeauvois/ingestflow/internal/taskqueue"
	"github.com/abeauvois/ingestflow/pkg/api"
	"github.com/abeauvois/ingestflow/pkg/log"
)

// Runner executes one claimed job to a terminal task state.
// It is implemented by the engine coordinator.
type Runner interface {
	RunJob(ctx context.Context, job *taskqueue.Job) (*api.Task, error)
}

// Worker pulls jobs from a Queue and executes them using a Runner.
type Worker struct {
	runner Runner
	queue  taskqueue.Queue
	logger log.Logger
}

// New creates a new Worker with a no-op logger.
func New(runner Runner, queue taskqueue.Queue) *Worker {
	return NewWithLogger(runner, queue, log.Noop)
}

// NewWithLogger creates a new Worker that logs through the given logger.
func NewWithLogger(runner Runner, queue taskqueue.Queue, logger log.Logger) *Worker {
	if logger == nil {
		logger = log.Noop
	}
	return &Worker{
		runner: runner,
		queue:  queue,
		logger: logger,
	}
}

// ProcessOne pulls a single job from the queue and processes it.
// Returns (processed, error):
//   - processed == false, err != nil: no job obtained (context cancelled or
//     dequeue failed).
//   - processed == true: a job was processed; err reports a failed run.
//
// A run error has already been folded into the task row (status failed);
// it is returned so callers can count or log it, not so they can retry it.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	task, runErr := w.runner.RunJob(ctx, job)
	if runErr != nil {
		if task != nil {
			w.logger.Errorf("task %s (%s) failed: %v", task.ID, task.Preset, runErr)
		}
		return true, runErr
	}

	w.logger.Debugf("task %s (%s) finished with status %s", task.ID, task.Preset, task.Status)
	return true, nil
}

// Run processes jobs until the context is cancelled. A failed run does not
// stop the loop; a single bad job must not kill the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		_, err := w.ProcessOne(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			continue
		}
	}
}
