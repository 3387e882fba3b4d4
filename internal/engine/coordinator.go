package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/abeauvois/ingestflow/internal/persistence"
	"github.com/abeauvois/ingestflow/internal/taskqueue"
	"github.com/abeauvois/ingestflow/pkg/api"
)

// Coordinator implements the task boundary: it creates pending tasks on
// submission, hands jobs to workers through the queue, and drives a claimed
// task's pipeline to a terminal state.
//
// A task row is written only by the worker goroutine running it, one full
// row at a time, so status, progress and item counters never tear. Pollers
// read the same row through the store with no locking; all numeric fields
// are monotonic, so re-reading stale state is harmless.
type Coordinator struct {
	store    persistence.TaskStore
	queue    taskqueue.Queue
	registry *Registry
	observer api.Observer
}

// Config describes how to construct a Coordinator.
type Config struct {
	Store    persistence.TaskStore
	Queue    taskqueue.Queue
	Registry *Registry
	Observer api.Observer
}

// New creates a Coordinator from explicit dependencies.
func New(cfg Config) *Coordinator {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	return &Coordinator{
		store:    cfg.Store,
		queue:    cfg.Queue,
		registry: reg,
		observer: obs,
	}
}

// NewInMemory returns a Coordinator backed entirely by in-memory store and
// queue. Intended for tests and local development.
func NewInMemory(reg *Registry) *Coordinator {
	return New(Config{
		Store:    persistence.NewInMemoryStore(),
		Queue:    taskqueue.NewInMemoryQueue(1024),
		Registry: reg,
	})
}

// NewInMemoryWithObserver is like NewInMemory with the given Observer.
func NewInMemoryWithObserver(reg *Registry, obs api.Observer) *Coordinator {
	return New(Config{
		Store:    persistence.NewInMemoryStore(),
		Queue:    taskqueue.NewInMemoryQueue(1024),
		Registry: reg,
		Observer: obs,
	})
}

// NewSQLite returns a Coordinator that persists tasks and queued jobs in
// the given SQLite database.
func NewSQLite(db *sql.DB, reg *Registry) (*Coordinator, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	queue, err := taskqueue.NewSQLiteQueue(db)
	if err != nil {
		return nil, err
	}
	return New(Config{
		Store:    store,
		Queue:    queue,
		Registry: reg,
	}), nil
}

// Ensure Coordinator implements the task boundary.
var _ api.Engine = (*Coordinator)(nil)

// Registry returns the preset catalog this coordinator serves.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Queue exposes the job queue for workers.
func (c *Coordinator) Queue() taskqueue.Queue { return c.queue }

func newTaskID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Submit validates the preset, durably creates a pending task and enqueues
// a job for a worker to claim. The task row exists before the receipt is
// returned, so a poller can observe the task immediately.
func (c *Coordinator) Submit(ctx context.Context, preset string, options map[string]any) (*api.SubmitReceipt, error) {
	if _, err := c.registry.Get(preset); err != nil {
		return nil, err
	}

	task := api.NewTask(newTaskID(), preset, "Task queued")
	if err := c.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	job := taskqueue.Job{
		TaskID:     task.ID,
		Preset:     preset,
		Options:    options,
		EnqueuedAt: time.Now(),
	}
	if err := c.queue.Enqueue(ctx, job); err != nil {
		// The pending row stays behind; RecoverStuckTasks will not touch
		// it, but the caller knows submission failed.
		return nil, fmt.Errorf("enqueueing job: %w", err)
	}

	return &api.SubmitReceipt{
		TaskID:  task.ID,
		Status:  task.Status,
		Message: task.Message,
		Preset:  preset,
	}, nil
}

// GetTask looks up a task by ID.
func (c *Coordinator) GetTask(ctx context.Context, id string) (*api.Task, error) {
	t, err := c.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	return t, nil
}

// ListTasks returns tasks matching the given options.
func (c *Coordinator) ListTasks(ctx context.Context, opts api.TaskListOptions) ([]*api.Task, error) {
	return c.store.ListTasks(ctx, persistence.TaskFilter{
		Preset: opts.Preset,
		Status: opts.Status,
	})
}

// RecoverStuckTasks marks tasks still running (for example after a process
// crash) as failed. Call it on startup before starting any workers, so no
// task is legitimately running when it executes.
func (c *Coordinator) RecoverStuckTasks(ctx context.Context) (int, error) {
	running, err := c.store.ListTasks(ctx, persistence.TaskFilter{Status: api.StatusRunning})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range running {
		t.Fail("task interrupted by restart")
		if err := c.store.UpdateTask(ctx, t); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// RunJob executes the pipeline for a claimed job and drives the task row to
// a terminal state. Called by workers; the returned task reflects the final
// state, and the error reports a step-fatal or infrastructure failure (the
// task has already been marked failed in that case).
func (c *Coordinator) RunJob(ctx context.Context, job *taskqueue.Job) (*api.Task, error) {
	task, err := c.store.GetTask(ctx, job.TaskID)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", job.TaskID, err)
	}
	if task.Status.Terminal() {
		// Already finished; a re-delivered job is a no-op.
		return task, nil
	}

	preset, err := c.registry.Get(job.Preset)
	if err != nil {
		return c.failTask(ctx, task, err), err
	}

	pipeline, err := preset.Build(job.Options)
	if err != nil {
		err = fmt.Errorf("building pipeline: %w", err)
		return c.failTask(ctx, task, err), err
	}

	ec, err := preset.NewContext(job.Options)
	if err != nil {
		err = fmt.Errorf("building context: %w", err)
		return c.failTask(ctx, task, err), err
	}

	task.SetRunning("Processing")
	if err := c.store.UpdateTask(ctx, task); err != nil {
		return task, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	c.observer.OnTaskStart(ctx, task)

	var itemErrors []string

	// Fold item events into the task row. The single worker goroutine
	// running this job is the only writer, so each event is persisted as
	// one consistent row update.
	ec = ec.WithCallback(func(ctx context.Context, ev api.ItemProgress) error {
		task.ObserveItem(ev.Index+1, ev.Total)
		if !ev.Success {
			itemErrors = append(itemErrors, fmt.Sprintf("%s: item %d: %s", ev.StepName, ev.Index, ev.Error))
		}
		c.observer.OnItemProcessed(ctx, task, ev)
		return c.store.UpdateTask(ctx, task)
	})

	totalSteps := pipeline.Len()
	hooks := api.RunHooks{
		OnStepStart: func(stepName string, index int) {
			progress := 0
			if totalSteps > 0 {
				progress = index * 100 / totalSteps
			}
			task.SetStep(stepName, progress)
			_ = c.store.UpdateTask(ctx, task)
			c.observer.OnStepStart(ctx, task, stepName, index)
		},
		OnStepDone: func(stepName string, index int, res api.StepResult, err error, d time.Duration) {
			c.observer.OnStepCompleted(ctx, task, stepName, index, err, d)
		},
	}

	outcome, runErr := pipeline.Run(ctx, ec, hooks)
	if runErr != nil {
		return c.failTask(ctx, task, runErr), runErr
	}

	processed := 0
	if task.ItemProgress != nil {
		processed = task.ItemProgress.Current
	}

	result := &api.TaskResult{
		ItemsProcessed: processed,
		ItemsCreated:   len(outcome.Context.UpdatedIDs),
		Errors:         itemErrors,
		ProcessedItems: outcome.Context.Items,
	}

	message := outcome.Message
	if message == "" {
		message = "Completed"
	}

	task.Complete(message, result)
	if err := c.store.UpdateTask(ctx, task); err != nil {
		return task, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	c.observer.OnTaskCompleted(ctx, task)

	return task, nil
}

func (c *Coordinator) failTask(ctx context.Context, task *api.Task, cause error) *api.Task {
	task.Fail(cause.Error())
	_ = c.store.UpdateTask(ctx, task)
	c.observer.OnTaskFailed(ctx, task, cause)
	return task
}
