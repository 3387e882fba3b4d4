package api

import (
	"context"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further mutation may happen in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ItemCounter mirrors the most recent item event for the running step as
// {index+1, total}. Current never decreases for the life of one task.
type ItemCounter struct {
	Current int
	Total   int
}

// TaskResult is the terminal payload of a completed run.
type TaskResult struct {
	ItemsProcessed int
	ItemsCreated   int
	Errors         []string
	ProcessedItems []any
}

// Task is the durable, pollable representation of one pipeline run.
//
// A task is exclusively owned by the worker advancing it until it reaches a
// terminal status; after that it is read-only. Progress and
// ItemProgress.Current are monotonically non-decreasing, which is what lets
// polling clients derive per-item events from deltas instead of poll counts.
type Task struct {
	ID           string
	Preset       string
	Status       Status
	Progress     int // 0-100
	Message      string
	CurrentStep  *string
	ItemProgress *ItemCounter
	Result       *TaskResult
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTask creates a pending task for the given preset.
func NewTask(id, preset, message string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        id,
		Preset:    preset,
		Status:    StatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy. Stores hand out clones so concurrent pollers
// never share memory with the writing worker.
func (t *Task) Clone() *Task {
	c := *t
	if t.CurrentStep != nil {
		step := *t.CurrentStep
		c.CurrentStep = &step
	}
	if t.ItemProgress != nil {
		ip := *t.ItemProgress
		c.ItemProgress = &ip
	}
	if t.Result != nil {
		r := *t.Result
		r.Errors = append([]string(nil), t.Result.Errors...)
		r.ProcessedItems = append([]any(nil), t.Result.ProcessedItems...)
		c.Result = &r
	}
	return &c
}

func (t *Task) touch() { t.UpdatedAt = time.Now().UTC() }

// SetRunning transitions the task out of pending. It is a no-op once the
// task is terminal.
func (t *Task) SetRunning(message string) {
	if t.Status.Terminal() {
		return
	}
	t.Status = StatusRunning
	t.Message = message
	t.touch()
}

// SetStep records the currently executing step and advances the coarse
// progress percentage. Progress never regresses.
func (t *Task) SetStep(name string, progress int) {
	if t.Status.Terminal() {
		return
	}
	step := name
	t.CurrentStep = &step
	t.SetProgress(progress)
}

// SetProgress raises the progress percentage. Values below the current one
// or outside 0-100 are clamped so readers always observe a monotonic field.
func (t *Task) SetProgress(p int) {
	if t.Status.Terminal() {
		return
	}
	if p > 100 {
		p = 100
	}
	if p > t.Progress {
		t.Progress = p
	}
	t.touch()
}

// ObserveItem folds an item event into the counters. Current is clamped
// non-decreasing across the whole run, even when a later step restarts its
// own index sequence at zero.
func (t *Task) ObserveItem(current, total int) {
	if t.Status.Terminal() {
		return
	}
	if t.ItemProgress == nil {
		t.ItemProgress = &ItemCounter{}
	}
	if current > t.ItemProgress.Current {
		t.ItemProgress.Current = current
	}
	if total > t.ItemProgress.Total {
		t.ItemProgress.Total = total
	}
	t.touch()
}

// Complete finalizes the task as completed with its aggregate result.
func (t *Task) Complete(message string, result *TaskResult) {
	if t.Status.Terminal() {
		return
	}
	t.Status = StatusCompleted
	t.Message = message
	t.Result = result
	t.Progress = 100
	t.touch()
}

// Fail finalizes the task as failed. Message carries the failure reason.
func (t *Task) Fail(message string) {
	if t.Status.Terminal() {
		return
	}
	t.Status = StatusFailed
	t.Message = message
	t.touch()
}

// SubmitReceipt is what the submission boundary returns to a caller.
type SubmitReceipt struct {
	TaskID  string
	Status  Status
	Message string
	Preset  string
}

// TaskListOptions controls how tasks are listed. Zero values mean
// "no filter" for that field.
type TaskListOptions struct {
	Preset string
	Status Status
}

// Engine is the task boundary shared by in-process and remote callers:
// submit a run, then observe it by identity alone.
type Engine interface {
	// Submit validates the preset, durably creates a pending task and
	// schedules it for execution by a worker.
	Submit(ctx context.Context, preset string, options map[string]any) (*SubmitReceipt, error)

	// GetTask returns the full task projection by ID.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns tasks matching the given options.
	ListTasks(ctx context.Context, opts TaskListOptions) ([]*Task, error)

	// RecoverStuckTasks marks tasks still running after a crash as failed.
	// It is intended to be called on process startup before workers start,
	// and returns the number of tasks it updated.
	RecoverStuckTasks(ctx context.Context) (int, error)
}
