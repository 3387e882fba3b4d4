package persistence

import (
	"context"
	"errors"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// ErrTaskNotFound is returned when a task does not exist in the store.
var ErrTaskNotFound = errors.New("task not found")

// TaskFilter is used to select tasks from the store.
// Empty string / zero status mean "no filter" for that field.
type TaskFilter struct {
	Preset string
	Status api.Status
}

// TaskStore handles durable storage of task rows.
//
// The row for a task must be created before its status leaves pending, and
// every mutation must be visible to readers that only know the task ID.
// Stores persist fields as written; keeping the numeric fields monotonic is
// the task state machine's job, and only one worker writes a given task at
// a time.
type TaskStore interface {
	CreateTask(ctx context.Context, t *api.Task) error
	UpdateTask(ctx context.Context, t *api.Task) error
	GetTask(ctx context.Context, id string) (*api.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*api.Task, error)
}
