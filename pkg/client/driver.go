// Package client contains the polling execution driver: it submits a task
// and translates the task's state over time into ordered lifecycle
// callbacks, despite the transport being poll-based.
package client

import (
	"context"
	"time"

	"github.com/abeauvois/ingestflow/pkg/api"
	"github.com/abeauvois/ingestflow/pkg/log"
)

const (
	// DefaultPollInterval is how often the driver reads the task state.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultMaxAttempts bounds the polling loop; together with the
	// interval it gives a 60 second ceiling by default.
	DefaultMaxAttempts = 120
)

// TaskAPI is the boundary the driver talks to. The engine coordinator
// satisfies it in-process; HTTPTaskAPI satisfies it against a remote
// server.
type TaskAPI interface {
	Submit(ctx context.Context, preset string, options map[string]any) (*api.SubmitReceipt, error)
	GetTask(ctx context.Context, taskID string) (*api.Task, error)
}

// Config configures one driver instance.
type Config struct {
	Preset  string
	Options map[string]any

	// PollInterval defaults to DefaultPollInterval when zero.
	PollInterval time.Duration

	// MaxAttempts defaults to DefaultMaxAttempts when zero.
	MaxAttempts int

	// Logger is handed to every hook. Defaults to log.Noop.
	Logger log.Logger
}

// ItemUpdate describes one newly observed processed item.
// The driver derives these from deltas in the task's monotonic item
// counter, so indices are gap-free and emitted exactly once even when a
// single poll observes the counter jumping by more than one.
type ItemUpdate struct {
	Index int
	Total int
	Step  string
}

// Result is the aggregate outcome handed to OnComplete.
type Result struct {
	TaskID         string
	ItemsProcessed int
	ItemsCreated   int
	Errors         []string
	ProcessedItems []any
	Duration       time.Duration
}

// Hooks are the optional lifecycle callbacks. A run invokes either
// OnComplete or OnError, never both.
type Hooks struct {
	OnStart         func(logger log.Logger)
	OnItemProcessed func(logger log.Logger, update ItemUpdate)
	OnComplete      func(logger log.Logger, res Result)
	OnError         func(logger log.Logger, err error)
}

// Driver submits one task and watches it to a terminal state.
// A Driver is single-use: lastItemIndex deduplicates item events for the
// life of one Execute call and is not reset.
type Driver struct {
	api TaskAPI
	cfg Config

	// lastItemIndex is the highest item index already reported to the
	// caller, -1 before any. This field is the core of the delta-based
	// design: events derive from counter movement, never from poll counts.
	lastItemIndex int
}

// New creates a Driver for the given boundary and config.
func New(taskAPI TaskAPI, cfg Config) *Driver {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Noop
	}
	return &Driver{
		api:           taskAPI,
		cfg:           cfg,
		lastItemIndex: -1,
	}
}

// Execute submits the configured preset and polls the task until it
// completes, fails, or the attempt budget runs out.
//
// Per-item callbacks fire exactly once per item index, in order, catching
// up when the counter advanced by more than one between polls. Any error
// reaches OnError (if set) and is returned; the driver never swallows a
// failure silently.
func (d *Driver) Execute(ctx context.Context, hooks Hooks) (*Result, error) {
	logger := d.cfg.Logger
	start := time.Now()

	if hooks.OnStart != nil {
		hooks.OnStart(logger)
	}

	receipt, err := d.api.Submit(ctx, d.cfg.Preset, d.cfg.Options)
	if err != nil {
		return nil, d.fail(logger, hooks, err)
	}
	logger.Debugf("submitted task %s (preset %s): %s", receipt.TaskID, receipt.Preset, receipt.Message)

	for attempt := 0; attempt < d.cfg.MaxAttempts; attempt++ {
		task, err := d.api.GetTask(ctx, receipt.TaskID)
		if err != nil {
			return nil, d.fail(logger, hooks, err)
		}

		d.emitNewItems(logger, hooks, task)

		switch task.Status {
		case api.StatusCompleted:
			res := buildResult(task, time.Since(start))
			if hooks.OnComplete != nil {
				hooks.OnComplete(logger, res)
			}
			return &res, nil

		case api.StatusFailed:
			return nil, d.fail(logger, hooks, &TaskFailedError{
				TaskID:  task.ID,
				Message: task.Message,
			})
		}

		select {
		case <-ctx.Done():
			return nil, d.fail(logger, hooks, ctx.Err())
		case <-time.After(d.cfg.PollInterval):
		}
	}

	return nil, d.fail(logger, hooks, &TimeoutError{
		TaskID:   receipt.TaskID,
		Waited:   d.cfg.PollInterval * time.Duration(d.cfg.MaxAttempts),
		Attempts: d.cfg.MaxAttempts,
	})
}

// emitNewItems replays every index the monotonic counter has passed since
// the last poll. No index is skipped or repeated: repeated polls of the
// same state produce nothing, and a jump of n produces n ordered events.
func (d *Driver) emitNewItems(logger log.Logger, hooks Hooks, task *api.Task) {
	if task.ItemProgress == nil {
		return
	}

	stepName := ""
	if task.CurrentStep != nil {
		stepName = *task.CurrentStep
	}

	for idx := d.lastItemIndex + 1; idx <= task.ItemProgress.Current-1; idx++ {
		if hooks.OnItemProcessed != nil {
			hooks.OnItemProcessed(logger, ItemUpdate{
				Index: idx,
				Total: task.ItemProgress.Total,
				Step:  stepName,
			})
		}
		d.lastItemIndex = idx
	}
}

func (d *Driver) fail(logger log.Logger, hooks Hooks, err error) error {
	if hooks.OnError != nil {
		hooks.OnError(logger, err)
	}
	return err
}

func buildResult(task *api.Task, elapsed time.Duration) Result {
	res := Result{
		TaskID:   task.ID,
		Duration: elapsed,
	}
	if task.Result != nil {
		res.ItemsProcessed = task.Result.ItemsProcessed
		res.ItemsCreated = task.Result.ItemsCreated
		res.Errors = task.Result.Errors
		res.ProcessedItems = task.Result.ProcessedItems
	}
	return res
}
