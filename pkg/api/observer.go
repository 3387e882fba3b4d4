package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay task execution.
type Observer interface {
	// OnTaskStart is called once when a worker begins executing a task,
	// before the first step runs.
	OnTaskStart(ctx context.Context, t *Task)

	// OnTaskCompleted is called when a task reaches StatusCompleted.
	OnTaskCompleted(ctx context.Context, t *Task)

	// OnTaskFailed is called when a task transitions to StatusFailed.
	OnTaskFailed(ctx context.Context, t *Task, err error)

	// OnStepStart is called before invoking a step.
	// stepIndex is the 0-based index into the pipeline's steps.
	OnStepStart(ctx context.Context, t *Task, stepName string, stepIndex int)

	// OnStepCompleted is called after a step returns, for both successes
	// and failures (err != nil).
	OnStepCompleted(ctx context.Context, t *Task, stepName string, stepIndex int, err error, duration time.Duration)

	// OnItemProcessed is called for every item event folded into the task.
	OnItemProcessed(ctx context.Context, t *Task, ev ItemProgress)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnTaskStart(ctx context.Context, t *Task)             {}
func (NoopObserver) OnTaskCompleted(ctx context.Context, t *Task)         {}
func (NoopObserver) OnTaskFailed(ctx context.Context, t *Task, err error) {}
func (NoopObserver) OnStepStart(ctx context.Context, t *Task, stepName string, idx int) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, t *Task, s string, idx int, err error, d time.Duration) {
}
func (NoopObserver) OnItemProcessed(ctx context.Context, t *Task, ev ItemProgress) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnTaskStart(ctx context.Context, t *Task) {
	for _, o := range c.observers {
		o.OnTaskStart(ctx, t)
	}
}

func (c *CompositeObserver) OnTaskCompleted(ctx context.Context, t *Task) {
	for _, o := range c.observers {
		o.OnTaskCompleted(ctx, t)
	}
}

func (c *CompositeObserver) OnTaskFailed(ctx context.Context, t *Task, err error) {
	for _, o := range c.observers {
		o.OnTaskFailed(ctx, t, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, t *Task, stepName string, idx int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, t, stepName, idx)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, t *Task, stepName string, idx int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, t, stepName, idx, err, d)
	}
}

func (c *CompositeObserver) OnItemProcessed(ctx context.Context, t *Task, ev ItemProgress) {
	for _, o := range c.observers {
		o.OnItemProcessed(ctx, t, ev)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs task / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnTaskStart(ctx context.Context, t *Task) {
	o.Logger.InfoContext(ctx, "task_start",
		slog.String("preset", t.Preset),
		slog.String("task_id", t.ID),
	)
}

func (o *LoggingObserver) OnTaskCompleted(ctx context.Context, t *Task) {
	o.Logger.InfoContext(ctx, "task_completed",
		slog.String("preset", t.Preset),
		slog.String("task_id", t.ID),
		slog.String("message", t.Message),
	)
}

func (o *LoggingObserver) OnTaskFailed(ctx context.Context, t *Task, err error) {
	o.Logger.ErrorContext(ctx, "task_failed",
		slog.String("preset", t.Preset),
		slog.String("task_id", t.ID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, t *Task, stepName string, idx int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("preset", t.Preset),
		slog.String("task_id", t.ID),
		slog.String("step", stepName),
		slog.Int("step_index", idx),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, t *Task, stepName string, idx int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("preset", t.Preset),
		slog.String("task_id", t.ID),
		slog.String("step", stepName),
		slog.Int("step_index", idx),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnItemProcessed(ctx context.Context, t *Task, ev ItemProgress) {
	o.Logger.DebugContext(ctx, "item_processed",
		slog.String("task_id", t.ID),
		slog.String("step", ev.StepName),
		slog.Int("index", ev.Index),
		slog.Int("total", ev.Total),
		slog.Bool("success", ev.Success),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	tasksStarted      atomic.Int64
	tasksCompleted    atomic.Int64
	tasksFailed       atomic.Int64
	stepsCompleted    atomic.Int64
	itemsProcessed    atomic.Int64
	itemsFailed       atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	TasksStarted   int64
	TasksCompleted int64
	TasksFailed    int64
	PendingTasks   int64

	StepsCompleted  int64
	ItemsProcessed  int64
	ItemsFailed     int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnTaskStart(ctx context.Context, t *Task) {
	m.tasksStarted.Add(1)
}

func (m *BasicMetrics) OnTaskCompleted(ctx context.Context, t *Task) {
	m.tasksCompleted.Add(1)
}

func (m *BasicMetrics) OnTaskFailed(ctx context.Context, t *Task, err error) {
	m.tasksFailed.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, t *Task, stepName string, idx int, err error, d time.Duration) {
	// Only count successful steps for average duration.
	if err == nil {
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

func (m *BasicMetrics) OnItemProcessed(ctx context.Context, t *Task, ev ItemProgress) {
	m.itemsProcessed.Add(1)
	if !ev.Success {
		m.itemsFailed.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.tasksStarted.Load()
	completed := m.tasksCompleted.Load()
	failed := m.tasksFailed.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		TasksStarted:    started,
		TasksCompleted:  completed,
		TasksFailed:     failed,
		PendingTasks:    started - completed - failed,
		StepsCompleted:  steps,
		ItemsProcessed:  m.itemsProcessed.Load(),
		ItemsFailed:     m.itemsFailed.Load(),
		AvgStepDuration: avg,
	}
}
