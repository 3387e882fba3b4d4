package ingestflow

import (
	"context"
	"database/sql"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/internal/presets"
	"github.com/abeauvois/ingestflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	Context              = api.Context
	Step                 = api.Step
	StepFunc             = api.StepFunc
	StepResult           = api.StepResult
	StepDefinition       = api.StepDefinition
	Pipeline             = api.Pipeline
	Task                 = api.Task
	TaskResult           = api.TaskResult
	TaskListOptions      = api.TaskListOptions
	SubmitReceipt        = api.SubmitReceipt
	Status               = api.Status
	ItemProgress         = api.ItemProgress
	ItemResult           = api.ItemResult
	ItemCallback         = api.ItemCallback
	RetryPolicy          = api.RetryPolicy
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export the preset catalog types so external callers never import
// internal packages.

type (
	Registry   = engine.Registry
	Preset     = engine.Preset
	PresetDeps = presets.Deps
)

// Re-export common constructors and helpers.

var (
	NewContext           = api.NewContext
	NewStep              = api.NewStep
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	NewRegistry          = engine.NewRegistry
)

// Re-export status values for convenience.

const (
	StatusPending   = api.StatusPending
	StatusRunning   = api.StatusRunning
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory store
// and queue, serving presets from the given registry.
func NewInMemoryEngine(reg *Registry) *engine.Coordinator {
	return engine.NewInMemory(reg)
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(reg *Registry, obs Observer) *engine.Coordinator {
	return engine.NewInMemoryWithObserver(reg, obs)
}

// NewSQLiteEngine returns an Engine that persists tasks and queued jobs
// in a SQLite database. The preset catalog is kept in-memory.
func NewSQLiteEngine(db *sql.DB, reg *Registry) (*engine.Coordinator, error) {
	return engine.NewSQLite(db, reg)
}

// RegisterBuiltinPresets installs the built-in "gmail" and
// "bookmarkEnrichment" presets into the registry, with the given
// collaborator steps injected.
func RegisterBuiltinPresets(reg *Registry, deps PresetDeps) {
	presets.Register(reg, deps)
}

// Convenience helpers that just forward to the underlying Engine.

// Submit submits a task for the named preset.
func Submit(ctx context.Context, eng Engine, preset string, options map[string]any) (*SubmitReceipt, error) {
	return eng.Submit(ctx, preset, options)
}

// GetTask fetches a task by ID.
func GetTask(ctx context.Context, eng Engine, id string) (*Task, error) {
	return eng.GetTask(ctx, id)
}

// ListTasks lists tasks according to the given options.
func ListTasks(ctx context.Context, eng Engine, opts TaskListOptions) ([]*Task, error) {
	return eng.ListTasks(ctx, opts)
}

// RecoverStuckTasks delegates to eng.RecoverStuckTasks.
//
// It is typically called on process startup before starting any workers:
//
//	count, err := ingestflow.RecoverStuckTasks(ctx, engine)
func RecoverStuckTasks(ctx context.Context, eng Engine) (int, error) {
	return eng.RecoverStuckTasks(ctx)
}
