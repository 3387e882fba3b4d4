package ingestflow

import (
	"context"
	"errors"
	"sync"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/internal/taskqueue"
	"github.com/abeauvois/ingestflow/pkg/client"
	"github.com/abeauvois/ingestflow/pkg/log"
	"github.com/abeauvois/ingestflow/pkg/worker"
)

// LocalRunner bundles an in-memory Engine, an in-memory job queue, and
// workers to provide a simple process-local runtime for development and
// testing.
//
// Typical usage:
//
//	reg := ingestflow.NewRegistry()
//	ingestflow.RegisterBuiltinPresets(reg, deps)
//
//	runner := ingestflow.NewLocalRunner(reg)
//	_ = runner.StartWorkers(ctx, 2)
//	defer runner.Stop()
//
//	res, err := runner.Execute(ctx, "gmail", options, hooks)
type LocalRunner struct {
	// Engine is the in-memory task engine used by this runner.
	Engine *engine.Coordinator

	// Queue is the in-memory job queue the workers consume.
	Queue taskqueue.Queue

	// Worker processes jobs from Queue using Engine.
	Worker *worker.Worker

	// Logger is handed to driver hooks by Execute. Defaults to log.Noop.
	Logger log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewLocalRunner constructs a LocalRunner serving presets from the given
// registry, backed by an in-memory engine and queue.
//
// This is intended for local development, tests, and simple
// single-process deployments.
func NewLocalRunner(reg *Registry) *LocalRunner {
	eng := engine.NewInMemory(reg)
	w := worker.New(eng, eng.Queue())

	return &LocalRunner{
		Engine: eng,
		Queue:  eng.Queue(),
		Worker: w,
		Logger: log.Noop,
	}
}

// StartWorkers starts 'concurrency' worker goroutines that continuously
// process jobs until the context is cancelled via Stop.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (r *LocalRunner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("ingestflow: LocalRunner already started")
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()
			// A failed run is folded into its task; the loop keeps going.
			_ = r.Worker.Run(ctx)
		}()
	}

	return nil
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit.
func (r *LocalRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// SubmitAsync submits a task for the named preset without waiting for it.
// A started worker will pick it up; poll Engine.GetTask to observe it.
func (r *LocalRunner) SubmitAsync(ctx context.Context, preset string, options map[string]any) (*SubmitReceipt, error) {
	return r.Engine.Submit(ctx, preset, options)
}

// Execute submits a task and drives it to a terminal state through the
// polling driver, invoking the given hooks. Workers must already be
// started.
func (r *LocalRunner) Execute(ctx context.Context, preset string, options map[string]any, hooks client.Hooks) (*client.Result, error) {
	d := client.New(r.Engine, client.Config{
		Preset:  preset,
		Options: options,
		Logger:  r.Logger,
	})
	return d.Execute(ctx, hooks)
}
