// Package ingestflow provides an embeddable execution engine for
// asynchronous data-ingestion pipelines.
//
// Ingestflow is designed for backend services that run batch ingestion
// jobs (fetching emails, enriching bookmarks, syncing feeds) as durable,
// pollable tasks. It runs fully in Go, persists task state in memory or
// SQLite, and integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Engine
//  2. Worker
//  3. PipelineBuilder
//  4. Step
//  5. Driver
//  6. LocalRunner
//
// # Engine
//
// The Engine holds the preset catalog, persists task state, and provides
// APIs to:
//   - submit tasks for a named preset
//   - read task state by ID
//   - list tasks
//   - recover tasks interrupted by a crash
//
// Engines can be backed by an in-memory store (non-durable, best for
// tests) or SQLite (embedded durability). Each backend includes a
// matching job queue implementation so workers can reliably claim work.
//
// # Worker
//
// A Worker claims jobs from a queue and drives the corresponding task
// through its pipeline to a terminal state. Workers run as background
// goroutines and can be scaled within a process.
//
// # PipelineBuilder
//
// PipelineBuilder is the declarative API used to assemble pipelines:
//
//	p, err := ingestflow.NewBuilder().
//	    Add(fetchStep).
//	    When(cfg.EnrichEnabled, func(b *ingestflow.PipelineBuilder) {
//	        b.Add(enrichStep)
//	    }).
//	    Add(persistStep).
//	    WithRetry(ingestflow.Retry(3).
//	        WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second).
//	        Policy()).
//	    Build()
//
// Steps run strictly in registration order; a step returning a result
// with Continue false short-circuits the rest of the pipeline.
//
// # Step
//
// A Step is the fundamental unit of work:
//
//	type Step interface {
//	    Name() string
//	    Execute(ctx context.Context, ec *Context) (StepResult, error)
//	}
//
// Steps never mutate the context's items in place; a step that changes
// items returns a new Context. Expected per-item failures are reported
// through the progress callback, not as errors; an error return is fatal
// to the run.
//
// # Driver
//
// The client driver (pkg/client) submits a task and polls it to a
// terminal state, replaying per-item progress to lifecycle hooks exactly
// once per item. It works against an in-process Engine or a remote HTTP
// server interchangeably.
//
// # LocalRunner
//
// LocalRunner bundles an in-memory engine, queue, and workers into a
// single process-local helper for development and unit testing. It is
// intentionally not crash-durable.
//
// For examples, see the /examples directory or the project README.
package ingestflow
