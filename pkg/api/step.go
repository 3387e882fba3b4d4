package api

import (
	"context"
	"time"
)

// NoItemsMessage is the conventional message a step reports when it is
// invoked with an empty item batch.
const NoItemsMessage = "No items to process"

// Step is a named unit of pipeline work.
//
// Contract:
//   - Execute must be safe to call with an empty Items batch; by convention
//     it returns the context unchanged, Continue true and NoItemsMessage.
//   - Expected domain failures are reported per item through ReportProgress
//     with Success false; they never abort the run. A returned error is
//     reserved for failures that make the whole run meaningless and converts
//     the task to failed.
//   - Continue false stops the pipeline after this step; Message becomes the
//     run's final status text.
type Step interface {
	Name() string
	Execute(ctx context.Context, ec *Context) (StepResult, error)
}

// StepResult is what a step hands back to the pipeline.
type StepResult struct {
	Context  *Context
	Continue bool
	Message  string
}

// NoItemsResult is the conventional result for an empty batch.
func NoItemsResult(ec *Context) StepResult {
	return StepResult{Context: ec, Continue: true, Message: NoItemsMessage}
}

// StepFunc is the function form of a step body.
type StepFunc func(ctx context.Context, ec *Context) (StepResult, error)

type funcStep struct {
	name string
	fn   StepFunc
}

// NewStep wraps a plain function into a named Step.
func NewStep(name string, fn StepFunc) Step {
	return &funcStep{name: name, fn: fn}
}

func (s *funcStep) Name() string { return s.name }

func (s *funcStep) Execute(ctx context.Context, ec *Context) (StepResult, error) {
	return s.fn(ctx, ec)
}

// RetryPolicy controls how a step is retried when it returns an error.
// MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
//
// InitialBackoff is the delay before the first retry; each subsequent retry
// multiplies the delay by BackoffMultiplier (default 2.0) up to MaxBackoff
// (0 means no cap). A zero InitialBackoff retries immediately.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// StepDefinition pairs a step with its optional retry policy.
type StepDefinition struct {
	Step  Step
	Retry *RetryPolicy
}
