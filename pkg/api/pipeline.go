package api

import (
	"context"
	"fmt"
	"time"
)

// Pipeline is an executable, ordered list of steps produced by the builder.
// Steps run strictly in registration order; a step only starts once the
// prior step's result reported Continue true.
type Pipeline struct {
	steps []StepDefinition
}

// NewPipeline creates a pipeline from resolved step definitions.
func NewPipeline(steps []StepDefinition) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the resolved step definitions.
func (p *Pipeline) Steps() []StepDefinition { return p.steps }

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// RunHooks lets the caller observe step boundaries while a pipeline runs.
// Either hook may be nil.
type RunHooks struct {
	OnStepStart func(stepName string, index int)
	OnStepDone  func(stepName string, index int, res StepResult, err error, d time.Duration)
}

// RunOutcome describes how a pipeline run ended without a fatal error.
type RunOutcome struct {
	Context *Context
	Message string
	// Halted is true when a step returned Continue false and the remaining
	// steps were skipped. The run still counts as completed.
	Halted bool
}

// Run executes the pipeline against the given context.
//
// A step error is retried according to the step's policy; an error surviving
// its attempts is fatal and returned to the caller, who converts it into a
// failed task. Per-item failures never surface here, they are reported
// through the context's item callback.
func (p *Pipeline) Run(ctx context.Context, ec *Context, hooks RunHooks) (*RunOutcome, error) {
	current := ec
	message := ""

	for i, def := range p.steps {
		maxAttempts := 1
		var (
			backoff    time.Duration
			maxBackoff time.Duration
			multiplier float64
		)
		if def.Retry != nil {
			if def.Retry.MaxAttempts > 0 {
				maxAttempts = def.Retry.MaxAttempts
			}
			backoff = def.Retry.InitialBackoff
			maxBackoff = def.Retry.MaxBackoff
			multiplier = def.Retry.BackoffMultiplier
			if multiplier <= 0 {
				multiplier = 2.0
			}
		}

		var (
			res     StepResult
			lastErr error
		)

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if hooks.OnStepStart != nil {
				hooks.OnStepStart(def.Step.Name(), i)
			}

			startTime := time.Now()
			res, lastErr = def.Step.Execute(ctx, current)
			duration := time.Since(startTime)

			if hooks.OnStepDone != nil {
				hooks.OnStepDone(def.Step.Name(), i, res, lastErr, duration)
			}

			if lastErr == nil {
				break
			}

			if attempt == maxAttempts {
				return nil, fmt.Errorf("step %q: %w", def.Step.Name(), lastErr)
			}

			if backoff > 0 {
				delay := backoff
				if maxBackoff > 0 && delay > maxBackoff {
					delay = maxBackoff
				}

				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}

				next := time.Duration(float64(backoff) * multiplier)
				if maxBackoff > 0 && next > maxBackoff {
					backoff = maxBackoff
				} else {
					backoff = next
				}
			}
		}

		if res.Context != nil {
			current = res.Context
		}
		message = res.Message

		if !res.Continue {
			return &RunOutcome{Context: current, Message: message, Halted: true}, nil
		}
	}

	return &RunOutcome{Context: current, Message: message}, nil
}
