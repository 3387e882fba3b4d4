package ingestflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// PipelineBuilder provides a fluent API for assembling pipelines:
//
//	p, err := ingestflow.NewBuilder().
//	    Add(fetchEmails).
//	    AddFunc("normalize", normalize).
//	    When(cfg.EnrichEnabled, func(b *ingestflow.PipelineBuilder) {
//	        b.Add(enrich)
//	    }).
//	    Add(persist).
//	    WithRetry(ingestflow.Retry(3).WithConstantBackoff(time.Second).Policy()).
//	    Build()
//
// Steps execute strictly in registration order; a step starts only after
// the previous step's result reported Continue true.
type PipelineBuilder struct {
	entries []builderEntry
}

// builderEntry is either a single step or a conditional group whose
// condition is resolved exactly once, at Build time.
type builderEntry struct {
	step  *api.StepDefinition
	cond  func() bool
	group []builderEntry
}

// NewBuilder creates an empty PipelineBuilder.
func NewBuilder() *PipelineBuilder {
	return &PipelineBuilder{}
}

// Add appends a step unconditionally.
func (b *PipelineBuilder) Add(step Step) *PipelineBuilder {
	if step == nil {
		panic("ingestflow: Add called with nil step")
	}
	if step.Name() == "" {
		panic("ingestflow: step name must not be empty")
	}
	b.entries = append(b.entries, builderEntry{
		step: &api.StepDefinition{Step: step},
	})
	return b
}

// AddFunc appends a step built from a name and a function.
func (b *PipelineBuilder) AddFunc(name string, fn StepFunc) *PipelineBuilder {
	if fn == nil {
		panic(fmt.Sprintf("ingestflow: step %q has nil function", name))
	}
	return b.Add(api.NewStep(name, fn))
}

// When includes the steps added by configure only if cond is true.
// The decision is made when Build runs, never per item.
func (b *PipelineBuilder) When(cond bool, configure func(*PipelineBuilder)) *PipelineBuilder {
	return b.WhenFunc(func() bool { return cond }, configure)
}

// WhenFunc is like When with a condition evaluated exactly once at Build
// time. Useful when the decision depends on state not known while the
// chain is being written.
func (b *PipelineBuilder) WhenFunc(cond func() bool, configure func(*PipelineBuilder)) *PipelineBuilder {
	if cond == nil {
		panic("ingestflow: WhenFunc called with nil condition")
	}
	if configure == nil {
		panic("ingestflow: WhenFunc called with nil configure")
	}

	sub := NewBuilder()
	configure(sub)
	b.entries = append(b.entries, builderEntry{
		cond:  cond,
		group: sub.entries,
	})
	return b
}

// WithRetry attaches a retry policy to the immediately preceding step.
// A step whose Execute returns an error is re-invoked up to
// policy.MaxAttempts times with backoff before the error becomes fatal
// to the run.
func (b *PipelineBuilder) WithRetry(policy RetryPolicy) *PipelineBuilder {
	last := b.lastStep()
	if last == nil {
		panic("ingestflow: WithRetry must follow Add or AddFunc")
	}
	p := policy
	last.Retry = &p
	return b
}

func (b *PipelineBuilder) lastStep() *api.StepDefinition {
	if len(b.entries) == 0 {
		return nil
	}
	e := &b.entries[len(b.entries)-1]
	if e.step == nil {
		// The tail of a conditional group is not "the preceding step":
		// retry inside a group must be attached inside its configure func.
		return nil
	}
	return e.step
}

// Build resolves all conditions and returns the executable pipeline.
// Each WhenFunc condition is called exactly once per Build.
func (b *PipelineBuilder) Build() (*Pipeline, error) {
	steps := flatten(b.entries)
	if len(steps) == 0 {
		return nil, errors.New("ingestflow: pipeline has no steps")
	}
	return api.NewPipeline(steps), nil
}

// MustBuild is like Build but panics on error. Useful for initialization
// in main().
func (b *PipelineBuilder) MustBuild() *Pipeline {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

func flatten(entries []builderEntry) []api.StepDefinition {
	var steps []api.StepDefinition
	for _, e := range entries {
		if e.step != nil {
			steps = append(steps, *e.step)
			continue
		}
		if e.cond() {
			steps = append(steps, flatten(e.group)...)
		}
	}
	return steps
}

// RunPipeline executes a built pipeline synchronously against the given
// context, without an engine or task involved. Intended for tests and
// simple in-process use.
func RunPipeline(ctx context.Context, p *Pipeline, ec *Context) (*api.RunOutcome, error) {
	return p.Run(ctx, ec, api.RunHooks{})
}
