// Package presets registers the built-in ingestion pipelines. Concrete
// data sources (a Gmail fetcher, a bookmark enricher) are injected as
// steps so the pipeline shape and task semantics stay testable without
// network access.
package presets

import (
	"context"
	"fmt"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/pkg/api"
)

// Deps carries the collaborator steps a deployment injects. Any nil step
// is replaced by a pass-through placeholder, which keeps local runs and
// tests working end to end.
type Deps struct {
	// FetchEmails retrieves raw emails into the context items (gmail).
	FetchEmails api.Step
	// Normalize maps raw items into the canonical shape (gmail).
	Normalize api.Step
	// Enrich decorates bookmark items with fetched metadata
	// (bookmarkEnrichment).
	Enrich api.Step
	// Persist writes items to their destination and marks them updated.
	Persist api.Step
}

// Register installs the built-in presets into the registry.
func Register(reg *engine.Registry, deps Deps) {
	reg.MustRegister(engine.Preset{
		Name:       "gmail",
		Build:      gmailPipeline(deps),
		NewContext: contextFromOptions,
	})
	reg.MustRegister(engine.Preset{
		Name:       "bookmarkEnrichment",
		Build:      bookmarkPipeline(deps),
		NewContext: contextFromOptions,
	})
}

func gmailPipeline(deps Deps) func(map[string]any) (*api.Pipeline, error) {
	return func(options map[string]any) (*api.Pipeline, error) {
		return api.NewPipeline([]api.StepDefinition{
			{Step: api.RequireUserStep()},
			{Step: orPassthrough(deps.FetchEmails, "fetchEmails")},
			{Step: orPassthrough(deps.Normalize, "normalizeEmails")},
			{Step: orPassthrough(deps.Persist, "persistEmails")},
		}), nil
	}
}

func bookmarkPipeline(deps Deps) func(map[string]any) (*api.Pipeline, error) {
	return func(options map[string]any) (*api.Pipeline, error) {
		return api.NewPipeline([]api.StepDefinition{
			{Step: api.RequireUserStep()},
			{Step: orPassthrough(deps.Enrich, "enrichBookmarks")},
			{Step: orPassthrough(deps.Persist, "persistBookmarks")},
		}), nil
	}
}

// contextFromOptions seeds the execution context from the submit options:
// "userId" (string) and, optionally, "items" ([]any).
func contextFromOptions(options map[string]any) (*api.Context, error) {
	userID, _ := options["userId"].(string)
	if userID == "" {
		return nil, fmt.Errorf("option %q is required", "userId")
	}

	ec := api.NewContext(userID, nil)
	if raw, ok := options["items"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("option %q must be a list, got %T", "items", raw)
		}
		ec = ec.WithItems(items)
	}
	return ec, nil
}

// orPassthrough substitutes a reporting no-op for a missing collaborator.
func orPassthrough(step api.Step, name string) api.Step {
	if step != nil {
		return step
	}
	return api.NewStep(name, func(ctx context.Context, ec *api.Context) (api.StepResult, error) {
		if len(ec.Items) == 0 {
			return api.NoItemsResult(ec), nil
		}
		if err := api.ReportProgress(ctx, ec, ec.Items, name, nil); err != nil {
			return api.StepResult{}, err
		}
		return api.StepResult{Context: ec, Continue: true}, nil
	})
}
