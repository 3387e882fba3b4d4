package ingestflow

import (
	"context"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// NoItemsMessage is the conventional short-circuit message for an empty
// batch.
const NoItemsMessage = api.NoItemsMessage

// NoItemsResult returns the conventional result for a step invoked with
// no items: context unchanged, Continue true, NoItemsMessage.
func NoItemsResult(ec *Context) StepResult {
	return api.NoItemsResult(ec)
}

// ReportProgress notifies the context's item callback once per item, in
// order. See api.ReportProgress.
func ReportProgress(ctx context.Context, ec *Context, items []any, stepName string, getItemResult api.ItemResultFunc) error {
	return api.ReportProgress(ctx, ec, items, stepName, getItemResult)
}

// TransformStep maps fn over every item and reports one item event per
// item; a failed item is kept unchanged and reported with Success false.
func TransformStep(name string, fn func(ctx context.Context, item any) (any, error)) Step {
	return api.TransformStep(name, fn)
}

// FilterStep keeps only the items matching pred.
func FilterStep(name string, pred func(item any) bool) Step {
	return api.FilterStep(name, pred)
}

// GuardStep stops the pipeline with the given message when check fails.
func GuardStep(name string, check func(ec *Context) (ok bool, message string)) Step {
	return api.GuardStep(name, check)
}

// RequireUserStep is a guard that halts runs submitted without an owner.
func RequireUserStep() Step {
	return api.RequireUserStep()
}

// MarkUpdatedStep records each item's identifier in the context's updated
// set and reports one successful item event per item.
func MarkUpdatedStep(name string, idFn func(item any) string) Step {
	return api.MarkUpdatedStep(name, idFn)
}
