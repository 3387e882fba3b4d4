package api

import (
	"context"
	"fmt"
)

// TransformStep returns a step that maps fn over every item and reports one
// item event per item. An item whose fn fails is kept unchanged and reported
// with Success false; the run continues. Only an error from the context's
// item callback itself is fatal.
func TransformStep(name string, fn func(ctx context.Context, item any) (any, error)) Step {
	return NewStep(name, func(ctx context.Context, ec *Context) (StepResult, error) {
		if len(ec.Items) == 0 {
			return NoItemsResult(ec), nil
		}

		next := make([]any, len(ec.Items))
		results := make([]ItemResult, len(ec.Items))
		for i, item := range ec.Items {
			out, err := fn(ctx, item)
			if err != nil {
				next[i] = item
				results[i] = ItemResult{Success: false, Error: err.Error()}
				continue
			}
			next[i] = out
			results[i] = ItemResult{Success: true}
		}

		if err := ReportProgress(ctx, ec, next, name, func(item any, index int) ItemResult {
			return results[index]
		}); err != nil {
			return StepResult{}, err
		}

		return StepResult{
			Context:  ec.WithItems(next),
			Continue: true,
			Message:  fmt.Sprintf("Processed %d items", len(next)),
		}, nil
	})
}

// FilterStep returns a step that keeps only the items matching pred.
// It reports no item events; filtering is bookkeeping, not processing.
func FilterStep(name string, pred func(item any) bool) Step {
	return NewStep(name, func(ctx context.Context, ec *Context) (StepResult, error) {
		if len(ec.Items) == 0 {
			return NoItemsResult(ec), nil
		}

		kept := make([]any, 0, len(ec.Items))
		for _, item := range ec.Items {
			if pred(item) {
				kept = append(kept, item)
			}
		}

		return StepResult{
			Context:  ec.WithItems(kept),
			Continue: true,
			Message:  fmt.Sprintf("Kept %d of %d items", len(kept), len(ec.Items)),
		}, nil
	})
}

// GuardStep returns a step that stops the pipeline with the given message
// when check fails. Used for preconditions that make further processing
// meaningless, such as a missing user on the context.
func GuardStep(name string, check func(ec *Context) (ok bool, message string)) Step {
	return NewStep(name, func(ctx context.Context, ec *Context) (StepResult, error) {
		if ok, message := check(ec); !ok {
			return StepResult{Context: ec, Continue: false, Message: message}, nil
		}
		return StepResult{Context: ec, Continue: true, Message: name + " passed"}, nil
	})
}

// RequireUserStep is a guard that halts runs submitted without an owner.
func RequireUserStep() Step {
	return GuardStep("requireUser", func(ec *Context) (bool, string) {
		if ec.UserID == "" {
			return false, "No user on context"
		}
		return true, ""
	})
}

// MarkUpdatedStep returns a step that records each item's identifier in the
// context's updated set and reports one successful item event per item.
// Items without an identifier (idFn returns "") are skipped silently.
func MarkUpdatedStep(name string, idFn func(item any) string) Step {
	return NewStep(name, func(ctx context.Context, ec *Context) (StepResult, error) {
		if len(ec.Items) == 0 {
			return NoItemsResult(ec), nil
		}

		ids := make([]string, 0, len(ec.Items))
		for _, item := range ec.Items {
			if id := idFn(item); id != "" {
				ids = append(ids, id)
			}
		}

		if err := ReportProgress(ctx, ec, ec.Items, name, nil); err != nil {
			return StepResult{}, err
		}

		return StepResult{
			Context:  ec.WithUpdatedIDs(ids...),
			Continue: true,
			Message:  fmt.Sprintf("Marked %d items updated", len(ids)),
		}, nil
	})
}
