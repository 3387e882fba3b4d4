package api

import "context"

// ItemProgress is a per-item success/failure notification. It is created
// transiently by ReportProgress and folded into the task's counters; it is
// never persisted on its own.
type ItemProgress struct {
	Item     any
	Index    int
	Total    int
	StepName string
	Success  bool
	Error    string
}

// ItemResult is the per-item outcome a step computes while reporting.
type ItemResult struct {
	Success bool
	Error   string
}

// ItemResultFunc computes the outcome for one item. A nil function means
// every item succeeded.
type ItemResultFunc func(item any, index int) ItemResult

// ReportProgress notifies the context's item callback once per item, in
// order. The callback for item i has returned before item i+1's fires, so
// observers see a deterministic, strictly increasing index sequence per
// step invocation.
//
// If the context has no callback the item results are still computed (a step
// may rely on getItemResult for its own bookkeeping) but nothing is invoked.
// An empty batch performs zero invocations.
func ReportProgress(ctx context.Context, ec *Context, items []any, stepName string, getItemResult ItemResultFunc) error {
	total := len(items)
	for i, item := range items {
		res := ItemResult{Success: true}
		if getItemResult != nil {
			res = getItemResult(item, i)
		}
		if ec.OnItemProcessed == nil {
			continue
		}
		ev := ItemProgress{
			Item:     item,
			Index:    i,
			Total:    total,
			StepName: stepName,
			Success:  res.Success,
			Error:    res.Error,
		}
		if err := ec.OnItemProcessed(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
