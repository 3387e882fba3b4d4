package ingestflow_test

import (
	"context"
	"fmt"
	stdlog "log"
	"strings"

	"github.com/abeauvois/ingestflow"
	"github.com/abeauvois/ingestflow/pkg/client"
	"github.com/abeauvois/ingestflow/pkg/log"
)

// Example_pipelineBuilder demonstrates assembling a pipeline with the
// builder API and running it in-process, without an engine.
func Example_pipelineBuilder() {
	ctx := context.Background()

	pipeline := ingestflow.NewBuilder().
		Add(ingestflow.TransformStep("upcase", func(ctx context.Context, item any) (any, error) {
			return strings.ToUpper(item.(string)), nil
		})).
		Add(ingestflow.FilterStep("dropShort", func(item any) bool {
			return len(item.(string)) > 2
		})).
		MustBuild()

	ec := ingestflow.NewContext("user-1", nil).WithItems([]any{"ok", "hello", "go"})

	outcome, err := ingestflow.RunPipeline(ctx, pipeline, ec)
	if err != nil {
		stdlog.Fatal(err)
	}

	fmt.Println(outcome.Context.Items)
	// Output: [HELLO]
}

// Example_localRunner demonstrates the full loop: submit a task, let a
// worker run the pipeline, and watch it through the polling driver.
func Example_localRunner() {
	ctx := context.Background()

	reg := ingestflow.NewRegistry()
	reg.MustRegister(ingestflow.Preset{
		Name: "upcase",
		Build: func(options map[string]any) (*ingestflow.Pipeline, error) {
			return ingestflow.NewBuilder().
				Add(ingestflow.TransformStep("upcase", func(ctx context.Context, item any) (any, error) {
					return strings.ToUpper(item.(string)), nil
				})).
				Build()
		},
		NewContext: func(options map[string]any) (*ingestflow.Context, error) {
			items, _ := options["items"].([]any)
			return ingestflow.NewContext("user-1", nil).WithItems(items), nil
		},
	})

	runner := ingestflow.NewLocalRunner(reg)
	if err := runner.StartWorkers(ctx, 1); err != nil {
		stdlog.Fatal(err)
	}
	defer runner.Stop()

	res, err := runner.Execute(ctx, "upcase", map[string]any{
		"items": []any{"a", "b", "c"},
	}, client.Hooks{
		OnItemProcessed: func(_ log.Logger, u client.ItemUpdate) {
			fmt.Printf("item %d/%d\n", u.Index+1, u.Total)
		},
	})
	if err != nil {
		stdlog.Fatal(err)
	}

	fmt.Printf("processed %d items\n", res.ItemsProcessed)
	// Output:
	// item 1/3
	// item 2/3
	// item 3/3
	// processed 3 items
}
