package ingestflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/pkg/client"
	"github.com/abeauvois/ingestflow/pkg/log"
)

func countingRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(engine.Preset{
		Name: "count",
		Build: func(options map[string]any) (*Pipeline, error) {
			return NewBuilder().
				Add(TransformStep("count", func(ctx context.Context, item any) (any, error) {
					return item, nil
				})).
				Build()
		},
		NewContext: func(options map[string]any) (*Context, error) {
			items, _ := options["items"].([]any)
			return NewContext("u1", nil).WithItems(items), nil
		},
	})
	return reg
}

func TestLocalRunnerExecutesTaskEndToEnd(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(countingRegistry(t))

	require.NoError(t, runner.StartWorkers(ctx, 2))
	defer runner.Stop()

	var seen []client.ItemUpdate
	res, err := runner.Execute(ctx, "count", map[string]any{
		"items": []any{"a", "b", "c"},
	}, client.Hooks{
		OnItemProcessed: func(_ log.Logger, u client.ItemUpdate) {
			seen = append(seen, u)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, res.ItemsProcessed)
	require.Len(t, seen, 3)
	for i, u := range seen {
		assert.Equal(t, i, u.Index)
		assert.Equal(t, 3, u.Total)
	}
}

func TestLocalRunnerSubmitAsync(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(countingRegistry(t))

	require.NoError(t, runner.StartWorkers(ctx, 1))
	defer runner.Stop()

	receipt, err := runner.SubmitAsync(ctx, "count", map[string]any{
		"items": []any{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, receipt.Status)

	require.Eventually(t, func() bool {
		task, err := runner.Engine.GetTask(ctx, receipt.TaskID)
		return err == nil && task.Status == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLocalRunnerDoubleStartReturnsError(t *testing.T) {
	ctx := context.Background()
	runner := NewLocalRunner(countingRegistry(t))

	require.NoError(t, runner.StartWorkers(ctx, 1))
	defer runner.Stop()

	assert.Error(t, runner.StartWorkers(ctx, 1))
}

func TestLocalRunnerStopIsIdempotent(t *testing.T) {
	runner := NewLocalRunner(countingRegistry(t))
	require.NoError(t, runner.StartWorkers(context.Background(), 1))
	runner.Stop()
	runner.Stop()
}
