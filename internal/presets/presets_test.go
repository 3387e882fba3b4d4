package presets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/pkg/api"
	"github.com/abeauvois/ingestflow/pkg/worker"
)

func runToCompletion(t *testing.T, coord *engine.Coordinator, preset string, options map[string]any) *api.Task {
	t.Helper()
	ctx := context.Background()

	receipt, err := coord.Submit(ctx, preset, options)
	require.NoError(t, err)

	// A run error is already folded into the task row; assertions below
	// inspect the task itself.
	processed, _ := worker.New(coord, coord.Queue()).ProcessOne(ctx)
	require.True(t, processed)

	task, err := coord.GetTask(ctx, receipt.TaskID)
	require.NoError(t, err)
	return task
}

func TestRegisterInstallsBothPresets(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, Deps{})
	assert.Equal(t, []string{"bookmarkEnrichment", "gmail"}, reg.Names())
}

func TestGmailPresetRunsWithSeededItems(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, Deps{})
	coord := engine.NewInMemory(reg)

	task := runToCompletion(t, coord, "gmail", map[string]any{
		"userId": "u1",
		"items":  []any{"msg-1", "msg-2", "msg-3"},
	})

	assert.Equal(t, api.StatusCompleted, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, 3, task.Result.ItemsProcessed)
}

func TestGmailPresetWithoutItemsCompletesCleanly(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, Deps{})
	coord := engine.NewInMemory(reg)

	task := runToCompletion(t, coord, "gmail", map[string]any{"userId": "u1"})

	assert.Equal(t, api.StatusCompleted, task.Status)
	assert.Equal(t, api.NoItemsMessage, task.Message)
	require.NotNil(t, task.Result)
	assert.Zero(t, task.Result.ItemsProcessed)
}

func TestMissingUserIDFailsTask(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, Deps{})
	coord := engine.NewInMemory(reg)

	task := runToCompletion(t, coord, "bookmarkEnrichment", map[string]any{})

	assert.Equal(t, api.StatusFailed, task.Status)
	assert.Contains(t, task.Message, "userId")
}

func TestInjectedStepReplacesPlaceholder(t *testing.T) {
	fetched := api.NewStep("fetchEmails", func(ctx context.Context, ec *api.Context) (api.StepResult, error) {
		next := ec.WithItems([]any{"fetched-1", "fetched-2"})
		if err := api.ReportProgress(ctx, next, next.Items, "fetchEmails", nil); err != nil {
			return api.StepResult{}, err
		}
		return api.StepResult{Context: next, Continue: true}, nil
	})

	reg := engine.NewRegistry()
	Register(reg, Deps{FetchEmails: fetched})
	coord := engine.NewInMemory(reg)

	task := runToCompletion(t, coord, "gmail", map[string]any{"userId": "u1"})

	assert.Equal(t, api.StatusCompleted, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, 2, task.Result.ItemsProcessed)
	assert.Len(t, task.Result.ProcessedItems, 2)
}

func TestBookmarkEnrichmentMarksUpdated(t *testing.T) {
	persist := api.MarkUpdatedStep("persistBookmarks", func(item any) string {
		s, _ := item.(string)
		return s
	})

	reg := engine.NewRegistry()
	Register(reg, Deps{Persist: persist})
	coord := engine.NewInMemory(reg)

	task := runToCompletion(t, coord, "bookmarkEnrichment", map[string]any{
		"userId": "u1",
		"items":  []any{"bm-1", "bm-2"},
	})

	assert.Equal(t, api.StatusCompleted, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, 2, task.Result.ItemsCreated)
}
