package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/abeauvois/ingestflow/pkg/api"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	task := api.NewTask("t1", "gmail", "Task queued")
	require.NoError(t, store.CreateTask(ctx, task))

	task.SetRunning("Processing")
	task.SetStep("normalize", 33)
	task.ObserveItem(2, 3)
	require.NoError(t, store.UpdateTask(ctx, task))

	got, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusRunning, got.Status)
	assert.Equal(t, 33, got.Progress)
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, "normalize", *got.CurrentStep)
	require.NotNil(t, got.ItemProgress)
	assert.Equal(t, 2, got.ItemProgress.Current)
	assert.Equal(t, 3, got.ItemProgress.Total)
	assert.Nil(t, got.Result)
}

func TestSQLiteStore_TerminalResultRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	task := api.NewTask("t1", "gmail", "Task queued")
	require.NoError(t, store.CreateTask(ctx, task))

	task.SetRunning("Processing")
	task.Complete("Done", &api.TaskResult{
		ItemsProcessed: 3,
		ItemsCreated:   2,
		Errors:         []string{"item 1: upstream rejected"},
		ProcessedItems: []any{"a", "b", "c"},
	})
	require.NoError(t, store.UpdateTask(ctx, task))

	got, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 3, got.Result.ItemsProcessed)
	assert.Equal(t, 2, got.Result.ItemsCreated)
	assert.Equal(t, []string{"item 1: upstream rejected"}, got.Result.Errors)
	assert.Equal(t, []any{"a", "b", "c"}, got.Result.ProcessedItems)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	_, err := store.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = store.UpdateTask(ctx, api.NewTask("missing", "gmail", ""))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	a := api.NewTask("a", "gmail", "")
	b := api.NewTask("b", "bookmarkEnrichment", "")
	require.NoError(t, store.CreateTask(ctx, a))
	require.NoError(t, store.CreateTask(ctx, b))

	gmail, err := store.ListTasks(ctx, TaskFilter{Preset: "gmail"})
	require.NoError(t, err)
	require.Len(t, gmail, 1)
	assert.Equal(t, "a", gmail[0].ID)

	pending, err := store.ListTasks(ctx, TaskFilter{Status: api.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
