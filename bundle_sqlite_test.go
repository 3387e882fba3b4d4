package ingestflow

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteBundleProcessesTask(t *testing.T) {
	ctx := context.Background()
	bundle, err := NewSQLiteBundle(openTestDB(t), countingRegistry(t))
	require.NoError(t, err)

	receipt, err := bundle.Engine.Submit(ctx, "count", map[string]any{
		"items": []any{"a", "b"},
	})
	require.NoError(t, err)

	processed, err := bundle.Worker.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	task, err := bundle.Engine.GetTask(ctx, receipt.TaskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, 2, task.Result.ItemsProcessed)
}

func TestSQLiteBundleRecoverStuckTasks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	bundle, err := NewSQLiteBundle(db, countingRegistry(t))
	require.NoError(t, err)

	receipt, err := bundle.Engine.Submit(ctx, "count", map[string]any{
		"items": []any{"a"},
	})
	require.NoError(t, err)

	// Simulate a crash mid-run: force the row to running, then "restart".
	_, err = db.ExecContext(ctx, `UPDATE ingest_tasks SET status = 'running' WHERE id = ?`, receipt.TaskID)
	require.NoError(t, err)

	restarted, err := NewSQLiteBundle(db, countingRegistry(t))
	require.NoError(t, err)

	count, err := restarted.Engine.RecoverStuckTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	recovered, err := restarted.Engine.GetTask(ctx, receipt.TaskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, recovered.Status)
	assert.Contains(t, recovered.Message, "interrupted")
}
