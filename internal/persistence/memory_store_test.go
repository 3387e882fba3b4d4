package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeauvois/ingestflow/pkg/api"
)

func TestInMemoryStore_CreateGetUpdate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	task := api.NewTask("t1", "gmail", "Task queued")
	require.NoError(t, store.CreateTask(ctx, task))

	got, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusPending, got.Status)
	assert.Equal(t, "gmail", got.Preset)

	task.SetRunning("Processing")
	task.SetStep("fetch", 0)
	require.NoError(t, store.UpdateTask(ctx, task))

	got, err = store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusRunning, got.Status)
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, "fetch", *got.CurrentStep)
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	task := api.NewTask("t1", "gmail", "Task queued")
	task.SetRunning("Processing")
	task.ObserveItem(1, 3)
	require.NoError(t, store.CreateTask(ctx, task))

	a, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	a.ItemProgress.Current = 99

	b, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.ItemProgress.Current, "reader mutation must not leak into the store")
}

func TestInMemoryStore_NotFound(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = store.UpdateTask(ctx, api.NewTask("missing", "gmail", ""))
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestInMemoryStore_ListFilters(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	a := api.NewTask("a", "gmail", "")
	b := api.NewTask("b", "bookmarkEnrichment", "")
	c := api.NewTask("c", "gmail", "")
	c.SetRunning("go")
	c.Fail("boom")

	for _, task := range []*api.Task{a, b, c} {
		require.NoError(t, store.CreateTask(ctx, task))
	}

	all, err := store.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	gmail, err := store.ListTasks(ctx, TaskFilter{Preset: "gmail"})
	require.NoError(t, err)
	assert.Len(t, gmail, 2)

	failed, err := store.ListTasks(ctx, TaskFilter{Status: api.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)
}
