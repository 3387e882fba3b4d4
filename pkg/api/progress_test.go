package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportProgress_EmitsOncePerItemInOrder(t *testing.T) {
	items := []any{"a", "b", "c", "d"}

	var events []ItemProgress
	ec := NewContext("user-1", items).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		events = append(events, ev)
		return nil
	})

	err := ReportProgress(context.Background(), ec, items, "normalize", nil)
	require.NoError(t, err)

	require.Len(t, events, len(items))
	for i, ev := range events {
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, len(items), ev.Total)
		assert.Equal(t, "normalize", ev.StepName)
		assert.True(t, ev.Success)
		assert.Equal(t, items[i], ev.Item)
	}
}

func TestReportProgress_EmptyItems(t *testing.T) {
	calls := 0
	ec := NewContext("user-1", nil).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		calls++
		return nil
	})

	err := ReportProgress(context.Background(), ec, nil, "normalize", nil)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestReportProgress_NoCallbackIsNoop(t *testing.T) {
	items := []any{1, 2, 3}
	ec := NewContext("user-1", items)

	computed := 0
	err := ReportProgress(context.Background(), ec, items, "enrich", func(item any, index int) ItemResult {
		computed++
		return ItemResult{Success: true}
	})
	require.NoError(t, err)

	// Results are still computed even when nobody listens.
	assert.Equal(t, len(items), computed)
}

func TestReportProgress_PerItemFailure(t *testing.T) {
	items := []any{"ok", "bad", "ok"}

	var events []ItemProgress
	ec := NewContext("user-1", items).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		events = append(events, ev)
		return nil
	})

	err := ReportProgress(context.Background(), ec, items, "enrich", func(item any, index int) ItemResult {
		if item == "bad" {
			return ItemResult{Success: false, Error: "upstream rejected item"}
		}
		return ItemResult{Success: true}
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.True(t, events[0].Success)
	assert.False(t, events[1].Success)
	assert.Equal(t, "upstream rejected item", events[1].Error)
	assert.True(t, events[2].Success)
}

func TestReportProgress_CallbackErrorStops(t *testing.T) {
	items := []any{"a", "b", "c"}
	boom := errors.New("sink unavailable")

	calls := 0
	ec := NewContext("user-1", items).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		calls++
		if ev.Index == 1 {
			return boom
		}
		return nil
	})

	err := ReportProgress(context.Background(), ec, items, "persist", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
