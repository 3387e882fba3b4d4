package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformStep_MapsItemsAndReports(t *testing.T) {
	var events []ItemProgress
	ec := NewContext("u", []any{"a", "b"}).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		events = append(events, ev)
		return nil
	})

	step := TransformStep("upper", func(ctx context.Context, item any) (any, error) {
		return strings.ToUpper(item.(string)), nil
	})

	res, err := step.Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, res.Continue)
	assert.Equal(t, []any{"A", "B"}, res.Context.Items)
	assert.Len(t, events, 2)
	// Original context untouched.
	assert.Equal(t, []any{"a", "b"}, ec.Items)
}

func TestTransformStep_PerItemFailureDoesNotAbort(t *testing.T) {
	var events []ItemProgress
	ec := NewContext("u", []any{"ok", "bad"}).WithCallback(func(ctx context.Context, ev ItemProgress) error {
		events = append(events, ev)
		return nil
	})

	step := TransformStep("enrich", func(ctx context.Context, item any) (any, error) {
		if item == "bad" {
			return nil, errors.New("model refused")
		}
		return item, nil
	})

	res, err := step.Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, res.Continue)
	// Failed item is carried through unchanged.
	assert.Equal(t, []any{"ok", "bad"}, res.Context.Items)
	require.Len(t, events, 2)
	assert.True(t, events[0].Success)
	assert.False(t, events[1].Success)
	assert.Equal(t, "model refused", events[1].Error)
}

func TestTransformStep_EmptyItems(t *testing.T) {
	ec := NewContext("u", nil)
	step := TransformStep("noop", func(ctx context.Context, item any) (any, error) {
		t.Fatal("must not be called")
		return nil, nil
	})

	res, err := step.Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, res.Continue)
	assert.Equal(t, NoItemsMessage, res.Message)
	assert.Same(t, ec, res.Context)
}

func TestFilterStep(t *testing.T) {
	ec := NewContext("u", []any{1, 2, 3, 4})
	step := FilterStep("evens", func(item any) bool { return item.(int)%2 == 0 })

	res, err := step.Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4}, res.Context.Items)
	assert.Equal(t, "Kept 2 of 4 items", res.Message)
}

func TestRequireUserStep(t *testing.T) {
	step := RequireUserStep()

	res, err := step.Execute(context.Background(), NewContext("", []any{"a"}))
	require.NoError(t, err)
	assert.False(t, res.Continue)
	assert.Equal(t, "No user on context", res.Message)

	res, err = step.Execute(context.Background(), NewContext("user-1", []any{"a"}))
	require.NoError(t, err)
	assert.True(t, res.Continue)
}

func TestMarkUpdatedStep(t *testing.T) {
	type mail struct{ ID string }

	var events []ItemProgress
	ec := NewContext("u", []any{mail{ID: "m1"}, mail{ID: "m2"}}).
		WithCallback(func(ctx context.Context, ev ItemProgress) error {
			events = append(events, ev)
			return nil
		})

	step := MarkUpdatedStep("persist", func(item any) string { return item.(mail).ID })

	res, err := step.Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.Len(t, res.Context.UpdatedIDs, 2)
	assert.Len(t, events, 2)
}
