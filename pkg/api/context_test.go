package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_WithItemsDoesNotMutateOriginal(t *testing.T) {
	orig := NewContext("user-1", []any{"a", "b"})

	next := orig.WithItems([]any{"a", "b", "c"})

	assert.Len(t, orig.Items, 2)
	assert.Len(t, next.Items, 3)
	assert.Equal(t, orig.UserID, next.UserID)
}

func TestContext_UpdatedIDsAccumulate(t *testing.T) {
	ec := NewContext("user-1", nil).
		WithUpdatedIDs("m1", "m2").
		WithUpdatedIDs("m2", "m3")

	require.Len(t, ec.UpdatedIDs, 3)
	for _, id := range []string{"m1", "m2", "m3"} {
		_, ok := ec.UpdatedIDs[id]
		assert.True(t, ok, "missing id %s", id)
	}
}

func TestContext_WithMetadataCopiesMap(t *testing.T) {
	orig := NewContext("user-1", nil).WithMetadata("source", "gmail")
	next := orig.WithMetadata("source", "bookmarks")

	v, ok := orig.MetadataString("source")
	require.True(t, ok)
	assert.Equal(t, "gmail", v)

	v, ok = next.MetadataString("source")
	require.True(t, ok)
	assert.Equal(t, "bookmarks", v)
}
