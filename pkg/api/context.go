package api

import "context"

// ItemCallback receives one event per item per reporting step.
// Invocations are strictly sequential: the callback for item i has returned
// before the callback for item i+1 fires.
type ItemCallback func(ctx context.Context, ev ItemProgress) error

// Context is the value threaded through a pipeline run. It carries the batch
// of items being processed, the owning user, the identifiers already mutated
// by earlier steps, and free-form metadata.
//
// A Context is immutable by convention: steps never mutate Items in place.
// A step that changes the batch returns a new Context built with one of the
// With* helpers, so the engine can discard a replacement context when a step
// decides processing should stop.
type Context struct {
	UserID     string
	Items      []any
	UpdatedIDs map[string]struct{}
	Metadata   map[string]any

	// OnItemProcessed, when set, is invoked by ReportProgress for every
	// item of every reporting step.
	OnItemProcessed ItemCallback
}

// NewContext creates a Context for the given user and item batch.
func NewContext(userID string, items []any) *Context {
	return &Context{
		UserID:     userID,
		Items:      items,
		UpdatedIDs: make(map[string]struct{}),
		Metadata:   make(map[string]any),
	}
}

// clone returns a shallow copy with fresh map headers, so the caller can
// modify the copy's sets without touching the original.
func (c *Context) clone() *Context {
	next := &Context{
		UserID:          c.UserID,
		Items:           c.Items,
		UpdatedIDs:      make(map[string]struct{}, len(c.UpdatedIDs)),
		Metadata:        make(map[string]any, len(c.Metadata)),
		OnItemProcessed: c.OnItemProcessed,
	}
	for id := range c.UpdatedIDs {
		next.UpdatedIDs[id] = struct{}{}
	}
	for k, v := range c.Metadata {
		next.Metadata[k] = v
	}
	return next
}

// WithItems returns a copy of the context carrying a new item batch.
// The original context is left untouched.
func (c *Context) WithItems(items []any) *Context {
	next := c.clone()
	next.Items = items
	return next
}

// WithMetadata returns a copy of the context with the given metadata key set.
func (c *Context) WithMetadata(key string, value any) *Context {
	next := c.clone()
	next.Metadata[key] = value
	return next
}

// WithUpdatedIDs returns a copy of the context with the given identifiers
// added to the updated set. UpdatedIDs only ever grows during a run.
func (c *Context) WithUpdatedIDs(ids ...string) *Context {
	next := c.clone()
	for _, id := range ids {
		next.UpdatedIDs[id] = struct{}{}
	}
	return next
}

// WithCallback returns a copy of the context with the item callback set.
// Used by the engine when wiring a run; steps have no reason to call it.
func (c *Context) WithCallback(cb ItemCallback) *Context {
	next := c.clone()
	next.OnItemProcessed = cb
	return next
}

// MetadataString reads a string metadata value.
func (c *Context) MetadataString(key string) (string, bool) {
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
