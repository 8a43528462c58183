package core

import (
	"context"
	"fmt"
)

// Deduplicator guards creates: a record whose natural key is already stored
// is never written again, so re-running a file is safe.
type Deduplicator struct {
	store Store
}

// NewDeduplicator creates a Deduplicator backed by store.
func NewDeduplicator(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// Exists reports whether a record equivalent to key is already stored.
func (d *Deduplicator) Exists(ctx context.Context, key NaturalKey) (bool, error) {
	ok, err := d.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", key.Kind, err)
	}
	return ok, nil
}
