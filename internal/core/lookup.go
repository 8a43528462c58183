package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// LookupResolver turns free-text labels into lookup keys, creating lookup
// entities the first time a label is seen. Resolved keys are cached for the
// lifetime of the resolver so a label maps to the same key across a run.
//
// A resolver is not safe for concurrent use; each run owns one.
type LookupResolver struct {
	store  Store
	logger *slog.Logger
	cache  map[LookupKind]map[string]int64
}

// NewLookupResolver creates a resolver backed by store.
func NewLookupResolver(store Store, logger *slog.Logger) *LookupResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupResolver{
		store:  store,
		logger: logger,
		cache:  make(map[LookupKind]map[string]int64),
	}
}

// Resolve returns one key per label of a comma-joined list, in input order.
// An absent cell resolves to nil.
func (r *LookupResolver) Resolve(ctx context.Context, kind LookupKind, list pgtype.Text) ([]int64, error) {
	labels := SplitList(list)
	if len(labels) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(labels))
	for _, label := range labels {
		id, err := r.ResolveOne(ctx, kind, label)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResolveOne returns the key for a single label, creating it if needed.
func (r *LookupResolver) ResolveOne(ctx context.Context, kind LookupKind, label string) (int64, error) {
	if label == "" {
		return 0, invalidf("empty %s label", kind)
	}
	if utf8.RuneCountInString(label) > MaxNameLength {
		return 0, invalidf("%s label longer than %d characters", kind, MaxNameLength)
	}

	byLabel := r.cache[kind]
	if byLabel == nil {
		byLabel = make(map[string]int64)
		r.cache[kind] = byLabel
	}
	if id, ok := byLabel[label]; ok {
		return id, nil
	}

	existing, err := r.store.LookupByLabel(ctx, kind, label)
	switch {
	case err == nil:
		byLabel[label] = existing.ID
		return existing.ID, nil
	case !errors.Is(err, ErrNotFound):
		return 0, fmt.Errorf("get %s %q: %w", kind, label, err)
	}

	id, err := r.store.CreateLookup(ctx, kind, label)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", kind, label, err)
	}

	r.logger.Debug("created lookup", "lookup", kind, "label", label, "id", id)
	byLabel[label] = id
	return id, nil
}

// Cached returns the number of labels resolved so far for kind.
func (r *LookupResolver) Cached(kind LookupKind) int {
	return len(r.cache[kind])
}
