package core

import (
	"context"
	"fmt"
)

// DefaultGenres is the genre vocabulary used by the public title exports.
var DefaultGenres = []string{
	"Action", "Adult", "Adventure", "Animation", "Biography", "Comedy",
	"Crime", "Documentary", "Drama", "Family", "Fantasy", "Film-Noir",
	"Game-Show", "History", "Horror", "Music", "Musical", "Mystery", "News",
	"Reality-TV", "Romance", "Sci-Fi", "Short", "Sport", "Talk-Show",
	"Thriller", "War", "Western",
}

// SeedLookups get-or-creates every label of kind and returns their keys in
// input order. Running it twice creates nothing new.
func SeedLookups(ctx context.Context, r *LookupResolver, kind LookupKind, labels []string) ([]int64, error) {
	ids := make([]int64, 0, len(labels))
	for _, label := range labels {
		id, err := r.ResolveOne(ctx, kind, label)
		if err != nil {
			return ids, fmt.Errorf("seed %s: %w", kind, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
