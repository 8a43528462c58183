package core

import "context"

// Store is the persistence boundary of the pipeline. It exposes create,
// exists-by-natural-key, get-by-id, get-by-label and attach operations. The
// pipeline never updates or deletes through it.
//
// Lookups that find nothing return an error wrapping ErrNotFound. Writes
// rejected by a store constraint return an error wrapping ErrIntegrity.
type Store interface {
	// Exists reports whether a record with the given natural key is stored.
	Exists(ctx context.Context, key NaturalKey) (bool, error)

	TitleByID(ctx context.Context, id uint64) (*Title, error)
	PersonByID(ctx context.Context, id uint64) (*Person, error)
	LookupByLabel(ctx context.Context, kind LookupKind, label string) (*Lookup, error)

	CreateTitle(ctx context.Context, t Title) (uint64, error)
	CreatePerson(ctx context.Context, p Person) (uint64, error)
	CreateTitleName(ctx context.Context, n TitleName) (int64, error)
	CreatePrincipal(ctx context.Context, p Principal) (int64, error)
	CreateLookup(ctx context.Context, kind LookupKind, label string) (int64, error)

	// Attach links an existing owner row to existing target rows. Linking a
	// pair that is already linked is not an error.
	Attach(ctx context.Context, assoc Association, ownerID int64, targetIDs []int64) error
}
