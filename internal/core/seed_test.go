package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store/memory"
)

func TestSeedLookups(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, logger := newLogRecorder()

	first, err := core.SeedLookups(ctx, core.NewLookupResolver(store, logger), core.LookupGenre, core.DefaultGenres)
	require.NoError(t, err)
	require.Len(t, first, len(core.DefaultGenres))
	assert.Equal(t, len(core.DefaultGenres), store.Counts()["genres"])

	// A fresh resolver finds the stored rows instead of creating new ones.
	second, err := core.SeedLookups(ctx, core.NewLookupResolver(store, logger), core.LookupGenre, core.DefaultGenres)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, len(core.DefaultGenres), store.Counts()["genres"])
}

func TestSeedLookups_RejectsEmptyLabel(t *testing.T) {
	_, logger := newLogRecorder()
	ids, err := core.SeedLookups(context.Background(), core.NewLookupResolver(memory.New(), logger),
		core.LookupGenre, []string{"Drama", ""})
	require.ErrorIs(t, err, core.ErrInvalidValue)
	assert.Len(t, ids, 1)
}
