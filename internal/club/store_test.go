package club_test

import (
	"context"
	"testing"

	"github.com/mauv0809/munitorum/internal/club"
	"github.com/mauv0809/munitorum/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) club.ClubStore {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	return club.New(db)
}

func TestUpsertAndGetPlayers(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.UpsertPlayer(ctx, "U1", "Alice")
	require.NoError(t, err)
	_, err = store.UpsertPlayer(ctx, "U2", "Bob")
	require.NoError(t, err)

	assert.True(t, store.IsKnownPlayer(ctx, "U1"))
	assert.False(t, store.IsKnownPlayer(ctx, "U3"))

	all, err := store.GetAllPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].DisplayName)
}

func TestUpsertPlayer_RefreshesName(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first, err := store.UpsertPlayer(ctx, "U1", "Alice")
	require.NoError(t, err)

	renamed, err := store.UpsertPlayer(ctx, "U1", "Alice B.")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", renamed.DisplayName)
	assert.Equal(t, first.CreatedAt, renamed.CreatedAt)

	kept, err := store.UpsertPlayer(ctx, "U1", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", kept.DisplayName, "an unknown name keeps the stored one")
}

func TestGetPlayer_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetPlayer(context.Background(), "nobody")
	assert.ErrorIs(t, err, club.ErrPlayerNotFound)

	p, err := store.UpsertPlayer(context.Background(), "U9", "")
	require.NoError(t, err)
	assert.Equal(t, "U9", p.Name())
}
