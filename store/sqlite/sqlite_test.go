package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-calculator/session"
	"github.com/warp/labor-calculator/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSession(id string, expires time.Time) session.Session {
	return session.Session{
		ID:          id,
		UserID:      "u1",
		Email:       "dana@example.com",
		Provider:    "credentials",
		AccessToken: "tok-" + id,
		CreatedAt:   expires.Add(-time.Hour),
		ExpiresAt:   expires,
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestStore_SaveGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	expires := time.Date(2026, 5, 1, 12, 30, 0, 123, time.UTC)

	require.NoError(t, store.Save(ctx, testSession("s1", expires)))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "dana@example.com", got.Email)
	assert.Empty(t, got.Name)
	assert.Equal(t, "tok-s1", got.AccessToken)
	assert.True(t, expires.Equal(got.ExpiresAt))
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	expires := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	s := testSession("s1", expires)
	require.NoError(t, store.Save(ctx, s))
	s.AccessToken = "rotated"
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.AccessToken)
	assert.True(t, expires.Equal(got.ExpiresAt))
}

func TestStore_DeleteAndDeleteExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testSession("old", now.Add(-time.Minute))))
	require.NoError(t, store.Save(ctx, testSession("edge", now)))
	require.NoError(t, store.Save(ctx, testSession("live", now.Add(time.Minute))))
	require.NoError(t, store.Save(ctx, testSession("gone", now.Add(time.Hour))))

	require.NoError(t, store.Delete(ctx, "gone"))
	require.NoError(t, store.Delete(ctx, "gone")) // idempotent

	removed, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "edge")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_WorksWithManager(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSession("old", time.Now().Add(-time.Minute))))

	m := session.NewManager(store, session.Options{Secret: "0123456789abcdef0123456789abcdef", TTL: time.Hour})
	n, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
