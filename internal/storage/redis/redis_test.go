package redis

import (
	"context"
	"testing"
	"time"

	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RedisRepo {
	t.Helper()

	mr := miniredis.RunT(t)

	repo, err := New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	return repo
}

func testSession(id, userID string) models.Session {
	now := time.Now()
	return models.Session{
		ID:                     id,
		UserID:                 userID,
		AccessToken:            "access-" + id,
		RefreshToken:           "refresh-" + id,
		AccessTokenValidUntil:  now.Add(15 * time.Minute),
		RefreshTokenValidUntil: now.Add(24 * time.Hour),
	}
}

func TestReplaceAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s := testSession("s1", "u1")
	require.NoError(t, repo.ReplaceSession(ctx, s))

	byID, err := repo.SessionByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byID.ID)
	assert.Equal(t, s.UserID, byID.UserID)
	assert.Equal(t, s.AccessToken, byID.AccessToken)
	assert.WithinDuration(t, s.RefreshTokenValidUntil, byID.RefreshTokenValidUntil, time.Second)

	byToken, err := repo.SessionByAccessToken(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byToken.ID)
}

func TestReplace_EvictsPreviousSession(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s1 := testSession("s1", "u1")
	s2 := testSession("s2", "u1")

	require.NoError(t, repo.ReplaceSession(ctx, s1))
	require.NoError(t, repo.ReplaceSession(ctx, s2))

	_, err := repo.SessionByID(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	_, err = repo.SessionByAccessToken(ctx, s1.AccessToken)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	got, err := repo.SessionByID(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestLookup_Unknown(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.SessionByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	_, err = repo.SessionByAccessToken(ctx, "missing-token")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestDeleteSessionByID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s := testSession("s1", "u1")
	require.NoError(t, repo.ReplaceSession(ctx, s))

	require.NoError(t, repo.DeleteSessionByID(ctx, "s1"))

	_, err := repo.SessionByID(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, err = repo.SessionByAccessToken(ctx, s.AccessToken)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Idempotent: deleting again or deleting the unknown is not an error.
	assert.NoError(t, repo.DeleteSessionByID(ctx, "s1"))
	assert.NoError(t, repo.DeleteSessionByID(ctx, "never-existed"))
}

func TestDeleteSessionByUserID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.ReplaceSession(ctx, testSession("s1", "u1")))
	require.NoError(t, repo.ReplaceSession(ctx, testSession("s2", "u2")))

	require.NoError(t, repo.DeleteSessionByUserID(ctx, "u1"))

	_, err := repo.SessionByID(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Other users' sessions are untouched.
	_, err = repo.SessionByID(ctx, "s2")
	assert.NoError(t, err)

	assert.NoError(t, repo.DeleteSessionByUserID(ctx, "u1"))
	assert.NoError(t, repo.DeleteSessionByUserID(ctx, "unknown-user"))
}

func TestSessionExpiresWithRefreshToken(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	repo, err := New(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	s := testSession("s1", "u1")
	s.RefreshTokenValidUntil = time.Now().Add(time.Minute)
	require.NoError(t, repo.ReplaceSession(ctx, s))

	mr.FastForward(2 * time.Minute)

	_, err = repo.SessionByID(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, err = repo.SessionByAccessToken(ctx, s.AccessToken)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
