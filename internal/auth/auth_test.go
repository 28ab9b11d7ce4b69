package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes shared with reset_test.go ---

type fakeUserStore struct {
	byEmail map[string]models.User
	byID    map[string]models.User

	saveErr   error
	updateErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
	}
}

func (f *fakeUserStore) SaveUser(_ context.Context, user models.User) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return "", storage.ErrUserExists
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UserByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID string, passHash []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PassHash = passHash
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	return nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) ReplaceSession(_ context.Context, s models.Session) error {
	for id, existing := range f.sessions {
		if existing.UserID == s.UserID {
			delete(f.sessions, id)
		}
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) SessionByID(_ context.Context, id string) (models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return models.Session{}, storage.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) SessionByAccessToken(_ context.Context, token string) (models.Session, error) {
	for _, s := range f.sessions {
		if s.AccessToken == token {
			return s, nil
		}
	}
	return models.Session{}, storage.ErrSessionNotFound
}

func (f *fakeSessionStore) DeleteSessionByID(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) DeleteSessionByUserID(_ context.Context, userID string) error {
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) sessionsForUser(userID string) []models.Session {
	var out []models.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuth(t *testing.T) (*Auth, *fakeUserStore, *fakeSessionStore) {
	t.Helper()

	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	return New(discardLogger(), users, sessions, 15*time.Minute, 30*24*time.Hour), users, sessions
}

// --- tests ---

func TestRegister(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newTestAuth(t)

	user, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Empty(t, user.PassHash)

	stored := users.byEmail["a@x.com"]
	assert.NotEmpty(t, stored.PassHash)
	assert.NotEqual(t, "password1", string(stored.PassHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	_, err = service.Register(ctx, "a@x.com", "Other", "password2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	session, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)
	assert.True(t, session.RefreshTokenValidUntil.After(session.AccessTokenValidUntil),
		"refresh token must outlive access token")
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	// Unknown email and wrong password produce the same error so callers
	// cannot probe which emails are registered.
	_, unknownErr := service.Login(ctx, "nobody@x.com", "password1")
	_, wrongPassErr := service.Login(ctx, "a@x.com", "wrong")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr)
}

func TestLogin_ReplacesExistingSession(t *testing.T) {
	ctx := context.Background()
	service, _, sessions := newTestAuth(t)

	user, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	s2, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	require.Len(t, sessions.sessionsForUser(user.ID), 1)

	// The first session is fully dead: neither its id nor its refresh token
	// can be used after the second login.
	_, err = service.Refresh(ctx, s1.ID, s1.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Refresh(ctx, s2.ID, s2.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Rotation(t *testing.T) {
	ctx := context.Background()
	service, _, sessions := newTestAuth(t)

	user, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	s2, err := service.Refresh(ctx, s1.ID, s1.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, user.ID, s2.UserID)
	assert.NotEqual(t, s1.RefreshToken, s2.RefreshToken)
	assert.NotEqual(t, s1.AccessToken, s2.AccessToken)
	require.Len(t, sessions.sessionsForUser(user.ID), 1)

	// Replaying the consumed refresh token fails even though it has not
	// expired yet.
	_, err = service.Refresh(ctx, s1.ID, s1.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_WrongToken(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	_, err = service.Refresh(ctx, s1.ID, "not-the-refresh-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Expired(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	service := New(discardLogger(), users, sessions, -time.Hour, -time.Minute)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	_, err = service.Refresh(ctx, s1.ID, s1.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	service, _, sessions := newTestAuth(t)

	user, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, s1.ID))
	assert.Empty(t, sessions.sessionsForUser(user.ID))

	// Deleting again, or deleting a session that never existed, is a no-op.
	assert.NoError(t, service.Logout(ctx, s1.ID))
	assert.NoError(t, service.Logout(ctx, "no-such-session"))
}

func TestSessionByAccessToken(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	_, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	s1, err := service.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	found, err := service.SessionByAccessToken(ctx, s1.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, found.ID)

	_, err = service.SessionByAccessToken(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserByID(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	user, err := service.Register(ctx, "a@x.com", "Anna", "password1")
	require.NoError(t, err)

	got, err := service.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
	assert.Empty(t, got.PassHash)

	_, err = service.UserByID(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
