package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contacts_auth/internal/lib/hasher"
	sl "contacts_auth/internal/lib/logger"
	"contacts_auth/internal/lib/tokens"
	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
	ErrEmailDelivery      = errors.New("failed to deliver email")
)

type Auth struct {
	log        *slog.Logger
	users      UserStore
	sessions   SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type UserStore interface {
	SaveUser(ctx context.Context, user models.User) (id string, err error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	UpdatePassword(ctx context.Context, userID string, passHash []byte) error
}

type SessionStore interface {
	ReplaceSession(ctx context.Context, s models.Session) error
	SessionByID(ctx context.Context, id string) (models.Session, error)
	SessionByAccessToken(ctx context.Context, accessToken string) (models.Session, error)
	DeleteSessionByID(ctx context.Context, id string) error
	DeleteSessionByUserID(ctx context.Context, userID string) error
}

func New(
	log *slog.Logger,
	users UserStore,
	sessions SessionStore,
	accessTTL, refreshTTL time.Duration,
) *Auth {
	return &Auth{
		log:        log,
		users:      users,
		sessions:   sessions,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a user with a hashed credential. No session is created;
// the caller logs in separately. The returned profile carries no hash.
func (a *Auth) Register(ctx context.Context, email, name, password string) (models.User, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := hasher.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     name,
		PassHash: passHash,
	}

	id, err := a.users.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("email already registered")
			return models.User{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("uid", id))

	return models.User{ID: id, Email: email, Name: name}, nil
}

// Login verifies credentials and replaces any existing session with a fresh
// one. Unknown email and wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (models.Session, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("login attempt for unknown email")
			return models.Session{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if !hasher.Verify(password, user.PassHash) {
		log.Info("invalid password")
		return models.Session{}, ErrInvalidCredentials
	}

	session, err := a.createSession(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("uid", user.ID))

	return session, nil
}

// Refresh rotates the session: the old record is replaced wholesale, so the
// presented refresh token is dead after the first successful use even if its
// expiry has not passed yet.
func (a *Auth) Refresh(ctx context.Context, sessionID, refreshToken string) (models.Session, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	old, err := a.sessions.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("session not found")
			return models.Session{}, ErrInvalidCredentials
		}

		log.Error("failed to get session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if old.RefreshToken != refreshToken {
		log.Warn("refresh token mismatch")
		return models.Session{}, ErrInvalidCredentials
	}

	if time.Now().After(old.RefreshTokenValidUntil) {
		log.Warn("refresh token expired")
		return models.Session{}, ErrInvalidCredentials
	}

	session, err := a.createSession(ctx, old.UserID)
	if err != nil {
		log.Error("failed to rotate session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("session refreshed", slog.String("uid", old.UserID))

	return session, nil
}

// Logout is idempotent: deleting an unknown session is a no-op.
func (a *Auth) Logout(ctx context.Context, sessionID string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if err := a.sessions.DeleteSessionByID(ctx, sessionID); err != nil {
		log.Error("failed to delete session", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out")

	return nil
}

// SessionByAccessToken resolves a bearer token to its session. It does not
// check AccessTokenValidUntil; the authenticate middleware owns that check.
func (a *Auth) SessionByAccessToken(ctx context.Context, accessToken string) (models.Session, error) {
	const op = "auth.SessionByAccessToken"

	session, err := a.sessions.SessionByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return models.Session{}, ErrInvalidCredentials
		}

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (a *Auth) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "auth.UserByID"

	user, err := a.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user.PassHash = nil

	return user, nil
}

func (a *Auth) createSession(ctx context.Context, userID string) (models.Session, error) {
	accessToken, err := tokens.NewOpaqueToken()
	if err != nil {
		return models.Session{}, err
	}

	refreshToken, err := tokens.NewOpaqueToken()
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now()

	session := models.Session{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		AccessToken:            accessToken,
		RefreshToken:           refreshToken,
		AccessTokenValidUntil:  now.Add(a.accessTTL),
		RefreshTokenValidUntil: now.Add(a.refreshTTL),
	}

	if err := a.sessions.ReplaceSession(ctx, session); err != nil {
		return models.Session{}, err
	}

	return session, nil
}
