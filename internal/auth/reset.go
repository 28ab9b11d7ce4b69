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
	"contacts_auth/internal/mailer"
	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"
)

type Transport interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// ResetFlow issues signed password-reset tokens, delivers them by email and
// applies the credential change when a token comes back.
type ResetFlow struct {
	log       *slog.Logger
	users     UserStore
	sessions  SessionStore
	issuer    *tokens.Issuer
	transport Transport
	from      string
	appDomain string
}

func NewResetFlow(
	log *slog.Logger,
	users UserStore,
	sessions SessionStore,
	issuer *tokens.Issuer,
	transport Transport,
	from, appDomain string,
) *ResetFlow {
	return &ResetFlow{
		log:       log,
		users:     users,
		sessions:  sessions,
		issuer:    issuer,
		transport: transport,
		from:      from,
		appDomain: appDomain,
	}
}

// RequestPasswordReset emails the user a link carrying a short-lived signed
// token. The token is stateless: nothing is written to either store here.
func (f *ResetFlow) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	log := f.log.With(slog.String("op", op))

	user, err := f.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("reset requested for unknown email")
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := f.issuer.SignReset(user.ID, user.Email)
	if err != nil {
		log.Error("failed to sign reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", f.appDomain, token)

	html, err := mailer.RenderResetEmail(user.Name, link)
	if err != nil {
		log.Error("failed to render reset email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.EmailMessage{
		From:    f.from,
		To:      user.Email,
		Subject: "Reset your password",
		HTML:    html,
	}

	if err := f.transport.Send(ctx, msg); err != nil {
		log.Error("failed to send reset email", sl.Err(err))
		return ErrEmailDelivery
	}

	log.Info("reset email sent", slog.String("uid", user.ID))

	return nil
}

// ResetPassword verifies the token, overwrites the credential and drops the
// user's session so the new password must be used on the next login.
func (f *ResetFlow) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	log := f.log.With(slog.String("op", op))

	claims, err := f.issuer.ParseReset(token)
	if err != nil {
		log.Warn("unverifiable reset token", sl.Err(err))
		return ErrInvalidResetToken
	}

	user, err := f.users.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("reset token for unknown user")
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Email != claims.Email {
		log.Warn("reset token email mismatch")
		return ErrUserNotFound
	}

	if claims.Expired(time.Now()) {
		log.Warn("expired reset token")
		return ErrInvalidResetToken
	}

	passHash, err := hasher.Hash(newPassword)
	if err != nil {
		log.Error("failed to hash new password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.users.UpdatePassword(ctx, user.ID, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.sessions.DeleteSessionByUserID(ctx, user.ID); err != nil {
		log.Error("failed to drop session after reset", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset completed", slog.String("uid", user.ID))

	return nil
}
