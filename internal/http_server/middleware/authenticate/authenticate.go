// Package authenticate resolves the bearer access token to a session and
// rejects requests whose access token is missing, unknown, or past its
// validity window. Expiry is enforced here, not in the session lookup.
package authenticate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	resp "contacts_auth/internal/lib/api/response"
	"contacts_auth/internal/models"

	"github.com/go-chi/render"
)

type contextKey struct{}

var userIDKey = contextKey{}

type SessionProvider interface {
	SessionByAccessToken(ctx context.Context, accessToken string) (models.Session, error)
}

func New(log *slog.Logger, sessions SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authenticate"

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "Authorization header is missing or malformed")

				return
			}

			session, err := sessions.SessionByAccessToken(r.Context(), token)
			if err != nil {
				log.Warn("failed to resolve access token", slog.String("op", op))

				unauthorized(w, r, "Session not found")

				return
			}

			if time.Now().After(session.AccessTokenValidUntil) {
				unauthorized(w, r, "Access token expired")

				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user's id placed in the context by New.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error(msg))
}
