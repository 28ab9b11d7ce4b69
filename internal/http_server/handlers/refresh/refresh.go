package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"contacts_auth/internal/auth"
	"contacts_auth/internal/http_server/cookies"
	resp "contacts_auth/internal/lib/api/response"
	sl "contacts_auth/internal/lib/logger"
	"contacts_auth/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
}

type Refresher interface {
	Refresh(ctx context.Context, sessionID, refreshToken string) (models.Session, error)
}

// New rotates the session identified by the sessionId/refreshToken cookie
// pair and re-issues both cookies for the replacement session.
func New(
	log *slog.Logger,
	service Refresher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID, err := r.Cookie(cookies.SessionID)
		if err != nil {
			log.Warn("missing session cookie")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Session not found"))

			return
		}

		refreshToken, err := r.Cookie(cookies.RefreshToken)
		if err != nil {
			log.Warn("missing refresh token cookie")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Session not found"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		session, err := service.Refresh(ctx, sessionID.Value, refreshToken.Value)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				cookies.ClearSession(w)

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Session not found or expired"))

				return
			}

			log.Error("failed to refresh session", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Session refreshed successfully")

		cookies.SetSession(w, session)

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: session.AccessToken,
		})
	}
}
