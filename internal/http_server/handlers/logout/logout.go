package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"contacts_auth/internal/http_server/cookies"
	resp "contacts_auth/internal/lib/api/response"
	sl "contacts_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Logouter interface {
	Logout(ctx context.Context, sessionID string) error
}

// New ends the session named by the sessionId cookie. Logging out without a
// session, or with one that is already gone, succeeds all the same.
func New(
	log *slog.Logger,
	service Logouter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID, err := r.Cookie(cookies.SessionID)
		if err != nil {
			cookies.ClearSession(w)
			w.WriteHeader(http.StatusNoContent)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := service.Logout(ctx, sessionID.Value); err != nil {
			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user logged out successfully")

		cookies.ClearSession(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
