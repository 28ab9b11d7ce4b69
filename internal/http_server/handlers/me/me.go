package me

import (
	"context"
	"log/slog"
	"net/http"

	"contacts_auth/internal/http_server/middleware/authenticate"
	resp "contacts_auth/internal/lib/api/response"
	sl "contacts_auth/internal/lib/logger"
	"contacts_auth/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	User UserPayload `json:"user"`
}

type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UserProvider interface {
	UserByID(ctx context.Context, id string) (models.User, error)
}

// New returns the authenticated user's profile. It sits behind the
// authenticate middleware, which puts the user id in the request context.
func New(
	log *slog.Logger,
	service UserProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := authenticate.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Not authenticated"))

			return
		}

		user, err := service.UserByID(r.Context(), userID)
		if err != nil {
			log.Error("failed to load user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User: UserPayload{
				ID:    user.ID,
				Email: user.Email,
				Name:  user.Name,
			},
		})
	}
}
