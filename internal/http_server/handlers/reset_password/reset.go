package resetPassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"contacts_auth/internal/auth"
	resp "contacts_auth/internal/lib/api/response"
	sl "contacts_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	service PasswordResetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetPassword.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := service.ResetPassword(ctx, req.Token, req.Password); err != nil {
			if errors.Is(err, auth.ErrInvalidResetToken) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Token is expired or invalid."))

				return
			}

			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to reset password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Password reset successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Password has been successfully reset.",
		})
	}
}
