package sendResetEmail

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
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type ResetRequester interface {
	RequestPasswordReset(ctx context.Context, email string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	service ResetRequester,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sendResetEmail.New"

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

		// Mail dispatch can be slow, so this budget is wider than the
		// store-only handlers use.
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if err := service.RequestPasswordReset(ctx, req.Email); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			if errors.Is(err, auth.ErrEmailDelivery) {
				log.Error("reset email delivery failed")

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Failed to send the email, please try again later."))

				return
			}

			log.Error("failed to request password reset", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Reset email sent")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Reset password email has been successfully sent.",
		})
	}
}
