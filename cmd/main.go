package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contacts_auth/internal/auth"
	"contacts_auth/internal/config"
	"contacts_auth/internal/http_server/handlers/login"
	"contacts_auth/internal/http_server/handlers/logout"
	"contacts_auth/internal/http_server/handlers/me"
	"contacts_auth/internal/http_server/handlers/refresh"
	register "contacts_auth/internal/http_server/handlers/register"
	resetPassword "contacts_auth/internal/http_server/handlers/reset_password"
	sendResetEmail "contacts_auth/internal/http_server/handlers/send_reset_email"
	"contacts_auth/internal/http_server/middleware/authenticate"
	"contacts_auth/internal/lib/tokens"
	"contacts_auth/internal/mailer"
	rateLimit "contacts_auth/internal/middleware/ratelimit"
	"contacts_auth/internal/storage/postgres"
	redisstore "contacts_auth/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting contacts auth service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	var sessions auth.SessionStore = storage
	if cfg.Sessions.Backend == "redis" {
		redisRepo, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("failed to connect redis", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer redisRepo.Close()

		sessions = redisRepo
	}

	transport, closeTransport, err := setupMailTransport(cfg)
	if err != nil {
		log.Error("failed to init mail transport", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeTransport()

	issuer := tokens.NewIssuer(cfg.Tokens.ResetTokenSecret, cfg.Tokens.ResetTokenTTL)

	authService := auth.New(log, storage, sessions, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)
	resetFlow := auth.NewResetFlow(log, storage, sessions, issuer, transport, cfg.Mailer.From, cfg.AppDomain)

	router := setupRouter(log, authService, resetFlow)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	resetFlow *auth.ResetFlow,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.Route("/auth", func(r chi.Router) {
		r.With(rateLimit.Register()).Post("/register",
			register.New(log, validate, authService),
		)
		r.With(rateLimit.Login()).Post("/login",
			login.New(log, validate, authService),
		)
		r.With(rateLimit.Refresh()).Post("/refresh",
			refresh.New(log, authService),
		)
		r.With(rateLimit.Logout()).Post("/logout",
			logout.New(log, authService),
		)
		r.With(rateLimit.SendResetEmail()).Post("/send-reset-email",
			sendResetEmail.New(log, validate, resetFlow),
		)
		r.With(rateLimit.ResetPassword()).Post("/reset-pwd",
			resetPassword.New(log, validate, resetFlow),
		)
		r.With(authenticate.New(log, authService)).Get("/me",
			me.New(log, authService),
		)
	})

	return r
}

func setupMailTransport(cfg *config.Config) (auth.Transport, func(), error) {
	if cfg.Mailer.Transport == "queue" {
		queue, err := mailer.NewQueue(cfg.Mailer.RabbitMQ.URL, cfg.Mailer.RabbitMQ.QueueName)
		if err != nil {
			return nil, nil, err
		}

		return queue, queue.Close, nil
	}

	smtp := &mailer.SMTP{
		Host:     cfg.Mailer.SMTP.Host,
		Port:     cfg.Mailer.SMTP.Port,
		Username: cfg.Mailer.SMTP.Username,
		Password: cfg.Mailer.SMTP.Password,
	}

	return smtp, func() {}, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
