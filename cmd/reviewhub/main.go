package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewhub/internal/api"
	"reviewhub/internal/config"
	"reviewhub/internal/mail"
	"reviewhub/internal/store"
	"reviewhub/internal/validate"
	"reviewhub/pkg/auth"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokenManager, err := auth.NewTokenManager(cfg.JWTSecretKey, cfg.TokenDuration)
	if err != nil {
		logger.Error("Failed to create token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := store.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", slog.String("error", err.Error()))
		}
	}()

	userStore, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	catalogStore, err := store.NewPostgresCatalogStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize catalog store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	reviewStore, err := store.NewPostgresReviewStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize review store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var mailer mail.Mailer
	if cfg.MailConfigured() {
		mailer, err = mail.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			logger.Error("Failed to initialize SMTP mailer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("SMTP mailer initialized", slog.String("host", cfg.SMTP.Host))
	} else {
		mailer = &mail.LogMailer{Logger: logger}
		logger.Warn("SMTP not configured, confirmation codes will be written to the log")
	}

	handler := api.NewHandler(userStore, catalogStore, reviewStore, mailer, logger, validate.New(), tokenManager)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server ListenAndServe() failed", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
}
