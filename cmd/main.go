// Package main is the entry point for the library portal server.
//
// The portal serves a public book search over three CSV datasets (libraries,
// books, librarians) and a session-gated dashboard where each librarian
// manages their own library's inventory. Configuration comes from the
// environment, with an optional .env file for local development.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"libportal/internal/handlers"
	"libportal/internal/repositories"
	"libportal/internal/services"
)

// insecureDefaultSecret signs session cookies when SESSION_SECRET is unset.
// Fine for local development, unusable for anything public.
const insecureDefaultSecret = "dev-secret-change-me"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "libportal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env is optional, env vars win

	setupLogger(envOr("LOG_LEVEL", "info"))

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		slog.Warn("SESSION_SECRET not set, using insecure default")
		secret = insecureDefaultSecret
	}
	dataDir := envOr("DATA_DIR", "data")

	libraryRepo := repositories.NewLibraryRepository(dataDir)
	bookRepo := repositories.NewBookRepository(dataDir)
	librarianRepo := repositories.NewLibrarianRepository(dataDir)

	catalog := services.NewCatalogService(libraryRepo, bookRepo)
	auth := services.NewAuthService(librarianRepo)
	sessions := handlers.NewSessionManager(secret)

	router := gin.Default()
	if err := handlers.LoadTemplates(router, envOr("TEMPLATES_DIR", "templates")); err != nil {
		return err
	}
	handlers.RegisterRoutes(router, catalog, auth, sessions)

	addr := envOr("SERVER_ADDR", ":8080")
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	slog.Info("starting server", "addr", addr, "data_dir", dataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupLogger(level string) {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
