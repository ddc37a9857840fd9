// Delph Merch - club merch storefront
// Entry point for the API server
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/handlers"
	"github.com/1020robert/delph-merch/internal/middleware"
	"github.com/1020robert/delph-merch/internal/router"
	"github.com/1020robert/delph-merch/internal/services/auth"
	"github.com/1020robert/delph-merch/internal/services/catalog"
	"github.com/1020robert/delph-merch/internal/services/notify"
	"github.com/1020robert/delph-merch/internal/services/orders"
	"github.com/1020robert/delph-merch/internal/session"
	"github.com/1020robert/delph-merch/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := newLogger(cfg)
	log.Info().Str("environment", cfg.Environment).Msg("delph-merch starting")

	// Initialize storage
	store, err := storage.New(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open data directory")
	}

	if cfg.OwnerEmail == "" {
		log.Warn().Msg("DELPH_OWNER_EMAIL not set, no account will have owner access")
	}

	// Outbound mail is optional; without it the server runs but skips
	// order notifications.
	var mailer notify.Mailer
	if cfg.SMTP.Enabled() {
		m, err := notify.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			log.Warn().Err(err).Msg("smtp configuration rejected, notifications disabled")
		} else {
			mailer = m
		}
	} else {
		log.Warn().Msg("smtp not configured, notifications disabled")
	}
	notifier := notify.New(mailer, cfg.OwnerEmail, log)

	// Sessions live in memory only; a restart signs everyone out.
	sessions := session.NewMemoryStore(cfg.SecretKey, cfg.SessionDuration)

	// Initialize services
	authService := auth.NewService(cfg, store.Users(), sessions, notifier, log)
	catalogService := catalog.NewService(cfg, store, log)
	orderService := orders.NewService(cfg, store.Items(), store.Orders(), notifier, log)

	// Initialize handlers and routes
	h := handlers.New(cfg, authService, catalogService, orderService, log)
	authMiddleware := middleware.NewAuth(authService)
	r := router.Setup(cfg, h, authMiddleware, store.UploadsDir(), log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let queued notifications finish before exiting.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	if err := notifier.Close(drainCtx); err != nil {
		log.Warn().Err(err).Msg("notification queue did not drain")
	}

	log.Info().Msg("server stopped")
}

// newLogger writes human-readable logs in development and JSON elsewhere.
func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
