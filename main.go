package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidyasetu/vidyasetu/internal/config"
	"github.com/vidyasetu/vidyasetu/internal/handler"
	"github.com/vidyasetu/vidyasetu/internal/repository/sqlite"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

const (
	signupRateLimit  = 5
	signupRateWindow = 15 * time.Minute

	sessionSweepInterval = time.Hour
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	authService := service.NewAuthService(db.Users(), db.Sessions(), cfg.SessionSecret, cfg.BcryptCost)
	signupLimiter := service.NewRateLimiter(signupRateLimit, signupRateWindow)

	authHandler := handler.NewAuthHandler(authService, signupLimiter, cfg.CookieSecure)
	dashboardHandler := handler.NewDashboardHandler()

	var oauthHandler *handler.OAuthHandler
	if cfg.OAuthEnabled() {
		oauthService := service.NewOAuthService(db.Users(), db.Accounts(), cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		oauthHandler = handler.NewOAuthHandler(oauthService, authService, cfg.LoginPath, cfg.CookieSecure)
		slog.Info("google sign-in enabled")
	} else {
		slog.Info("google sign-in disabled, GOOGLE_CLIENT_ID not set")
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, authHandler, oauthHandler, dashboardHandler)

	gated := handler.AuthGate(authService, cfg.ProtectedPrefixes, cfg.LoginPath, mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(gated),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keep the sessions table bounded.
	go sweepSessions(ctx, authService)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func sweepSessions(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := auth.SweepExpiredSessions(ctx)
			if err != nil {
				slog.Error("sweep expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired sessions removed", "count", deleted)
			}
		}
	}
}
