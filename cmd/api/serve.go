package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/georgemunganga/plantshop-backend/internal/config"
	"github.com/georgemunganga/plantshop-backend/internal/logging"
	"github.com/georgemunganga/plantshop-backend/internal/metrics"
	"github.com/georgemunganga/plantshop-backend/internal/middleware"
	"github.com/georgemunganga/plantshop-backend/internal/modules/auth"
	"github.com/georgemunganga/plantshop-backend/internal/modules/catalog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	router := newRouter(cfg, repo, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("plantshop API server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newRouter(cfg *config.Config, repo catalog.Repository, logger *zap.Logger) *chi.Mux {
	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(metrics.InstrumentHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"API is running!"}`))
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())

	// ── Admin auth ──────────────────────────────────────────
	var catalogOpts []catalog.Option
	if cfg.AuthEnabled() {
		authService := auth.NewService(auth.Admin{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash}, cfg.JWTSecret)
		auth.NewHandler(authService, logger).RegisterRoutes(router)
		catalogOpts = append(catalogOpts, catalog.WithAdminGuard(auth.RequireAdmin(authService)))
	} else {
		logger.Warn("ADMIN_PASSWORD_HASH not set; catalog write routes are unauthenticated")
	}

	// ── Catalog ─────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	catalogOpts = append(catalogOpts, catalog.WithSuggestLimiter(limiter.Handler))

	catalogService := catalog.NewService(repo, logger)
	catalog.NewHandler(catalogService, logger, catalogOpts...).RegisterRoutes(router)

	return router
}
