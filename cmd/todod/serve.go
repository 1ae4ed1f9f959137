package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/todo-api/internal/api"
	"github.com/Kerhoff/todo-api/internal/config"
	"github.com/Kerhoff/todo-api/internal/metrics"
	"github.com/Kerhoff/todo-api/internal/repository/sqlite"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	l.WithField("version", version).Info("Starting todo API...")

	// Database
	db, err := config.NewDatabase(cfg.DatabasePath, l)
	if err != nil {
		l.WithError(err).Error("Failed to open database")
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.WithError(err).Error("Failed to close database")
		}
	}()

	if err := db.Migrate(); err != nil {
		l.WithError(err).Error("Failed to run migrations")
		return err
	}

	todos := sqlite.NewTodoRepository(db.DB, nil)

	// Metrics
	m := metrics.New()
	err = m.RegisterTodoCount(func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := todos.Count(ctx)
		if err != nil {
			l.WithError(err).Warn("failed to count todos for metrics")
			return 0
		}
		return float64(n)
	})
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	apiServer := api.NewServer(todos, db, m, l)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.PrometheusPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              ":" + cfg.PrometheusPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	l.Info("Todo API started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		l.Info("Received shutdown signal...")
	case runErr = <-errCh:
		l.WithError(runErr).Error("Server failed")
	}

	l.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("HTTP server did not shut down cleanly")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			l.WithError(err).Error("Metrics server did not shut down cleanly")
		}
	}

	l.Info("Todo API stopped")
	return runErr
}
