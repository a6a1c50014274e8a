package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credential-issuer/internal/app"
	"credential-issuer/internal/observability"
)

func main() {
	logger := observability.NewLogger()
	if err := run(logger); err != nil {
		os.Exit(1)
	}
}

// run serves until a signal arrives. The runtime is closed on every path
// out, so Sentry is flushed before the process exits.
func run(logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runtime, err := app.Build(ctx, app.Options{LoadDotEnv: true, Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", map[string]any{"error": err.Error()})
		return err
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Error("runtime_close_failed", map[string]any{"error": err.Error()})
		}
	}()

	server := &http.Server{
		Addr:              runtime.Addr,
		Handler:           runtime.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}()

	logger.Info("server_start", map[string]any{"addr": runtime.Addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server_failed", map[string]any{"error": err.Error()})
		return err
	}
	logger.Info("server_stopped", nil)
	return nil
}
