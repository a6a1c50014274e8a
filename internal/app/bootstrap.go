package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"credential-issuer/internal/auth"
	"credential-issuer/internal/config"
	"credential-issuer/internal/db"
	"credential-issuer/internal/observability"
)

type Options struct {
	LoadDotEnv bool
	Logger     *observability.Logger
}

type Runtime struct {
	Handler http.Handler
	Addr    string
	Close   func() error
}

func Build(ctx context.Context, options Options) (*Runtime, error) {
	cfg, err := config.Load(config.Options{LoadDotEnv: options.LoadDotEnv})
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = observability.NewLogger()
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	driver := db.Driver(cfg.DBDriver)
	database, err := db.Open(ctx, driver, cfg.DSN(), db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, database, driver); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	service, err := newAuthService(cfg, database, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	if err := service.EnsureUser(ctx, cfg.SeedUsername, cfg.SeedPassword); err != nil {
		_ = database.Close()
		return nil, err
	}

	authHandler := auth.NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", authHandler.Register)
	mux.HandleFunc("POST /signin", authHandler.Login)
	mux.HandleFunc("GET /protected", authHandler.Protected)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Addr:    cfg.Addr(),
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func newAuthService(cfg config.Config, database *sql.DB, logger *observability.Logger) (*auth.Service, error) {
	repo, err := auth.NewRepository(database, auth.Dialect(cfg.DBDriver))
	if err != nil {
		return nil, fmt.Errorf("init user store: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost, cfg.HashMaxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("init hasher: %w", err)
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	return auth.NewService(repo, hasher, issuer, logger), nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
