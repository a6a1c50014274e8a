// Package config loads process configuration from the environment once at
// startup. The returned Config is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minBcryptCost = 10

type Config struct {
	JWTSecret string `env:"JWT_SECRET"`
	// SecretKey is the older name for JWT_SECRET.
	SecretKey string `env:"SECRET_KEY"`

	DBDriver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBHost            string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort            int           `env:"DB_PORT" envDefault:"5433"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME"`
	DBSSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`
	RunMigrations     bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	Port      string `env:"PORT" envDefault:"3000"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	SentryDSN string `env:"SENTRY_DSN"`

	BcryptCost         int `env:"BCRYPT_COST" envDefault:"10"`
	HashMaxConcurrency int `env:"HASH_MAX_CONCURRENCY" envDefault:"0"`

	SeedUsername string `env:"SEED_USERNAME"`
	SeedPassword string `env:"SEED_PASSWORD"`
}

type Options struct {
	LoadDotEnv bool
}

func Load(options Options) (Config, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = strings.TrimSpace(cfg.SecretKey)
	}
	cfg.SecretKey = ""
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("missing required env: JWT_SECRET")
	}
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" && c.DBName == "" {
			return errors.New("missing required env: DATABASE_URL or DB_NAME")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			return errors.New("missing required env: DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between %d and 31", minBcryptCost)
	}
	if c.HashMaxConcurrency < 0 {
		return errors.New("HASH_MAX_CONCURRENCY must not be negative")
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive and DB_MAX_IDLE_CONNS not negative")
	}
	return nil
}

// DSN returns DATABASE_URL or, for postgres, a URL assembled from the DB_*
// parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" || c.DBDriver != "postgres" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	if c.DBUser != "" {
		if c.DBPassword != "" {
			u.User = url.UserPassword(c.DBUser, c.DBPassword)
		} else {
			u.User = url.User(c.DBUser)
		}
	}

	return u.String()
}

func (c Config) Addr() string {
	return ":" + c.Port
}
