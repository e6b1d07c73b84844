package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

var SecretKey []byte

type Config struct {
	Port      string `env:"PORT" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	JWTSecret string `env:"JWT_SECRET_KEY"`
	SeedDemo  bool   `env:"SEED_DEMO" envDefault:"false"`
	Database  Database
}

// Database selects and configures the storage backend.
type Database struct {
	Backend     string        `env:"DB_BACKEND" envDefault:"sqlite"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"restro.db"`
	PostgresURL string        `env:"DATABASE_URL"`
	SupabaseURL string        `env:"SUPABASE_URL"`
	SupabaseKey string        `env:"SUPABASE_ANON_KEY"`
	Timeout     time.Duration `env:"DB_TIMEOUT" envDefault:"10s"`
}

// Init loads .env (when present), parses the environment and fails hard on invalid settings.
func Init() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Fatalf("failed to load .env, error: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		logrus.Fatalf("invalid configuration, error: %v", err)
	}
	SecretKey = []byte(cfg.JWTSecret)

	return cfg
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Database.Backend = strings.ToLower(strings.TrimSpace(cfg.Database.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var result *multierror.Error

	if c.JWTSecret == "" {
		result = multierror.Append(result, errors.New("JWT secret key not set"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.SQLitePath == "" {
			result = multierror.Append(result, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Database.PostgresURL == "" {
			result = multierror.Append(result, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendREST:
		if c.Database.SupabaseURL == "" {
			result = multierror.Append(result, errors.New("SUPABASE_URL is required for the rest backend"))
		}
		if c.Database.SupabaseKey == "" {
			result = multierror.Append(result, errors.New("SUPABASE_ANON_KEY is required for the rest backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown DB_BACKEND %q", c.Database.Backend))
	}

	return result.ErrorOrNil()
}
