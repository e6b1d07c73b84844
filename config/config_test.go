package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, "restro.db", cfg.Database.SQLitePath)
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadRESTBackend(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_BACKEND", " REST ")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("DB_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendREST, cfg.Database.Backend)
	assert.Equal(t, 3*time.Second, cfg.Database.Timeout)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{
		LogLevel: "loud",
		Database: Database{Backend: BackendREST},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret key not set")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "SUPABASE_URL")
	assert.Contains(t, err.Error(), "SUPABASE_ANON_KEY")
}

func TestValidateUnknownBackend(t *testing.T) {
	cfg := Config{JWTSecret: "s", LogLevel: "info", Database: Database{Backend: "mysql"}}
	assert.ErrorContains(t, cfg.Validate(), `unknown DB_BACKEND "mysql"`)
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := Config{JWTSecret: "s", LogLevel: "info", Database: Database{Backend: BackendPostgres}}
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Database.PostgresURL = "postgres://localhost/restro"
	assert.NoError(t, cfg.Validate())
}
