package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	cfg := LoadFrom(writeConfig(t, "server:\n  port: 9090\n"))

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, 20, cfg.Resume.BatchSize)
	assert.Equal(t, 5, cfg.Resume.MaxSelected)
	assert.Equal(t, 5, cfg.Resume.MaxRetries)
	assert.Equal(t, "resume", cfg.Resume.Identity)
	assert.Equal(t, "sb-access-token", cfg.Auth.SessionCookie)
	assert.Equal(t, "2023-06-01", cfg.Providers.Anthropic.Version)
	assert.Empty(t, cfg.DB.DSN, "no host configured means no DSN")
}

func TestLoadFromBuildsMySQLDSN(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "s3cret")
	cfg := LoadFrom(writeConfig(t, `
database:
  host: db.internal
  port: 3306
  username: kit
  database: kitai
`))

	assert.Equal(t, "kit:s3cret@tcp(db.internal:3306)/kitai?charset=utf8mb4&parseTime=true", cfg.DB.DSN)
}

func TestLoadFromBuildsPostgresDSN(t *testing.T) {
	cfg := LoadFrom(writeConfig(t, `
database:
  driver: postgres
  host: db.supabase.co
  port: 5432
  username: postgres
  password: pw
  database: postgres
  ssl_mode: require
`))

	assert.Equal(t, "postgres://postgres:pw@db.supabase.co:5432/postgres?sslmode=require", cfg.DB.DSN)
}

func TestLoadFromKeepsExplicitValues(t *testing.T) {
	cfg := LoadFrom(writeConfig(t, `
resume:
  batch_size: 10
  max_selected: 3
wordpress:
  per_page: 500
`))

	assert.Equal(t, 10, cfg.Resume.BatchSize)
	assert.Equal(t, 3, cfg.Resume.MaxSelected)
	assert.Equal(t, 100, cfg.WordPress.PerPage, "per_page is capped by the WordPress API limit")
}

func TestLoadFromFallsBackToEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_DSN", "user:pw@tcp(localhost:3306)/kitai")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "user:pw@tcp(localhost:3306)/kitai", cfg.DB.DSN)
}

func TestLoadFromBrokenYAML(t *testing.T) {
	t.Setenv("SERVER_PORT", "6060")
	cfg := LoadFrom(writeConfig(t, "server: [unclosed"))

	assert.Equal(t, ":6060", cfg.Server.Addr)
}
