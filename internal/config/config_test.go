package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_DRIVER", "JANITOR_INTERVAL", "JANITOR_IDEMPOTENCY_TTL", "SERVER_SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Janitor.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Janitor.IdempotencyTTL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("JANITOR_INTERVAL", "5m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.Janitor.Interval)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
port: "3000"
database:
  driver: sqlite
  sqlite_path: data/tasks.db
log:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/tasks.db", cfg.Database.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_RejectsZeroJanitorInterval(t *testing.T) {
	t.Setenv("JANITOR_INTERVAL", "0s")

	_, err := Load("")
	assert.ErrorContains(t, err, "janitor.interval")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Port:     "8080",
		Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"},
		Janitor:  JanitorConfig{Interval: time.Hour, IdempotencyTTL: 24 * time.Hour},
		Server:   ServerConfig{ShutdownTimeout: 10 * time.Second},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name: "postgres",
			modify: func(c *Config) {
				c.Database = DatabaseConfig{Driver: DriverPostgres, URL: "postgres://x"}
			},
		},
		{
			name:   "sqlite",
			modify: func(c *Config) {},
		},
		{
			name:    "postgres without url",
			modify:  func(c *Config) { c.Database = DatabaseConfig{Driver: DriverPostgres} },
			wantErr: true,
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Database = DatabaseConfig{Driver: "mysql"} },
			wantErr: true,
		},
		{
			name:    "no port",
			modify:  func(c *Config) { c.Port = "" },
			wantErr: true,
		},
		{
			name:    "zero janitor interval",
			modify:  func(c *Config) { c.Janitor.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "negative janitor interval",
			modify:  func(c *Config) { c.Janitor.Interval = -time.Minute },
			wantErr: true,
		},
		{
			name:   "zero idempotency ttl",
			modify: func(c *Config) { c.Janitor.IdempotencyTTL = 0 },
		},
		{
			name:    "negative idempotency ttl",
			modify:  func(c *Config) { c.Janitor.IdempotencyTTL = -time.Hour },
			wantErr: true,
		},
		{
			name:    "zero shutdown timeout",
			modify:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
