package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mess-management-api/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, 30*24*time.Hour, cfg.Log.Retention)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: true,
		},
		{
			name:    "missing database url",
			modify:  func(c *Config) { c.Database.URL = "" },
			wantErr: true,
		},
		{
			name:    "default secret in production",
			modify:  func(c *Config) { c.Environment = "production" },
			wantErr: true,
		},
		{
			name: "custom secret in production",
			modify: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = "something-long-and-random"
			},
			wantErr: false,
		},
		{
			name:    "ses without sender",
			modify:  func(c *Config) { c.Mail.Provider = "ses"; c.Mail.From = "" },
			wantErr: true,
		},
		{
			name:    "unknown mail provider",
			modify:  func(c *Config) { c.Mail.Provider = "pigeon" },
			wantErr: true,
		},
		{
			name:    "discord token without channel",
			modify:  func(c *Config) { c.Discord.Token = "abc" },
			wantErr: true,
		},
		{
			name:    "bad cleanup schedule",
			modify:  func(c *Config) { c.Log.CleanupSchedule = "every so often" },
			wantErr: true,
		},
		{
			name:    "cron cleanup schedule",
			modify:  func(c *Config) { c.Log.CleanupSchedule = "0 3 * * *" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mess.yaml")
	content := `
port: "9000"
database:
  driver: sqlite
  url: "file-from-yaml.db"
mail:
  provider: log
  from: "kitchen@example.com"
log:
  retention: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DATABASE_URL", "file-from-env.db")
	t.Setenv("SESSION_DURATION", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "file-from-env.db", cfg.Database.URL)
	assert.Equal(t, "kitchen@example.com", cfg.Mail.From)
	assert.Equal(t, 48*time.Hour, cfg.Log.Retention)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionDuration)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestOpenDB_SQLiteMigrates(t *testing.T) {
	db, err := OpenDB(DatabaseConfig{Driver: "sqlite", URL: ":memory:", AutoMigrate: true}, logger.NewNop())
	require.NoError(t, err)

	for _, table := range []string{"users", "menu_entries", "reviews", "suggestions", "suggestion_votes", "attendances", "sessions", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
