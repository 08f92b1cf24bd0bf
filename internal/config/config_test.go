package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("BOT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "./data", cfg.Database.DataDir)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, 9, cfg.Reminder.Hour)
	assert.Equal(t, "UTC", cfg.Reminder.Timezone)
	assert.Equal(t, "en-US", cfg.Speech.Locale)
	assert.InDelta(t, 0.9, cfg.Speech.Rate, 1e-9)
	assert.Equal(t, 2, cfg.Study.MasteredQuota)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
bot:
  enabled: true
  token: "123:abc"
  owner_id: 42
reminder:
  hour: 20
study:
  mastered_quota: 5
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("REMINDER_HOUR", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(42), cfg.Bot.OwnerID)
	assert.Equal(t, 7, cfg.Reminder.Hour)
	assert.Equal(t, 5, cfg.Study.MasteredQuota)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite3", DataDir: "./data"},
			Bot:      BotConfig{Enabled: true, Token: "t", OwnerID: 1},
			Reminder: ReminderConfig{Hour: 9, Timezone: "UTC"},
			Speech:   SpeechConfig{Locale: "en-US", Rate: 0.9},
			Study:    StudyConfig{MasteredQuota: 2},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bot disabled without token", mutate: func(c *Config) { c.Bot = BotConfig{} }},
		{name: "missing token", mutate: func(c *Config) { c.Bot.Token = "" }, wantErr: true},
		{name: "missing owner", mutate: func(c *Config) { c.Bot.OwnerID = 0 }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "hour out of range", mutate: func(c *Config) { c.Reminder.Hour = 24 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Reminder.Timezone = "Mars/Base" }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.Speech.Rate = 0 }, wantErr: true},
		{name: "negative quota", mutate: func(c *Config) { c.Study.MasteredQuota = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
