package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  json: true
telegram:
  token: "123:abc"
  super_admin_id: 42
database:
  driver: postgres
  dsn: "postgres://bot@localhost/bot"
broadcast:
  interval: 250ms
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
      schedule: "0 0 3 * * *"
survey:
  gender_options: ["M", "F"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logger.Level)
	require.True(t, cfg.Logger.JSON)
	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.Equal(t, int64(42), cfg.Telegram.SuperAdminID)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 250*time.Millisecond, cfg.Broadcast.Interval)
	require.Equal(t, []string{"M", "F"}, cfg.Survey.GenderOptions)
	require.Equal(t, []string{"До 22", "22-30", "Более 30"}, cfg.Survey.AgeOptions)
	require.False(t, cfg.Scheduler.Tasks[SQLMaintenanceTask].Enabled)
	require.True(t, cfg.Scheduler.Tasks[SessionSweepTask].Enabled)
	require.Equal(t, defaultMessages.Welcome, cfg.Messages.Welcome)
}

func TestLoadConfigMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("DATABASE_URL", "postgres://env@localhost/db")
	t.Setenv("SURVEYBOT_DATABASE_DRIVER", "postgres")
	t.Setenv("SURVEYBOT_LOGGER_LEVEL", "warn")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, "env-token", cfg.Telegram.Token)
	require.Equal(t, "postgres://env@localhost/db", cfg.Database.DSN)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "warn", cfg.Logger.Level)
	require.Equal(t, int64(DefaultSuperAdminID), cfg.Telegram.SuperAdminID)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: "logger:\n  level: info\n"},
		{name: "unknown driver", body: "telegram:\n  token: x\ndatabase:\n  driver: mysql\n"},
		{name: "bad log level", body: "telegram:\n  token: x\nlogger:\n  level: loud\n"},
		{name: "chunk too large", body: "telegram:\n  token: x\nreport:\n  chunk_size: 10000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestDefaultIsValidOnceTokenIsSet(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Telegram.Token = "token"
	require.NoError(t, Validate(cfg))
}
