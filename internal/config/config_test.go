package config

import (
	"os"
	"path/filepath"
	"testing"

	"FundReview/internal/checklist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "HTTP_ADDR",
		"STEP_POLICY", "STALE_DAYS", "CRON_DIGEST", "LOG_LEVEL", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/fund_checklist.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, 7, cfg.StaleDays())
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.False(t, cfg.TelegramEnabled())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, checklist.PolicyToggle, p)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  sqlite_path: /tmp/x.db
  history: false
checklist:
  step_policy: stamp_once
  stale_days: 3
telegram:
  bot_token: file-token
  chat_id: "42"
`), 0644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("STALE_DAYS", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, 10, cfg.StaleDays())
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.True(t, cfg.TelegramEnabled())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, checklist.PolicyStampOnce, p)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	cfg.Checklist.StepPolicy = "both"
	assert.Error(t, cfg.Validate())

	cfg.Checklist.StepPolicy = "toggle"
	cfg.Telegram.BotToken = "only-token"
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ZeroStaleDaysKept(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checklist:\n  stale_days: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.StaleDays())
	assert.NoError(t, cfg.Validate())

	t.Setenv("STALE_DAYS", "0")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.StaleDays())
}
