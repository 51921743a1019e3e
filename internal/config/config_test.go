package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/rojitobot/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
telegram:
  token: "123456:abc"
  admin_user_id: 42
ai:
  gemini:
    api_key: "key"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.MaxRetries)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, float32(0.5), cfg.AI.Temperature)
	assert.Equal(t, 2*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, "es", cfg.Conversation.DefaultLanguage)
	assert.Nil(t, cfg.Conversation.Temperature)
	assert.Nil(t, cfg.Broadcast.Temperature)
	assert.Equal(t, 4096, cfg.Telegram.MaxMessageLength)
	assert.Equal(t, time.Duration(0), cfg.Registry.TTL)
	assert.True(t, cfg.Scheduler.Tasks["broadcast"].Enabled)
	assert.False(t, cfg.Scheduler.Tasks["registry_cleanup"].Enabled)
	assert.Equal(t, "Tabla vacía", cfg.Messages.LeaderboardEmpty["es"])
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, minimalConfig+`
conversation:
  default_language: en
broadcast:
  temperature: 0.2
registry:
  ttl: 720h
scheduler:
  tasks:
    registry_cleanup:
      enabled: true
messages:
  leaderboard_empty:
    en: "Nobody yet"
`))
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Conversation.DefaultLanguage)
	require.NotNil(t, cfg.Broadcast.Temperature)
	assert.InDelta(t, 0.2, *cfg.Broadcast.Temperature, 0.0001)
	assert.Nil(t, cfg.Conversation.Temperature)
	assert.Equal(t, 720*time.Hour, cfg.Registry.TTL)
	assert.True(t, cfg.Scheduler.Tasks["registry_cleanup"].Enabled)
	assert.Equal(t, "0 30 3 * * *", cfg.Scheduler.Tasks["registry_cleanup"].Schedule)
	assert.Equal(t, "Nobody yet", cfg.Messages.LeaderboardEmpty["en"])
	assert.Equal(t, "Tabla vacía", cfg.Messages.LeaderboardEmpty["es"])
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "from-env")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "7")
	t.Setenv("BOT_AI_GEMINI_API_KEY", "env-key")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.AdminUserID)
	assert.Equal(t, "env-key", cfg.AI.Gemini.APIKey)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: "telegram:\n  admin_user_id: 1\nai:\n  gemini:\n    api_key: k\n"},
		{name: "unsupported language", body: minimalConfig + "conversation:\n  default_language: fr\n"},
		{name: "unknown driver", body: minimalConfig + "store:\n  driver: mongo\n"},
		{name: "redis without url", body: minimalConfig + "store:\n  driver: redis\n"},
		{name: "openai without key", body: "telegram:\n  token: t\n  admin_user_id: 1\nai:\n  provider: openai\n"},
		{name: "broadcast temperature too high", body: minimalConfig + "broadcast:\n  temperature: 3\n"},
		{name: "message length over telegram limit", body: minimalConfig + "telegram:\n  max_message_length: 5000\n"},
		{name: "bad log level", body: minimalConfig + "logger:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))
			require.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestText(t *testing.T) {
	t.Parallel()
	msgs := map[string]string{"en": "hello", "es": "hola"}

	assert.Equal(t, "hola", config.Text(msgs, "es", "en"))
	assert.Equal(t, "hola", config.Text(msgs, "ko", "es"))
	assert.Equal(t, "hello", config.Text(msgs, "ko", "pt"))
	assert.True(t, config.IsSupportedLanguage("ko"))
	assert.False(t, config.IsSupportedLanguage("fr"))
}
