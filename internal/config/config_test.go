package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DISCORD_APPLICATION_ID", "app")
	t.Setenv("DISCORD_GUILD_ID", "guild")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.Exchange.SelectionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Exchange.DedupWindow)
	assert.Equal(t, time.Hour, cfg.Exchange.LeaderboardInterval)
	assert.Equal(t, 3, cfg.Exchange.TicketLimit)
	assert.Equal(t, "tickets", cfg.Exchange.TicketsCategory)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_APPLICATION_ID", "")
	t.Setenv("DISCORD_GUILD_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_LIMIT", "5")
	t.Setenv("SELECTION_TTL", "30m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Exchange.TicketLimit)
	assert.Equal(t, 30*time.Minute, cfg.Exchange.SelectionTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_RejectsNonPositiveLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_LIMIT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICKET_LIMIT")
}
