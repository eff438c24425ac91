package bot

import (
	"context"
	"fmt"
	"strings"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/service/botconfig"
)

const msgAdminsOnly = "❌ Only administrators can use this command."

// LeaderboardPublisher republishes the leaderboard message.
type LeaderboardPublisher interface {
	Publish(ctx context.Context) error
}

// Admin implements the channel-configuration and utility commands.
type Admin struct {
	platform  chat.Platform
	config    *botconfig.Store
	publisher LeaderboardPublisher
}

func NewAdmin(platform chat.Platform, config *botconfig.Store, publisher LeaderboardPublisher) *Admin {
	return &Admin{platform: platform, config: config, publisher: publisher}
}

// SetLeaderboard makes the invoking channel the leaderboard channel and publishes to it.
func (a *Admin) SetLeaderboard(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError(msgAdminsOnly)
	}
	if err := a.config.Set(ctx, botconfig.LeaderboardChannel, ev.ChannelID); err != nil {
		return chat.Reply{}, apperrors.NewDatabaseError("set_leaderboard_channel", err)
	}
	// A new channel never holds the old board message.
	if err := a.config.Set(ctx, botconfig.LeaderboardMessage, ""); err != nil {
		return chat.Reply{}, apperrors.NewDatabaseError("reset_leaderboard_message", err)
	}
	logger.Info().Str("channel_id", ev.ChannelID).Str("admin_id", ev.UserID).Msg("Leaderboard channel set")
	if err := a.publisher.Publish(ctx); err != nil {
		logger.Warn().Err(err).Msg("Leaderboard publish failed")
	}
	return chat.Text(fmt.Sprintf("✅ Leaderboard channel set to <#%s>! The leaderboard will update every hour.", ev.ChannelID), true), nil
}

// UpdateLeaderboard republishes on demand.
func (a *Admin) UpdateLeaderboard(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError(msgAdminsOnly)
	}
	if a.config.Get().LeaderboardChannelID == "" {
		return chat.Reply{}, apperrors.NewValidationError("❌ No leaderboard channel has been set. Use `/set-leaderboard` first.")
	}
	if err := a.publisher.Publish(ctx); err != nil {
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "❌ Failed to update leaderboard.")
	}
	return chat.Text("✅ Leaderboard has been updated!", true), nil
}

// Message posts text to the invoking channel as the bot.
func (a *Admin) Message(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError(msgAdminsOnly)
	}
	text := ev.Option(chat.OptText)
	if strings.TrimSpace(text) == "" {
		return chat.Reply{}, apperrors.NewValidationError("❌ Message text cannot be empty.")
	}
	if _, err := a.platform.SendMessage(ctx, ev.ChannelID, chat.Message{Content: text}); err != nil {
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "❌ Failed to send message.")
	}
	return chat.Text("✅ Message sent!", true), nil
}

// Supported lists the currencies the desk handles.
func (a *Admin) Supported(_ context.Context, _ chat.Event) (chat.Reply, error) {
	content := "📋 **Supported Currencies**\n\n" +
		"**Cryptocurrencies:**\n" + strings.Join(exchange.SupportedCryptoSymbols, ", ") + "\n\n" +
		"**Fiat Currencies:**\n" + strings.Join(exchange.SupportedFiat, ", ")
	return chat.Text(content, false), nil
}
