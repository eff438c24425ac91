// Package leaderboard renders ledger totals onto the guild: the top-10 board message
// and the stats channel whose name carries the global total.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/metrics"
	"exchange-ticket-bot/internal/repository"
	"exchange-ticket-bot/internal/service/botconfig"
	"exchange-ticket-bot/internal/service/wizard"
)

// TopN is the number of users shown on the board.
const TopN = 10

const emptyBoard = "No exchanges completed yet. Start using `/complete-ticket` to track stats!"

var medals = []string{"🥇", "🥈", "🥉"}

// Publisher keeps the leaderboard message and stats channel in step with the ledger.
type Publisher struct {
	platform chat.Platform
	ledger   repository.Ledger
	config   *botconfig.Store
	now      func() time.Time

	// mu serialises publishes so two callers never both create a board message.
	mu sync.Mutex
}

func NewPublisher(platform chat.Platform, ledger repository.Ledger, config *botconfig.Store) *Publisher {
	return &Publisher{platform: platform, ledger: ledger, config: config, now: time.Now}
}

// StatsChannelName is the display name of the stats channel for a total.
func StatsChannelName(total decimal.Decimal) string {
	return fmt.Sprintf("💰 %s Exchanged", wizard.Money(total))
}

// Render builds the board embed from users already ordered by total.
func Render(users []stats.UserStats, total decimal.Decimal, now time.Time) chat.Embed {
	if len(users) > TopN {
		users = users[:TopN]
	}
	desc := emptyBoard
	if len(users) > 0 {
		rows := make([]string, 0, len(users))
		for i, u := range users {
			rank := fmt.Sprintf("**%d.**", i+1)
			if i < len(medals) {
				rank = medals[i]
			}
			rows = append(rows, fmt.Sprintf("%s <@%s> - **%s**", rank, u.UserID, wizard.Money(u.TotalExchanged)))
		}
		desc = strings.Join(rows, "\n")
	}
	return chat.Embed{
		Title:       "🏆 Top 10 Exchange Leaderboard",
		Description: desc,
		Color:       chat.ColorGold,
		Footer:      fmt.Sprintf("Total Exchanged: %s | Updates every hour", wizard.Money(total)),
		Timestamp:   now,
	}
}

// Publish edits the recorded board message, or posts a new one and records its id
// when there is none or the edit fails. It is a no-op without a leaderboard channel.
func (p *Publisher) Publish(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.config.Get()
	if cfg.LeaderboardChannelID == "" {
		return nil
	}
	users, err := p.ledger.ListUsersByTotalDesc(ctx, TopN)
	if err != nil {
		metrics.LeaderboardPublishesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("list users: %w", err)
	}
	total, err := p.ledger.GetGlobalTotal(ctx)
	if err != nil {
		metrics.LeaderboardPublishesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("global total: %w", err)
	}
	msg := chat.Message{Embeds: []chat.Embed{Render(users, total, p.now())}}

	if cfg.LeaderboardMessageID != "" {
		err := p.platform.EditMessage(ctx, cfg.LeaderboardChannelID, cfg.LeaderboardMessageID, msg)
		if err == nil {
			metrics.LeaderboardPublishesTotal.WithLabelValues("edited").Inc()
			return nil
		}
		logger.Info().Err(err).Str("message_id", cfg.LeaderboardMessageID).Msg("Leaderboard message not editable, posting a new one")
	}

	id, err := p.platform.SendMessage(ctx, cfg.LeaderboardChannelID, msg)
	if err != nil {
		metrics.LeaderboardPublishesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("post leaderboard: %w", err)
	}
	if err := p.config.Set(ctx, botconfig.LeaderboardMessage, id); err != nil {
		metrics.LeaderboardPublishesTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.LeaderboardPublishesTotal.WithLabelValues("created").Inc()
	logger.Info().Str("channel_id", cfg.LeaderboardChannelID).Str("message_id", id).Msg("Leaderboard message posted")
	return nil
}

// RefreshStatsChannel renames the stats channel to show the global total. Platform
// throttling is expected and only logged.
func (p *Publisher) RefreshStatsChannel(ctx context.Context) error {
	channelID := p.config.Get().StatsChannelID
	if channelID == "" {
		logger.Debug().Msg("No stats channel set")
		return nil
	}
	total, err := p.ledger.GetGlobalTotal(ctx)
	if err != nil {
		return fmt.Errorf("global total: %w", err)
	}
	err = p.platform.RenameChannel(ctx, channelID, StatsChannelName(total))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, chat.ErrRateLimited):
		logger.Info().Str("channel_id", channelID).Msg("Stats channel rename rate-limited, will retry on next update")
		return nil
	case errors.Is(err, chat.ErrNotFound):
		logger.Warn().Str("channel_id", channelID).Msg("Stats channel not found")
		return nil
	case errors.Is(err, chat.ErrForbidden):
		logger.Error().Str("channel_id", channelID).Msg("Missing permissions to update stats channel")
		return nil
	}
	return fmt.Errorf("rename stats channel: %w", err)
}
