package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/service/wizard"
)

// HistoryEmbed renders one completed ticket for the history channel.
func HistoryEmbed(e stats.HistoryEntry) chat.Embed {
	owner := "Unknown User"
	if e.OwnerID != "" {
		owner = "<@" + e.OwnerID + ">"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**User:** %s\n", owner)
	fmt.Fprintf(&b, "**From:** %s\n**To:** %s\n", e.From, e.To)
	fmt.Fprintf(&b, "**Amount:** %s\n", wizard.Money(e.Amount))
	fmt.Fprintf(&b, "**Total Exchanged:** %s\n", wizard.Money(e.Total))
	fmt.Fprintf(&b, "**Completed by:** <@%s>", e.CompletedBy)
	return chat.Embed{
		Title:       "📜 Exchange Completed",
		Description: b.String(),
		Color:       chat.ColorBlurple,
		Timestamp:   e.CompletedAt,
	}
}

// Record posts a completed ticket to the history channel. It is a no-op when no
// history channel is configured.
func (p *Publisher) Record(ctx context.Context, e stats.HistoryEntry) error {
	channelID := p.config.Get().HistoryChannelID
	if channelID == "" {
		logger.Debug().Str("channel_id", e.ChannelID).Msg("No history channel set, skipping history entry")
		return nil
	}
	if _, err := p.platform.SendMessage(ctx, channelID, chat.Message{Embeds: []chat.Embed{HistoryEmbed(e)}}); err != nil {
		return fmt.Errorf("post history: %w", err)
	}
	return nil
}
