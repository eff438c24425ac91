package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/service/botconfig"
)

const (
	historyChannelName  = "history"
	historyChannelTopic = "Exchange transaction history"
)

// Bootstrap loads the persisted channel roles and provisions what is missing:
// it auto-detects a leaderboard channel, finds or creates the stats voice channel
// and the history channel, then refreshes both public surfaces.
func (p *Publisher) Bootstrap(ctx context.Context) error {
	if err := p.config.Load(ctx); err != nil {
		return err
	}
	channels, err := p.platform.GuildChannels(ctx)
	if err != nil {
		return fmt.Errorf("list guild channels: %w", err)
	}

	cfg := p.config.Get()
	if cfg.LeaderboardChannelID == "" {
		if c := findChannel(channels, func(c chat.Channel) bool {
			return c.Type == chat.ChannelText && strings.Contains(strings.ToLower(c.Name), "leaderboard")
		}); c != nil {
			if err := p.config.Set(ctx, botconfig.LeaderboardChannel, c.ID); err != nil {
				return err
			}
			logger.Info().Str("channel", c.Name).Msg("Auto-detected leaderboard channel")
		}
	}

	stats, err := p.ensureChannel(ctx, channels, cfg.StatsChannelID,
		func(c chat.Channel) bool { return c.Type == chat.ChannelVoice && strings.Contains(c.Name, "Exchanged") },
		func() (chat.ChannelSpec, error) {
			total, err := p.ledger.GetGlobalTotal(ctx)
			if err != nil {
				return chat.ChannelSpec{}, err
			}
			return chat.ChannelSpec{Name: StatsChannelName(total), Type: chat.ChannelVoice, DenyConnect: true}, nil
		})
	if err != nil {
		return fmt.Errorf("stats channel: %w", err)
	}
	if err := p.config.Set(ctx, botconfig.StatsChannel, stats.ID); err != nil {
		return err
	}
	if err := p.RefreshStatsChannel(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial stats channel refresh failed")
	}

	history, err := p.ensureChannel(ctx, channels, cfg.HistoryChannelID,
		func(c chat.Channel) bool { return c.Type == chat.ChannelText && c.Name == historyChannelName },
		func() (chat.ChannelSpec, error) {
			return chat.ChannelSpec{Name: historyChannelName, Type: chat.ChannelText, Topic: historyChannelTopic}, nil
		})
	if err != nil {
		return fmt.Errorf("history channel: %w", err)
	}
	if err := p.config.Set(ctx, botconfig.HistoryChannel, history.ID); err != nil {
		return err
	}

	if err := p.Publish(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial leaderboard publish failed")
	}
	snap := p.config.Get()
	logger.Info().
		Str("stats", snap.StatsChannelID).
		Str("leaderboard", snap.LeaderboardChannelID).
		Str("history", snap.HistoryChannelID).
		Msg("Guild bootstrap complete")
	return nil
}

// ensureChannel returns the configured channel if it still exists, else the first
// channel matching match, else a newly created one.
func (p *Publisher) ensureChannel(ctx context.Context, channels []chat.Channel, configuredID string,
	match func(chat.Channel) bool, spec func() (chat.ChannelSpec, error)) (*chat.Channel, error) {
	if configuredID != "" {
		c, err := p.platform.Channel(ctx, configuredID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		logger.Warn().Str("channel_id", configuredID).Msg("Configured channel is gone")
	}
	if c := findChannel(channels, match); c != nil {
		return c, nil
	}
	s, err := spec()
	if err != nil {
		return nil, err
	}
	c, err := p.platform.CreateChannel(ctx, s)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("channel", c.Name).Msg("Created channel")
	return c, nil
}

func findChannel(channels []chat.Channel, match func(chat.Channel) bool) *chat.Channel {
	for i := range channels {
		if match(channels[i]) {
			c := channels[i]
			return &c
		}
	}
	return nil
}
