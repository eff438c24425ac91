// Package tickets coordinates the exchange ticket lifecycle: creating the private
// channel for a confirmed selection, claiming, completing and closing it, and the
// administrative adjustments to user totals.
package tickets

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/repository"
	"exchange-ticket-bot/internal/service/botconfig"
	"exchange-ticket-bot/internal/state"
	"exchange-ticket-bot/internal/workers"
)

const (
	// CompleteDeleteDelay and CloseDeleteDelay are how long a finished ticket channel stays visible.
	CompleteDeleteDelay = 10 * time.Second
	CloseDeleteDelay    = 5 * time.Second

	// ownerScanLimit bounds the message history searched when the registry has no owner.
	ownerScanLimit = 100

	DefaultCategory = "tickets"
)

// Publisher refreshes the public surfaces derived from the ledger.
type Publisher interface {
	Publish(ctx context.Context) error
	RefreshStatsChannel(ctx context.Context) error
}

// HistoryRecorder keeps a record of completed tickets.
type HistoryRecorder interface {
	Record(ctx context.Context, e stats.HistoryEntry) error
}

// Scheduler runs deferred work such as channel deletion.
type Scheduler interface {
	Schedule(delay time.Duration, name string, fn func(ctx context.Context)) workers.Token
}

// Service is the ticket coordinator.
type Service struct {
	platform   chat.Platform
	selections state.SelectionStore
	registry   state.TicketRegistry
	ledger     repository.Ledger
	config     *botconfig.Store
	publisher  Publisher
	history    HistoryRecorder
	scheduler  Scheduler
	locks      *state.KeyedMutex

	category string
	newID    func() string
	now      func() time.Time

	// closing holds channels with a pending deletion so a second complete or close is refused.
	closingMu sync.Mutex
	closing   map[string]struct{}
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Platform   chat.Platform
	Selections state.SelectionStore
	Registry   state.TicketRegistry
	Ledger     repository.Ledger
	Config     *botconfig.Store
	Publisher  Publisher
	// History is optional.
	History    HistoryRecorder
	Scheduler  Scheduler
	// Locks must be the same KeyedMutex the wizard uses.
	Locks      *state.KeyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithCategory sets the name of the category ticket channels live under. Matching is case-insensitive.
func WithCategory(name string) Option {
	return func(s *Service) {
		if strings.TrimSpace(name) != "" {
			s.category = strings.TrimSpace(name)
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func NewService(d Deps, opts ...Option) *Service {
	s := &Service{
		platform:   d.Platform,
		selections: d.Selections,
		registry:   d.Registry,
		ledger:     d.Ledger,
		config:     d.Config,
		publisher:  d.Publisher,
		history:    d.History,
		scheduler:  d.Scheduler,
		locks:      d.Locks,
		category:   DefaultCategory,
		newID:      uuid.NewString,
		now:        time.Now,
		closing:    make(map[string]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ActiveTickets counts the user's registered tickets whose channel still exists.
// Tickets whose channel was deleted out of band are dropped from the registry.
func (s *Service) ActiveTickets(ctx context.Context, userID string) (int, error) {
	tickets, err := s.registry.ListByOwner(ctx, userID)
	if err != nil {
		return 0, err
	}
	active := 0
	for _, t := range tickets {
		_, err := s.platform.Channel(ctx, t.ChannelID)
		switch {
		case err == nil:
			active++
		case errors.Is(err, chat.ErrNotFound):
			if _, err := s.registry.Remove(ctx, t.ChannelID); err != nil {
				logger.Warn().Err(err).Str("channel_id", t.ChannelID).Msg("Failed to prune stale ticket")
				continue
			}
			logger.Info().Str("user_id", userID).Str("channel_id", t.ChannelID).Msg("Pruned ticket with deleted channel")
		default:
			// Unknown state counts against the limit.
			logger.Warn().Err(err).Str("channel_id", t.ChannelID).Msg("Ticket channel lookup failed")
			active++
		}
	}
	return active, nil
}

// beginClosing marks a channel as finishing. It reports false when it already is.
func (s *Service) beginClosing(channelID string) bool {
	s.closingMu.Lock()
	defer s.closingMu.Unlock()
	if _, ok := s.closing[channelID]; ok {
		return false
	}
	s.closing[channelID] = struct{}{}
	return true
}

func (s *Service) endClosing(channelID string) {
	s.closingMu.Lock()
	delete(s.closing, channelID)
	s.closingMu.Unlock()
}

// scheduleDelete removes the channel after delay. Once scheduled the deletion is not withdrawn.
func (s *Service) scheduleDelete(channelID, reason string, delay time.Duration) {
	s.scheduler.Schedule(delay, "delete-channel:"+channelID, func(ctx context.Context) {
		defer s.endClosing(channelID)
		err := s.platform.DeleteChannel(ctx, channelID, reason)
		if err != nil && !errors.Is(err, chat.ErrNotFound) {
			logger.Error().Err(err).Str("channel_id", channelID).Msg("Error deleting channel")
			return
		}
		logger.Info().Str("channel_id", channelID).Str("reason", reason).Msg("Ticket channel deleted")
	})
}

func (s *Service) refreshSurfaces(ctx context.Context, withStats bool) {
	if withStats {
		if err := s.publisher.RefreshStatsChannel(ctx); err != nil {
			logger.Warn().Err(err).Msg("Stats channel refresh failed")
		}
	}
	if err := s.publisher.Publish(ctx); err != nil {
		logger.Warn().Err(err).Msg("Leaderboard publish failed")
	}
}

// announce posts to the leaderboard channel when one is configured.
func (s *Service) announce(ctx context.Context, embed chat.Embed) {
	channelID := s.config.Get().LeaderboardChannelID
	if channelID == "" {
		return
	}
	if _, err := s.platform.SendMessage(ctx, channelID, chat.Message{Embeds: []chat.Embed{embed}}); err != nil {
		logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to post to leaderboard channel")
	}
}
