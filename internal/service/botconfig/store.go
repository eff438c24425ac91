// Package botconfig holds the runtime channel roles the bot publishes to.
package botconfig

import (
	"context"
	"fmt"
	"sync"

	"exchange-ticket-bot/internal/common/logger"
)

// Key names a persisted channel role.
type Key string

const (
	StatsChannel       Key = "statsChannelId"
	LeaderboardChannel Key = "leaderboardChannelId"
	HistoryChannel     Key = "historyChannelId"
	LeaderboardMessage Key = "leaderboardMessageId"
)

var keys = []Key{StatsChannel, LeaderboardChannel, HistoryChannel, LeaderboardMessage}

// Snapshot is a point-in-time copy of the configuration.
type Snapshot struct {
	StatsChannelID       string
	LeaderboardChannelID string
	HistoryChannelID     string
	LeaderboardMessageID string
}

// Backend persists configuration values. repository.Ledger satisfies it.
type Backend interface {
	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Store is the single owner of BotConfig. Writes persist first and only then update memory.
type Store struct {
	backend Backend

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads every key from the backend.
func (s *Store) Load(ctx context.Context) error {
	var snap Snapshot
	for _, k := range keys {
		v, _, err := s.backend.GetConfig(ctx, string(k))
		if err != nil {
			return fmt.Errorf("load %s: %w", k, err)
		}
		snap.set(k, v)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	logger.Info().
		Str("stats", snap.StatsChannelID).
		Str("leaderboard", snap.LeaderboardChannelID).
		Str("history", snap.HistoryChannelID).
		Msg("Bot config loaded")
	return nil
}

// Get returns the current snapshot.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Set persists value under key and updates the in-memory snapshot.
func (s *Store) Set(ctx context.Context, key Key, value string) error {
	if err := s.backend.SetConfig(ctx, string(key), value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.mu.Lock()
	s.snap.set(key, value)
	s.mu.Unlock()
	return nil
}

func (sn *Snapshot) set(k Key, v string) {
	switch k {
	case StatsChannel:
		sn.StatsChannelID = v
	case LeaderboardChannel:
		sn.LeaderboardChannelID = v
	case HistoryChannel:
		sn.HistoryChannelID = v
	case LeaderboardMessage:
		sn.LeaderboardMessageID = v
	}
}
