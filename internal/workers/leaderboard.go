package workers

import (
	"context"
	"time"

	"exchange-ticket-bot/internal/common/logger"
)

// Refresher republishes the public leaderboard surfaces.
type Refresher interface {
	Publish(ctx context.Context) error
	RefreshStatsChannel(ctx context.Context) error
}

// LeaderboardWorker republishes the leaderboard and stats channel on a fixed interval.
type LeaderboardWorker struct {
	refresher Refresher
	interval  time.Duration
}

func NewLeaderboardWorker(r Refresher, interval time.Duration) *LeaderboardWorker {
	return &LeaderboardWorker{refresher: r, interval: interval}
}

// Start blocks until ctx is cancelled. The first refresh happens one interval after start.
func (w *LeaderboardWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	logger.Info().Dur("interval", w.interval).Msg("Starting leaderboard worker")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping leaderboard worker")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *LeaderboardWorker) tick(ctx context.Context) {
	if err := w.refresher.Publish(ctx); err != nil {
		logger.Error().Err(err).Msg("Scheduled leaderboard update failed")
	}
	if err := w.refresher.RefreshStatsChannel(ctx); err != nil {
		logger.Error().Err(err).Msg("Scheduled stats channel update failed")
	}
}
