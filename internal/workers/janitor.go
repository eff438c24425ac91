package workers

import (
	"context"
	"time"

	"exchange-ticket-bot/internal/common/logger"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// Janitor periodically sweeps in-memory stores. Redis-backed stores expire on their own.
type Janitor struct {
	interval time.Duration
	sweepers map[string]Sweeper
}

func NewJanitor(interval time.Duration, sweepers map[string]Sweeper) *Janitor {
	return &Janitor{interval: interval, sweepers: sweepers}
}

func (j *Janitor) Start(ctx context.Context) {
	if len(j.sweepers) == 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// SweepOnce runs every sweeper once.
func (j *Janitor) SweepOnce() {
	for name, s := range j.sweepers {
		if n := s.Sweep(); n > 0 {
			logger.Debug().Str("store", name).Int("removed", n).Msg("Swept expired entries")
		}
	}
}
