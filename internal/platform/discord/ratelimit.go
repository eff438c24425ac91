package discord

import (
	"sync"
	"time"
)

// Discord allows two channel name changes per channel every ten minutes.
const (
	renameBurst  = 2
	renameWindow = 10 * time.Minute
)

// renameLimiter tracks recent renames per channel so an over-limit rename fails fast
// instead of parking in the session's bucket queue.
type renameLimiter struct {
	mu     sync.Mutex
	burst  int
	window time.Duration
	now    func() time.Time
	recent map[string][]time.Time
}

func newRenameLimiter(burst int, window time.Duration) *renameLimiter {
	return &renameLimiter{
		burst:  burst,
		window: window,
		now:    time.Now,
		recent: make(map[string][]time.Time),
	}
}

// Allow records a rename of channelID and reports whether it fits in the window.
func (l *renameLimiter) Allow(channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.recent[channelID][:0]
	for _, t := range l.recent[channelID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.burst {
		l.recent[channelID] = kept
		return false
	}
	l.recent[channelID] = append(kept, now)
	return true
}
