package workers

import (
	"context"
	"sync"
	"time"

	"exchange-ticket-bot/internal/common/logger"
)

// Token identifies a scheduled task.
type Token uint64

type task struct {
	id    Token
	name  string
	fn    func(ctx context.Context)
	timer *time.Timer
	once  sync.Once
}

// DelayScheduler runs functions after a delay. Tasks can be cancelled through their
// token until they start; Shutdown runs whatever is still pending right away.
type DelayScheduler struct {
	mu      sync.Mutex
	seq     Token
	pending map[Token]*task
	wg      sync.WaitGroup
	timeout time.Duration
	closed  bool
}

// NewDelayScheduler returns a scheduler whose tasks each get timeout to finish.
func NewDelayScheduler(timeout time.Duration) *DelayScheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DelayScheduler{pending: make(map[Token]*task), timeout: timeout}
}

// Schedule runs fn once delay has elapsed.
func (s *DelayScheduler) Schedule(delay time.Duration, name string, fn func(ctx context.Context)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &task{id: s.seq, name: name, fn: fn}
	s.wg.Add(1)
	if s.closed {
		go s.run(t)
		return t.id
	}
	s.pending[t.id] = t
	t.timer = time.AfterFunc(delay, func() { s.run(t) })
	logger.Debug().Str("task", name).Dur("delay", delay).Msg("Task scheduled")
	return t.id
}

// Cancel stops a task that has not started. It reports whether the task was stopped.
func (s *DelayScheduler) Cancel(id Token) bool {
	s.mu.Lock()
	t, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok || !t.timer.Stop() {
		return false
	}
	cancelled := false
	t.once.Do(func() {
		cancelled = true
		s.wg.Done()
	})
	return cancelled
}

// Pending reports how many tasks are waiting.
func (s *DelayScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown fires every pending task immediately and waits for all tasks to finish or ctx to expire.
func (s *DelayScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	var flush []*task
	for id, t := range s.pending {
		delete(s.pending, id)
		if t.timer.Stop() {
			flush = append(flush, t)
		}
	}
	s.mu.Unlock()

	for _, t := range flush {
		go s.run(t)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DelayScheduler) run(t *task) {
	t.once.Do(func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.pending, t.id)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				logger.Error().Str("task", t.name).Interface("panic", r).Msg("Scheduled task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		t.fn(ctx)
	})
}
