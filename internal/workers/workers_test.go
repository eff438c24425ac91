package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheredis "exchange-ticket-bot/internal/cache/redis"
	"exchange-ticket-bot/internal/domain/stats"
	rplatform "exchange-ticket-bot/internal/platform/redis"
)

func TestDelayScheduler_RunsAfterDelay(t *testing.T) {
	s := NewDelayScheduler(time.Second)
	done := make(chan struct{})
	s.Schedule(10*time.Millisecond, "test", func(ctx context.Context) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDelayScheduler_Cancel(t *testing.T) {
	s := NewDelayScheduler(time.Second)
	var ran atomic.Bool
	tok := s.Schedule(time.Hour, "never", func(context.Context) { ran.Store(true) })

	assert.True(t, s.Cancel(tok))
	assert.False(t, s.Cancel(tok), "second cancel is a no-op")
	require.NoError(t, s.Shutdown(context.Background()))
	assert.False(t, ran.Load())
}

func TestDelayScheduler_ShutdownFlushesPending(t *testing.T) {
	s := NewDelayScheduler(time.Second)
	var count atomic.Int32
	for i := 0; i < 3; i++ {
		s.Schedule(time.Hour, "flush", func(context.Context) { count.Add(1) })
	}
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, int32(3), count.Load())

	// Tasks scheduled after shutdown run immediately.
	s.Schedule(time.Hour, "late", func(context.Context) { count.Add(1) })
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, int32(4), count.Load())
}

func TestDelayScheduler_RecoversPanics(t *testing.T) {
	s := NewDelayScheduler(time.Second)
	s.Schedule(time.Millisecond, "boom", func(context.Context) { panic("boom") })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

type countingSweeper struct{ n int }

func (c *countingSweeper) Sweep() int {
	c.n++
	return 1
}

func TestJanitor_SweepOnce(t *testing.T) {
	a, b := &countingSweeper{}, &countingSweeper{}
	j := NewJanitor(time.Minute, map[string]Sweeper{"a": a, "b": b})
	j.SweepOnce()
	j.SweepOnce()
	assert.Equal(t, 2, a.n)
	assert.Equal(t, 2, b.n)
}

type fakeRefresher struct {
	mu                  sync.Mutex
	publishes, refreshs int
	err                 error
}

func (f *fakeRefresher) Publish(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes++
	return f.err
}

func (f *fakeRefresher) RefreshStatsChannel(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs++
	return nil
}

func (f *fakeRefresher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.publishes, f.refreshs
}

func TestLeaderboardWorker_TicksUntilCancelled(t *testing.T) {
	r := &fakeRefresher{err: errors.New("discord down")}
	w := NewLeaderboardWorker(r, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		p, s := r.counts()
		return p >= 2 && s >= 2
	}, time.Second, 5*time.Millisecond, "a failing publish does not stop the stats refresh")
	cancel()
	<-stopped
}

type recordingSink struct {
	mu      sync.Mutex
	entries []stats.HistoryEntry
	err     error
}

func (s *recordingSink) Record(_ context.Context, e stats.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func setupRedis(t *testing.T) *rplatform.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return rplatform.Wrap(c)
}

func TestHistoryStreamWorker_DeliversAndAcks(t *testing.T) {
	ctx := context.Background()
	rdb := setupRedis(t)
	require.NoError(t, rdb.XGroupCreateMkStream(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup, "0").Err())

	producer := cacheredis.NewHistoryStream(rdb)
	require.NoError(t, producer.Record(ctx, stats.HistoryEntry{ChannelID: "c1", OwnerID: "u1", Amount: decimal.NewFromInt(25)}))
	require.NoError(t, rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: cacheredis.HistoryStreamKey,
		Values: map[string]interface{}{"type": "something_else"},
	}).Err())

	sink := &recordingSink{}
	w := NewHistoryStreamWorker(rdb, sink)
	n, _, err := w.read(ctx, ">", -1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "u1", sink.entries[0].OwnerID)
	assert.True(t, sink.entries[0].Amount.Equal(decimal.NewFromInt(25)))

	pending, err := rdb.XPending(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count, "delivered and malformed entries are acknowledged")
}

func TestHistoryStreamWorker_FailedEntriesAreReplayed(t *testing.T) {
	ctx := context.Background()
	rdb := setupRedis(t)
	require.NoError(t, rdb.XGroupCreateMkStream(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup, "0").Err())
	require.NoError(t, cacheredis.NewHistoryStream(rdb).Record(ctx, stats.HistoryEntry{ChannelID: "c1"}))

	sink := &recordingSink{err: errors.New("channel missing")}
	w := NewHistoryStreamWorker(rdb, sink)
	_, _, err := w.read(ctx, ">", -1)
	require.NoError(t, err)
	assert.Empty(t, sink.entries)

	sink.err = nil
	require.NoError(t, w.replayPending(ctx))
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "c1", sink.entries[0].ChannelID)
}

func TestHistoryStreamWorker_ReplaysEveryPendingBatch(t *testing.T) {
	ctx := context.Background()
	rdb := setupRedis(t)
	require.NoError(t, rdb.XGroupCreateMkStream(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup, "0").Err())
	producer := cacheredis.NewHistoryStream(rdb)
	for i := 0; i < 25; i++ {
		require.NoError(t, producer.Record(ctx, stats.HistoryEntry{ChannelID: "c1", Amount: decimal.NewFromInt(int64(i + 1))}))
	}

	sink := &recordingSink{err: errors.New("channel missing")}
	w := NewHistoryStreamWorker(rdb, sink)
	for {
		n, _, err := w.read(ctx, ">", -1)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	pending, err := rdb.XPending(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup).Result()
	require.NoError(t, err)
	require.EqualValues(t, 25, pending.Count)

	// A replay that still fails walks past every entry instead of looping on the first batch.
	require.NoError(t, w.replayPending(ctx))
	assert.Empty(t, sink.entries)

	sink.err = nil
	require.NoError(t, w.replayPending(ctx))
	assert.Len(t, sink.entries, 25)
	pending, err = rdb.XPending(ctx, cacheredis.HistoryStreamKey, historyConsumerGroup).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}
