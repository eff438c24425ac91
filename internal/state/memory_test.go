package state

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchange-ticket-bot/internal/domain/exchange"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock { return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)} }

func TestMemorySelectionStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySelectionStore(time.Minute)

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set(ctx, &exchange.SelectionState{UserID: "u1", PaymentMethod: "zelle"}))
	got, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "zelle", got.PaymentMethod)

	// returned state is a copy
	got.PaymentMethod = "paypal"
	again, _ := s.Get(ctx, "u1")
	assert.Equal(t, "zelle", again.PaymentMethod)

	require.NoError(t, s.Delete(ctx, "u1"))
	got, _ = s.Get(ctx, "u1")
	assert.Nil(t, got)
}

func TestMemorySelectionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewMemorySelectionStore(15 * time.Minute).WithClock(clock.Now)

	require.NoError(t, s.Set(ctx, &exchange.SelectionState{UserID: "u1"}))
	clock.Advance(10 * time.Minute)
	got, _ := s.Get(ctx, "u1")
	require.NotNil(t, got)

	// each Set refreshes the deadline
	require.NoError(t, s.Set(ctx, got))
	clock.Advance(10 * time.Minute)
	got, _ = s.Get(ctx, "u1")
	require.NotNil(t, got)

	clock.Advance(15 * time.Minute)
	got, _ = s.Get(ctx, "u1")
	assert.Nil(t, got)
}

func TestMemorySelectionStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewMemorySelectionStore(time.Minute).WithClock(clock.Now)
	require.NoError(t, s.Set(ctx, &exchange.SelectionState{UserID: "a"}))
	require.NoError(t, s.Set(ctx, &exchange.SelectionState{UserID: "b"}))
	clock.Advance(2 * time.Minute)
	require.NoError(t, s.Set(ctx, &exchange.SelectionState{UserID: "c"}))

	assert.Equal(t, 2, s.Sweep())
	got, _ := s.Get(ctx, "c")
	assert.NotNil(t, got)
}

func TestMemoryTicketRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTicketRegistry()

	require.NoError(t, r.Add(ctx, exchange.Ticket{ChannelID: "c1", OwnerID: "u1"}))
	require.NoError(t, r.Add(ctx, exchange.Ticket{ChannelID: "c2", OwnerID: "u1"}))
	require.NoError(t, r.Add(ctx, exchange.Ticket{ChannelID: "c3", OwnerID: "u2"}))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	tk, err := r.FindByChannel(ctx, "c3")
	require.NoError(t, err)
	require.NotNil(t, tk)
	assert.Equal(t, "u2", tk.OwnerID)

	removed, err := r.Remove(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "u1", removed.OwnerID)

	list, _ = r.ListByOwner(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "c2", list[0].ChannelID)

	removed, err = r.Remove(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, removed)

	tk, _ = r.FindByChannel(ctx, "nope")
	assert.Nil(t, tk)
}

func TestMemoryTicketRegistry_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTicketRegistry()
	require.NoError(t, r.Add(ctx, exchange.Ticket{ChannelID: "c1", OwnerID: "u1"}))

	by, won, err := r.Claim(ctx, "c1", "admin1")
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, "admin1", by)

	by, won, err = r.Claim(ctx, "c1", "admin2")
	require.NoError(t, err)
	assert.False(t, won)
	assert.Equal(t, "admin1", by)

	_, _, err = r.Claim(ctx, "missing", "admin1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestMemoryTicketRegistry_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryTicketRegistry()
	require.NoError(t, r.Add(ctx, exchange.Ticket{ChannelID: "c1", OwnerID: "u1"}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, won, err := r.Claim(ctx, "c1", string(rune('a'+i%26)))
			if err == nil && won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	d := NewMemoryDeduper(DedupWindow).WithClock(clock.Now)

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, _ = d.Seen(ctx, "evt-1")
	assert.True(t, seen)

	clock.Advance(DedupWindow + time.Second)
	assert.Equal(t, 1, d.Sweep())
	assert.Equal(t, 0, d.Len())

	seen, _ = d.Seen(ctx, "evt-1")
	assert.False(t, seen, "id is accepted again after the window")
}

func TestKeyedMutex(t *testing.T) {
	var km KeyedMutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("user-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_DistinctKeysDoNotBlock(t *testing.T) {
	var km KeyedMutex
	unlock := km.Lock("user-1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			km.Lock(fmt.Sprintf("user-%d", i+2))()
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on another key waited on user-1")
	}
	assert.Equal(t, 1, km.size())
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	var km KeyedMutex
	unlock := km.Lock("user-1")
	acquired := make(chan func())
	go func() { acquired <- km.Lock("user-1") }()

	select {
	case <-acquired:
		t.Fatal("second holder acquired user-1 while it was held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	unlock()
	second := <-acquired
	assert.Equal(t, 1, km.size())
	second()
	assert.Zero(t, km.size())
}
