package state

import (
	"context"
	"sync"
	"time"

	"exchange-ticket-bot/internal/domain/exchange"
)

// Clock returns the current time. Tests swap it to drive expiry.
type Clock func() time.Time

type selectionEntry struct {
	state     *exchange.SelectionState
	expiresAt time.Time
}

// MemorySelectionStore is a SelectionStore with expiry-on-read.
type MemorySelectionStore struct {
	mu    sync.Mutex
	items map[string]selectionEntry
	ttl   time.Duration
	now   Clock
}

func NewMemorySelectionStore(ttl time.Duration) *MemorySelectionStore {
	if ttl <= 0 {
		ttl = SelectionTTL
	}
	return &MemorySelectionStore{items: make(map[string]selectionEntry), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (m *MemorySelectionStore) WithClock(c Clock) *MemorySelectionStore {
	m.now = c
	return m
}

func (m *MemorySelectionStore) Get(_ context.Context, userID string) (*exchange.SelectionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[userID]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.items, userID)
		return nil, nil
	}
	return e.state.Clone(), nil
}

func (m *MemorySelectionStore) Set(_ context.Context, s *exchange.SelectionState) error {
	now := m.now()
	cp := s.Clone()
	cp.UpdatedAt = now
	m.mu.Lock()
	m.items[s.UserID] = selectionEntry{state: cp, expiresAt: now.Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemorySelectionStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.items, userID)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired selections and returns how many were removed.
func (m *MemorySelectionStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// MemoryTicketRegistry is a TicketRegistry indexed by channel and by owner.
type MemoryTicketRegistry struct {
	mu        sync.RWMutex
	byChannel map[string]*exchange.Ticket
	byOwner   map[string][]string
}

func NewMemoryTicketRegistry() *MemoryTicketRegistry {
	return &MemoryTicketRegistry{
		byChannel: make(map[string]*exchange.Ticket),
		byOwner:   make(map[string][]string),
	}
}

func (r *MemoryTicketRegistry) Add(_ context.Context, t exchange.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byChannel[t.ChannelID]; !exists {
		r.byOwner[t.OwnerID] = append(r.byOwner[t.OwnerID], t.ChannelID)
	}
	cp := t
	r.byChannel[t.ChannelID] = &cp
	return nil
}

func (r *MemoryTicketRegistry) ListByOwner(_ context.Context, ownerID string) ([]exchange.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byOwner[ownerID]
	out := make([]exchange.Ticket, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.byChannel[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *MemoryTicketRegistry) FindByChannel(_ context.Context, channelID string) (*exchange.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTicketRegistry) Claim(_ context.Context, channelID, claimerID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return "", false, ErrTicketNotFound
	}
	if t.ClaimedBy != "" {
		return t.ClaimedBy, false, nil
	}
	t.ClaimedBy = claimerID
	return claimerID, true, nil
}

func (r *MemoryTicketRegistry) Remove(_ context.Context, channelID string) (*exchange.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byChannel[channelID]
	if !ok {
		return nil, nil
	}
	delete(r.byChannel, channelID)
	ids := r.byOwner[t.OwnerID]
	for i, id := range ids {
		if id == channelID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.byOwner, t.OwnerID)
	} else {
		r.byOwner[t.OwnerID] = ids
	}
	return t, nil
}

// MemoryDeduper is a time-windowed set of event ids.
type MemoryDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    Clock
}

func NewMemoryDeduper(window time.Duration) *MemoryDeduper {
	if window <= 0 {
		window = DedupWindow
	}
	return &MemoryDeduper{seen: make(map[string]time.Time), window: window, now: time.Now}
}

// WithClock replaces the time source.
func (d *MemoryDeduper) WithClock(c Clock) *MemoryDeduper {
	d.now = c
	return d
}

func (d *MemoryDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[eventID]; ok && now.Before(exp) {
		return true, nil
	}
	d.seen[eventID] = now.Add(d.window)
	return false, nil
}

// Sweep drops expired ids and returns how many were removed.
func (d *MemoryDeduper) Sweep() int {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for id, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, id)
			n++
		}
	}
	return n
}

// Len reports how many ids are currently tracked.
func (d *MemoryDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
