package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/domain/stats"
)

// MemoryLedger is an in-process Ledger used when no database is configured and in tests.
type MemoryLedger struct {
	mu     sync.Mutex
	users  map[string]decimal.Decimal
	order  []string
	global decimal.Decimal
	config map[string]string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		users:  make(map[string]decimal.Decimal),
		config: make(map[string]string),
	}
}

func (m *MemoryLedger) GetUserTotal(_ context.Context, userID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

func (m *MemoryLedger) IncrementUserTotal(_ context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.users[userID].Add(delta)
	m.put(userID, next)
	return next, nil
}

func (m *MemoryLedger) SubtractUserTotal(_ context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.users[userID]
	next := decimal.Max(prev.Sub(amount), decimal.Zero)
	m.put(userID, next)
	return prev, next, nil
}

func (m *MemoryLedger) SetUserTotal(_ context.Context, userID string, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(userID, decimal.Max(value, decimal.Zero))
	return nil
}

func (m *MemoryLedger) ListUsersByTotalDesc(_ context.Context, limit int) ([]stats.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stats.UserStats, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, stats.UserStats{UserID: id, TotalExchanged: m.users[id]})
	}
	// stable: ties keep insertion order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalExchanged.GreaterThan(out[j].TotalExchanged)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryLedger) GetGlobalTotal(_ context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.global, nil
}

func (m *MemoryLedger) IncrementGlobalTotal(_ context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = m.global.Add(delta)
	return m.global, nil
}

func (m *MemoryLedger) GetConfig(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.config[key]
	return v, ok, nil
}

func (m *MemoryLedger) SetConfig(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
	return nil
}

func (m *MemoryLedger) put(userID string, v decimal.Decimal) {
	if _, ok := m.users[userID]; !ok {
		m.order = append(m.order, userID)
	}
	m.users[userID] = v
}

var _ Ledger = (*MemoryLedger)(nil)
