// Package repository defines the durable stores the bot reconciles against.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/domain/stats"
)

// Ledger is the source of truth for exchanged totals and persisted bot settings.
// Increments are atomic per key in the backing store.
type Ledger interface {
	GetUserTotal(ctx context.Context, userID string) (decimal.Decimal, error)
	// IncrementUserTotal adds delta and returns the new total, creating the row on first credit.
	IncrementUserTotal(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error)
	// SubtractUserTotal removes amount, clamping at zero, and returns the totals before and after.
	SubtractUserTotal(ctx context.Context, userID string, amount decimal.Decimal) (prev, next decimal.Decimal, err error)
	SetUserTotal(ctx context.Context, userID string, value decimal.Decimal) error
	// ListUsersByTotalDesc returns users ordered by total, highest first. limit <= 0 returns all.
	ListUsersByTotalDesc(ctx context.Context, limit int) ([]stats.UserStats, error)

	GetGlobalTotal(ctx context.Context) (decimal.Decimal, error)
	IncrementGlobalTotal(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)

	// GetConfig returns ok=false when the key has never been set.
	GetConfig(ctx context.Context, key string) (value string, ok bool, err error)
	SetConfig(ctx context.Context, key, value string) error
}
