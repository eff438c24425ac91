package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats is a user's cumulative exchanged volume. TotalExchanged never goes below zero.
type UserStats struct {
	UserID         string          `json:"user_id"`
	TotalExchanged decimal.Decimal `json:"total_exchanged"`
}

// GlobalStats is the single-row total across all completed tickets.
type GlobalStats struct {
	TotalExchanged decimal.Decimal `json:"total_exchanged"`
}

// Adjustment describes an administrative change to one user's total.
type Adjustment struct {
	UserID   string
	Previous decimal.Decimal
	Current  decimal.Decimal
	Delta    decimal.Decimal
}

// HistoryEntry records one completed ticket for the history channel.
type HistoryEntry struct {
	ChannelID   string          `json:"channel_id"`
	OwnerID     string          `json:"owner_id,omitempty"`
	CompletedBy string          `json:"completed_by"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Total       decimal.Decimal `json:"total"`
	CompletedAt time.Time       `json:"completed_at"`
}
