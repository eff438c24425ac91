// Package state holds the ephemeral, per-process stores the bot works against:
// in-progress wizard selections, the open-ticket registry and the duplicate-event window.
// Each store has an in-memory implementation here and a Redis-backed one in internal/cache/redis.
package state

import (
	"context"
	"time"

	"exchange-ticket-bot/internal/domain/exchange"
)

const (
	// DedupWindow is how long an inbound event id is remembered.
	DedupWindow = 5 * time.Minute
	// SelectionTTL is how long an untouched wizard selection survives.
	SelectionTTL = 15 * time.Minute
)

// SelectionStore keeps one SelectionState per user.
type SelectionStore interface {
	// Get returns nil without error when the user has no live selection.
	Get(ctx context.Context, userID string) (*exchange.SelectionState, error)
	Set(ctx context.Context, s *exchange.SelectionState) error
	Delete(ctx context.Context, userID string) error
}

// TicketRegistry maps owners to their open tickets.
type TicketRegistry interface {
	Add(ctx context.Context, t exchange.Ticket) error
	ListByOwner(ctx context.Context, ownerID string) ([]exchange.Ticket, error)
	// FindByChannel returns nil without error when the channel is not a registered ticket.
	FindByChannel(ctx context.Context, channelID string) (*exchange.Ticket, error)
	// Claim sets ClaimedBy if it is unset. It returns the effective claimant and whether
	// this call won. ErrTicketNotFound is returned for unknown channels.
	Claim(ctx context.Context, channelID, claimerID string) (claimedBy string, won bool, err error)
	// Remove drops the ticket and returns it, or nil when it was not registered.
	Remove(ctx context.Context, channelID string) (*exchange.Ticket, error)
}

// Deduper reports whether an event id was already seen inside the retention window.
// The first call for an id records it and returns false.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}
