package exchange

import "time"

// TicketStatus is the lifecycle state of a ticket. Claiming is tracked separately
// through ClaimedBy and does not change the status.
type TicketStatus string

const (
	TicketStatusOpen TicketStatus = "open"
	// Completed and closed tickets leave the registry; the status is set on the
	// removed copy.
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusClosed    TicketStatus = "closed"
)

// Ticket is one open exchange request, backed by a private channel.
type Ticket struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	OwnerID   string `json:"owner_id"`

	// PaymentMethod is "crypto" for crypto→fiat tickets.
	PaymentMethod  string `json:"payment_method"`
	Crypto         string `json:"crypto,omitempty"`
	Network        string `json:"network,omitempty"`
	CryptoSending  string `json:"crypto_sending,omitempty"`
	NetworkSending string `json:"network_sending,omitempty"`
	ReceiveMethod  string `json:"receive_method,omitempty"`

	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	// ClaimedBy is set at most once.
	ClaimedBy string `json:"claimed_by,omitempty"`
}

// Claimed reports whether an administrator has claimed the ticket.
func (t *Ticket) Claimed() bool { return t.ClaimedBy != "" }

// TicketFromSelection builds the registry row for a confirmed selection.
func TicketFromSelection(id, channelID string, s *SelectionState, now time.Time) Ticket {
	t := Ticket{
		ID:        id,
		ChannelID: channelID,
		OwnerID:   s.UserID,
		Status:    TicketStatusOpen,
		CreatedAt: now,
	}
	if s.Flow == FlowCryptoToFiat {
		t.PaymentMethod = PaymentMethodCrypto
		t.CryptoSending = s.CryptoSending
		t.NetworkSending = s.NetworkSending
		t.ReceiveMethod = s.ReceiveMethod
		return t
	}
	t.PaymentMethod = s.PaymentMethod
	t.Crypto = s.Crypto
	t.Network = s.Network
	return t
}
