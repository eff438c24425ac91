package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flow distinguishes the two wizard branches.
type Flow string

const (
	// FlowFiatToCrypto: user pays with a fiat rail and receives crypto.
	FlowFiatToCrypto Flow = "fiat_to_crypto"
	// FlowCryptoToFiat: user sends crypto and receives on a fiat rail.
	FlowCryptoToFiat Flow = "crypto_to_fiat"
)

// Quote is the fee breakdown computed at the amount step.
type Quote struct {
	SendingAmount   decimal.Decimal `json:"sending_amount"`
	FeePercent      decimal.Decimal `json:"fee_percent"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	ReceivingAmount decimal.Decimal `json:"receiving_amount"`
}

// SelectionState holds one user's in-progress wizard answers.
//
// Exactly one of PaymentMethod / CryptoSending describes what the user sends and
// exactly one of Crypto / ReceiveMethod describes what they receive. Stablecoins
// on either side need the paired network before the amount step.
type SelectionState struct {
	UserID string `json:"user_id"`
	Flow   Flow   `json:"flow"`

	// Fiat→crypto: outbound rail
	PaymentMethod      string `json:"payment_method,omitempty"`
	PaymentMethodLabel string `json:"payment_method_label,omitempty"`

	// FeeInfo is the fee schedule of the payment option picked on the panel,
	// including "Cryptocurrency".
	FeeInfo string `json:"fee_info,omitempty"`

	// Crypto→fiat: outbound coin
	CryptoSending       string `json:"crypto_sending,omitempty"`
	CryptoSendingLabel  string `json:"crypto_sending_label,omitempty"`
	NetworkSending      string `json:"network_sending,omitempty"`
	NetworkSendingLabel string `json:"network_sending_label,omitempty"`

	// Fiat→crypto: inbound coin
	Crypto       string `json:"crypto,omitempty"`
	CryptoLabel  string `json:"crypto_label,omitempty"`
	Network      string `json:"network,omitempty"`
	NetworkLabel string `json:"network_label,omitempty"`

	// Crypto→fiat: inbound rail
	ReceiveMethod      string `json:"receive_method,omitempty"`
	ReceiveMethodLabel string `json:"receive_method_label,omitempty"`
	ReceiveFeeInfo     string `json:"receive_fee_info,omitempty"`

	Quote *Quote `json:"quote,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SendSideComplete reports whether the outbound half of the flow is fully chosen.
func (s *SelectionState) SendSideComplete() bool {
	switch s.Flow {
	case FlowFiatToCrypto:
		return s.PaymentMethod != "" && s.CryptoSending == ""
	case FlowCryptoToFiat:
		if s.CryptoSending == "" || s.PaymentMethod != "" {
			return false
		}
		return !IsStablecoin(s.CryptoSending) || s.NetworkSending != ""
	}
	return false
}

// ReadyForAmount reports whether every selection before the amount step is present
// and consistent with the flow.
func (s *SelectionState) ReadyForAmount() bool {
	if !s.SendSideComplete() {
		return false
	}
	switch s.Flow {
	case FlowFiatToCrypto:
		if s.Crypto == "" || s.ReceiveMethod != "" {
			return false
		}
		return !IsStablecoin(s.Crypto) || s.Network != ""
	case FlowCryptoToFiat:
		return s.ReceiveMethod != "" && s.Crypto == ""
	}
	return false
}

// ReadyForConfirmation reports whether a quote has been computed on a complete selection.
func (s *SelectionState) ReadyForConfirmation() bool {
	return s.ReadyForAmount() && s.Quote != nil
}

// FeeSchedule returns the fee text that prices this exchange. The payment option
// chosen first always prices it; the receive rail only applies when that is missing.
func (s *SelectionState) FeeSchedule() string {
	if s.FeeInfo != "" {
		return s.FeeInfo
	}
	return s.ReceiveFeeInfo
}

// SendingLabel is the display name of what the user sends.
func (s *SelectionState) SendingLabel() string {
	if s.Flow == FlowCryptoToFiat {
		if s.CryptoSendingLabel != "" {
			return s.CryptoSendingLabel
		}
		return "Cryptocurrency"
	}
	return s.PaymentMethodLabel
}

// ReceivingLabel is the display name of what the user receives.
func (s *SelectionState) ReceivingLabel() string {
	if s.Flow == FlowCryptoToFiat {
		return s.ReceiveMethodLabel
	}
	return s.CryptoLabel
}

// Clone returns a deep copy.
func (s *SelectionState) Clone() *SelectionState {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Quote != nil {
		q := *s.Quote
		cp.Quote = &q
	}
	return &cp
}
