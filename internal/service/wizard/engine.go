// Package wizard drives a user through the exchange selection steps.
//
// Every step loads the user's SelectionState, checks that the fields the step
// depends on are present for the current flow, validates the submitted value
// against the step's option set and only then writes the state back. A step that
// fails any check leaves the stored state untouched.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/metrics"
	"exchange-ticket-bot/internal/service/fee"
	"exchange-ticket-bot/internal/state"
)

// DefaultTicketLimit is the number of open tickets a user may hold.
const DefaultTicketLimit = 3

const (
	msgInvalidOption  = "❌ Invalid option selected."
	msgInvalidCrypto  = "❌ Invalid crypto selected."
	msgInvalidNetwork = "❌ Invalid network selected."
	msgInvalidReceive = "❌ Invalid selection."
	msgInvalidAmount  = "❌ Please enter a valid positive number."
	msgOutOfOrder     = "❌ This step is no longer valid for your current selection. Please start over."
)

// TicketGate reports how many live tickets a user holds, after dropping tickets
// whose channel no longer exists.
type TicketGate interface {
	ActiveTickets(ctx context.Context, userID string) (int, error)
}

// Engine implements the selection steps.
type Engine struct {
	selections state.SelectionStore
	gate       TicketGate
	locks      *state.KeyedMutex
	limit      int
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTicketLimit overrides DefaultTicketLimit.
func WithTicketLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine wires the wizard. locks must be shared with the ticket coordinator so a
// confirmation cannot interleave with a step for the same user.
func NewEngine(selections state.SelectionStore, gate TicketGate, locks *state.KeyedMutex, opts ...Option) *Engine {
	e := &Engine{
		selections: selections,
		gate:       gate,
		locks:      locks,
		limit:      DefaultTicketLimit,
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Panel returns the exchange panel for an administrator to post.
func (e *Engine) Panel(_ context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError("❌ Only administrators can post the exchange panel.")
	}
	return chat.Reply{Kind: chat.ReplyMessage, Message: PanelMessage()}, nil
}

// SelectPaymentMethod starts a new selection. It enforces the open-ticket limit and
// always discards any previous selection.
func (e *Engine) SelectPaymentMethod(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	method, ok := exchange.FindOption(exchange.PaymentMethods, ev.Value())
	if !ok {
		return e.reject("payment_method", msgInvalidOption)
	}

	active, err := e.gate.ActiveTickets(ctx, ev.UserID)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("count tickets: %w", err)
	}
	if active >= e.limit {
		metrics.WizardStepsTotal.WithLabelValues("payment_method", "limited").Inc()
		return chat.Reply{}, apperrors.New(apperrors.ErrCodeTicketLimit, fmt.Sprintf(
			"❌ You already have %d active exchange tickets. Please complete or close one of your tickets first.", e.limit))
	}

	s := &exchange.SelectionState{UserID: ev.UserID, FeeInfo: method.FeeInfo, UpdatedAt: e.now()}
	var prompt chat.Message
	if method.ID == exchange.PaymentMethodCrypto {
		s.Flow = exchange.FlowCryptoToFiat
		prompt = sendCryptoPrompt(method)
	} else {
		s.Flow = exchange.FlowFiatToCrypto
		s.PaymentMethod = method.ID
		s.PaymentMethodLabel = method.Label
		prompt = receiveCryptoPrompt(method)
	}
	if err := e.save(ctx, s, "payment_method"); err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{Kind: chat.ReplyMessage, Ephemeral: true, Message: prompt}, nil
}

// SelectReceiveCrypto records the coin the user receives in the fiat→crypto flow.
func (e *Engine) SelectReceiveCrypto(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "receive_crypto")
	if err != nil {
		return chat.Reply{}, err
	}
	if s.Flow != exchange.FlowFiatToCrypto || !s.SendSideComplete() {
		return e.reject("receive_crypto", msgOutOfOrder)
	}
	coin, ok := exchange.FindOption(exchange.Cryptos, ev.Value())
	if !ok {
		return e.reject("receive_crypto", msgInvalidCrypto)
	}

	s.Crypto, s.CryptoLabel = coin.ID, coin.Label
	s.Network, s.NetworkLabel = "", ""
	s.Quote = nil
	if err := e.save(ctx, s, "receive_crypto"); err != nil {
		return chat.Reply{}, err
	}
	if exchange.IsStablecoin(coin.ID) {
		return chat.Reply{Kind: chat.ReplyUpdate, Message: receiveNetworkPrompt(coin)}, nil
	}
	return chat.ShowModal(amountModal(s.Flow)), nil
}

// SelectReceiveNetwork records the network for a received stablecoin.
func (e *Engine) SelectReceiveNetwork(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "receive_network")
	if err != nil {
		return chat.Reply{}, err
	}
	if s.Flow != exchange.FlowFiatToCrypto || !exchange.IsStablecoin(s.Crypto) {
		return e.reject("receive_network", msgOutOfOrder)
	}
	network, ok := exchange.FindOption(exchange.Networks, ev.Value())
	if !ok {
		return e.reject("receive_network", msgInvalidNetwork)
	}

	s.Network, s.NetworkLabel = network.ID, network.Label
	s.Quote = nil
	if err := e.save(ctx, s, "receive_network"); err != nil {
		return chat.Reply{}, err
	}
	return chat.ShowModal(amountModal(s.Flow)), nil
}

// SelectSendCrypto records the coin the user sends in the crypto→fiat flow.
func (e *Engine) SelectSendCrypto(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "send_crypto")
	if err != nil {
		return chat.Reply{}, err
	}
	if s.Flow != exchange.FlowCryptoToFiat {
		return e.reject("send_crypto", msgOutOfOrder)
	}
	coin, ok := exchange.FindOption(exchange.Cryptos, ev.Value())
	if !ok {
		return e.reject("send_crypto", msgInvalidCrypto)
	}

	s.CryptoSending, s.CryptoSendingLabel = coin.ID, coin.Label
	s.NetworkSending, s.NetworkSendingLabel = "", ""
	s.ReceiveMethod, s.ReceiveMethodLabel, s.ReceiveFeeInfo = "", "", ""
	s.Quote = nil
	if err := e.save(ctx, s, "send_crypto"); err != nil {
		return chat.Reply{}, err
	}
	if exchange.IsStablecoin(coin.ID) {
		return chat.Reply{Kind: chat.ReplyUpdate, Message: sendNetworkPrompt(coin)}, nil
	}
	return chat.Reply{Kind: chat.ReplyUpdate, Message: receiveMethodPrompt(coin.Label)}, nil
}

// SelectSendNetwork records the network for a sent stablecoin.
func (e *Engine) SelectSendNetwork(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "send_network")
	if err != nil {
		return chat.Reply{}, err
	}
	if s.Flow != exchange.FlowCryptoToFiat || !exchange.IsStablecoin(s.CryptoSending) {
		return e.reject("send_network", msgOutOfOrder)
	}
	network, ok := exchange.FindOption(exchange.Networks, ev.Value())
	if !ok {
		return e.reject("send_network", msgInvalidNetwork)
	}

	s.NetworkSending, s.NetworkSendingLabel = network.ID, network.Label
	s.Quote = nil
	if err := e.save(ctx, s, "send_network"); err != nil {
		return chat.Reply{}, err
	}
	sending := fmt.Sprintf("%s (%s)", s.CryptoSendingLabel, network.Label)
	return chat.Reply{Kind: chat.ReplyUpdate, Message: receiveMethodPrompt(sending)}, nil
}

// SelectReceiveMethod records the fiat rail the user is paid on in the crypto→fiat flow.
func (e *Engine) SelectReceiveMethod(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "receive_method")
	if err != nil {
		return chat.Reply{}, err
	}
	if s.Flow != exchange.FlowCryptoToFiat || !s.SendSideComplete() {
		return e.reject("receive_method", msgOutOfOrder)
	}
	method, ok := exchange.FindOption(exchange.ReceiveMethods, ev.Value())
	if !ok {
		return e.reject("receive_method", msgInvalidReceive)
	}

	s.ReceiveMethod, s.ReceiveMethodLabel, s.ReceiveFeeInfo = method.ID, method.Label, method.FeeInfo
	s.Quote = nil
	if err := e.save(ctx, s, "receive_method"); err != nil {
		return chat.Reply{}, err
	}
	return chat.ShowModal(amountModal(s.Flow)), nil
}

// SubmitAmount validates the amount, prices the exchange and asks for confirmation.
func (e *Engine) SubmitAmount(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	s, err := e.load(ctx, ev.UserID, "amount")
	if err != nil {
		return chat.Reply{}, err
	}
	if !s.ReadyForAmount() {
		return e.reject("amount", msgOutOfOrder)
	}
	amount, ok := ParseAmount(ev.Field(chat.IDAmountInput))
	if !ok {
		return e.reject("amount", msgInvalidAmount)
	}

	r := fee.Calculate(amount, s.FeeSchedule())
	s.Quote = &exchange.Quote{
		SendingAmount:   amount,
		FeePercent:      r.Percent,
		FeeAmount:       r.Fee,
		ReceivingAmount: r.Net,
	}
	if err := e.save(ctx, s, "amount"); err != nil {
		return chat.Reply{}, err
	}
	logger.Debug().
		Str("user_id", ev.UserID).
		Str("amount", amount.String()).
		Str("fee", r.Fee.String()).
		Msg("Exchange quoted")
	return chat.Reply{Kind: chat.ReplyMessage, Ephemeral: true, Message: confirmPrompt(s, r)}, nil
}

// ParseAmount accepts a positive decimal, tolerating surrounding spaces, a leading
// dollar sign and thousands separators.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func (e *Engine) load(ctx context.Context, userID, step string) (*exchange.SelectionState, error) {
	s, err := e.selections.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, apperrors.GenericFailureMessage)
	}
	if s == nil {
		metrics.WizardStepsTotal.WithLabelValues(step, "expired").Inc()
		return nil, apperrors.NewExpiredStateError()
	}
	return s, nil
}

func (e *Engine) save(ctx context.Context, s *exchange.SelectionState, step string) error {
	s.UpdatedAt = e.now()
	if err := e.selections.Set(ctx, s); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, apperrors.GenericFailureMessage)
	}
	metrics.WizardStepsTotal.WithLabelValues(step, "advanced").Inc()
	logger.Debug().Str("user_id", s.UserID).Str("step", step).Str("flow", string(s.Flow)).Msg("Wizard step advanced")
	return nil
}

func (e *Engine) reject(step, message string) (chat.Reply, error) {
	metrics.WizardStepsTotal.WithLabelValues(step, "rejected").Inc()
	return chat.Reply{}, apperrors.NewValidationError(message)
}
