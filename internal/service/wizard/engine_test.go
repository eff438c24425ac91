package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/state"
)

type stubGate struct {
	active int
	err    error
}

func (g *stubGate) ActiveTickets(context.Context, string) (int, error) { return g.active, g.err }

func newEngine(t *testing.T) (*Engine, *state.MemorySelectionStore, *stubGate) {
	t.Helper()
	store := state.NewMemorySelectionStore(state.SelectionTTL)
	gate := &stubGate{}
	return NewEngine(store, gate, &state.KeyedMutex{}), store, gate
}

func sel(name, value string) chat.Event {
	return chat.Event{Kind: chat.KindSelect, Name: name, Values: []string{value}, UserID: "u1", Username: "alice"}
}

func amount(v string) chat.Event {
	return chat.Event{Kind: chat.KindModal, Name: chat.IDAmountModal, Fields: map[string]string{chat.IDAmountInput: v}, UserID: "u1"}
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestFiatToCryptoFlow(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	r, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "cashapp"))
	require.NoError(t, err)
	assert.True(t, r.Ephemeral)
	require.Len(t, r.Message.Components, 1)
	assert.Equal(t, chat.IDCryptoSelect, r.Message.Components[0].CustomID)

	r, err = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "btc"))
	require.NoError(t, err)
	require.Equal(t, chat.ReplyModal, r.Kind)
	assert.Equal(t, chat.IDAmountModal, r.Modal.CustomID)

	r, err = e.SubmitAmount(ctx, amount("100"))
	require.NoError(t, err)
	require.Len(t, r.Message.Components, 1)
	assert.Equal(t, chat.IDConfirmExchange, r.Message.Components[0].CustomID)
	assert.Contains(t, r.Message.Embeds[0].Description, "**Amount Receiving:** $95.00")

	s, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, s.Quote)
	assert.True(t, s.Quote.FeeAmount.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.Quote.ReceivingAmount.Equal(decimal.NewFromInt(95)))
	assert.True(t, s.ReadyForConfirmation())
}

func TestFiatToCryptoStablecoinNeedsNetwork(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "paypal"))
	require.NoError(t, err)

	r, err := e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "usdt"))
	require.NoError(t, err)
	assert.Equal(t, chat.ReplyUpdate, r.Kind)
	assert.Equal(t, chat.IDNetworkSelect, r.Message.Components[0].CustomID)

	// amount before network is out of order
	_, err = e.SubmitAmount(ctx, amount("50"))
	requireCode(t, err, apperrors.ErrCodeValidation)

	r, err = e.SelectReceiveNetwork(ctx, sel(chat.IDNetworkSelect, "trc20"))
	require.NoError(t, err)
	assert.Equal(t, chat.ReplyModal, r.Kind)

	_, err = e.SubmitAmount(ctx, amount("50"))
	require.NoError(t, err)
	s, _ := store.Get(ctx, "u1")
	assert.True(t, s.Quote.FeePercent.Equal(decimal.NewFromInt(8)))
	assert.True(t, s.Quote.FeeAmount.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.Quote.ReceivingAmount.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, "trc20", s.Network)
}

func TestCryptoToFiatFlow(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	r, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "crypto"))
	require.NoError(t, err)
	assert.Equal(t, chat.IDCryptoSendSelect, r.Message.Components[0].CustomID)

	r, err = e.SelectSendCrypto(ctx, sel(chat.IDCryptoSendSelect, "usdc"))
	require.NoError(t, err)
	assert.Equal(t, chat.IDNetworkSendSelect, r.Message.Components[0].CustomID)

	// receive rail before the sending network is out of order
	_, err = e.SelectReceiveMethod(ctx, sel(chat.IDCryptoReceiveSelect, "zelle_receive"))
	requireCode(t, err, apperrors.ErrCodeValidation)

	r, err = e.SelectSendNetwork(ctx, sel(chat.IDNetworkSendSelect, "erc20"))
	require.NoError(t, err)
	assert.Equal(t, chat.IDCryptoReceiveSelect, r.Message.Components[0].CustomID)
	assert.Contains(t, r.Message.Embeds[0].Description, "USD Coin (USDC) (ERC-20 (Ethereum))")

	r, err = e.SelectReceiveMethod(ctx, sel(chat.IDCryptoReceiveSelect, "zelle_receive"))
	require.NoError(t, err)
	assert.Equal(t, chat.IDAmountModalCrypto, r.Modal.CustomID)

	ev := amount("1000")
	ev.Name = chat.IDAmountModalCrypto
	_, err = e.SubmitAmount(ctx, ev)
	require.NoError(t, err)

	s, _ := store.Get(ctx, "u1")
	assert.Empty(t, s.PaymentMethod)
	assert.Equal(t, "usdc", s.CryptoSending)
	assert.Equal(t, "zelle_receive", s.ReceiveMethod)
	assert.True(t, s.Quote.FeeAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.Quote.ReceivingAmount.Equal(decimal.NewFromInt(950)))
}

func TestCryptoToFiatIsPricedByCryptoOption(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "crypto"))
	require.NoError(t, err)
	_, err = e.SelectSendCrypto(ctx, sel(chat.IDCryptoSendSelect, "btc"))
	require.NoError(t, err)
	_, err = e.SelectReceiveMethod(ctx, sel(chat.IDCryptoReceiveSelect, "paypal_receive"))
	require.NoError(t, err)

	ev := amount("1000")
	ev.Name = chat.IDAmountModalCrypto
	r, err := e.SubmitAmount(ctx, ev)
	require.NoError(t, err)
	assert.Contains(t, r.Message.Embeds[0].Description, "**Amount Receiving:** $950.00")

	s, _ := store.Get(ctx, "u1")
	assert.Equal(t, "5% fee", s.FeeInfo)
	assert.True(t, s.Quote.FeePercent.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.Quote.FeeAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.Quote.ReceivingAmount.Equal(decimal.NewFromInt(950)))
}

func TestQuoteKeepsExactValuesAndRendersCents(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "paypal"))
	require.NoError(t, err)
	_, err = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "btc"))
	require.NoError(t, err)

	r, err := e.SubmitAmount(ctx, amount("333.33"))
	require.NoError(t, err)
	assert.Contains(t, r.Message.Embeds[0].Description, "$26.67")
	assert.Contains(t, r.Message.Embeds[0].Description, "**Amount Receiving:** $306.66")

	s, _ := store.Get(ctx, "u1")
	assert.True(t, s.Quote.FeeAmount.Equal(decimal.RequireFromString("26.6664")), "fee %s", s.Quote.FeeAmount)
	assert.True(t, s.Quote.ReceivingAmount.Equal(decimal.RequireFromString("306.6636")), "net %s", s.Quote.ReceivingAmount)
}

func TestSubmitAmount_RejectsInvalidAndKeepsState(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)
	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	require.NoError(t, err)
	_, err = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "eth"))
	require.NoError(t, err)

	before, _ := store.Get(ctx, "u1")

	for _, bad := range []string{"", "abc", "0", "-10", "NaN", "12abc"} {
		_, err := e.SubmitAmount(ctx, amount(bad))
		appErr := requireCode(t, err, apperrors.ErrCodeValidation)
		assert.Equal(t, msgInvalidAmount, appErr.Message, bad)

		after, _ := store.Get(ctx, "u1")
		assert.Nil(t, after.Quote, bad)
		assert.Equal(t, before.Crypto, after.Crypto, bad)
	}
}

func TestStepWithoutSelectionIsExpired(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t)

	steps := map[string]func(context.Context, chat.Event) (chat.Reply, error){
		"receive_crypto":  e.SelectReceiveCrypto,
		"receive_network": e.SelectReceiveNetwork,
		"send_crypto":     e.SelectSendCrypto,
		"send_network":    e.SelectSendNetwork,
		"receive_method":  e.SelectReceiveMethod,
	}
	for name, fn := range steps {
		_, err := fn(ctx, sel("x", "btc"))
		appErr := requireCode(t, err, apperrors.ErrCodeExpiredState)
		assert.Equal(t, "❌ Selection expired. Please start over.", appErr.Message, name)
	}
	_, err := e.SubmitAmount(ctx, amount("10"))
	requireCode(t, err, apperrors.ErrCodeExpiredState)
}

func TestUnknownValuesAreRejected(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "wire"))
	appErr := requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, msgInvalidOption, appErr.Message)
	s, _ := store.Get(ctx, "u1")
	assert.Nil(t, s, "no state is created for a rejected first step")

	_, err = e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "venmo"))
	require.NoError(t, err)
	_, err = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "shib"))
	appErr = requireCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, msgInvalidCrypto, appErr.Message)

	s, _ = store.Get(ctx, "u1")
	assert.Empty(t, s.Crypto)
}

func TestStaleStepFromOtherFlowIsRejected(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	require.NoError(t, err)

	_, err = e.SelectSendCrypto(ctx, sel(chat.IDCryptoSendSelect, "btc"))
	requireCode(t, err, apperrors.ErrCodeValidation)
	_, err = e.SelectReceiveMethod(ctx, sel(chat.IDCryptoReceiveSelect, "paypal_receive"))
	requireCode(t, err, apperrors.ErrCodeValidation)

	s, _ := store.Get(ctx, "u1")
	assert.Empty(t, s.CryptoSending)
	assert.Empty(t, s.ReceiveMethod)
	assert.Equal(t, exchange.FlowFiatToCrypto, s.Flow)
}

func TestReselectingCoinClearsDownstreamFields(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, _ = e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	_, _ = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "usdt"))
	_, _ = e.SelectReceiveNetwork(ctx, sel(chat.IDNetworkSelect, "bep20"))
	_, err := e.SubmitAmount(ctx, amount("300"))
	require.NoError(t, err)

	_, err = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "btc"))
	require.NoError(t, err)
	s, _ := store.Get(ctx, "u1")
	assert.Empty(t, s.Network)
	assert.Nil(t, s.Quote)
}

func TestTicketLimit(t *testing.T) {
	ctx := context.Background()
	e, store, gate := newEngine(t)

	gate.active = 3
	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	appErr := requireCode(t, err, apperrors.ErrCodeTicketLimit)
	assert.Contains(t, appErr.Message, "3 active exchange tickets")
	s, _ := store.Get(ctx, "u1")
	assert.Nil(t, s)

	gate.active = 2
	_, err = e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	require.NoError(t, err)
}

func TestTicketGateFailurePropagates(t *testing.T) {
	ctx := context.Background()
	e, _, gate := newEngine(t)
	gate.err = errors.New("registry down")

	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	require.Error(t, err)
	_, isApp := apperrors.AsAppError(err)
	assert.False(t, isApp)
}

func TestNewSelectionReplacesOld(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newEngine(t)

	_, _ = e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "zelle"))
	_, _ = e.SelectReceiveCrypto(ctx, sel(chat.IDCryptoSelect, "btc"))
	_, err := e.SelectPaymentMethod(ctx, sel(chat.IDExchangeSelect, "crypto"))
	require.NoError(t, err)

	s, _ := store.Get(ctx, "u1")
	assert.Equal(t, exchange.FlowCryptoToFiat, s.Flow)
	assert.Empty(t, s.Crypto)
	assert.Empty(t, s.PaymentMethod)
}

func TestPanelRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t)

	_, err := e.Panel(ctx, chat.Event{Kind: chat.KindCommand, Name: chat.CmdExchangePanel})
	requireCode(t, err, apperrors.ErrCodeForbidden)

	r, err := e.Panel(ctx, chat.Event{Kind: chat.KindCommand, Name: chat.CmdExchangePanel, IsAdmin: true})
	require.NoError(t, err)
	assert.False(t, r.Ephemeral)
	require.Len(t, r.Message.Components, 1)
	assert.Len(t, r.Message.Components[0].Options, len(exchange.PaymentMethods))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{" 12.50 ", "12.5", true},
		{"$1,250.75", "1250.75", true},
		{"0", "", false},
		{"-1", "", false},
		{"ten", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), tt.in)
		}
	}
}
