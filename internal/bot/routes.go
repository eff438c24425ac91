package bot

import (
	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/service/tickets"
	"exchange-ticket-bot/internal/service/wizard"
)

// Register binds every command and component to its handler.
func Register(d *Dispatcher, w *wizard.Engine, t *tickets.Service, a *Admin) {
	for _, name := range []string{chat.CmdExchangePanel, chat.CmdExchangePanelAlt, chat.CmdExchangePanelFull, chat.CmdExchangePanelNew} {
		d.Command(name, NoDefer, w.Panel)
	}
	d.Command(chat.CmdCompleteTicket, DeferPublic, t.Complete)
	d.Command(chat.CmdCloseTicket, DeferPublic, t.Close)
	d.Command(chat.CmdGive, DeferEphemeral, t.Give)
	d.Command(chat.CmdRemove, DeferEphemeral, t.Remove)
	d.Command(chat.CmdSetLeaderboard, DeferEphemeral, a.SetLeaderboard)
	d.Command(chat.CmdUpdateLeaderboard, DeferEphemeral, a.UpdateLeaderboard)
	d.Command(chat.CmdMessage, NoDefer, a.Message)
	d.Command(chat.CmdSupported, NoDefer, a.Supported)

	d.Component(chat.IDExchangeSelect, DeferEphemeral, w.SelectPaymentMethod)
	d.Component(chat.IDCryptoSelect, NoDefer, w.SelectReceiveCrypto)
	d.Component(chat.IDNetworkSelect, NoDefer, w.SelectReceiveNetwork)
	d.Component(chat.IDCryptoSendSelect, NoDefer, w.SelectSendCrypto)
	d.Component(chat.IDNetworkSendSelect, NoDefer, w.SelectSendNetwork)
	d.Component(chat.IDCryptoReceiveSelect, NoDefer, w.SelectReceiveMethod)
	d.Component(chat.IDAmountModal, DeferEphemeral, w.SubmitAmount)
	d.Component(chat.IDAmountModalCrypto, DeferEphemeral, w.SubmitAmount)
	d.Component(chat.IDConfirmExchange, DeferEphemeral, t.Create)
	d.Component(chat.IDClaimTicket, NoDefer, t.Claim)
}
