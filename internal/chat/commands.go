package chat

// Slash command names.
const (
	CmdExchangePanel     = "exchange-panel"
	CmdExchangePanelAlt  = "exchangepanel"
	CmdExchangePanelFull = "yespanelok"
	CmdExchangePanelNew  = "newwexc"
	CmdCloseTicket       = "close-ticket"
	CmdCompleteTicket    = "complete-ticket"
	CmdGive              = "give"
	CmdRemove            = "remove"
	CmdSetLeaderboard    = "set-leaderboard"
	CmdUpdateLeaderboard = "update-leaderboard"
	CmdMessage           = "message"
	CmdSupported         = "supported"
)

// Component custom ids. Older panels posted suffixed ids (_v2, _v3, _v4); see NormalizeCustomID.
const (
	IDExchangeSelect      = "exchange_select"
	IDCryptoSelect        = "crypto_select"
	IDNetworkSelect       = "network_select"
	IDCryptoSendSelect    = "crypto_send_select"
	IDNetworkSendSelect   = "network_send_select"
	IDCryptoReceiveSelect = "crypto_receive_select"
	IDAmountModal         = "amount_modal"
	IDAmountModalCrypto   = "amount_modal_crypto"
	IDAmountInput         = "amount_input"
	IDConfirmExchange     = "confirm_exchange"
	IDClaimTicket         = "claim_ticket"
)

var legacySuffixes = []string{"_v2", "_v3", "_v4"}

// NormalizeCustomID strips the version suffix older panels carry.
func NormalizeCustomID(id string) string {
	for _, s := range legacySuffixes {
		if len(id) > len(s) && id[len(id)-len(s):] == s {
			return id[:len(id)-len(s)]
		}
	}
	return id
}

// Command option names.
const (
	OptAmount = "amount"
	OptFrom   = "from"
	OptTo     = "to"
	OptUser   = "user"
	// OptUserName carries the resolved username of the OptUser option.
	OptUserName = "user_name"
	OptText     = "text"
)
