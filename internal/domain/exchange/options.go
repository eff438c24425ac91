package exchange

// Option is one entry of a fixed selection menu.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	// FeeInfo is the fee schedule text, e.g. "5% fee" or "5-8% fee".
	FeeInfo string `json:"fee_info,omitempty"`
}

// PaymentMethodCrypto is the outbound method that switches the wizard into the crypto→fiat flow.
const PaymentMethodCrypto = "crypto"

// PaymentMethods are the outbound rails offered on the exchange panel.
var PaymentMethods = []Option{
	{ID: "paypal", Label: "PayPal", Description: "5-8% fee", FeeInfo: "5-8% fee"},
	{ID: "cashapp", Label: "Cash App", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "zelle", Label: "Zelle", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "venmo", Label: "Venmo", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "applepay", Label: "Apple Pay", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "banktransfer", Label: "Bank Transfer", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: PaymentMethodCrypto, Label: "Cryptocurrency", Description: "5% fee", FeeInfo: "5% fee"},
}

// Cryptos are the coins that can be sent or received.
var Cryptos = []Option{
	{ID: "ltc", Label: "Litecoin (LTC)", Description: "Receive Litecoin"},
	{ID: "sol", Label: "Solana (SOL)", Description: "Receive Solana"},
	{ID: "eth", Label: "Ethereum (ETH)", Description: "Receive Ethereum"},
	{ID: "btc", Label: "Bitcoin (BTC)", Description: "Receive Bitcoin"},
	{ID: "usdc", Label: "USD Coin (USDC)", Description: "Receive USDC - Choose Network"},
	{ID: "usdt", Label: "Tether (USDT)", Description: "Receive USDT - Choose Network"},
	{ID: "bnb", Label: "BNB", Description: "Receive Binance Coin"},
	{ID: "xrp", Label: "Ripple (XRP)", Description: "Receive XRP"},
	{ID: "ada", Label: "Cardano (ADA)", Description: "Receive Cardano"},
	{ID: "doge", Label: "Dogecoin (DOGE)", Description: "Receive Dogecoin"},
	{ID: "matic", Label: "Polygon (MATIC)", Description: "Receive Polygon"},
	{ID: "dot", Label: "Polkadot (DOT)", Description: "Receive Polkadot"},
	{ID: "link", Label: "Chainlink (LINK)", Description: "Receive Chainlink"},
	{ID: "avax", Label: "Avalanche (AVAX)", Description: "Receive Avalanche"},
}

// Networks are the chains a stablecoin can move on.
var Networks = []Option{
	{ID: "erc20", Label: "ERC-20 (Ethereum)", Description: "Ethereum Network"},
	{ID: "trc20", Label: "TRC-20 (Tron)", Description: "Tron Network"},
	{ID: "bep20", Label: "BEP-20 (BSC)", Description: "Binance Smart Chain"},
	{ID: "polygon", Label: "Polygon (MATIC)", Description: "Polygon Network"},
	{ID: "solana", Label: "Solana (SPL)", Description: "Solana Network"},
	{ID: "arbitrum", Label: "Arbitrum", Description: "Arbitrum Network"},
	{ID: "optimism", Label: "Optimism", Description: "Optimism Network"},
}

// ReceiveMethods are the fiat rails a user can be paid on in the crypto→fiat flow.
var ReceiveMethods = []Option{
	{ID: "paypal_receive", Label: "PayPal", Description: "5-8% fee", FeeInfo: "5-8% fee"},
	{ID: "cashapp_receive", Label: "Cash App", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "zelle_receive", Label: "Zelle", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "venmo_receive", Label: "Venmo", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "applepay_receive", Label: "Apple Pay", Description: "5% fee", FeeInfo: "5% fee"},
	{ID: "banktransfer_receive", Label: "Bank Transfer", Description: "5% fee", FeeInfo: "5% fee"},
}

// SupportedCryptoSymbols and SupportedFiat back the /supported listing.
var SupportedCryptoSymbols = []string{
	"BTC", "ETH", "USDT", "BNB", "SOL", "XRP", "USDC", "ADA", "DOGE", "MATIC", "DOT", "LINK", "AVAX", "LTC",
}

var SupportedFiat = []string{"USD", "EUR", "GBP", "JPY", "CNY", "CAD", "AUD", "CHF", "INR", "KRW"}

// FindOption returns the option with the given id.
func FindOption(options []Option, id string) (Option, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// IsStablecoin reports whether a crypto id needs a network selection.
func IsStablecoin(cryptoID string) bool {
	return cryptoID == "usdc" || cryptoID == "usdt"
}
