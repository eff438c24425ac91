package wizard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/service/fee"
)

const panelDescription = "You can request an exchange by selecting the appropriate option below for the payment type you'll be sending with. " +
	"Follow the instructions and fill out the fields as requested.\n\n" +
	"**● Reminder**\n\n" +
	"Please read our # terms-of-service before creating an Exchange.\n\n" +
	"**● Minimum Fees**\n\n" +
	"Our minimum service fee is $5.00 USD and is applicable on every deal and is non-negotiable."

// Money formats an amount as dollars with two decimals.
func Money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

func selectMenu(customID, placeholder string, options []exchange.Option) chat.Component {
	opts := make([]chat.SelectOption, 0, len(options))
	for _, o := range options {
		opts = append(opts, chat.SelectOption{Label: o.Label, Description: o.Description, Value: o.ID})
	}
	return chat.Component{Kind: chat.ComponentSelect, CustomID: customID, Placeholder: placeholder, Options: opts}
}

// PanelMessage is the public entry point posted by administrators.
func PanelMessage() chat.Message {
	return chat.Message{
		Embeds: []chat.Embed{{
			Title:       "Request an Exchange",
			Description: panelDescription,
			Color:       chat.ColorBlurple,
		}},
		Components: []chat.Component{selectMenu(chat.IDExchangeSelect, "Select Option", exchange.PaymentMethods)},
	}
}

func step(title, description string, menu chat.Component) chat.Message {
	return chat.Message{
		Embeds:     []chat.Embed{{Title: title, Description: description, Color: chat.ColorBlurple}},
		Components: []chat.Component{menu},
	}
}

func sendCryptoPrompt(method exchange.Option) chat.Message {
	return step("Select Cryptocurrency You Are Sending",
		fmt.Sprintf("**Payment Method:** %s\n\nWhich cryptocurrency are you sending?", method.Label),
		selectMenu(chat.IDCryptoSendSelect, "Select Crypto You Are Sending", exchange.Cryptos))
}

func receiveCryptoPrompt(method exchange.Option) chat.Message {
	return step("Select Cryptocurrency",
		fmt.Sprintf("**Payment Method:** %s\n\nNow select which cryptocurrency you want to receive:", method.Label),
		selectMenu(chat.IDCryptoSelect, "Select Crypto to Receive", exchange.Cryptos))
}

func receiveNetworkPrompt(coin exchange.Option) chat.Message {
	return step("Select Network",
		fmt.Sprintf("**Crypto:** %s\n\nPlease select which network you want to receive on:", coin.Label),
		selectMenu(chat.IDNetworkSelect, "Select Network", exchange.Networks))
}

func sendNetworkPrompt(coin exchange.Option) chat.Message {
	return step("Select Network",
		fmt.Sprintf("**Crypto:** %s\n\nPlease select which network you are sending from:", coin.Label),
		selectMenu(chat.IDNetworkSendSelect, "Select Network", exchange.Networks))
}

func receiveMethodPrompt(sending string) chat.Message {
	return step("Select What to Receive",
		fmt.Sprintf("**Sending:** %s\n\nNow select what you want to receive:", sending),
		selectMenu(chat.IDCryptoReceiveSelect, "Select What to Receive", exchange.ReceiveMethods))
}

func amountModal(flow exchange.Flow) chat.Modal {
	m := chat.Modal{CustomID: chat.IDAmountModal, Title: "Enter Amount"}
	in := chat.TextInput{
		CustomID:    chat.IDAmountInput,
		Label:       "How much are you sending?",
		Placeholder: "Enter amount (e.g., 100)",
		Required:    true,
	}
	if flow == exchange.FlowCryptoToFiat {
		m.CustomID = chat.IDAmountModalCrypto
		in.Label = "How much cryptocurrency are you sending?"
		in.Placeholder = "Enter amount (e.g., 0.5)"
	}
	m.Inputs = []chat.TextInput{in}
	return m
}

func confirmPrompt(s *exchange.SelectionState, r fee.Result) chat.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "**Sending:** %s\n", s.SendingLabel())
	if s.NetworkSendingLabel != "" {
		fmt.Fprintf(&b, "**Sending Network:** %s\n", s.NetworkSendingLabel)
	}
	fmt.Fprintf(&b, "**Receiving:** %s\n", s.ReceivingLabel())
	if s.NetworkLabel != "" {
		fmt.Fprintf(&b, "**Receiving Network:** %s\n", s.NetworkLabel)
	}
	fmt.Fprintf(&b, "\n**Amount Sending:** %s\n", Money(s.Quote.SendingAmount))
	fmt.Fprintf(&b, "**Fee (%s%% / min $5):** %s\n", r.Percent.String(), Money(r.Fee))
	fmt.Fprintf(&b, "**Amount Receiving:** %s\n\n", Money(r.Net))
	b.WriteString("**Minimum Service Fee:** $5.00 USD\n\n")
	b.WriteString(`Click "Confirm Exchange" to create your ticket.`)

	return chat.Message{
		Embeds: []chat.Embed{{
			Title:       "💱 Confirm Your Exchange",
			Description: b.String(),
			Color:       chat.ColorYellow,
			Footer:      "You can cancel by not clicking the button",
		}},
		Components: []chat.Component{{
			Kind:     chat.ComponentButton,
			CustomID: chat.IDConfirmExchange,
			Label:    "Confirm Exchange",
			Emoji:    "✅",
			Style:    chat.ButtonSuccess,
		}},
	}
}
