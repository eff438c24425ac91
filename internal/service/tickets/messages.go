package tickets

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/service/wizard"
)

func mention(userID string) string { return "<@" + userID + ">" }

func ticketMessage(s *exchange.SelectionState, ownerTag string, now time.Time) chat.Message {
	sending, receiving := s.SendingLabel(), s.ReceivingLabel()
	q := s.Quote

	var b strings.Builder
	fmt.Fprintf(&b, "**User:** %s\n**Sending:** %s\n", mention(s.UserID), sending)
	if s.NetworkSending != "" {
		fmt.Fprintf(&b, "**Sending Network:** %s\n", s.NetworkSendingLabel)
	}
	fmt.Fprintf(&b, "**Receiving:** %s\n", receiving)
	if s.Network != "" {
		fmt.Fprintf(&b, "**Receiving Network:** %s\n", s.NetworkLabel)
	}
	fmt.Fprintf(&b, "**Fee:** %s%% (min $5)\n\n", q.FeePercent.String())
	fmt.Fprintf(&b, "**Amount Sending:** %s\n", wizard.Money(q.SendingAmount))
	fmt.Fprintf(&b, "**Fee Amount:** %s\n", wizard.Money(q.FeeAmount))
	fmt.Fprintf(&b, "**Amount Receiving:** %s\n\n", wizard.Money(q.ReceivingAmount))
	b.WriteString("**Minimum Service Fee:** $5.00 USD\n\n")
	b.WriteString("Please provide the following information:\n")
	fmt.Fprintf(&b, "1️⃣ Your %s payment/wallet details\n", sending)
	fmt.Fprintf(&b, "2️⃣ Your %s receiving details\n", receiving)
	switch {
	case s.Network != "":
		fmt.Fprintf(&b, "3️⃣ Make sure you are receiving on the %s network\n\n", s.NetworkLabel)
	case s.NetworkSending != "":
		fmt.Fprintf(&b, "3️⃣ Make sure you are sending from the %s network\n\n", s.NetworkSendingLabel)
	default:
		b.WriteString("\n")
	}
	b.WriteString("A staff member will assist you shortly. Please be patient.")

	return chat.Message{
		Content: mention(s.UserID),
		Embeds: []chat.Embed{{
			Title:       "🎫 Exchange Ticket Created",
			Description: b.String(),
			Color:       chat.ColorGreen,
			Footer:      "Ticket opened by " + ownerTag,
			Timestamp:   now,
		}},
		Components: []chat.Component{{
			Kind:     chat.ComponentButton,
			CustomID: chat.IDClaimTicket,
			Label:    "Claim Ticket",
			Emoji:    "✋",
			Style:    chat.ButtonPrimary,
		}},
	}
}

// claimedMessage rewrites the ticket message after a claim.
func claimedMessage(source []chat.Embed, claimerID string) chat.Message {
	embed := chat.Embed{Title: "🎫 Exchange Ticket Created"}
	if len(source) > 0 {
		embed = source[0]
	}
	embed.Color = chat.ColorYellow
	embed = embed.WithField(chat.EmbedField{Name: "👤 Claimed By", Value: mention(claimerID)})

	embeds := append([]chat.Embed{embed}, source[min(1, len(source)):]...)
	return chat.Message{
		Embeds: embeds,
		Components: []chat.Component{{
			Kind:     chat.ComponentButton,
			CustomID: chat.IDClaimTicket,
			Label:    "Ticket Claimed",
			Emoji:    "✅",
			Style:    chat.ButtonSuccess,
			Disabled: true,
		}},
	}
}

type completion struct {
	completedBy    string
	completedByTag string
	ownerID        string
	from, to       string
	amount         decimal.Decimal
	total          decimal.Decimal
	now            time.Time
}

func (c completion) ownerMention() string {
	if c.ownerID == "" {
		return "Unknown User"
	}
	return mention(c.ownerID)
}

func completedEmbed(c completion) chat.Embed {
	var b strings.Builder
	fmt.Fprintf(&b, "This ticket has been marked as completed by %s.\n\n", c.completedByTag)
	fmt.Fprintf(&b, "**Ticket Owner:** %s\n", c.ownerMention())
	fmt.Fprintf(&b, "**From:** %s\n**To:** %s\n", c.from, c.to)
	fmt.Fprintf(&b, "**Amount Exchanged:** %s USD\n", wizard.Money(c.amount))
	fmt.Fprintf(&b, "**Total Exchanged:** %s USD\n", wizard.Money(c.total))
	if c.ownerID != "" {
		fmt.Fprintf(&b, "**User Stats Updated:** ✅ (+%s)", wizard.Money(c.amount))
	} else {
		b.WriteString("**User Stats Updated:** ⚠️ (Owner not found)")
	}
	fmt.Fprintf(&b, "\n\nChannel will be deleted in %d seconds.", int(CompleteDeleteDelay.Seconds()))
	return chat.Embed{Title: "✅ Ticket Completed", Description: b.String(), Color: chat.ColorGreen, Timestamp: c.now}
}

func completionAnnouncement(c completion) chat.Embed {
	return chat.Embed{
		Title: "🎫 Ticket Completed",
		Description: fmt.Sprintf("A ticket has been completed!\n\n**User:** %s\n**From:** %s\n**To:** %s\n**Amount:** %s\n**Completed by:** %s",
			c.ownerMention(), c.from, c.to, wizard.Money(c.amount), mention(c.completedBy)),
		Color:     chat.ColorGreen,
		Timestamp: c.now,
	}
}

func closingEmbed(closedByTag string, now time.Time) chat.Embed {
	return chat.Embed{
		Title: "🔒 Ticket Closing",
		Description: fmt.Sprintf("This ticket has been closed by %s. Channel will be deleted in %d seconds.",
			closedByTag, int(CloseDeleteDelay.Seconds())),
		Color:     chat.ColorRed,
		Timestamp: now,
	}
}

func adjustmentEmbed(adminID, targetID string, amount, prev, next decimal.Decimal, credit bool, now time.Time) chat.Embed {
	title, verb, sign, color := "📈 Stats Updated", "gave", "+", chat.ColorGreen
	prep := "to"
	if !credit {
		title, verb, sign, color = "📉 Stats Updated", "removed", "-", chat.ColorRed
		prep = "from"
	}
	return chat.Embed{
		Title: title,
		Description: fmt.Sprintf("%s %s **%s** %s %s\n\n**Previous:** %s\n**New Total:** %s\n**Change:** %s%s",
			mention(adminID), verb, wizard.Money(amount), prep, mention(targetID),
			wizard.Money(prev), wizard.Money(next), sign, wizard.Money(amount)),
		Color:     color,
		Timestamp: now,
	}
}
