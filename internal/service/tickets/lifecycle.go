package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/metrics"
)

const (
	msgNotTicketChannel = "❌ This command can only be used in ticket channels."
	msgAmountPositive   = "❌ Amount must be greater than 0."
	msgAlreadyClosing   = "❌ This ticket is already being closed."
)

// channelCheck is the outcome of the ticket-channel identity test.
type channelCheck struct {
	name       string
	prefix     bool
	hasParent  bool
	parentName string
	inCategory bool
}

func (c channelCheck) ok() bool { return c.prefix && c.hasParent && c.inCategory }

func (c channelCheck) debug() string {
	parent := c.parentName
	if parent == "" {
		parent = "N/A"
	}
	return fmt.Sprintf("%s\n\n**Debug Info:**\n- Channel: %s\n- Has ticket- prefix: %t\n- Has parent: %t\n- Parent name: %s\n- In Tickets category: %t",
		msgNotTicketChannel, c.name, c.prefix, c.hasParent, parent, c.inCategory)
}

// checkChannel applies the ticket-channel identity test: a "ticket-" name directly
// under the tickets category.
func (s *Service) checkChannel(ctx context.Context, channelID string) (channelCheck, error) {
	ch, err := s.platform.Channel(ctx, channelID)
	if errors.Is(err, chat.ErrNotFound) {
		return channelCheck{}, nil
	}
	if err != nil {
		return channelCheck{}, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, apperrors.GenericFailureMessage)
	}
	c := channelCheck{
		name:       ch.Name,
		prefix:     strings.HasPrefix(strings.ToLower(ch.Name), "ticket-"),
		hasParent:  ch.ParentID != "",
		parentName: ch.ParentName,
	}
	c.inCategory = c.hasParent && strings.EqualFold(ch.ParentName, s.category)
	return c, nil
}

func parsePositive(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Complete credits a finished exchange to the ledger and schedules the channel for deletion.
func (s *Service) Complete(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError("❌ Only administrators can complete tickets.")
	}
	check, err := s.checkChannel(ctx, ev.ChannelID)
	if err != nil {
		return chat.Reply{}, err
	}
	logger.Debug().
		Str("channel", check.name).
		Bool("prefix", check.prefix).
		Bool("has_parent", check.hasParent).
		Str("parent", check.parentName).
		Msg("Complete-ticket validation")
	if !check.ok() {
		logger.Info().Str("channel", check.name).Msg("Complete-ticket rejected outside a ticket channel")
		return chat.Reply{}, apperrors.New(apperrors.ErrCodeNotTicketChannel, check.debug())
	}
	amount, ok := parsePositive(ev.Option(chat.OptAmount))
	if !ok {
		return chat.Reply{}, apperrors.NewValidationError(msgAmountPositive)
	}
	if !s.beginClosing(ev.ChannelID) {
		return chat.Reply{}, apperrors.NewConflictError(msgAlreadyClosing)
	}

	total, err := s.ledger.IncrementGlobalTotal(ctx, amount)
	if err != nil {
		s.endClosing(ev.ChannelID)
		return chat.Reply{}, apperrors.NewDatabaseError("increment_global_total", err)
	}

	ownerID := s.findOwner(ctx, ev.ChannelID)
	if ownerID != "" {
		if _, err := s.ledger.IncrementUserTotal(ctx, ownerID, amount); err != nil {
			// The global total already moved; report the user total as not updated.
			logger.Error().Err(err).Str("user_id", ownerID).Msg("Failed to credit ticket owner")
			ownerID = ""
		}
	} else {
		logger.Warn().Str("channel_id", ev.ChannelID).Msg("Could not determine ticket owner, user stats not updated")
	}

	metrics.TicketsTotal.WithLabelValues("completed").Inc()
	metrics.ExchangedVolume.Add(amount.InexactFloat64())
	logger.Info().
		Str("channel_id", ev.ChannelID).
		Str("owner_id", ownerID).
		Str("amount", amount.String()).
		Str("total", total.String()).
		Msg("Ticket completed")

	s.refreshSurfaces(ctx, true)

	c := completion{
		completedBy:    ev.UserID,
		completedByTag: ev.UserTag,
		ownerID:        ownerID,
		from:           ev.Option(chat.OptFrom),
		to:             ev.Option(chat.OptTo),
		amount:         amount,
		total:          total,
		now:            s.now(),
	}
	if ownerID != "" {
		s.announce(ctx, completionAnnouncement(c))
	}
	s.recordHistory(ctx, ev.ChannelID, c)
	s.scheduleDelete(ev.ChannelID, "Ticket completed", CompleteDeleteDelay)

	return chat.Reply{Kind: chat.ReplyMessage, Message: chat.Message{Embeds: []chat.Embed{completedEmbed(c)}}}, nil
}

func (s *Service) recordHistory(ctx context.Context, channelID string, c completion) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, stats.HistoryEntry{
		ChannelID:   channelID,
		OwnerID:     c.ownerID,
		CompletedBy: c.completedBy,
		From:        c.from,
		To:          c.to,
		Amount:      c.amount,
		Total:       c.total,
		CompletedAt: c.now,
	})
	if err != nil {
		logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to record ticket history")
	}
}

// findOwner removes the ticket from the registry and returns its owner. Tickets the
// registry no longer knows fall back to the first user mentioned in the bot's oldest
// message in the channel.
func (s *Service) findOwner(ctx context.Context, channelID string) string {
	if t := s.retire(ctx, channelID, exchange.TicketStatusCompleted); t != nil {
		return t.OwnerID
	}

	msgs, err := s.platform.ChannelMessages(ctx, channelID, ownerScanLimit)
	if err != nil {
		logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to read ticket history")
		return ""
	}
	bot := s.platform.BotUserID()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].AuthorID != bot {
			continue
		}
		if len(msgs[i].MentionIDs) == 0 {
			return ""
		}
		logger.Warn().Str("channel_id", channelID).Str("owner_id", msgs[i].MentionIDs[0]).
			Msg("Ticket owner recovered from channel history")
		return msgs[i].MentionIDs[0]
	}
	return ""
}

// retire drops the ticket from the registry and returns it with its final status,
// or nil when the channel was not registered.
func (s *Service) retire(ctx context.Context, channelID string, status exchange.TicketStatus) *exchange.Ticket {
	t, err := s.registry.Remove(ctx, channelID)
	if err != nil {
		logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to drop ticket from registry")
		return nil
	}
	if t == nil {
		return nil
	}
	t.Status = status
	logger.Info().
		Str("ticket_id", t.ID).
		Str("user_id", t.OwnerID).
		Str("channel_id", channelID).
		Str("status", string(t.Status)).
		Msg("Removed ticket from registry")
	return t
}

// Close tears down a ticket without touching the ledger.
func (s *Service) Close(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError("❌ Only administrators can close tickets.")
	}
	check, err := s.checkChannel(ctx, ev.ChannelID)
	if err != nil {
		return chat.Reply{}, err
	}
	if !check.ok() {
		return chat.Reply{}, apperrors.New(apperrors.ErrCodeNotTicketChannel, msgNotTicketChannel)
	}
	if !s.beginClosing(ev.ChannelID) {
		return chat.Reply{}, apperrors.NewConflictError(msgAlreadyClosing)
	}

	s.retire(ctx, ev.ChannelID, exchange.TicketStatusClosed)
	metrics.TicketsTotal.WithLabelValues("closed").Inc()
	s.scheduleDelete(ev.ChannelID, "Ticket closed", CloseDeleteDelay)

	return chat.Reply{Kind: chat.ReplyMessage, Message: chat.Message{Embeds: []chat.Embed{closingEmbed(ev.UserTag, s.now())}}}, nil
}
