package tickets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/exchange"
	"exchange-ticket-bot/internal/metrics"
	"exchange-ticket-bot/internal/state"
)

const (
	msgCreateFailed    = "❌ Failed to create ticket. Please make sure the bot has permission to create channels."
	msgIncomplete      = "❌ Your selection is incomplete. Please start over."
	msgNotTicket       = "❌ This is not a valid ticket channel."
	msgClaimAdminsOnly = "❌ Only administrators can claim tickets."
)

var channelNameUnsafe = regexp.MustCompile(`[^a-z0-9-]`)

// ChannelName builds the ticket channel name for a user at a unix-millisecond timestamp.
func ChannelName(username string, unixMilli int64) string {
	name := strings.ToLower(fmt.Sprintf("ticket-%s-%d", username, unixMilli))
	return channelNameUnsafe.ReplaceAllString(name, "")
}

// Create turns the user's confirmed selection into a ticket channel. The selection
// is consumed; if the channel cannot be created it is restored so the user can retry.
func (s *Service) Create(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	unlock := s.locks.Lock(ev.UserID)
	defer unlock()

	sel, err := s.selections.Get(ctx, ev.UserID)
	if err != nil {
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeCacheError, apperrors.GenericFailureMessage)
	}
	if sel == nil {
		return chat.Reply{}, apperrors.NewExpiredStateError()
	}
	if !sel.ReadyForConfirmation() {
		return chat.Reply{}, apperrors.NewValidationError(msgIncomplete)
	}
	if err := s.selections.Delete(ctx, ev.UserID); err != nil {
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeCacheError, apperrors.GenericFailureMessage)
	}

	now := s.now()
	ch, err := s.openChannel(ctx, ev, now.UnixMilli())
	if err != nil {
		s.restore(ctx, sel)
		metrics.TicketsTotal.WithLabelValues("create_failed").Inc()
		logger.Error().Err(err).Str("user_id", ev.UserID).Msg("Error creating ticket channel")
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeResourceCreationFailed, msgCreateFailed)
	}

	ticket := exchange.TicketFromSelection(s.newID(), ch.ID, sel, now)
	if err := s.registry.Add(ctx, ticket); err != nil {
		if derr := s.platform.DeleteChannel(ctx, ch.ID, "Ticket registration failed"); derr != nil {
			logger.Warn().Err(derr).Str("channel_id", ch.ID).Msg("Failed to roll back ticket channel")
		}
		s.restore(ctx, sel)
		metrics.TicketsTotal.WithLabelValues("create_failed").Inc()
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeResourceCreationFailed, msgCreateFailed)
	}

	if _, err := s.platform.SendMessage(ctx, ch.ID, ticketMessage(sel, ev.UserTag, now)); err != nil {
		logger.Error().Err(err).Str("channel_id", ch.ID).Msg("Failed to post ticket message")
	}

	metrics.TicketsTotal.WithLabelValues("created").Inc()
	logger.Info().
		Str("ticket_id", ticket.ID).
		Str("user_id", ev.UserID).
		Str("channel_id", ch.ID).
		Str("flow", string(sel.Flow)).
		Str("amount", sel.Quote.SendingAmount.String()).
		Msg("Ticket created")

	return chat.Text(fmt.Sprintf("✅ Your exchange ticket has been created! Please check <#%s>", ch.ID), true), nil
}

func (s *Service) openChannel(ctx context.Context, ev chat.Event, unixMilli int64) (*chat.Channel, error) {
	category, err := s.ticketCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("tickets category: %w", err)
	}
	return s.platform.CreateChannel(ctx, chat.ChannelSpec{
		Name:              ChannelName(ev.Username, unixMilli),
		Type:              chat.ChannelText,
		ParentID:          category.ID,
		Reason:            "Exchange ticket created by " + ev.UserTag,
		Private:           true,
		Members:           []string{ev.UserID, s.platform.BotUserID()},
		IncludeAdminRoles: true,
	})
}

// ticketCategory finds the tickets category or creates it hidden from everyone.
func (s *Service) ticketCategory(ctx context.Context) (*chat.Channel, error) {
	channels, err := s.platform.GuildChannels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		c := channels[i]
		if c.Type == chat.ChannelCategory && strings.EqualFold(c.Name, s.category) {
			return &c, nil
		}
	}
	logger.Info().Str("category", s.category).Msg("Creating tickets category")
	return s.platform.CreateChannel(ctx, chat.ChannelSpec{
		Name:    titleCase(s.category),
		Type:    chat.ChannelCategory,
		Private: true,
	})
}

func titleCase(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func (s *Service) restore(ctx context.Context, sel *exchange.SelectionState) {
	if err := s.selections.Set(ctx, sel); err != nil {
		logger.Warn().Err(err).Str("user_id", sel.UserID).Msg("Failed to restore selection")
	}
}

// Claim records the first administrator to take a ticket and marks the ticket message.
func (s *Service) Claim(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError(msgClaimAdminsOnly)
	}
	claimedBy, won, err := s.registry.Claim(ctx, ev.ChannelID, ev.UserID)
	if errors.Is(err, state.ErrTicketNotFound) {
		return chat.Reply{}, apperrors.New(apperrors.ErrCodeNotTicketChannel, msgNotTicket)
	}
	if err != nil {
		return chat.Reply{}, apperrors.Wrap(err, apperrors.ErrCodeCacheError, apperrors.GenericFailureMessage)
	}
	if !won {
		return chat.Reply{}, apperrors.NewConflictError(
			fmt.Sprintf("❌ This ticket has already been claimed by %s.", mention(claimedBy)))
	}

	metrics.TicketsTotal.WithLabelValues("claimed").Inc()
	logger.Info().Str("channel_id", ev.ChannelID).Str("admin_id", ev.UserID).Msg("Ticket claimed")

	return chat.Reply{
		Kind:    chat.ReplyUpdate,
		Message: claimedMessage(ev.SourceEmbeds, ev.UserID),
		FollowUps: []chat.FollowUp{{
			Message: chat.Message{Content: fmt.Sprintf("✅ %s has claimed this ticket!", mention(ev.UserID))},
		}},
	}, nil
}
