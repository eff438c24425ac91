package tickets

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/service/wizard"
)

// Give credits amount to a user's total outside of any ticket.
func (s *Service) Give(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	return s.adjust(ctx, ev, true)
}

// Remove debits amount from a user's total, clamping at zero.
func (s *Service) Remove(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	return s.adjust(ctx, ev, false)
}

func (s *Service) adjust(ctx context.Context, ev chat.Event, credit bool) (chat.Reply, error) {
	if !ev.IsAdmin {
		return chat.Reply{}, apperrors.NewForbiddenError("❌ Only administrators can adjust stats.")
	}
	target := ev.Option(chat.OptUser)
	if target == "" {
		return chat.Reply{}, apperrors.NewValidationError("❌ Please choose a user.")
	}
	amount, ok := parsePositive(ev.Option(chat.OptAmount))
	if !ok {
		return chat.Reply{}, apperrors.NewValidationError(msgAmountPositive)
	}

	adj, err := s.applyAdjustment(ctx, target, amount, credit)
	if err != nil {
		return chat.Reply{}, err
	}
	logger.Info().
		Str("admin_id", ev.UserID).
		Str("user_id", target).
		Str("previous", adj.Previous.String()).
		Str("current", adj.Current.String()).
		Str("delta", adj.Delta.String()).
		Msg("User stats adjusted")

	s.refreshSurfaces(ctx, false)
	s.announce(ctx, adjustmentEmbed(ev.UserID, target, amount, adj.Previous, adj.Current, credit, s.now()))

	name := ev.Option(chat.OptUserName)
	if name == "" {
		name = mention(target)
	}
	verb, prep := "Added", "to"
	if !credit {
		verb, prep = "Removed", "from"
	}
	return chat.Text(fmt.Sprintf("✅ %s %s %s %s's stats!\nPrevious: %s → New: %s",
		verb, wizard.Money(amount), prep, name, wizard.Money(adj.Previous), wizard.Money(adj.Current)), true), nil
}

func (s *Service) applyAdjustment(ctx context.Context, userID string, amount decimal.Decimal, credit bool) (stats.Adjustment, error) {
	if !credit {
		prev, next, err := s.ledger.SubtractUserTotal(ctx, userID, amount)
		if err != nil {
			return stats.Adjustment{}, apperrors.NewDatabaseError("subtract_user_total", err)
		}
		return stats.Adjustment{UserID: userID, Previous: prev, Current: next, Delta: next.Sub(prev)}, nil
	}
	next, err := s.ledger.IncrementUserTotal(ctx, userID, amount)
	if err != nil {
		return stats.Adjustment{}, apperrors.NewDatabaseError("increment_user_total", err)
	}
	prev := next.Sub(amount)
	return stats.Adjustment{UserID: userID, Previous: prev, Current: next, Delta: amount}, nil
}
