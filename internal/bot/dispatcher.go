// Package bot routes inbound chat events to the services and delivers their replies.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"exchange-ticket-bot/internal/chat"
	apperrors "exchange-ticket-bot/internal/common/errors"
	"exchange-ticket-bot/internal/common/logger"
	"exchange-ticket-bot/internal/metrics"
	"exchange-ticket-bot/internal/state"
)

// Handler processes one event.
type Handler func(ctx context.Context, ev chat.Event) (chat.Reply, error)

// Responder delivers acknowledgements and replies for an event.
type Responder interface {
	// Defer acknowledges the event before slow work. The reply that follows edits
	// the deferred response.
	Defer(ctx context.Context, ev chat.Event, ephemeral bool) error
	Reply(ctx context.Context, ev chat.Event, r chat.Reply, deferred bool) error
}

// DeferMode says whether and how an event is acknowledged before its handler runs.
type DeferMode int

const (
	NoDefer DeferMode = iota
	DeferPublic
	DeferEphemeral
)

type route struct {
	handler Handler
	mode    DeferMode
}

// Dispatcher deduplicates events, acknowledges them and runs their handler.
type Dispatcher struct {
	dedup      state.Deduper
	responder  Responder
	commands   map[string]route
	components map[string]route
}

func NewDispatcher(dedup state.Deduper, responder Responder) *Dispatcher {
	return &Dispatcher{
		dedup:      dedup,
		responder:  responder,
		commands:   make(map[string]route),
		components: make(map[string]route),
	}
}

// Command registers a slash command handler.
func (d *Dispatcher) Command(name string, mode DeferMode, h Handler) {
	d.commands[name] = route{handler: h, mode: mode}
}

// Component registers a handler for a select menu, button or modal custom id.
func (d *Dispatcher) Component(customID string, mode DeferMode, h Handler) {
	d.components[customID] = route{handler: h, mode: mode}
}

func (d *Dispatcher) lookup(ev chat.Event) (route, bool) {
	if ev.Kind == chat.KindCommand {
		r, ok := d.commands[ev.Name]
		return r, ok
	}
	r, ok := d.components[chat.NormalizeCustomID(ev.Name)]
	return r, ok
}

// Dispatch handles one event end to end. It never returns an error: failures are
// rendered to the user and logged.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) {
	start := time.Now()
	kind := ev.Kind.String()
	outcome := "ok"
	defer func() {
		metrics.EventsTotal.WithLabelValues(kind, outcome).Inc()
		metrics.EventDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	if ev.ID != "" {
		seen, err := d.dedup.Seen(ctx, ev.ID)
		if err != nil {
			logger.Warn().Err(err).Str("event_id", ev.ID).Msg("Event dedup check failed")
		} else if seen {
			outcome = "duplicate"
			logger.Debug().Str("event_id", ev.ID).Msg("Skipping duplicate event")
			return
		}
	}

	r, ok := d.lookup(ev)
	if !ok {
		outcome = "unknown"
		logger.Warn().Str("kind", kind).Str("name", ev.Name).Msg("No handler for event")
		return
	}

	deferred := r.mode != NoDefer
	if deferred {
		if err := d.responder.Defer(ctx, ev, r.mode == DeferEphemeral); err != nil {
			outcome = "defer_failed"
			logger.Error().Err(err).Str("name", ev.Name).Msg("Failed to acknowledge event")
			return
		}
	}

	reply, err := d.run(ctx, r.handler, ev)
	if err != nil {
		outcome = "rejected"
		appErr, isApp := apperrors.AsAppError(err)
		if isApp && appErr.IsRecoverable() {
			logger.Info().Str("name", ev.Name).Str("user_id", ev.UserID).Str("code", string(appErr.Code)).Msg("Event rejected")
		} else {
			outcome = "error"
			logger.Error().Err(err).Str("name", ev.Name).Str("user_id", ev.UserID).Msg("Error handling event")
		}
		reply = chat.Text(apperrors.UserMessage(err), true)
	}

	if err := d.responder.Reply(ctx, ev, reply, deferred); err != nil {
		outcome = "reply_failed"
		logger.Error().Err(err).Str("name", ev.Name).Msg("Failed to deliver reply")
	}
}

func (d *Dispatcher) run(ctx context.Context, h Handler, ev chat.Event) (reply chat.Reply, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Str("stack", string(debug.Stack())).Msg("Handler panicked")
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, ev)
}
