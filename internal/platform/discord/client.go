// Package discord adapts a discordgo session to the chat boundary: inbound
// interactions become chat.Events, and chat.Platform / bot.Responder calls become
// REST requests.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"exchange-ticket-bot/internal/chat"
	"exchange-ticket-bot/internal/common/logger"
)

// eventTimeout bounds the handling of one interaction. Interaction tokens stay valid for 15 minutes.
const eventTimeout = 2 * time.Minute

// EventHandler receives translated interactions.
type EventHandler func(ctx context.Context, ev chat.Event)

// Client wraps a discordgo session bound to one guild.
type Client struct {
	session *discordgo.Session
	appID   string
	guildID string
	log     zerolog.Logger

	// interactions holds the raw interaction for events being handled, by event id.
	interactions sync.Map

	renames *renameLimiter

	readyOnce sync.Once
	ready     chan struct{}
}

// NewClient creates a session for the bot token. The gateway is not opened until Open.
func NewClient(token, appID, guildID string) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	// Renames are throttled locally; a 429 is reported instead of sleeping on it.
	s.ShouldRetryOnRateLimit = false

	c := &Client{
		session: s,
		appID:   appID,
		guildID: guildID,
		log:     logger.Component("discord"),
		renames: newRenameLimiter(renameBurst, renameWindow),
		ready:   make(chan struct{}),
	}
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		c.log.Info().Str("bot", r.User.String()).Int("guilds", len(r.Guilds)).Msg("Bot is ready")
		c.readyOnce.Do(func() { close(c.ready) })
	})
	return c, nil
}

// OnEvent installs the interaction handler. Each interaction runs on its own goroutine
// with a context derived from base.
func (c *Client) OnEvent(base context.Context, h EventHandler) {
	c.session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		c.handle(base, h, ic.Interaction)
	})
}

// handle runs h for one interaction. A redelivered interaction whose first copy is
// still being handled is dropped so the in-flight handler keeps its reply handle.
func (c *Client) handle(base context.Context, h EventHandler, i *discordgo.Interaction) {
	ev, ok := toEvent(i)
	if !ok {
		return
	}
	if _, loaded := c.interactions.LoadOrStore(ev.ID, i); loaded {
		c.log.Debug().Str("event_id", ev.ID).Msg("Interaction already in flight")
		return
	}
	defer c.interactions.CompareAndDelete(ev.ID, i)

	ctx, cancel := context.WithTimeout(base, eventTimeout)
	defer cancel()
	h(ctx, ev)
}

// Open connects to the gateway and waits for the ready event.
func (c *Client) Open(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

// BotTag is the bot's display tag, or "Not logged in yet" before the ready event.
func (c *Client) BotTag() string {
	if c.session.State == nil || c.session.State.User == nil {
		return "Not logged in yet"
	}
	return c.session.State.User.String()
}

func (c *Client) interaction(ev chat.Event) (*discordgo.Interaction, error) {
	v, ok := c.interactions.Load(ev.ID)
	if !ok {
		return nil, fmt.Errorf("interaction %s is no longer tracked", ev.ID)
	}
	return v.(*discordgo.Interaction), nil
}

// mapError translates REST failures into the chat sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return fmt.Errorf("%w: %v", chat.ErrRateLimited, err)
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", chat.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", chat.ErrForbidden, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", chat.ErrRateLimited, err)
		}
	}
	return err
}

func reqOpts(ctx context.Context) []discordgo.RequestOption {
	return []discordgo.RequestOption{discordgo.WithContext(ctx)}
}
