// Package chattest provides an in-memory chat.Platform for tests.
package chattest

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"exchange-ticket-bot/internal/chat"
)

const BotID = "bot-1"

var mentionPattern = regexp.MustCompile(`<@!?([A-Za-z0-9_-]+)>`)

// Posted is a message recorded by the fake.
type Posted struct {
	ID        string
	ChannelID string
	AuthorID  string
	Message   chat.Message
}

// Platform is a goroutine-safe fake. Zero-valued error fields mean success.
type Platform struct {
	mu sync.Mutex

	seq      int
	channels map[string]*chat.Channel
	order    []string
	messages map[string][]*Posted

	Deleted []string
	Renames []string
	Created []chat.ChannelSpec

	CreateErr error
	RenameErr error
	SendErr   error
	EditErr   error
}

func New() *Platform {
	return &Platform{
		channels: make(map[string]*chat.Channel),
		messages: make(map[string][]*Posted),
	}
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s-%d", prefix, p.seq)
}

// AddChannel registers an existing channel and returns it.
func (p *Platform) AddChannel(c chat.Channel) *chat.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.ID == "" {
		c.ID = p.nextID("ch")
	}
	if c.ParentID != "" {
		if parent, ok := p.channels[c.ParentID]; ok {
			c.ParentName = parent.Name
		}
	}
	cp := c
	p.channels[c.ID] = &cp
	p.order = append(p.order, c.ID)
	return &cp
}

// RemoveChannel deletes a channel out of band, as a user would.
func (p *Platform) RemoveChannel(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.channels, id)
}

// Post records a message as if authorID had sent it.
func (p *Platform) Post(channelID, authorID string, msg chat.Message) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID("msg")
	p.messages[channelID] = append(p.messages[channelID], &Posted{ID: id, ChannelID: channelID, AuthorID: authorID, Message: msg})
	return id
}

// Messages returns the messages in a channel, oldest first.
func (p *Platform) Messages(channelID string) []Posted {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Posted, 0, len(p.messages[channelID]))
	for _, m := range p.messages[channelID] {
		out = append(out, *m)
	}
	return out
}

// ForgetMessage drops a message so later edits fail with ErrNotFound.
func (p *Platform) ForgetMessage(channelID, messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.messages[channelID]
	for i, m := range msgs {
		if m.ID == messageID {
			p.messages[channelID] = append(msgs[:i], msgs[i+1:]...)
			return
		}
	}
}

func (p *Platform) HasChannel(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.channels[id]
	return ok
}

func (p *Platform) BotUserID() string { return BotID }
func (p *Platform) BotTag() string    { return "ExchangeBot#0001" }

func (p *Platform) Channel(_ context.Context, id string) (*chat.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.channels[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (p *Platform) GuildChannels(_ context.Context) ([]chat.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]chat.Channel, 0, len(p.channels))
	for _, id := range p.order {
		if c, ok := p.channels[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (p *Platform) CreateChannel(_ context.Context, spec chat.ChannelSpec) (*chat.Channel, error) {
	p.mu.Lock()
	if p.CreateErr != nil {
		err := p.CreateErr
		p.mu.Unlock()
		return nil, err
	}
	p.Created = append(p.Created, spec)
	p.mu.Unlock()
	return p.AddChannel(chat.Channel{Name: spec.Name, Type: spec.Type, ParentID: spec.ParentID}), nil
}

func (p *Platform) DeleteChannel(_ context.Context, id, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deleted = append(p.Deleted, id)
	if _, ok := p.channels[id]; !ok {
		return chat.ErrNotFound
	}
	delete(p.channels, id)
	return nil
}

func (p *Platform) RenameChannel(_ context.Context, id, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RenameErr != nil {
		return p.RenameErr
	}
	c, ok := p.channels[id]
	if !ok {
		return chat.ErrNotFound
	}
	c.Name = name
	p.Renames = append(p.Renames, name)
	return nil
}

func (p *Platform) SendMessage(_ context.Context, channelID string, msg chat.Message) (string, error) {
	p.mu.Lock()
	if p.SendErr != nil {
		err := p.SendErr
		p.mu.Unlock()
		return "", err
	}
	if _, ok := p.channels[channelID]; !ok {
		p.mu.Unlock()
		return "", chat.ErrNotFound
	}
	p.mu.Unlock()
	return p.Post(channelID, BotID, msg), nil
}

func (p *Platform) EditMessage(_ context.Context, channelID, messageID string, msg chat.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.EditErr != nil {
		return p.EditErr
	}
	for _, m := range p.messages[channelID] {
		if m.ID == messageID {
			m.Message = msg
			return nil
		}
	}
	return chat.ErrNotFound
}

func (p *Platform) ChannelMessages(_ context.Context, channelID string, limit int) ([]chat.ChannelMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.channels[channelID]; !ok {
		return nil, chat.ErrNotFound
	}
	msgs := p.messages[channelID]
	out := make([]chat.ChannelMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		m := msgs[i]
		cm := chat.ChannelMessage{ID: m.ID, AuthorID: m.AuthorID}
		for _, match := range mentionPattern.FindAllStringSubmatch(m.Message.Content, -1) {
			cm.MentionIDs = append(cm.MentionIDs, match[1])
		}
		out = append(out, cm)
	}
	return out, nil
}

var _ chat.Platform = (*Platform)(nil)
