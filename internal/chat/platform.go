package chat

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("chat: resource not found")
	ErrRateLimited = errors.New("chat: rate limited")
	ErrForbidden   = errors.New("chat: missing permissions")
)

type ChannelType int

const (
	ChannelText ChannelType = iota + 1
	ChannelVoice
	ChannelCategory
)

type Channel struct {
	ID         string
	Name       string
	Type       ChannelType
	ParentID   string
	ParentName string
}

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	Name     string
	Type     ChannelType
	ParentID string
	Topic    string
	Reason   string
	Position int

	// Private hides the channel from @everyone and grants Members and, when
	// IncludeAdminRoles is set, every administrator role read/write access.
	Private           bool
	Members           []string
	IncludeAdminRoles bool
	// DenyConnect keeps @everyone from joining a voice channel.
	DenyConnect bool
}

// ChannelMessage is the subset of a posted message the bot inspects.
type ChannelMessage struct {
	ID         string
	AuthorID   string
	MentionIDs []string
}

// Platform is what the services need from the chat platform. All ids are platform snowflakes.
type Platform interface {
	BotUserID() string
	BotTag() string

	// Channel returns ErrNotFound when the channel no longer exists.
	Channel(ctx context.Context, id string) (*Channel, error)
	GuildChannels(ctx context.Context) ([]Channel, error)
	CreateChannel(ctx context.Context, spec ChannelSpec) (*Channel, error)
	DeleteChannel(ctx context.Context, id, reason string) error
	// RenameChannel returns ErrRateLimited when the platform throttles renames.
	RenameChannel(ctx context.Context, id, name string) error

	SendMessage(ctx context.Context, channelID string, msg Message) (string, error)
	// EditMessage returns ErrNotFound when the message is gone.
	EditMessage(ctx context.Context, channelID, messageID string, msg Message) error
	// ChannelMessages returns up to limit recent messages, newest first.
	ChannelMessages(ctx context.Context, channelID string, limit int) ([]ChannelMessage, error)
}
