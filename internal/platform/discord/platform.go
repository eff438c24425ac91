package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"exchange-ticket-bot/internal/chat"
)

var _ chat.Platform = (*Client)(nil)

const (
	memberAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory
	botAllow    = memberAllow | discordgo.PermissionManageChannels
)

func (c *Client) Channel(ctx context.Context, id string) (*chat.Channel, error) {
	ch, err := c.session.Channel(id, reqOpts(ctx)...)
	if err != nil {
		return nil, mapError(err)
	}
	out := &chat.Channel{ID: ch.ID, Name: ch.Name, Type: fromChannelType(ch.Type), ParentID: ch.ParentID}
	if ch.ParentID != "" {
		parent, err := c.session.Channel(ch.ParentID, reqOpts(ctx)...)
		if err != nil {
			c.log.Debug().Err(err).Str("channel_id", id).Msg("Parent channel lookup failed")
		} else {
			out.ParentName = parent.Name
		}
	}
	return out, nil
}

func (c *Client) GuildChannels(ctx context.Context) ([]chat.Channel, error) {
	chans, err := c.session.GuildChannels(c.guildID, reqOpts(ctx)...)
	if err != nil {
		return nil, mapError(err)
	}
	names := make(map[string]string, len(chans))
	for _, ch := range chans {
		names[ch.ID] = ch.Name
	}
	out := make([]chat.Channel, 0, len(chans))
	for _, ch := range chans {
		out = append(out, chat.Channel{
			ID:         ch.ID,
			Name:       ch.Name,
			Type:       fromChannelType(ch.Type),
			ParentID:   ch.ParentID,
			ParentName: names[ch.ParentID],
		})
	}
	return out, nil
}

func (c *Client) CreateChannel(ctx context.Context, spec chat.ChannelSpec) (*chat.Channel, error) {
	overwrites, err := c.overwrites(ctx, spec)
	if err != nil {
		return nil, err
	}
	opts := reqOpts(ctx)
	if spec.Reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(spec.Reason))
	}
	ch, err := c.session.GuildChannelCreateComplex(c.guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 channelTypes[spec.Type],
		Topic:                spec.Topic,
		Position:             spec.Position,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	}, opts...)
	if err != nil {
		return nil, mapError(err)
	}
	c.log.Info().Str("channel_id", ch.ID).Str("name", ch.Name).Msg("Channel created")
	return &chat.Channel{ID: ch.ID, Name: ch.Name, Type: fromChannelType(ch.Type), ParentID: ch.ParentID}, nil
}

// overwrites builds the permission overwrites of a new channel. The @everyone role
// shares the guild's id.
func (c *Client) overwrites(ctx context.Context, spec chat.ChannelSpec) ([]*discordgo.PermissionOverwrite, error) {
	var out []*discordgo.PermissionOverwrite
	if spec.DenyConnect {
		out = append(out, &discordgo.PermissionOverwrite{
			ID:   c.guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionVoiceConnect,
		})
	}
	if !spec.Private {
		return out, nil
	}
	out = append(out, &discordgo.PermissionOverwrite{
		ID:   c.guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	})
	bot := c.BotUserID()
	for _, id := range spec.Members {
		allow := int64(memberAllow)
		if id == bot {
			allow = botAllow
		}
		out = append(out, &discordgo.PermissionOverwrite{ID: id, Type: discordgo.PermissionOverwriteTypeMember, Allow: allow})
	}
	if spec.IncludeAdminRoles {
		roles, err := c.session.GuildRoles(c.guildID, reqOpts(ctx)...)
		if err != nil {
			return nil, fmt.Errorf("list guild roles: %w", mapError(err))
		}
		for _, r := range roles {
			if r.Permissions&discordgo.PermissionAdministrator != 0 {
				out = append(out, &discordgo.PermissionOverwrite{ID: r.ID, Type: discordgo.PermissionOverwriteTypeRole, Allow: memberAllow})
			}
		}
	}
	return out, nil
}

func (c *Client) DeleteChannel(ctx context.Context, id, reason string) error {
	opts := reqOpts(ctx)
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	_, err := c.session.ChannelDelete(id, opts...)
	return mapError(err)
}

func (c *Client) RenameChannel(ctx context.Context, id, name string) error {
	if !c.renames.Allow(id) {
		return fmt.Errorf("%w: rename of %s", chat.ErrRateLimited, id)
	}
	_, err := c.session.ChannelEdit(id, &discordgo.ChannelEdit{Name: name}, reqOpts(ctx)...)
	return mapError(err)
}

func (c *Client) SendMessage(ctx context.Context, channelID string, msg chat.Message) (string, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embeds),
		Components: toComponents(msg.Components),
	}, reqOpts(ctx)...)
	if err != nil {
		return "", mapError(err)
	}
	return m.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg chat.Message) error {
	embeds := toEmbeds(msg.Embeds)
	components := toComponents(msg.Components)
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Content:    &msg.Content,
		Embeds:     &embeds,
		Components: &components,
	}, reqOpts(ctx)...)
	return mapError(err)
}

func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int) ([]chat.ChannelMessage, error) {
	msgs, err := c.session.ChannelMessages(channelID, limit, "", "", "", reqOpts(ctx)...)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]chat.ChannelMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fromMessage(m))
	}
	return out, nil
}
