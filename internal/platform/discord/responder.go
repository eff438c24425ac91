package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"exchange-ticket-bot/internal/chat"
)

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// Defer acknowledges the interaction with a "thinking" state.
func (c *Client) Defer(ctx context.Context, ev chat.Event, ephemeral bool) error {
	i, err := c.interaction(ev)
	if err != nil {
		return err
	}
	err = c.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, reqOpts(ctx)...)
	return mapError(err)
}

// Reply answers the interaction. A deferred interaction has its placeholder edited;
// follow-ups are sent afterwards in order.
func (c *Client) Reply(ctx context.Context, ev chat.Event, r chat.Reply, deferred bool) error {
	i, err := c.interaction(ev)
	if err != nil {
		return err
	}
	if deferred {
		err = c.editDeferred(ctx, i, r)
	} else {
		err = c.respond(ctx, i, r)
	}
	if err != nil {
		return err
	}
	for _, f := range r.FollowUps {
		_, err := c.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
			Content:    f.Message.Content,
			Embeds:     toEmbeds(f.Message.Embeds),
			Components: toComponents(f.Message.Components),
			Flags:      flags(f.Ephemeral),
		}, reqOpts(ctx)...)
		if err != nil {
			return fmt.Errorf("send follow-up: %w", mapError(err))
		}
	}
	return nil
}

func (c *Client) respond(ctx context.Context, i *discordgo.Interaction, r chat.Reply) error {
	resp := &discordgo.InteractionResponse{}
	switch r.Kind {
	case chat.ReplyModal:
		if r.Modal == nil {
			return errors.New("modal reply without a modal")
		}
		resp.Type = discordgo.InteractionResponseModal
		resp.Data = toModal(r.Modal)
	case chat.ReplyUpdate:
		resp.Type = discordgo.InteractionResponseUpdateMessage
		resp.Data = &discordgo.InteractionResponseData{
			Content:    r.Message.Content,
			Embeds:     toEmbeds(r.Message.Embeds),
			Components: toComponents(r.Message.Components),
		}
	default:
		resp.Type = discordgo.InteractionResponseChannelMessageWithSource
		resp.Data = &discordgo.InteractionResponseData{
			Content:    r.Message.Content,
			Embeds:     toEmbeds(r.Message.Embeds),
			Components: toComponents(r.Message.Components),
			Flags:      flags(r.Ephemeral),
		}
	}
	return mapError(c.session.InteractionRespond(i, resp, reqOpts(ctx)...))
}

// editDeferred fills the deferred placeholder. Its visibility was fixed when the
// interaction was deferred.
func (c *Client) editDeferred(ctx context.Context, i *discordgo.Interaction, r chat.Reply) error {
	if r.Kind == chat.ReplyModal {
		return errors.New("cannot open a modal on a deferred interaction")
	}
	embeds := toEmbeds(r.Message.Embeds)
	components := toComponents(r.Message.Components)
	_, err := c.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:    &r.Message.Content,
		Embeds:     &embeds,
		Components: &components,
	}, reqOpts(ctx)...)
	return mapError(err)
}
