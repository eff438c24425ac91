package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/chat"
)

// toEvent translates an interaction. It reports false for interaction types the bot ignores.
func toEvent(i *discordgo.Interaction) (chat.Event, bool) {
	ev := chat.Event{
		ID:        i.ID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}

	var u *discordgo.User
	if i.Member != nil {
		u = i.Member.User
		ev.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	} else {
		u = i.User
	}
	if u != nil {
		ev.UserID = u.ID
		ev.Username = u.Username
		ev.UserTag = u.String()
	}
	if i.Message != nil {
		ev.SourceEmbeds = fromEmbeds(i.Message.Embeds)
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		ev.Kind = chat.KindCommand
		ev.Name = data.Name
		ev.Options = commandOptions(data)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		ev.Kind = chat.KindSelect
		if data.ComponentType == discordgo.ButtonComponent {
			ev.Kind = chat.KindButton
		}
		ev.Name = data.CustomID
		ev.Values = data.Values
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		ev.Kind = chat.KindModal
		ev.Name = data.CustomID
		ev.Fields = modalFields(data.Components)
	default:
		return chat.Event{}, false
	}
	return ev, true
}

func commandOptions(data discordgo.ApplicationCommandInteractionData) map[string]string {
	out := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionNumber:
			out[o.Name] = decimal.NewFromFloat(o.FloatValue()).String()
		case discordgo.ApplicationCommandOptionUser:
			id, _ := o.Value.(string)
			out[o.Name] = id
			if data.Resolved != nil {
				if u, ok := data.Resolved.Users[id]; ok && u != nil {
					out[o.Name+"_name"] = u.Username
				}
			}
		case discordgo.ApplicationCommandOptionString:
			out[o.Name] = o.StringValue()
		}
	}
	return out
}

func modalFields(rows []discordgo.MessageComponent) map[string]string {
	out := make(map[string]string)
	for _, r := range rows {
		row, ok := r.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			if in, ok := c.(*discordgo.TextInput); ok {
				out[in.CustomID] = in.Value
			}
		}
	}
	return out
}

func fromEmbeds(in []*discordgo.MessageEmbed) []chat.Embed {
	out := make([]chat.Embed, 0, len(in))
	for _, e := range in {
		if e == nil {
			continue
		}
		ce := chat.Embed{Title: e.Title, Description: e.Description, Color: e.Color}
		for _, f := range e.Fields {
			if f != nil {
				ce.Fields = append(ce.Fields, chat.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
			}
		}
		if e.Footer != nil {
			ce.Footer = e.Footer.Text
		}
		if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			ce.Timestamp = t
		}
		out = append(out, ce)
	}
	return out
}

func toEmbeds(in []chat.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(in))
	for _, e := range in {
		me := &discordgo.MessageEmbed{Title: e.Title, Description: e.Description, Color: e.Color}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		if !e.Timestamp.IsZero() {
			me.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		out = append(out, me)
	}
	return out
}

var buttonStyles = map[chat.ButtonStyle]discordgo.ButtonStyle{
	chat.ButtonPrimary:   discordgo.PrimaryButton,
	chat.ButtonSecondary: discordgo.SecondaryButton,
	chat.ButtonSuccess:   discordgo.SuccessButton,
	chat.ButtonDanger:    discordgo.DangerButton,
}

// toComponents renders each component in its own action row.
func toComponents(in []chat.Component) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, len(in))
	for _, c := range in {
		var comp discordgo.MessageComponent
		switch c.Kind {
		case chat.ComponentSelect:
			opts := make([]discordgo.SelectMenuOption, 0, len(c.Options))
			for _, o := range c.Options {
				opts = append(opts, discordgo.SelectMenuOption{Label: o.Label, Description: o.Description, Value: o.Value})
			}
			comp = discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    c.CustomID,
				Placeholder: c.Placeholder,
				Options:     opts,
			}
		case chat.ComponentButton:
			label := c.Label
			if c.Emoji != "" {
				label = c.Emoji + " " + label
			}
			style, ok := buttonStyles[c.Style]
			if !ok {
				style = discordgo.PrimaryButton
			}
			comp = discordgo.Button{CustomID: c.CustomID, Label: label, Style: style, Disabled: c.Disabled}
		default:
			continue
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{comp}})
	}
	return rows
}

func toModal(m *chat.Modal) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    in.CustomID,
				Label:       in.Label,
				Style:       discordgo.TextInputShort,
				Placeholder: in.Placeholder,
				Required:    in.Required,
			},
		}})
	}
	return &discordgo.InteractionResponseData{CustomID: m.CustomID, Title: m.Title, Components: rows}
}

var channelTypes = map[chat.ChannelType]discordgo.ChannelType{
	chat.ChannelText:     discordgo.ChannelTypeGuildText,
	chat.ChannelVoice:    discordgo.ChannelTypeGuildVoice,
	chat.ChannelCategory: discordgo.ChannelTypeGuildCategory,
}

func fromChannelType(t discordgo.ChannelType) chat.ChannelType {
	for k, v := range channelTypes {
		if v == t {
			return k
		}
	}
	return 0
}

func fromMessage(m *discordgo.Message) chat.ChannelMessage {
	cm := chat.ChannelMessage{ID: m.ID}
	if m.Author != nil {
		cm.AuthorID = m.Author.ID
	}
	for _, u := range m.Mentions {
		if u != nil {
			cm.MentionIDs = append(cm.MentionIDs, u.ID)
		}
	}
	return cm
}
