package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"exchange-ticket-bot/internal/chat"
)

var adminOnly = func() *int64 {
	p := int64(discordgo.PermissionAdministrator)
	return &p
}()

func adminCommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     name,
		Description:              description,
		DefaultMemberPermissions: adminOnly,
		Options:                  options,
	}
}

func option(t discordgo.ApplicationCommandOptionType, name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: t, Name: name, Description: description, Required: true}
}

// Commands is the slash command set registered in the guild.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: chat.CmdSupported, Description: "List all supported cryptocurrencies and fiat currencies"},
		adminCommand(chat.CmdExchangePanel, "Post the exchange request panel (Admin only)"),
		adminCommand(chat.CmdExchangePanelAlt, "Post the UPDATED exchange request panel (Admin only)"),
		adminCommand(chat.CmdExchangePanelFull, "Post the exchange panel with all updates (Admin only)"),
		adminCommand(chat.CmdExchangePanelNew, "Post the WORKING exchange panel (Admin only)"),
		adminCommand(chat.CmdCloseTicket, "Close an exchange ticket channel (Admin only)"),
		adminCommand(chat.CmdCompleteTicket, "Mark ticket as completed and add amount to total exchanged (Admin only)",
			option(discordgo.ApplicationCommandOptionNumber, chat.OptAmount, "Amount exchanged in USD (e.g., 10.50)"),
			option(discordgo.ApplicationCommandOptionString, chat.OptFrom, "Payment method user sent from (e.g., PayPal, Cash App, BTC)"),
			option(discordgo.ApplicationCommandOptionString, chat.OptTo, "Payment method user received (e.g., Bitcoin, PayPal, ETH)"),
		),
		adminCommand(chat.CmdGive, "Add amount to user stats (Admin only)",
			option(discordgo.ApplicationCommandOptionUser, chat.OptUser, "User to add stats for"),
			option(discordgo.ApplicationCommandOptionNumber, chat.OptAmount, "Amount to add to this user"),
		),
		adminCommand(chat.CmdRemove, "Remove amount from user stats (Admin only)",
			option(discordgo.ApplicationCommandOptionUser, chat.OptUser, "User to remove stats from"),
			option(discordgo.ApplicationCommandOptionNumber, chat.OptAmount, "Amount to remove from this user"),
		),
		adminCommand(chat.CmdSetLeaderboard, "Set the current channel as the leaderboard channel (Admin only)"),
		adminCommand(chat.CmdMessage, "Make the bot send a message (Admin only)",
			option(discordgo.ApplicationCommandOptionString, chat.OptText, "The message content"),
		),
		adminCommand(chat.CmdUpdateLeaderboard, "Manually update the leaderboard now (Admin only)"),
	}
}

// RegisterCommands clears global commands and replaces the guild's command set.
func (c *Client) RegisterCommands(ctx context.Context) error {
	if _, err := c.session.ApplicationCommandBulkOverwrite(c.appID, "", []*discordgo.ApplicationCommand{}, reqOpts(ctx)...); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear global commands")
	}
	registered, err := c.session.ApplicationCommandBulkOverwrite(c.appID, c.guildID, Commands(), reqOpts(ctx)...)
	if err != nil {
		return fmt.Errorf("register guild commands: %w", mapError(err))
	}
	c.log.Info().Int("count", len(registered)).Str("guild_id", c.guildID).Msg("Slash commands registered")
	return nil
}
