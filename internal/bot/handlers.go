package bot

import (
	"context"

	"github.com/rrRunerra/Lynx-sub000/internal/command"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		inv := b.buildInvocation(session, interaction)
		b.dispatcher.Dispatch(context.Background(), inv)
	case discordgo.InteractionApplicationCommandAutocomplete:
		inv := b.buildInvocation(session, interaction)
		b.dispatcher.Autocomplete(context.Background(), inv)
	}
}

func (b *Bot) buildInvocation(session *discordgo.Session, interaction *discordgo.InteractionCreate) *command.Invocation {
	data := interaction.ApplicationCommandData()

	inv := &command.Invocation{
		Command:   data.Name,
		GuildID:   interaction.GuildID,
		ChannelID: interaction.ChannelID,
		Options:   make(map[string]any),
		Responder: &interactionResponder{session: session, interaction: interaction},
	}

	if interaction.Member != nil && interaction.Member.User != nil {
		inv.User = command.User{ID: interaction.Member.User.ID, Username: interaction.Member.User.Username}
	} else if interaction.User != nil {
		inv.User = command.User{ID: interaction.User.ID, Username: interaction.User.Username}
	}

	if channel, err := session.State.Channel(interaction.ChannelID); err == nil {
		inv.ChannelNSFW = channel.NSFW
	}

	options := data.Options
	if len(options) == 1 {
		switch options[0].Type {
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			inv.Group = options[0].Name
			group := options[0].Options
			if len(group) == 1 && group[0].Type == discordgo.ApplicationCommandOptionSubCommand {
				inv.Sub = group[0].Name
				options = group[0].Options
			}
		case discordgo.ApplicationCommandOptionSubCommand:
			inv.Sub = options[0].Name
			options = options[0].Options
		}
	}

	for _, opt := range options {
		if opt.Focused {
			inv.Focused = opt.Name
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			inv.Options[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			inv.Options[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionBoolean:
			inv.Options[opt.Name] = opt.BoolValue()
		case discordgo.ApplicationCommandOptionUser,
			discordgo.ApplicationCommandOptionChannel,
			discordgo.ApplicationCommandOptionRole,
			discordgo.ApplicationCommandOptionMentionable:
			// Snowflake IDs come through as strings.
			if id, ok := opt.Value.(string); ok {
				inv.Options[opt.Name] = id
			}
		default:
			inv.Options[opt.Name] = opt.Value
		}
	}

	return inv
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.InteractionCreate
}

func (r *interactionResponder) Reply(content string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	})
}

func (r *interactionResponder) Defer(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

func (r *interactionResponder) Edit(content string) error {
	_, err := r.session.InteractionResponseEdit(r.interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

func (r *interactionResponder) Suggest(choices []command.Choice) error {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, choice := range choices {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: choice.Name, Value: choice.Value})
	}
	return r.session.InteractionRespond(r.interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: out},
	})
}
