package bot

import "github.com/bwmarrin/discordgo"

func applicationCommands() []*discordgo.ApplicationCommand {
	minAmount := float64(1)
	minZero := float64(0)
	minDays := float64(0)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "clear",
			Description: "Archive and delete recent messages in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "How many recent messages to consider (1-100)",
					Required:    true,
					MinValue:    &minAmount,
					MaxValue:    100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Only delete messages from this member",
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Only delete messages from members with this role",
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "bots",
					Description: "Only delete bot messages (false: only human messages)",
				},
			},
		},
		{
			Name:        "restore",
			Description: "Replay an archived batch back into this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "batch",
					Description:  "Batch to replay",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "keep",
					Description: "Keep the archive after replaying it",
				},
			},
		},
		{
			Name:        "ban",
			Description: "Ban a member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to ban",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the ban",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "delete_days",
					Description: "Delete their messages from the last 0-7 days",
					MinValue:    &minDays,
					MaxValue:    7,
				},
			},
		},
		{
			Name:        "kick",
			Description: "Kick a member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to kick",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the kick",
				},
			},
		},
		{
			Name:        "lock",
			Description: "Stop everyone from sending messages in this channel",
		},
		{
			Name:        "unlock",
			Description: "Lift a channel lock",
		},
		{
			Name:        "slowmode",
			Description: "Set the channel slowmode interval",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seconds",
					Description: "Seconds between messages (0 disables, max 21600)",
					Required:    true,
					MinValue:    &minZero,
					MaxValue:    21600,
				},
			},
		},
		{
			Name:        "role",
			Description: "Manage member roles",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Give a role to a member",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Member to change",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to give",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Take a role from a member",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Member to change",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "Role to take",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	commands := applicationCommands()
	appID := b.session.State.User.ID

	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
