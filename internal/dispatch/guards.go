package dispatch

import (
	"context"
	"fmt"

	"github.com/rrRunerra/Lynx-sub000/internal/command"
)

// PermissionSource resolves effective channel permissions. It is only
// consulted for guild invocations, after the cheaper policy guards have
// already passed.
type PermissionSource interface {
	UserPermissions(ctx context.Context, guildID, channelID, userID string) (int64, error)
	BotPermissions(ctx context.Context, guildID, channelID string) (int64, error)
}

type guardFunc func(ctx context.Context, d *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error)

// guards run in fixed order and short-circuit on the first rejection.
// No side effects happen before the whole chain passes.
var guards = []guardFunc{
	guardEnabled,
	guardDevOnly,
	guardDirectMessage,
	guardGuildAllowlist,
	guardUserPermissions,
	guardBotPermissions,
	guardUserAllowlist,
	guardNSFW,
}

func guardEnabled(_ context.Context, _ *Dispatcher, desc *command.Descriptor, _ *command.Invocation) (string, error) {
	if !desc.Enabled {
		return "This command is currently disabled.", nil
	}
	return "", nil
}

func guardDevOnly(_ context.Context, d *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if desc.DevOnly && inv.User.ID != d.ownerID {
		return "This command is reserved for the bot developer.", nil
	}
	return "", nil
}

func guardDirectMessage(_ context.Context, _ *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if !inv.InGuild() && !desc.AllowDM {
		return "This command cannot be used in direct messages.", nil
	}
	return "", nil
}

func guardGuildAllowlist(_ context.Context, _ *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if len(desc.GuildOnly) == 0 || !inv.InGuild() {
		return "", nil
	}
	for _, id := range desc.GuildOnly {
		if id == inv.GuildID {
			return "", nil
		}
	}
	return "This command is not available in this server.", nil
}

func guardUserPermissions(ctx context.Context, d *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if !inv.InGuild() || desc.UserPermissions == 0 {
		return "", nil
	}
	held, err := d.perms.UserPermissions(ctx, inv.GuildID, inv.ChannelID, inv.User.ID)
	if err != nil {
		return "", fmt.Errorf("resolve user permissions: %w", err)
	}
	missing := command.MissingPermissions(desc.UserPermissions, held)
	if len(missing) == 0 {
		return "", nil
	}
	return fmt.Sprintf("You need the %s permission(s) to use this command.", command.JoinNames(missing)), nil
}

func guardBotPermissions(ctx context.Context, d *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if !inv.InGuild() || desc.BotPermissions == 0 {
		return "", nil
	}
	held, err := d.perms.BotPermissions(ctx, inv.GuildID, inv.ChannelID)
	if err != nil {
		return "", fmt.Errorf("resolve bot permissions: %w", err)
	}
	missing := command.MissingPermissions(desc.BotPermissions, held)
	if len(missing) == 0 {
		return "", nil
	}
	return fmt.Sprintf("I am missing the %s permission(s) for this command.", command.JoinNames(missing)), nil
}

func guardUserAllowlist(_ context.Context, _ *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if len(desc.UserOnly) == 0 {
		return "", nil
	}
	for _, id := range desc.UserOnly {
		if id == inv.User.ID {
			return "", nil
		}
	}
	return "You are not allowed to use this command.", nil
}

func guardNSFW(_ context.Context, _ *Dispatcher, desc *command.Descriptor, inv *command.Invocation) (string, error) {
	if desc.NSFW && !inv.ChannelNSFW {
		return "This command can only be used in channels marked NSFW.", nil
	}
	return "", nil
}
