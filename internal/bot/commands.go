package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/archive"
	"github.com/rrRunerra/Lynx-sub000/internal/audit"
	"github.com/rrRunerra/Lynx-sub000/internal/command"
	"github.com/rrRunerra/Lynx-sub000/internal/moderation"
	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerHandlers() {
	defaultCooldown := time.Duration(b.cfg.Cooldowns.DefaultSeconds) * time.Second

	b.registry.Register(&command.Descriptor{
		Name:            "clear",
		Description:     "Archive and delete recent messages in this channel",
		Cooldown:        time.Duration(b.cfg.Cooldowns.ClearSeconds) * time.Second,
		UserPermissions: discordgo.PermissionManageMessages,
		BotPermissions:  discordgo.PermissionManageMessages,
		Enabled:         true,
		Run:             b.runClear,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "restore",
		Description:     "Replay an archived batch back into this channel",
		Cooldown:        time.Duration(b.cfg.Cooldowns.RestoreSeconds) * time.Second,
		UserPermissions: discordgo.PermissionManageMessages,
		BotPermissions:  discordgo.PermissionManageWebhooks,
		Enabled:         true,
		Run:             b.runRestore,
		Autocomplete:    b.autocompleteRestore,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "ban",
		Description:     "Ban a member",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionBanMembers,
		BotPermissions:  discordgo.PermissionBanMembers,
		Enabled:         true,
		Run:             b.runBan,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "kick",
		Description:     "Kick a member",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionKickMembers,
		BotPermissions:  discordgo.PermissionKickMembers,
		Enabled:         true,
		Run:             b.runKick,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "lock",
		Description:     "Stop everyone from sending messages in this channel",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionManageChannels,
		BotPermissions:  discordgo.PermissionManageChannels,
		Enabled:         true,
		Run:             b.runLock,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "unlock",
		Description:     "Lift a channel lock",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionManageChannels,
		BotPermissions:  discordgo.PermissionManageChannels,
		Enabled:         true,
		Run:             b.runUnlock,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "slowmode",
		Description:     "Set the channel slowmode interval",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionManageChannels,
		BotPermissions:  discordgo.PermissionManageChannels,
		Enabled:         true,
		Run:             b.runSlowmode,
	})
	b.registry.Register(&command.Descriptor{
		Name:            "role",
		Description:     "Manage member roles",
		Cooldown:        defaultCooldown,
		UserPermissions: discordgo.PermissionManageRoles,
		BotPermissions:  discordgo.PermissionManageRoles,
		Enabled:         true,
	})
	b.registry.RegisterSub(&command.SubDescriptor{Path: "role.add", Enabled: true, Run: b.runRoleAdd})
	b.registry.RegisterSub(&command.SubDescriptor{Path: "role.remove", Enabled: true, Run: b.runRoleRemove})
}

func (b *Bot) runClear(ctx context.Context, inv *command.Invocation) error {
	if err := inv.Responder.Defer(true); err != nil {
		return err
	}

	amount, _ := inv.IntOption("amount")
	req := archive.ClearRequest{
		GuildID:     inv.GuildID,
		ChannelID:   inv.ChannelID,
		ModeratorID: inv.User.ID,
		Amount:      int(amount),
	}
	if author, ok := inv.StringOption("user"); ok {
		req.Filters.AuthorID = author
	}
	if role, ok := inv.StringOption("role"); ok {
		req.Filters.RoleID = role
	}
	if bots, ok := inv.BoolOption("bots"); ok {
		req.Filters.Bots = &bots
	}

	result, err := b.clear.Clear(ctx, req)
	if errors.Is(err, archive.ErrNothingEligible) {
		return inv.Responder.Edit("No deletable messages matched. Messages older than 14 days cannot be bulk-deleted.")
	}
	if err != nil {
		_ = inv.Responder.Edit("The clear failed; no messages were deleted without being archived first.")
		return err
	}

	b.recorder.Record(ctx, inv.GuildID, inv.User.ID, inv.ChannelID, audit.ActionClear,
		fmt.Sprintf("batch=%s deleted=%d", result.BatchID, result.Deleted))
	return inv.Responder.Edit(fmt.Sprintf("Deleted %d message(s). Batch `%s` is archived and can be replayed with /restore.", result.Deleted, result.BatchID))
}

func (b *Bot) runRestore(ctx context.Context, inv *command.Invocation) error {
	batchID, ok := inv.StringOption("batch")
	if !ok || batchID == "" {
		return inv.Responder.Reply("Pick a batch to restore.", true)
	}
	keep, _ := inv.BoolOption("keep")

	if err := inv.Responder.Defer(true); err != nil {
		return err
	}

	result, err := b.restore.Restore(ctx, batchID, keep)
	if errors.Is(err, storage.ErrBatchNotFound) {
		return inv.Responder.Edit("That batch does not exist. It may have been restored or cleaned up already.")
	}
	if err != nil {
		_ = inv.Responder.Edit("The restore failed.")
		return err
	}

	b.recorder.Record(ctx, inv.GuildID, inv.User.ID, inv.ChannelID, audit.ActionRestore,
		fmt.Sprintf("batch=%s restored=%d/%d keep=%t", batchID, result.Restored, result.Total, keep))

	summary := fmt.Sprintf("Restored %d of %d message(s).", result.Restored, result.Total)
	if !keep {
		summary += " The archive has been purged."
	}
	return inv.Responder.Edit(summary)
}

func (b *Bot) autocompleteRestore(ctx context.Context, inv *command.Invocation) error {
	batches, err := b.restore.ChannelBatches(ctx, inv.ChannelID, 25)
	if err != nil {
		return err
	}

	partial, _ := inv.StringOption(inv.Focused)
	var choices []command.Choice
	for _, batch := range batches {
		if partial != "" && !strings.HasPrefix(batch.ID, partial) {
			continue
		}
		choices = append(choices, command.Choice{
			Name:  fmt.Sprintf("%s · %s", batch.CreatedAt.Format("2006-01-02 15:04"), batch.ID),
			Value: batch.ID,
		})
	}
	return inv.Responder.Suggest(choices)
}

func (b *Bot) runBan(ctx context.Context, inv *command.Invocation) error {
	userID, ok := inv.StringOption("user")
	if !ok {
		return inv.Responder.Reply("Pick a member to ban.", true)
	}
	reason, _ := inv.StringOption("reason")
	deleteDays, _ := inv.IntOption("delete_days")

	if err := b.actions.Ban(ctx, inv.GuildID, inv.User.ID, userID, reason, int(deleteDays)); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply(fmt.Sprintf("Banned <@%s>.", userID), true)
}

func (b *Bot) runKick(ctx context.Context, inv *command.Invocation) error {
	userID, ok := inv.StringOption("user")
	if !ok {
		return inv.Responder.Reply("Pick a member to kick.", true)
	}
	reason, _ := inv.StringOption("reason")

	if err := b.actions.Kick(ctx, inv.GuildID, inv.User.ID, userID, reason); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply(fmt.Sprintf("Kicked <@%s>.", userID), true)
}

func (b *Bot) runLock(ctx context.Context, inv *command.Invocation) error {
	if err := b.actions.Lock(ctx, inv.GuildID, inv.User.ID, inv.ChannelID); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply("Channel locked.", false)
}

func (b *Bot) runUnlock(ctx context.Context, inv *command.Invocation) error {
	if err := b.actions.Unlock(ctx, inv.GuildID, inv.User.ID, inv.ChannelID); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply("Channel unlocked.", false)
}

func (b *Bot) runSlowmode(ctx context.Context, inv *command.Invocation) error {
	seconds, _ := inv.IntOption("seconds")
	if err := b.actions.Slowmode(ctx, inv.GuildID, inv.User.ID, inv.ChannelID, int(seconds)); err != nil {
		return b.actionFailure(inv, err)
	}
	if seconds == 0 {
		return inv.Responder.Reply("Slowmode disabled.", true)
	}
	return inv.Responder.Reply(fmt.Sprintf("Slowmode set to %ds.", seconds), true)
}

func (b *Bot) runRoleAdd(ctx context.Context, inv *command.Invocation) error {
	userID, _ := inv.StringOption("user")
	roleID, _ := inv.StringOption("role")
	if userID == "" || roleID == "" {
		return inv.Responder.Reply("Pick a member and a role.", true)
	}
	if err := b.actions.GrantRole(ctx, inv.GuildID, inv.User.ID, userID, roleID); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply(fmt.Sprintf("Gave <@&%s> to <@%s>.", roleID, userID), true)
}

func (b *Bot) runRoleRemove(ctx context.Context, inv *command.Invocation) error {
	userID, _ := inv.StringOption("user")
	roleID, _ := inv.StringOption("role")
	if userID == "" || roleID == "" {
		return inv.Responder.Reply("Pick a member and a role.", true)
	}
	if err := b.actions.RevokeRole(ctx, inv.GuildID, inv.User.ID, userID, roleID); err != nil {
		return b.actionFailure(inv, err)
	}
	return inv.Responder.Reply(fmt.Sprintf("Removed <@&%s> from <@%s>.", roleID, userID), true)
}

// actionFailure surfaces validation errors verbatim and hides everything
// else behind a generic reply.
func (b *Bot) actionFailure(inv *command.Invocation, err error) error {
	if errors.Is(err, moderation.ErrDeleteDaysRange) || errors.Is(err, moderation.ErrSlowmodeRange) {
		return inv.Responder.Reply(err.Error(), true)
	}
	_ = inv.Responder.Reply("The action failed.", true)
	return err
}
