package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rrRunerra/Lynx-sub000/internal/audit"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const maxSlowmodeSeconds = 21600

var (
	ErrDeleteDaysRange = errors.New("message deletion window must be between 0 and 7 days")
	ErrSlowmodeRange   = errors.New("slowmode must be between 0 and 21600 seconds")
)

// Transport is the guild-facing surface the action engine drives. The
// production implementation wraps a discordgo session.
type Transport interface {
	Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	ChannelOverwrite(ctx context.Context, channelID, roleID string) (allow, deny int64, err error)
	SetChannelOverwrite(ctx context.Context, channelID, roleID string, allow, deny int64) error
	SetSlowmode(ctx context.Context, channelID string, seconds int) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

type Auditor interface {
	Record(ctx context.Context, guildID, actorID, targetID, action, details string)
}

type Actions struct {
	transport Transport
	audit     Auditor
	logger    *zap.Logger
}

func NewActions(transport Transport, audit Auditor, logger *zap.Logger) *Actions {
	return &Actions{transport: transport, audit: audit, logger: logger}
}

func (a *Actions) Ban(ctx context.Context, guildID, actorID, userID, reason string, deleteDays int) error {
	if deleteDays < 0 || deleteDays > 7 {
		return ErrDeleteDaysRange
	}
	if err := a.transport.Ban(ctx, guildID, userID, reason, deleteDays); err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, userID, audit.ActionBan, fmt.Sprintf("reason=%q delete_days=%d", reason, deleteDays))
	return nil
}

func (a *Actions) Kick(ctx context.Context, guildID, actorID, userID, reason string) error {
	if err := a.transport.Kick(ctx, guildID, userID, reason); err != nil {
		return fmt.Errorf("kick user: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, userID, audit.ActionKick, fmt.Sprintf("reason=%q", reason))
	return nil
}

// Lock denies Send Messages to the guild's everyone role on the channel.
// Existing overwrite bits are preserved.
func (a *Actions) Lock(ctx context.Context, guildID, actorID, channelID string) error {
	allow, deny, err := a.transport.ChannelOverwrite(ctx, channelID, guildID)
	if err != nil {
		return fmt.Errorf("read channel overwrite: %w", err)
	}
	allow &^= discordgo.PermissionSendMessages
	deny |= discordgo.PermissionSendMessages
	if err := a.transport.SetChannelOverwrite(ctx, channelID, guildID, allow, deny); err != nil {
		return fmt.Errorf("lock channel: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, channelID, audit.ActionLock, "")
	return nil
}

// Unlock clears the Send Messages denial, reverting the channel to its
// category or guild default rather than forcing an allow.
func (a *Actions) Unlock(ctx context.Context, guildID, actorID, channelID string) error {
	allow, deny, err := a.transport.ChannelOverwrite(ctx, channelID, guildID)
	if err != nil {
		return fmt.Errorf("read channel overwrite: %w", err)
	}
	deny &^= discordgo.PermissionSendMessages
	if err := a.transport.SetChannelOverwrite(ctx, channelID, guildID, allow, deny); err != nil {
		return fmt.Errorf("unlock channel: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, channelID, audit.ActionUnlock, "")
	return nil
}

func (a *Actions) Slowmode(ctx context.Context, guildID, actorID, channelID string, seconds int) error {
	if seconds < 0 || seconds > maxSlowmodeSeconds {
		return ErrSlowmodeRange
	}
	if err := a.transport.SetSlowmode(ctx, channelID, seconds); err != nil {
		return fmt.Errorf("set slowmode: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, channelID, audit.ActionSlowmode, fmt.Sprintf("seconds=%d", seconds))
	return nil
}

func (a *Actions) GrantRole(ctx context.Context, guildID, actorID, userID, roleID string) error {
	if err := a.transport.AddRole(ctx, guildID, userID, roleID); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, userID, audit.ActionRoleAdd, fmt.Sprintf("role=%s", roleID))
	return nil
}

func (a *Actions) RevokeRole(ctx context.Context, guildID, actorID, userID, roleID string) error {
	if err := a.transport.RemoveRole(ctx, guildID, userID, roleID); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	a.audit.Record(ctx, guildID, actorID, userID, audit.ActionRoleTake, fmt.Sprintf("role=%s", roleID))
	return nil
}
