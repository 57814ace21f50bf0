package dispatch

import (
	"context"
	"fmt"

	"github.com/rrRunerra/Lynx-sub000/internal/command"
	"github.com/rrRunerra/Lynx-sub000/internal/cooldown"

	"go.uber.org/zap"
)

// Dispatcher routes one inbound interaction through the guard chain, the
// cooldown ledger and the registry before invoking the handlers.
type Dispatcher struct {
	registry  *command.Registry
	perms     PermissionSource
	cooldowns *cooldown.Ledger
	ownerID   string
	logger    *zap.Logger
}

func New(registry *command.Registry, perms PermissionSource, cooldowns *cooldown.Ledger, ownerID string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		perms:     perms,
		cooldowns: cooldowns,
		ownerID:   ownerID,
		logger:    logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, inv *command.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command handler panicked", zap.String("command", inv.Command), zap.Any("panic", r))
		}
	}()

	desc, ok := d.registry.Get(inv.Command)
	if !ok {
		// Stale registration: drop it so the next sync stops advertising it.
		d.registry.Remove(inv.Command)
		_ = inv.Responder.Reply("This command does not exist.", true)
		return
	}

	for _, guard := range guards {
		message, err := guard(ctx, d, desc, inv)
		if err != nil {
			d.logger.Error("guard evaluation failed", zap.String("command", inv.Command), zap.Error(err))
			_ = inv.Responder.Reply("Something went wrong while checking this command.", true)
			return
		}
		if message != "" {
			_ = inv.Responder.Reply(message, true)
			return
		}
	}

	bypass := inv.User.ID == d.ownerID || contains(desc.CooldownExempt, inv.User.ID)
	result := d.cooldowns.Check(desc.Name, inv.User.ID, desc.Cooldown, bypass)
	if !result.Allowed {
		_ = inv.Responder.Reply(fmt.Sprintf("Please wait %.1fs before using /%s again.", result.Remaining.Seconds(), desc.Name), true)
		return
	}

	if desc.Run != nil {
		if err := desc.Run(ctx, inv); err != nil {
			d.logger.Error("command failed", zap.String("command", inv.Command), zap.String("user_id", inv.User.ID), zap.Error(err))
		}
	}

	path := inv.Path()
	if path == "" {
		return
	}
	sub, ok := d.registry.GetSub(path)
	if !ok {
		d.logger.Warn("subcommand not registered", zap.String("path", path))
		return
	}
	if !sub.Enabled || sub.Run == nil {
		return
	}
	if err := sub.Run(ctx, inv); err != nil {
		d.logger.Error("subcommand failed", zap.String("path", path), zap.String("user_id", inv.User.ID), zap.Error(err))
	}
}

// Autocomplete bypasses guards and cooldowns: suggestions must be instant and
// are read-only by convention.
func (d *Dispatcher) Autocomplete(ctx context.Context, inv *command.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("autocomplete handler panicked", zap.String("command", inv.Command), zap.Any("panic", r))
		}
	}()

	desc, ok := d.registry.Get(inv.Command)
	if !ok || desc.Autocomplete == nil {
		return
	}
	if err := desc.Autocomplete(ctx, inv); err != nil {
		d.logger.Warn("autocomplete failed", zap.String("command", inv.Command), zap.Error(err))
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
