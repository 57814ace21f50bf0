package audit

import (
	"context"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"go.uber.org/zap"
)

const (
	ActionClear    = "clear"
	ActionRestore  = "restore"
	ActionBan      = "ban"
	ActionKick     = "kick"
	ActionLock     = "lock"
	ActionUnlock   = "unlock"
	ActionSlowmode = "slowmode"
	ActionRoleAdd  = "role_add"
	ActionRoleTake = "role_remove"
)

// Recorder persists a moderation action trail and mirrors it to the
// structured log. Storage failures never block the action itself.
type Recorder struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewRecorder(store *storage.Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, guildID, actorID, targetID, action, details string) {
	entry := storage.ActionLog{
		GuildID:   guildID,
		ActorID:   actorID,
		TargetID:  targetID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if r.store != nil {
		if err := r.store.AddActionLog(ctx, entry); err != nil {
			r.logger.Warn("action log write failed", zap.String("action", action), zap.Error(err))
		}
	}
	r.logger.Info("moderation action",
		zap.String("guild_id", guildID),
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.String("action", action),
		zap.String("details", details),
	)
}
