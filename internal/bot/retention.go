package bot

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startRetentionSweep schedules a nightly cleanup of expired archive batches
// and action logs.
func (b *Bot) startRetentionSweep() {
	if b.cfg.RetentionDays <= 0 {
		return
	}
	b.sweeper = cron.New()
	_, err := b.sweeper.AddFunc("30 4 * * *", b.sweepExpired)
	if err != nil {
		b.logger.Error("retention schedule rejected", zap.Error(err))
		return
	}
	b.sweeper.Start()
}

func (b *Bot) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -b.cfg.RetentionDays)
	batches, err := b.store.ListBatchesBefore(ctx, cutoff)
	if err != nil {
		b.logger.Error("retention sweep failed", zap.Error(err))
		return
	}

	removed := 0
	for _, batch := range batches {
		if err := b.store.DeleteBatch(ctx, batch.ID); err != nil {
			b.logger.Warn("expired batch not deleted", zap.String("batch_id", batch.ID), zap.Error(err))
			continue
		}
		if err := os.RemoveAll(filepath.Join(b.cfg.Archive.StorageRoot, batch.ID)); err != nil {
			b.logger.Warn("attachment directory removal failed", zap.String("batch_id", batch.ID), zap.Error(err))
		}
		removed++
	}

	if err := b.store.CleanupActionLogs(ctx, b.cfg.RetentionDays); err != nil {
		b.logger.Warn("action log cleanup failed", zap.Error(err))
	}

	if removed > 0 {
		b.logger.Info("retention sweep finished", zap.Int("batches_removed", removed))
	}
}
