package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"go.uber.org/zap"
)

type RestoreResult struct {
	Restored int
	Total    int
}

// RestoreEngine replays an archived batch through a channel webhook under the
// original author attribution. Replay is strictly sequential in original
// chronological order; a failed send skips that message only.
type RestoreEngine struct {
	store       BatchStore
	webhooks    WebhookTransport
	files       Downloader
	root        string
	webhookName string
	delay       time.Duration
	sleep       func(time.Duration)
	logger      *zap.Logger
}

func NewRestoreEngine(store BatchStore, webhooks WebhookTransport, files Downloader, root, webhookName string, delay time.Duration, logger *zap.Logger) *RestoreEngine {
	return &RestoreEngine{
		store:       store,
		webhooks:    webhooks,
		files:       files,
		root:        root,
		webhookName: webhookName,
		delay:       delay,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

func (e *RestoreEngine) Restore(ctx context.Context, batchID string, keep bool) (RestoreResult, error) {
	batch, err := e.store.GetBatch(ctx, batchID)
	if err != nil {
		return RestoreResult{}, err
	}
	messages, err := e.store.ListBatchMessages(ctx, batchID)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("load batch messages: %w", err)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].PostedAt.Before(messages[j].PostedAt)
	})

	handle, err := e.webhooks.EnsureWebhook(ctx, batch.ChannelID, e.webhookName)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("acquire webhook: %w", err)
	}

	restored := 0
	for i, msg := range messages {
		if i > 0 && e.delay > 0 {
			e.sleep(e.delay)
		}
		payload, closers := e.buildPayload(ctx, msg)
		err := e.webhooks.Send(ctx, handle, payload)
		for _, closer := range closers {
			_ = closer.Close()
		}
		if err != nil {
			e.logger.Warn("message replay failed",
				zap.String("batch_id", batchID),
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			continue
		}
		restored++
	}

	if !keep {
		if err := e.store.DeleteBatch(ctx, batchID); err != nil {
			return RestoreResult{Restored: restored, Total: len(messages)}, fmt.Errorf("purge batch: %w", err)
		}
		if err := os.RemoveAll(filepath.Join(e.root, batchID)); err != nil {
			e.logger.Warn("attachment directory removal failed", zap.String("batch_id", batchID), zap.Error(err))
		}
	}

	e.logger.Info("batch restored",
		zap.String("batch_id", batchID),
		zap.Int("restored", restored),
		zap.Int("total", len(messages)),
		zap.Bool("kept", keep),
	)
	return RestoreResult{Restored: restored, Total: len(messages)}, nil
}

// ChannelBatches lists recent batches captured in a channel, newest first.
// Used by the restore command's autocomplete suggestions.
func (e *RestoreEngine) ChannelBatches(ctx context.Context, channelID string, limit int) ([]storage.ClearBatch, error) {
	return e.store.ListChannelBatches(ctx, channelID, limit)
}

func (e *RestoreEngine) buildPayload(ctx context.Context, msg storage.ArchivedMessage) (WebhookMessage, []io.Closer) {
	payload := WebhookMessage{
		Username:         msg.AuthorName,
		AvatarURL:        msg.AuthorAvatar,
		Content:          msg.Content,
		Embeds:           msg.Embeds,
		SuppressMentions: true,
	}

	var closers []io.Closer
	for _, att := range msg.Attachments {
		reader, contentType := e.openAttachment(ctx, att)
		if reader == nil {
			continue
		}
		closers = append(closers, reader)
		payload.Files = append(payload.Files, File{
			Name:        att.Name,
			ContentType: contentType,
			Reader:      reader,
		})
	}
	return payload, closers
}

// openAttachment prefers the local copy written at archival time and falls
// back to the remote URL captured then.
func (e *RestoreEngine) openAttachment(ctx context.Context, att storage.Attachment) (io.ReadCloser, string) {
	if att.LocalPath != "" {
		if file, err := os.Open(att.LocalPath); err == nil {
			return file, att.ContentType
		}
	}
	if att.RemoteURL == "" {
		return nil, ""
	}
	reader, contentType, err := e.files.Open(ctx, att.RemoteURL)
	if err != nil {
		e.logger.Warn("attachment unavailable", zap.String("name", att.Name), zap.Error(err))
		return nil, ""
	}
	if att.ContentType != "" {
		contentType = att.ContentType
	}
	return reader, contentType
}
