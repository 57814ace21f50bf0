package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BulkDeleteMaxAge is the platform ceiling: messages older than this cannot
// be removed through the bulk-delete endpoint.
const BulkDeleteMaxAge = 14 * 24 * time.Hour

var ErrNothingEligible = errors.New("no messages eligible for deletion")

type ClearFilters struct {
	AuthorID string
	RoleID   string
	Bots     *bool
}

type ClearRequest struct {
	GuildID     string
	ChannelID   string
	ModeratorID string
	Amount      int
	Filters     ClearFilters
}

type ClearResult struct {
	BatchID string
	Deleted int
}

// ClearEngine archives a filtered slice of recent channel messages and then
// bulk-deletes them. The delete never runs unless the archive committed.
type ClearEngine struct {
	store     BatchStore
	transport MessageTransport
	files     Downloader
	root      string
	clock     Clock
	logger    *zap.Logger
}

func NewClearEngine(store BatchStore, transport MessageTransport, files Downloader, root string, logger *zap.Logger) *ClearEngine {
	return &ClearEngine{
		store:     store,
		transport: transport,
		files:     files,
		root:      root,
		clock:     realClock{},
		logger:    logger,
	}
}

func (e *ClearEngine) WithClock(clock Clock) {
	e.clock = clock
}

func (e *ClearEngine) Clear(ctx context.Context, req ClearRequest) (ClearResult, error) {
	amount := req.Amount
	if amount <= 0 || amount > 100 {
		amount = 100
	}

	messages, err := e.transport.RecentMessages(ctx, req.ChannelID, amount)
	if err != nil {
		return ClearResult{}, fmt.Errorf("fetch messages: %w", err)
	}

	cutoff := e.clock.Now().Add(-BulkDeleteMaxAge)
	eligible := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.Timestamp.After(cutoff) {
			continue
		}
		if !matchesFilters(msg, req.Filters) {
			continue
		}
		eligible = append(eligible, msg)
	}
	if len(eligible) == 0 {
		return ClearResult{}, ErrNothingEligible
	}

	batch := storage.ClearBatch{
		ID:          uuid.NewString(),
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		ModeratorID: req.ModeratorID,
		CreatedAt:   e.clock.Now(),
	}
	if err := e.store.CreateBatch(ctx, batch); err != nil {
		return ClearResult{}, fmt.Errorf("create batch: %w", err)
	}

	dir := filepath.Join(e.root, batch.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ClearResult{}, fmt.Errorf("create batch directory: %w", err)
	}

	snapshots := make([]storage.ArchivedMessage, 0, len(eligible))
	for _, msg := range eligible {
		snapshots = append(snapshots, storage.ArchivedMessage{
			BatchID:      batch.ID,
			MessageID:    msg.ID,
			AuthorID:     msg.AuthorID,
			AuthorName:   msg.AuthorName,
			AuthorAvatar: msg.AuthorAvatar,
			Content:      msg.Content,
			Embeds:       msg.Embeds,
			Attachments:  e.archiveAttachments(ctx, dir, msg.ID, msg.Attachments),
			PostedAt:     msg.Timestamp,
		})
	}

	if err := e.store.InsertMessages(ctx, snapshots); err != nil {
		return ClearResult{}, fmt.Errorf("insert snapshots: %w", err)
	}

	ids := make([]string, len(eligible))
	for i, msg := range eligible {
		ids[i] = msg.ID
	}
	if err := e.transport.BulkDelete(ctx, req.ChannelID, ids); err != nil {
		// The archive is already committed; nothing was lost.
		return ClearResult{}, fmt.Errorf("bulk delete: %w", err)
	}

	e.logger.Info("channel cleared",
		zap.String("batch_id", batch.ID),
		zap.String("channel_id", req.ChannelID),
		zap.String("moderator_id", req.ModeratorID),
		zap.Int("deleted", len(ids)),
	)
	return ClearResult{BatchID: batch.ID, Deleted: len(ids)}, nil
}

func matchesFilters(msg Message, filters ClearFilters) bool {
	if filters.AuthorID != "" && msg.AuthorID != filters.AuthorID {
		return false
	}
	if filters.Bots != nil && msg.AuthorBot != *filters.Bots {
		return false
	}
	if filters.RoleID != "" {
		found := false
		for _, id := range msg.AuthorRoles {
			if id == filters.RoleID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
