package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var ErrBatchNotFound = errors.New("clear batch not found")

type ClearBatch struct {
	ID          string
	GuildID     string
	ChannelID   string
	ModeratorID string
	CreatedAt   time.Time
}

type Attachment struct {
	Name        string `json:"name"`
	RemoteURL   string `json:"remote_url"`
	LocalPath   string `json:"local_path,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ArchivedMessage struct {
	BatchID      string
	MessageID    string
	AuthorID     string
	AuthorName   string
	AuthorAvatar string
	Content      string
	Embeds       json.RawMessage
	Attachments  []Attachment
	PostedAt     time.Time
}

func (s *Store) CreateBatch(ctx context.Context, batch ClearBatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clear_batches (id, guild_id, channel_id, moderator_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, batch.ID, batch.GuildID, batch.ChannelID, batch.ModeratorID, batch.CreatedAt.Unix())
	return err
}

func (s *Store) GetBatch(ctx context.Context, id string) (ClearBatch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, channel_id, moderator_id, created_at
		FROM clear_batches WHERE id = ?
	`, id)

	var batch ClearBatch
	var created int64
	err := row.Scan(&batch.ID, &batch.GuildID, &batch.ChannelID, &batch.ModeratorID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClearBatch{}, ErrBatchNotFound
		}
		return ClearBatch{}, err
	}
	batch.CreatedAt = time.Unix(created, 0)
	return batch, nil
}

func (s *Store) InsertMessages(ctx context.Context, messages []ArchivedMessage) error {
	if len(messages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO archived_messages (batch_id, message_id, author_id, author_name, author_avatar, content, embeds, attachments, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range messages {
		attachments, marshalErr := json.Marshal(msg.Attachments)
		if marshalErr != nil {
			err = marshalErr
			return err
		}
		_, err = stmt.ExecContext(ctx,
			msg.BatchID,
			msg.MessageID,
			msg.AuthorID,
			msg.AuthorName,
			msg.AuthorAvatar,
			msg.Content,
			string(msg.Embeds),
			string(attachments),
			msg.PostedAt.Unix(),
		)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

func (s *Store) ListBatchMessages(ctx context.Context, batchID string) ([]ArchivedMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, message_id, author_id, author_name, author_avatar, content, embeds, attachments, posted_at
		FROM archived_messages
		WHERE batch_id = ?
		ORDER BY posted_at ASC, id ASC
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ArchivedMessage
	for rows.Next() {
		var msg ArchivedMessage
		var embeds, attachments string
		var posted int64
		if err := rows.Scan(&msg.BatchID, &msg.MessageID, &msg.AuthorID, &msg.AuthorName, &msg.AuthorAvatar, &msg.Content, &embeds, &attachments, &posted); err != nil {
			return nil, err
		}
		if embeds != "" {
			msg.Embeds = json.RawMessage(embeds)
		}
		if attachments != "" {
			if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
				return nil, err
			}
		}
		msg.PostedAt = time.Unix(posted, 0)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Store) ListChannelBatches(ctx context.Context, channelID string, limit int) ([]ClearBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, moderator_id, created_at
		FROM clear_batches
		WHERE channel_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, channelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBatches(rows)
}

func (s *Store) ListBatchesBefore(ctx context.Context, cutoff time.Time) ([]ClearBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, moderator_id, created_at
		FROM clear_batches
		WHERE created_at < ?
		ORDER BY created_at ASC
	`, cutoff.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBatches(rows)
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM archived_messages WHERE batch_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM clear_batches WHERE id = ?`, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func scanBatches(rows *sql.Rows) ([]ClearBatch, error) {
	var batches []ClearBatch
	for rows.Next() {
		var batch ClearBatch
		var created int64
		if err := rows.Scan(&batch.ID, &batch.GuildID, &batch.ChannelID, &batch.ModeratorID, &created); err != nil {
			return nil, err
		}
		batch.CreatedAt = time.Unix(created, 0)
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}
