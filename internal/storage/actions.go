package storage

import (
	"context"
	"time"
)

type ActionLog struct {
	ID        int64
	GuildID   string
	ActorID   string
	TargetID  string
	Action    string
	Details   string
	CreatedAt time.Time
}

func (s *Store) AddActionLog(ctx context.Context, log ActionLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_logs (guild_id, actor_id, target_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.GuildID, log.ActorID, log.TargetID, log.Action, log.Details, log.CreatedAt.Unix())
	return err
}

func (s *Store) ListActionLogs(ctx context.Context, guildID string, since time.Time) ([]ActionLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, actor_id, target_id, action, details, created_at
		FROM action_logs
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ActionLog
	for rows.Next() {
		var log ActionLog
		var created int64
		if err := rows.Scan(&log.ID, &log.GuildID, &log.ActorID, &log.TargetID, &log.Action, &log.Details, &created); err != nil {
			return nil, err
		}
		log.CreatedAt = time.Unix(created, 0)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) CleanupActionLogs(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM action_logs WHERE created_at < ?`, cutoff.Unix())
	return err
}
