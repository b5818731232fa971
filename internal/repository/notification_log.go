package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aiinterface/notifier/internal/model"
)

// ListNotificationsSince returns log entries of the given type for the given
// users created at or after since.
func (r *Repository) ListNotificationsSince(ctx context.Context, typ model.NotificationType, userIDs []string, since time.Time) ([]*model.NotificationLog, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id::text, user_id::text, type, created_at
		FROM notification_logs
		WHERE type = $1 AND user_id::text = ANY($2) AND created_at >= $3
	`

	rows, err := r.pool.Query(ctx, query, string(typ), pq.Array(userIDs), since)
	if err != nil {
		return nil, fmt.Errorf("query notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.NotificationLog
	for rows.Next() {
		var entry model.NotificationLog
		var entryType string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entryType, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		entry.Type = model.NotificationType(entryType)
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification logs: %w", err)
	}

	return logs, nil
}

// CreateNotificationLog appends a notification log entry.
// ID and CreatedAt are filled in when empty.
func (r *Repository) CreateNotificationLog(ctx context.Context, entry *model.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal notification metadata: %w", err)
	}

	query := `
		INSERT INTO notification_logs (id, user_id, type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Type),
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}

	return nil
}
