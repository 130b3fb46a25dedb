package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
)

const defaultListLimit = 50

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

type notificationRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Type      string         `db:"type"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	ActionURL string         `db:"action_url"`
	Data      sql.NullString `db:"data"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (err error) {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	start := time.Now()
	defer func() { r.observe("create_notification", start, err) }()

	query := r.rebind(`
		INSERT INTO notifications (
			id, user_id, type, title, message, action_url, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()

	var data sql.NullString
	if len(n.Data) > 0 {
		data = sql.NullString{String: string(n.Data), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		n.ActionURL,
		data,
		n.CreatedAt,
	)
	if err != nil {
		n.ID = ""
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) (_ []*model.Notification, err error) {
	start := time.Now()
	defer func() { r.observe("list_notifications", start, err) }()

	if limit <= 0 {
		limit = defaultListLimit
	}

	query := r.rebind(`
		SELECT id, user_id, type, title, message, action_url, data, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	var rows []notificationRow
	if err = r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*model.Notification, 0, len(rows))
	for _, row := range rows {
		n := &model.Notification{
			ID:        row.ID,
			UserID:    row.UserID,
			Type:      model.NotificationType(row.Type),
			Title:     row.Title,
			Message:   row.Message,
			ActionURL: row.ActionURL,
			CreatedAt: row.CreatedAt,
		}
		if row.Data.Valid {
			n.Data = json.RawMessage(row.Data.String)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	start := time.Now()
	defer func() { r.observe("delete_notifications", start, err) }()

	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM notifications WHERE created_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted notifications: %w", err)
	}
	return n, nil
}
