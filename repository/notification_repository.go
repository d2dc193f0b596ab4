package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"
)

// NotificationRepository implements the NotificationRepository interface
type NotificationRepository struct {
	q Queryable
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{q: db.Pool}
}

func newNotificationRepository(tx Queryable) interfaces.NotificationRepository {
	return &NotificationRepository{q: tx}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, notification_type, priority, title, body, related_type, related_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		notification.RecipientID,
		notification.Type,
		notification.Priority,
		notification.Title,
		notification.Body,
		notification.RelatedType,
		notification.RelatedID,
	).Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*entities.Notification, error) {
	query := `
		SELECT id, recipient_id, notification_type, priority, title, body, related_type, related_id, read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.q.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	var notifications []*entities.Notification
	for rows.Next() {
		var n entities.Notification
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Type,
			&n.Priority,
			&n.Title,
			&n.Body,
			&n.RelatedType,
			&n.RelatedID,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a single notification as read; returns false if not owned or missing
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`

	tag, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read for user %d: %w", userID, err)
	}
	return nil
}

// CountUnread returns the number of unread notifications for a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`

	var count int
	if err := r.q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %d: %w", userID, err)
	}
	return count, nil
}
