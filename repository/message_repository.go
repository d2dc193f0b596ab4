package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"
)

// MessageRepository implements the MessageRepository interface
type MessageRepository struct {
	q Queryable
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{q: db.Pool}
}

func newMessageRepository(tx Queryable) interfaces.MessageRepository {
	return &MessageRepository{q: tx}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message *entities.Message) error {
	query := `
		INSERT INTO group_messages (group_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query, message.GroupID, message.AuthorID, message.Content).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByGroup returns messages in a group, newest first
func (r *MessageRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*entities.Message, error) {
	query := `
		SELECT id, group_id, author_id, content, created_at
		FROM group_messages
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for group %d: %w", groupID, err)
	}
	defer rows.Close()

	var messages []*entities.Message
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.AuthorID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
