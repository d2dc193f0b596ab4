package entities

import "time"

// Message represents a chat message posted in a group
type Message struct {
	ID        int64     `db:"id"`
	GroupID   int64     `db:"group_id"`
	AuthorID  int64     `db:"author_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
