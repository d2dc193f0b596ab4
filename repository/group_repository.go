package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// GroupRepository implements the GroupRepository interface
type GroupRepository struct {
	q Queryable
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{q: db.Pool}
}

func newGroupRepository(tx Queryable) interfaces.GroupRepository {
	return &GroupRepository{q: tx}
}

// Create creates a new group
func (r *GroupRepository) Create(ctx context.Context, group *entities.Group) error {
	query := `
		INSERT INTO groups (name, description, privacy, owner_id, max_members)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		group.Name,
		group.Description,
		group.Privacy,
		group.OwnerID,
		group.MaxMembers,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetByID retrieves a group by its ID
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*entities.Group, error) {
	query := `
		SELECT id, name, description, privacy, owner_id, max_members, created_at, updated_at
		FROM groups
		WHERE id = $1`

	var group entities.Group
	err := r.q.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.Privacy,
		&group.OwnerID,
		&group.MaxMembers,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %d: %w", id, err)
	}
	return &group, nil
}

// Update persists group fields
func (r *GroupRepository) Update(ctx context.Context, group *entities.Group) error {
	query := `
		UPDATE groups
		SET name = $2, description = $3, max_members = $4, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, group.ID, group.Name, group.Description, group.MaxMembers)
	if err != nil {
		return fmt.Errorf("failed to update group %d: %w", group.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %d not found", group.ID)
	}
	return nil
}

// ListPublic returns public groups, newest first
func (r *GroupRepository) ListPublic(ctx context.Context, limit, offset int) ([]*entities.Group, error) {
	query := `
		SELECT id, name, description, privacy, owner_id, max_members, created_at, updated_at
		FROM groups
		WHERE privacy = 'PUBLIC'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public groups: %w", err)
	}
	defer rows.Close()

	var groups []*entities.Group
	for rows.Next() {
		var group entities.Group
		err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.Privacy,
			&group.OwnerID,
			&group.MaxMembers,
			&group.CreatedAt,
			&group.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}
