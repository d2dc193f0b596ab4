package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// MembershipRepository implements the MembershipRepository interface
type MembershipRepository struct {
	q Queryable
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{q: db.Pool}
}

func newMembershipRepository(tx Queryable) interfaces.MembershipRepository {
	return &MembershipRepository{q: tx}
}

const membershipColumns = `id, group_id, user_id, role, status, created_at, updated_at`

func scanMembership(row pgx.Row) (*entities.GroupMembership, error) {
	var m entities.GroupMembership
	err := row.Scan(
		&m.ID,
		&m.GroupID,
		&m.UserID,
		&m.Role,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Get retrieves the membership row for a user in a group
func (r *MembershipRepository) Get(ctx context.Context, groupID, userID int64) (*entities.GroupMembership, error) {
	query := fmt.Sprintf(`SELECT %s FROM group_memberships WHERE group_id = $1 AND user_id = $2`, membershipColumns)

	membership, err := scanMembership(r.q.QueryRow(ctx, query, groupID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership for user %d in group %d: %w", userID, groupID, err)
	}
	return membership, nil
}

// Create creates a new membership row
func (r *MembershipRepository) Create(ctx context.Context, membership *entities.GroupMembership) error {
	query := `
		INSERT INTO group_memberships (group_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		membership.GroupID,
		membership.UserID,
		membership.Role,
		membership.Status,
	).Scan(&membership.ID, &membership.CreatedAt, &membership.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// Update persists role and status changes
func (r *MembershipRepository) Update(ctx context.Context, membership *entities.GroupMembership) error {
	query := `
		UPDATE group_memberships
		SET role = $2, status = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, membership.ID, membership.Role, membership.Status)
	if err != nil {
		return fmt.Errorf("failed to update membership %d: %w", membership.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %d not found", membership.ID)
	}
	return nil
}

// ListByGroup returns memberships in a group filtered by status
func (r *MembershipRepository) ListByGroup(ctx context.Context, groupID int64, status entities.MembershipStatus) ([]*entities.GroupMembership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM group_memberships
		WHERE group_id = $1 AND status = $2
		ORDER BY created_at`, membershipColumns)

	rows, err := r.q.Query(ctx, query, groupID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for group %d: %w", groupID, err)
	}
	defer rows.Close()

	return collectMemberships(rows)
}

// ListModerators returns approved admin and officer memberships of a group
func (r *MembershipRepository) ListModerators(ctx context.Context, groupID int64) ([]*entities.GroupMembership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM group_memberships
		WHERE group_id = $1 AND status = 'APPROVED' AND role IN ('ADMIN', 'OFFICER')
		ORDER BY created_at`, membershipColumns)

	rows, err := r.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators for group %d: %w", groupID, err)
	}
	defer rows.Close()

	return collectMemberships(rows)
}

// ListByUser returns a user's approved memberships
func (r *MembershipRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.GroupMembership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM group_memberships
		WHERE user_id = $1 AND status = 'APPROVED'
		ORDER BY created_at`, membershipColumns)

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectMemberships(rows)
}

// CountApproved returns the number of approved members in a group
func (r *MembershipRepository) CountApproved(ctx context.Context, groupID int64) (int, error) {
	query := `SELECT COUNT(*) FROM group_memberships WHERE group_id = $1 AND status = 'APPROVED'`

	var count int
	if err := r.q.QueryRow(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members for group %d: %w", groupID, err)
	}
	return count, nil
}

func collectMemberships(rows pgx.Rows) ([]*entities.GroupMembership, error) {
	var memberships []*entities.GroupMembership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}
