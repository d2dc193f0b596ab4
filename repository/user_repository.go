package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// The available balance subtracts stakes reserved in open credit bets, so
// credits only move at resolution
const userSelectColumns = `
	u.id,
	u.username,
	u.display_name,
	u.balance,
	u.win_streak,
	u.loss_streak,
	u.total_wins,
	u.total_losses,
	u.daily_streak,
	u.last_daily_claim,
	u.created_at,
	u.updated_at,
	u.deleted_at,
	u.balance - COALESCE(
		(SELECT SUM(bp.amount)
		 FROM bet_participations bp
		 JOIN bets b ON b.id = bp.bet_id
		 WHERE bp.user_id = u.id
		   AND bp.status = 'ACTIVE'
		   AND b.stake_type = 'CREDIT'
		   AND b.status IN ('OPEN', 'CLOSED')),
		0
	) AS available_balance`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func newUserRepository(tx Queryable) interfaces.UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Balance,
		&user.WinStreak,
		&user.LossStreak,
		&user.TotalWins,
		&user.TotalLosses,
		&user.DailyStreak,
		&user.LastDailyClaim,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
		&user.AvailableBalance,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID; soft-deleted users are excluded
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1 AND u.deleted_at IS NULL`, userSelectColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.username = $1 AND u.deleted_at IS NULL`, userSelectColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, username, displayName string, initialBalance int64) (*entities.User, error) {
	query := `
		INSERT INTO users (username, display_name, balance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	user := &entities.User{
		Username:         username,
		DisplayName:      displayName,
		Balance:          initialBalance,
		AvailableBalance: initialBalance,
	}
	err := r.q.QueryRow(ctx, query, username, displayName, initialBalance).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}

// Update persists profile, streak and daily-claim fields
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET display_name = $2,
		    win_streak = $3,
		    loss_streak = $4,
		    total_wins = $5,
		    total_losses = $6,
		    daily_streak = $7,
		    last_daily_claim = $8,
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		user.ID,
		user.DisplayName,
		user.WinStreak,
		user.LossStreak,
		user.TotalWins,
		user.TotalLosses,
		user.DailyStreak,
		user.LastDailyClaim,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", user.ID)
	}
	return nil
}

// UpdateBalance updates a user's balance atomically
func (r *UserRepository) UpdateBalance(ctx context.Context, userID int64, newBalance int64) error {
	query := `UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, userID, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// SoftDelete marks a user as deactivated
func (r *UserRepository) SoftDelete(ctx context.Context, userID int64) error {
	query := `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}
