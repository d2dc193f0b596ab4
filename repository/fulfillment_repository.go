package repository

import (
	"context"
	"fmt"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// FulfillmentRepository implements the FulfillmentRepository interface
type FulfillmentRepository struct {
	q Queryable
}

// NewFulfillmentRepository creates a new fulfillment repository
func NewFulfillmentRepository(db *database.DB) *FulfillmentRepository {
	return &FulfillmentRepository{q: db.Pool}
}

func newFulfillmentRepository(tx Queryable) interfaces.FulfillmentRepository {
	return &FulfillmentRepository{q: tx}
}

// CreateBatch creates one fulfillment row per winner
func (r *FulfillmentRepository) CreateBatch(ctx context.Context, fulfillments []*entities.BetFulfillment) error {
	query := `
		INSERT INTO bet_fulfillments (bet_id, winner_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	for _, f := range fulfillments {
		if err := r.q.QueryRow(ctx, query, f.BetID, f.WinnerID).Scan(&f.ID, &f.CreatedAt); err != nil {
			return fmt.Errorf("failed to create fulfillment: %w", err)
		}
	}
	return nil
}

// GetByBetAndWinner retrieves a winner's fulfillment row for a bet
func (r *FulfillmentRepository) GetByBetAndWinner(ctx context.Context, betID, winnerID int64) (*entities.BetFulfillment, error) {
	query := `
		SELECT id, bet_id, winner_id, confirmed, confirmed_at, created_at
		FROM bet_fulfillments
		WHERE bet_id = $1 AND winner_id = $2`

	var f entities.BetFulfillment
	err := r.q.QueryRow(ctx, query, betID, winnerID).Scan(
		&f.ID, &f.BetID, &f.WinnerID, &f.Confirmed, &f.ConfirmedAt, &f.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment for bet %d winner %d: %w", betID, winnerID, err)
	}
	return &f, nil
}

// Update persists confirmation state
func (r *FulfillmentRepository) Update(ctx context.Context, fulfillment *entities.BetFulfillment) error {
	query := `UPDATE bet_fulfillments SET confirmed = $2, confirmed_at = $3 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, fulfillment.ID, fulfillment.Confirmed, fulfillment.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("failed to update fulfillment %d: %w", fulfillment.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fulfillment %d not found", fulfillment.ID)
	}
	return nil
}

// ListByBet returns all fulfillment rows for a bet
func (r *FulfillmentRepository) ListByBet(ctx context.Context, betID int64) ([]*entities.BetFulfillment, error) {
	query := `
		SELECT id, bet_id, winner_id, confirmed, confirmed_at, created_at
		FROM bet_fulfillments
		WHERE bet_id = $1
		ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfillments for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var fulfillments []*entities.BetFulfillment
	for rows.Next() {
		var f entities.BetFulfillment
		if err := rows.Scan(&f.ID, &f.BetID, &f.WinnerID, &f.Confirmed, &f.ConfirmedAt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fulfillment: %w", err)
		}
		fulfillments = append(fulfillments, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fulfillments: %w", err)
	}
	return fulfillments, nil
}

// CountConfirmed returns how many winners have confirmed for a bet
func (r *FulfillmentRepository) CountConfirmed(ctx context.Context, betID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bet_fulfillments WHERE bet_id = $1 AND confirmed = TRUE`

	var count int
	if err := r.q.QueryRow(ctx, query, betID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmations for bet %d: %w", betID, err)
	}
	return count, nil
}
