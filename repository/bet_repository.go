package repository

import (
	"context"
	"fmt"
	"time"

	"betmate/database"
	"betmate/domain/entities"
	"betmate/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

func newBetRepository(tx Queryable) interfaces.BetRepository {
	return &BetRepository{q: tx}
}

const betColumns = `id, group_id, creator_id, title, description, bet_type, status, stake_type,
	stake_description, resolution_method, fulfillment_status, winning_option_id, actual_value,
	total_pot, closes_at, resolved_at, created_at, updated_at`

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.GroupID,
		&bet.CreatorID,
		&bet.Title,
		&bet.Description,
		&bet.BetType,
		&bet.Status,
		&bet.StakeType,
		&bet.StakeDescription,
		&bet.ResolutionMethod,
		&bet.FulfillmentStatus,
		&bet.WinningOptionID,
		&bet.ActualValue,
		&bet.TotalPot,
		&bet.ClosesAt,
		&bet.ResolvedAt,
		&bet.CreatedAt,
		&bet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// CreateWithOptions creates a bet and its options atomically
func (r *BetRepository) CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error {
	query := `
		INSERT INTO bets
			(group_id, creator_id, title, description, bet_type, status, stake_type,
			 stake_description, resolution_method, fulfillment_status, closes_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		bet.GroupID,
		bet.CreatorID,
		bet.Title,
		bet.Description,
		bet.BetType,
		bet.Status,
		bet.StakeType,
		bet.StakeDescription,
		bet.ResolutionMethod,
		bet.FulfillmentStatus,
		bet.ClosesAt,
	).Scan(&bet.ID, &bet.CreatedAt, &bet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	optionQuery := `
		INSERT INTO bet_options (bet_id, option_text, option_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	for _, option := range options {
		option.BetID = bet.ID
		err := r.q.QueryRow(ctx, optionQuery, bet.ID, option.OptionText, option.OptionOrder).
			Scan(&option.ID, &option.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create bet option: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1`, betColumns)

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetDetailByID retrieves a bet with its options and participations
func (r *BetRepository) GetDetailByID(ctx context.Context, id int64) (*entities.BetDetail, error) {
	bet, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, nil
	}

	options, err := r.getOptions(ctx, id)
	if err != nil {
		return nil, err
	}

	participations, err := r.getParticipations(ctx, id)
	if err != nil {
		return nil, err
	}

	return &entities.BetDetail{
		Bet:            bet,
		Options:        options,
		Participations: participations,
	}, nil
}

func (r *BetRepository) getOptions(ctx context.Context, betID int64) ([]*entities.BetOption, error) {
	query := `
		SELECT id, bet_id, option_text, option_order, total_amount, created_at
		FROM bet_options
		WHERE bet_id = $1
		ORDER BY option_order`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var options []*entities.BetOption
	for rows.Next() {
		var o entities.BetOption
		if err := rows.Scan(&o.ID, &o.BetID, &o.OptionText, &o.OptionOrder, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate options: %w", err)
	}
	return options, nil
}

const participationColumns = `id, bet_id, user_id, option_id, prediction, amount, insured,
	premium_paid, status, payout_amount, balance_history_id, created_at, updated_at`

func scanParticipation(row pgx.Row) (*entities.BetParticipation, error) {
	var p entities.BetParticipation
	err := row.Scan(
		&p.ID,
		&p.BetID,
		&p.UserID,
		&p.OptionID,
		&p.Prediction,
		&p.Amount,
		&p.Insured,
		&p.PremiumPaid,
		&p.Status,
		&p.PayoutAmount,
		&p.BalanceHistoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BetRepository) getParticipations(ctx context.Context, betID int64) ([]*entities.BetParticipation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bet_participations
		WHERE bet_id = $1
		ORDER BY created_at`, participationColumns)

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var participations []*entities.BetParticipation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}

// Update persists bet state and resolution fields
func (r *BetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	query := `
		UPDATE bets
		SET status = $2,
		    fulfillment_status = $3,
		    winning_option_id = $4,
		    actual_value = $5,
		    total_pot = $6,
		    resolved_at = $7,
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.Status,
		bet.FulfillmentStatus,
		bet.WinningOptionID,
		bet.ActualValue,
		bet.TotalPot,
		bet.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", bet.ID)
	}
	return nil
}

// ListByGroup returns bets in a group, optionally filtered by status
func (r *BetRepository) ListByGroup(ctx context.Context, groupID int64, status entities.BetStatus, limit int) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE group_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`, betColumns)

	rows, err := r.q.Query(ctx, query, groupID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for group %d: %w", groupID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// GetExpiredOpenBets returns open bets whose deadline has passed
func (r *BetRepository) GetExpiredOpenBets(ctx context.Context, now time.Time) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE status = 'OPEN' AND closes_at <= $1
		ORDER BY closes_at`, betColumns)

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired bets: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// GetParticipation retrieves a user's participation in a bet
func (r *BetRepository) GetParticipation(ctx context.Context, betID, userID int64) (*entities.BetParticipation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bet_participations
		WHERE bet_id = $1 AND user_id = $2`, participationColumns)

	participation, err := scanParticipation(r.q.QueryRow(ctx, query, betID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation for user %d in bet %d: %w", userID, betID, err)
	}
	return participation, nil
}

// SaveParticipation inserts or updates a participation row
func (r *BetRepository) SaveParticipation(ctx context.Context, participation *entities.BetParticipation) error {
	query := `
		INSERT INTO bet_participations (bet_id, user_id, option_id, prediction, amount, insured, premium_paid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (bet_id, user_id) DO UPDATE
		SET option_id = EXCLUDED.option_id,
		    prediction = EXCLUDED.prediction,
		    amount = EXCLUDED.amount,
		    insured = EXCLUDED.insured,
		    premium_paid = EXCLUDED.premium_paid,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		participation.BetID,
		participation.UserID,
		participation.OptionID,
		participation.Prediction,
		participation.Amount,
		participation.Insured,
		participation.PremiumPaid,
		participation.Status,
	).Scan(&participation.ID, &participation.CreatedAt, &participation.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save participation: %w", err)
	}
	return nil
}

// UpdateOptionTotal sets the staked total for an option
func (r *BetRepository) UpdateOptionTotal(ctx context.Context, optionID int64, totalAmount int64) error {
	query := `UPDATE bet_options SET total_amount = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, optionID, totalAmount)
	if err != nil {
		return fmt.Errorf("failed to update option total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("option %d not found", optionID)
	}
	return nil
}

// UpdateParticipationResults persists statuses, payouts and ledger links after resolution
func (r *BetRepository) UpdateParticipationResults(ctx context.Context, participations []*entities.BetParticipation) error {
	query := `
		UPDATE bet_participations
		SET status = $2, payout_amount = $3, balance_history_id = $4, updated_at = NOW()
		WHERE id = $1`

	for _, p := range participations {
		if _, err := r.q.Exec(ctx, query, p.ID, p.Status, p.PayoutAmount, p.BalanceHistoryID); err != nil {
			return fmt.Errorf("failed to update participation %d: %w", p.ID, err)
		}
	}
	return nil
}

// AddResolver assigns a user as a resolver for a bet
func (r *BetRepository) AddResolver(ctx context.Context, betID, userID int64) error {
	query := `
		INSERT INTO bet_resolvers (bet_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (bet_id, user_id) DO NOTHING`

	if _, err := r.q.Exec(ctx, query, betID, userID); err != nil {
		return fmt.Errorf("failed to add resolver: %w", err)
	}
	return nil
}

// IsResolver checks whether a user is assigned to resolve a bet
func (r *BetRepository) IsResolver(ctx context.Context, betID, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bet_resolvers WHERE bet_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, betID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check resolver: %w", err)
	}
	return exists, nil
}

// UpsertVote creates or replaces a participant's resolution vote
func (r *BetRepository) UpsertVote(ctx context.Context, vote *entities.ResolutionVote) error {
	query := `
		INSERT INTO resolution_votes (bet_id, voter_id, option_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (bet_id, voter_id) DO UPDATE
		SET option_id = EXCLUDED.option_id, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query, vote.BetID, vote.VoterID, vote.OptionID).
		Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// ListVotes returns all resolution votes for a bet
func (r *BetRepository) ListVotes(ctx context.Context, betID int64) ([]*entities.ResolutionVote, error) {
	query := `
		SELECT id, bet_id, voter_id, option_id, created_at, updated_at
		FROM resolution_votes
		WHERE bet_id = $1
		ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var votes []*entities.ResolutionVote
	for rows.Next() {
		var v entities.ResolutionVote
		if err := rows.Scan(&v.ID, &v.BetID, &v.VoterID, &v.OptionID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}
