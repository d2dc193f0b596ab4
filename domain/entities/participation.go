package entities

import "time"

// ParticipationStatus represents the state of a user's entry in a bet
type ParticipationStatus string

const (
	ParticipationStatusActive   ParticipationStatus = "ACTIVE"
	ParticipationStatusWon      ParticipationStatus = "WON"
	ParticipationStatusLost     ParticipationStatus = "LOST"
	ParticipationStatusRefunded ParticipationStatus = "REFUNDED"
)

// InsurancePremiumDivisor derives the premium from the stake: stake/10, minimum 1
const InsurancePremiumDivisor = 10

// BetParticipation links a user to a bet with their chosen option or prediction
type BetParticipation struct {
	ID               int64               `db:"id"`
	BetID            int64               `db:"bet_id"`
	UserID           int64               `db:"user_id"`
	OptionID         *int64              `db:"option_id"`
	Prediction       *float64            `db:"prediction"`
	Amount           int64               `db:"amount"`
	Insured          bool                `db:"insured"`
	PremiumPaid      int64               `db:"premium_paid"`
	Status           ParticipationStatus `db:"status"`
	PayoutAmount     *int64              `db:"payout_amount"`
	BalanceHistoryID *int64              `db:"balance_history_id"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

// InsurancePremium calculates the non-refundable premium for insuring a stake
func InsurancePremium(stake int64) int64 {
	premium := stake / InsurancePremiumDivisor
	if premium < 1 {
		premium = 1
	}
	return premium
}

// InsuredRefund calculates the partial refund an insured loser receives
func (p *BetParticipation) InsuredRefund() int64 {
	if !p.Insured {
		return 0
	}
	return p.Amount / 2
}

// CalculatePayout calculates the winner's gross payout: the original stake
// plus a proportional share of the losers' pot
func (p *BetParticipation) CalculatePayout(winningTotal, losersPot int64) int64 {
	if winningTotal == 0 {
		return 0
	}
	return p.Amount + (p.Amount*losersPot)/winningTotal
}
