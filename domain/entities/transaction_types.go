package entities

// TransactionType represents the type of balance change
type TransactionType string

// All transaction types supported by the system
const (
	// Bet-related transactions
	TransactionTypeBetWin          TransactionType = "bet_win"
	TransactionTypeBetLoss         TransactionType = "bet_loss"
	TransactionTypeBetRefund       TransactionType = "bet_refund"
	TransactionTypeInsurancePaid   TransactionType = "insurance_premium"
	TransactionTypeInsuranceRefund TransactionType = "insurance_refund"

	// System transactions
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeDailyReward TransactionType = "daily_reward"
	TransactionTypeAdminAdjust TransactionType = "admin_adjust"
)

// IsWinType returns true for transaction types that credit winnings
func (t TransactionType) IsWinType() bool {
	return t == TransactionTypeBetWin
}

// IsLossType returns true for transaction types that debit losses
func (t TransactionType) IsLossType() bool {
	return t == TransactionTypeBetLoss || t == TransactionTypeInsurancePaid
}

// IsBetRelated returns true for transactions tied to a bet's lifecycle
func (t TransactionType) IsBetRelated() bool {
	switch t {
	case TransactionTypeBetWin, TransactionTypeBetLoss, TransactionTypeBetRefund,
		TransactionTypeInsurancePaid, TransactionTypeInsuranceRefund:
		return true
	}
	return false
}

// IsSystemGenerated returns true for transactions not initiated by bet activity
func (t TransactionType) IsSystemGenerated() bool {
	switch t {
	case TransactionTypeInitial, TransactionTypeDailyReward, TransactionTypeAdminAdjust:
		return true
	}
	return false
}
