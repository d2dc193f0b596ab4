package entities

import (
	"errors"
	"time"
)

// User represents a registered user with credit balance and betting record
type User struct {
	ID               int64      `db:"id"`
	Username         string     `db:"username"`
	DisplayName      string     `db:"display_name"`
	Balance          int64      `db:"balance"`
	AvailableBalance int64      `db:"-"` // Calculated field: balance minus stakes in open credit bets
	WinStreak        int        `db:"win_streak"`
	LossStreak       int        `db:"loss_streak"`
	TotalWins        int        `db:"total_wins"`
	TotalLosses      int        `db:"total_losses"`
	DailyStreak      int        `db:"daily_streak"`
	LastDailyClaim   *time.Time `db:"last_daily_claim"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

// IsActive checks whether the account has not been deactivated
func (u *User) IsActive() bool {
	return u.DeletedAt == nil
}

// CanAfford checks if the user has sufficient available balance for an amount
func (u *User) CanAfford(amount int64) bool {
	return u.AvailableBalance >= amount
}

// ValidateAmount checks if an amount is valid (positive and affordable)
func (u *User) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	if !u.CanAfford(amount) {
		return errors.New("insufficient available balance")
	}
	return nil
}

// GetPendingAmount calculates the amount tied up in open credit bets
func (u *User) GetPendingAmount() int64 {
	return u.Balance - u.AvailableBalance
}

// RecordWin updates the user's counters for a single resolved bet won
func (u *User) RecordWin() {
	u.TotalWins++
	u.WinStreak++
	u.LossStreak = 0
}

// RecordLoss updates the user's counters for a single resolved bet lost
func (u *User) RecordLoss() {
	u.TotalLosses++
	u.LossStreak++
	u.WinStreak = 0
}

// HasClaimedDailyReward checks whether the daily reward was already claimed on the given UTC day
func (u *User) HasClaimedDailyReward(now time.Time) bool {
	if u.LastDailyClaim == nil {
		return false
	}
	last := u.LastDailyClaim.UTC()
	now = now.UTC()
	return last.Year() == now.Year() && last.YearDay() == now.YearDay()
}

// ContinuesDailyStreak checks whether claiming now extends the consecutive-day streak
func (u *User) ContinuesDailyStreak(now time.Time) bool {
	if u.LastDailyClaim == nil {
		return false
	}
	yesterday := now.UTC().AddDate(0, 0, -1)
	last := u.LastDailyClaim.UTC()
	return last.Year() == yesterday.Year() && last.YearDay() == yesterday.YearDay()
}
