package entities

import "time"

// BetFulfillment tracks a single winner's confirmation that a social stake was delivered
type BetFulfillment struct {
	ID          int64      `db:"id"`
	BetID       int64      `db:"bet_id"`
	WinnerID    int64      `db:"winner_id"`
	Confirmed   bool       `db:"confirmed"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Confirm marks the fulfillment as received
func (f *BetFulfillment) Confirm(now time.Time) {
	if f.Confirmed {
		return
	}
	f.Confirmed = true
	f.ConfirmedAt = &now
}
