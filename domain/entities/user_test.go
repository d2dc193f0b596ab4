package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_CanAfford(t *testing.T) {
	user := &User{Balance: 1000, AvailableBalance: 600}

	assert.True(t, user.CanAfford(600))
	assert.True(t, user.CanAfford(1))
	assert.False(t, user.CanAfford(601))
	// Reserved stakes do not count even though the stored balance covers them
	assert.False(t, user.CanAfford(1000))
}

func TestUser_ValidateAmount(t *testing.T) {
	user := &User{Balance: 1000, AvailableBalance: 500}

	assert.NoError(t, user.ValidateAmount(500))
	assert.EqualError(t, user.ValidateAmount(0), "amount must be positive")
	assert.EqualError(t, user.ValidateAmount(-10), "amount must be positive")
	assert.EqualError(t, user.ValidateAmount(501), "insufficient available balance")
}

func TestUser_GetPendingAmount(t *testing.T) {
	user := &User{Balance: 1000, AvailableBalance: 600}
	assert.Equal(t, int64(400), user.GetPendingAmount())

	user.AvailableBalance = 1000
	assert.Equal(t, int64(0), user.GetPendingAmount())
}

func TestUser_RecordWinAndLoss(t *testing.T) {
	user := &User{WinStreak: 2, LossStreak: 0, TotalWins: 5, TotalLosses: 3}

	user.RecordWin()
	assert.Equal(t, 3, user.WinStreak)
	assert.Equal(t, 0, user.LossStreak)
	assert.Equal(t, 6, user.TotalWins)

	user.RecordLoss()
	assert.Equal(t, 0, user.WinStreak)
	assert.Equal(t, 1, user.LossStreak)
	assert.Equal(t, 4, user.TotalLosses)

	user.RecordLoss()
	assert.Equal(t, 2, user.LossStreak)
}

func TestUser_HasClaimedDailyReward(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastClaim *time.Time
		expected  bool
	}{
		{
			name:      "never claimed",
			lastClaim: nil,
			expected:  false,
		},
		{
			name:      "claimed earlier today",
			lastClaim: timePtr(time.Date(2025, 6, 15, 0, 30, 0, 0, time.UTC)),
			expected:  true,
		},
		{
			name:      "claimed yesterday",
			lastClaim: timePtr(time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)),
			expected:  false,
		},
		{
			name:      "claimed same day in another zone",
			lastClaim: timePtr(time.Date(2025, 6, 15, 22, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))),
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{LastDailyClaim: tt.lastClaim}
			assert.Equal(t, tt.expected, user.HasClaimedDailyReward(now))
		})
	}
}

func TestUser_ContinuesDailyStreak(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastClaim *time.Time
		expected  bool
	}{
		{
			name:      "never claimed",
			lastClaim: nil,
			expected:  false,
		},
		{
			name:      "claimed yesterday",
			lastClaim: timePtr(time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)),
			expected:  true,
		},
		{
			name:      "claimed today does not extend",
			lastClaim: timePtr(time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC)),
			expected:  false,
		},
		{
			name:      "missed a day breaks the streak",
			lastClaim: timePtr(time.Date(2025, 6, 13, 12, 0, 0, 0, time.UTC)),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{LastDailyClaim: tt.lastClaim}
			assert.Equal(t, tt.expected, user.ContinuesDailyStreak(now))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
