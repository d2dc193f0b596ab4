package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBet_Lifecycle(t *testing.T) {
	bet := &Bet{Status: BetStatusOpen}

	assert.True(t, bet.IsOpen())
	assert.False(t, bet.IsClosed())

	bet.Close()
	assert.True(t, bet.IsClosed())

	// Closing again is a no-op
	bet.Close()
	assert.Equal(t, BetStatusClosed, bet.Status)

	winning := int64(7)
	now := time.Now()
	bet.Resolve(&winning, nil, now)
	assert.True(t, bet.IsResolved())
	assert.Equal(t, &winning, bet.WinningOptionID)
	assert.NotNil(t, bet.ResolvedAt)

	// A resolved bet cannot be cancelled
	bet.Cancel()
	assert.Equal(t, BetStatusResolved, bet.Status)
}

func TestBet_ResolveWhileOpen(t *testing.T) {
	// Resolving an open bet settles it without an explicit close first
	bet := &Bet{Status: BetStatusOpen}
	winning := int64(3)
	bet.Resolve(&winning, nil, time.Now())

	assert.True(t, bet.IsResolved())
	assert.Equal(t, &winning, bet.WinningOptionID)
}

func TestBet_Cancel(t *testing.T) {
	open := &Bet{Status: BetStatusOpen}
	open.Cancel()
	assert.Equal(t, BetStatusCancelled, open.Status)

	closed := &Bet{Status: BetStatusClosed}
	closed.Cancel()
	assert.Equal(t, BetStatusCancelled, closed.Status)
}

func TestBet_CanAcceptParticipants(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		status   BetStatus
		closesAt time.Time
		expected bool
	}{
		{
			name:     "open before deadline",
			status:   BetStatusOpen,
			closesAt: now.Add(time.Hour),
			expected: true,
		},
		{
			name:     "open past deadline",
			status:   BetStatusOpen,
			closesAt: now.Add(-time.Minute),
			expected: false,
		},
		{
			name:     "closed before deadline",
			status:   BetStatusClosed,
			closesAt: now.Add(time.Hour),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := &Bet{Status: tt.status, ClosesAt: tt.closesAt}
			assert.Equal(t, tt.expected, bet.CanAcceptParticipants(now))
		})
	}
}

func TestBetDetail_ClosestPredictions(t *testing.T) {
	prediction := func(userID int64, value float64) *BetParticipation {
		return &BetParticipation{UserID: userID, Prediction: &value, Status: ParticipationStatusActive}
	}

	tests := []struct {
		name            string
		participations  []*BetParticipation
		actualValue     float64
		expectedWinners []int64
	}{
		{
			name: "single closest wins",
			participations: []*BetParticipation{
				prediction(1, 10),
				prediction(2, 25),
				prediction(3, 80),
			},
			actualValue:     30,
			expectedWinners: []int64{2},
		},
		{
			name: "equidistant predictions tie",
			participations: []*BetParticipation{
				prediction(1, 20),
				prediction(2, 40),
				prediction(3, 100),
			},
			actualValue:     30,
			expectedWinners: []int64{1, 2},
		},
		{
			name: "exact match",
			participations: []*BetParticipation{
				prediction(1, 42),
				prediction(2, 41),
			},
			actualValue:     42,
			expectedWinners: []int64{1},
		},
		{
			name:            "no predictions yields no winners",
			participations:  []*BetParticipation{{UserID: 1, Status: ParticipationStatusActive}},
			actualValue:     10,
			expectedWinners: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := &BetDetail{Participations: tt.participations}
			winners := detail.ClosestPredictions(tt.actualValue)

			var winnerIDs []int64
			for _, w := range winners {
				winnerIDs = append(winnerIDs, w.UserID)
			}
			assert.Equal(t, tt.expectedWinners, winnerIDs)
		})
	}
}

func TestBetDetail_ActiveParticipations(t *testing.T) {
	detail := &BetDetail{
		Participations: []*BetParticipation{
			{UserID: 1, Status: ParticipationStatusActive},
			{UserID: 2, Status: ParticipationStatusRefunded},
			{UserID: 3, Status: ParticipationStatusActive},
			{UserID: 4, Status: ParticipationStatusLost},
		},
	}

	active := detail.ActiveParticipations()
	assert.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].UserID)
	assert.Equal(t, int64(3), active[1].UserID)
}

func TestBetDetail_GetParticipationsByOption(t *testing.T) {
	optionA, optionB := int64(1), int64(2)
	detail := &BetDetail{
		Participations: []*BetParticipation{
			{UserID: 1, OptionID: &optionA},
			{UserID: 2, OptionID: &optionB},
			{UserID: 3, OptionID: &optionA},
			{UserID: 4}, // prediction entry, no option
		},
	}

	byOption := detail.GetParticipationsByOption()
	assert.Len(t, byOption, 2)
	assert.Len(t, byOption[optionA], 2)
	assert.Len(t, byOption[optionB], 1)
}
