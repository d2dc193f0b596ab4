package entities

import (
	"math"
	"time"
)

// BetStatus represents the lifecycle state of a bet
type BetStatus string

const (
	BetStatusOpen      BetStatus = "OPEN"
	BetStatusClosed    BetStatus = "CLOSED"
	BetStatusResolved  BetStatus = "RESOLVED"
	BetStatusCancelled BetStatus = "CANCELLED"
)

// BetType represents the kind of outcome a bet is about
type BetType string

const (
	BetTypeBinary         BetType = "BINARY"
	BetTypeMultipleChoice BetType = "MULTIPLE_CHOICE"
	BetTypePrediction     BetType = "PREDICTION"
)

// StakeType represents what participants put on the line
type StakeType string

const (
	StakeTypeCredit StakeType = "CREDIT"
	StakeTypeSocial StakeType = "SOCIAL"
)

// ResolutionMethod represents who decides a bet's outcome
type ResolutionMethod string

const (
	ResolutionMethodSelf              ResolutionMethod = "SELF"
	ResolutionMethodAssignedResolvers ResolutionMethod = "ASSIGNED_RESOLVERS"
	ResolutionMethodParticipantVote   ResolutionMethod = "PARTICIPANT_VOTE"
)

// FulfillmentStatus tracks delivery of social stakes after resolution
type FulfillmentStatus string

const (
	FulfillmentStatusNone      FulfillmentStatus = "NONE"
	FulfillmentStatusPending   FulfillmentStatus = "PENDING"
	FulfillmentStatusFulfilled FulfillmentStatus = "FULFILLED"
)

// Bet represents a group-scoped wager with an outcome to be resolved
type Bet struct {
	ID                int64             `db:"id"`
	GroupID           int64             `db:"group_id"`
	CreatorID         int64             `db:"creator_id"`
	Title             string            `db:"title"`
	Description       string            `db:"description"`
	BetType           BetType           `db:"bet_type"`
	Status            BetStatus         `db:"status"`
	StakeType         StakeType         `db:"stake_type"`
	StakeDescription  string            `db:"stake_description"`
	ResolutionMethod  ResolutionMethod  `db:"resolution_method"`
	FulfillmentStatus FulfillmentStatus `db:"fulfillment_status"`
	WinningOptionID   *int64            `db:"winning_option_id"`
	ActualValue       *float64          `db:"actual_value"`
	TotalPot          int64             `db:"total_pot"`
	ClosesAt          time.Time         `db:"closes_at"`
	ResolvedAt        *time.Time        `db:"resolved_at"`
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
}

// BetOption represents a possible outcome for a binary or multiple-choice bet
type BetOption struct {
	ID          int64     `db:"id"`
	BetID       int64     `db:"bet_id"`
	OptionText  string    `db:"option_text"`
	OptionOrder int16     `db:"option_order"`
	TotalAmount int64     `db:"total_amount"`
	CreatedAt   time.Time `db:"created_at"`
}

// BetResolver represents a user assigned to resolve a bet
type BetResolver struct {
	ID        int64     `db:"id"`
	BetID     int64     `db:"bet_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ResolutionVote represents a participant's vote on the outcome of a bet
type ResolutionVote struct {
	ID        int64     `db:"id"`
	BetID     int64     `db:"bet_id"`
	VoterID   int64     `db:"voter_id"`
	OptionID  int64     `db:"option_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BetDetail combines a bet with its options and participations
type BetDetail struct {
	Bet            *Bet
	Options        []*BetOption
	Participations []*BetParticipation
}

// BetResult represents the outcome of a bet resolution
type BetResult struct {
	Bet           *Bet
	WinningOption *BetOption
	Winners       []*BetParticipation
	Losers        []*BetParticipation
	TotalPot      int64
	PayoutDetails map[int64]int64 // user ID -> payout amount
}

// IsOpen checks if the bet still accepts participants
func (b *Bet) IsOpen() bool {
	return b.Status == BetStatusOpen
}

// IsClosed checks if the bet is awaiting resolution
func (b *Bet) IsClosed() bool {
	return b.Status == BetStatusClosed
}

// IsResolved checks if the bet has been resolved
func (b *Bet) IsResolved() bool {
	return b.Status == BetStatusResolved
}

// IsDeadlinePassed checks whether the join deadline has elapsed
func (b *Bet) IsDeadlinePassed(now time.Time) bool {
	return now.After(b.ClosesAt)
}

// CanAcceptParticipants checks if users may still join or change their entry
func (b *Bet) CanAcceptParticipants(now time.Time) bool {
	return b.IsOpen() && !b.IsDeadlinePassed(now)
}

// IsCreditStake checks if the bet stakes credits
func (b *Bet) IsCreditStake() bool {
	return b.StakeType == StakeTypeCredit
}

// IsSocialStake checks if the bet stakes a non-monetary forfeit
func (b *Bet) IsSocialStake() bool {
	return b.StakeType == StakeTypeSocial
}

// IsPrediction checks if the bet resolves against a numeric value
func (b *Bet) IsPrediction() bool {
	return b.BetType == BetTypePrediction
}

// Close transitions the bet from open to closed
func (b *Bet) Close() {
	if b.Status == BetStatusOpen {
		b.Status = BetStatusClosed
	}
}

// Resolve marks the bet resolved with the winning option
func (b *Bet) Resolve(winningOptionID *int64, actualValue *float64, now time.Time) {
	if b.Status != BetStatusOpen && b.Status != BetStatusClosed {
		return
	}
	b.Status = BetStatusResolved
	b.WinningOptionID = winningOptionID
	b.ActualValue = actualValue
	b.ResolvedAt = &now
	if b.IsSocialStake() {
		b.FulfillmentStatus = FulfillmentStatusPending
	}
}

// Cancel voids the bet
func (b *Bet) Cancel() {
	if b.Status == BetStatusOpen || b.Status == BetStatusClosed {
		b.Status = BetStatusCancelled
	}
}

// GetParticipationsByOption groups participations by their chosen option
func (bd *BetDetail) GetParticipationsByOption() map[int64][]*BetParticipation {
	result := make(map[int64][]*BetParticipation)
	for _, p := range bd.Participations {
		if p.OptionID != nil {
			result[*p.OptionID] = append(result[*p.OptionID], p)
		}
	}
	return result
}

// ActiveParticipations returns the participations still in play
func (bd *BetDetail) ActiveParticipations() []*BetParticipation {
	var active []*BetParticipation
	for _, p := range bd.Participations {
		if p.Status == ParticipationStatusActive {
			active = append(active, p)
		}
	}
	return active
}

// ClosestPredictions returns the participations whose prediction is nearest
// the actual value. Ties share the win.
func (bd *BetDetail) ClosestPredictions(actualValue float64) []*BetParticipation {
	var winners []*BetParticipation
	best := math.Inf(1)

	for _, p := range bd.Participations {
		if p.Prediction == nil {
			continue
		}
		distance := math.Abs(*p.Prediction - actualValue)
		switch {
		case distance < best:
			best = distance
			winners = []*BetParticipation{p}
		case distance == best:
			winners = append(winners, p)
		}
	}
	return winners
}
