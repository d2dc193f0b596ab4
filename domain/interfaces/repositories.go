package interfaces

import (
	"context"
	"time"

	"betmate/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID; soft-deleted users are excluded
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username, displayName string, initialBalance int64) (*entities.User, error)

	// Update persists profile, streak and daily-claim fields
	Update(ctx context.Context, user *entities.User) error

	// UpdateBalance updates a user's balance atomically
	UpdateBalance(ctx context.Context, userID int64, newBalance int64) error

	// SoftDelete marks a user as deactivated
	SoftDelete(ctx context.Context, userID int64) error
}

// BalanceHistoryRepository defines the interface for the credit ledger
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)

	// GetByDateRange returns balance history within a date range
	GetByDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*entities.BalanceHistory, error)
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	// Create creates a new group
	Create(ctx context.Context, group *entities.Group) error

	// GetByID retrieves a group by its ID
	GetByID(ctx context.Context, id int64) (*entities.Group, error)

	// Update persists group fields
	Update(ctx context.Context, group *entities.Group) error

	// ListPublic returns public groups, newest first
	ListPublic(ctx context.Context, limit, offset int) ([]*entities.Group, error)
}

// MembershipRepository defines the interface for group membership data access
type MembershipRepository interface {
	// Get retrieves the membership row for a user in a group
	Get(ctx context.Context, groupID, userID int64) (*entities.GroupMembership, error)

	// Create creates a new membership row
	Create(ctx context.Context, membership *entities.GroupMembership) error

	// Update persists role and status changes
	Update(ctx context.Context, membership *entities.GroupMembership) error

	// ListByGroup returns memberships in a group filtered by status
	ListByGroup(ctx context.Context, groupID int64, status entities.MembershipStatus) ([]*entities.GroupMembership, error)

	// ListModerators returns approved admin and officer memberships of a group
	ListModerators(ctx context.Context, groupID int64) ([]*entities.GroupMembership, error)

	// ListByUser returns a user's approved memberships
	ListByUser(ctx context.Context, userID int64) ([]*entities.GroupMembership, error)

	// CountApproved returns the number of approved members in a group
	CountApproved(ctx context.Context, groupID int64) (int, error)
}

// MessageRepository defines the interface for group chat data access
type MessageRepository interface {
	// Create creates a new message
	Create(ctx context.Context, message *entities.Message) error

	// ListByGroup returns messages in a group, newest first
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*entities.Message, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// CreateWithOptions creates a bet and its options atomically
	CreateWithOptions(ctx context.Context, bet *entities.Bet, options []*entities.BetOption) error

	// GetByID retrieves a bet by its ID
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// GetDetailByID retrieves a bet with its options and participations
	GetDetailByID(ctx context.Context, id int64) (*entities.BetDetail, error)

	// Update persists bet state and resolution fields
	Update(ctx context.Context, bet *entities.Bet) error

	// ListByGroup returns bets in a group, optionally filtered by status
	ListByGroup(ctx context.Context, groupID int64, status entities.BetStatus, limit int) ([]*entities.Bet, error)

	// GetExpiredOpenBets returns open bets whose deadline has passed
	GetExpiredOpenBets(ctx context.Context, now time.Time) ([]*entities.Bet, error)

	// GetParticipation retrieves a user's participation in a bet
	GetParticipation(ctx context.Context, betID, userID int64) (*entities.BetParticipation, error)

	// SaveParticipation inserts or updates a participation row
	SaveParticipation(ctx context.Context, participation *entities.BetParticipation) error

	// UpdateOptionTotal sets the staked total for an option
	UpdateOptionTotal(ctx context.Context, optionID int64, totalAmount int64) error

	// UpdateParticipationResults persists statuses, payouts and ledger links after resolution
	UpdateParticipationResults(ctx context.Context, participations []*entities.BetParticipation) error

	// AddResolver assigns a user as a resolver for a bet
	AddResolver(ctx context.Context, betID, userID int64) error

	// IsResolver checks whether a user is assigned to resolve a bet
	IsResolver(ctx context.Context, betID, userID int64) (bool, error)

	// UpsertVote creates or replaces a participant's resolution vote
	UpsertVote(ctx context.Context, vote *entities.ResolutionVote) error

	// ListVotes returns all resolution votes for a bet
	ListVotes(ctx context.Context, betID int64) ([]*entities.ResolutionVote, error)
}

// FulfillmentRepository defines the interface for social-stake fulfillment tracking
type FulfillmentRepository interface {
	// CreateBatch creates one fulfillment row per winner
	CreateBatch(ctx context.Context, fulfillments []*entities.BetFulfillment) error

	// GetByBetAndWinner retrieves a winner's fulfillment row for a bet
	GetByBetAndWinner(ctx context.Context, betID, winnerID int64) (*entities.BetFulfillment, error)

	// Update persists confirmation state
	Update(ctx context.Context, fulfillment *entities.BetFulfillment) error

	// ListByBet returns all fulfillment rows for a bet
	ListByBet(ctx context.Context, betID int64) ([]*entities.BetFulfillment, error)

	// CountConfirmed returns how many winners have confirmed for a bet
	CountConfirmed(ctx context.Context, betID int64) (int, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(ctx context.Context, notification *entities.Notification) error

	// ListByUser returns a user's notifications, newest first
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*entities.Notification, error)

	// MarkRead marks a single notification as read; returns false if not owned or missing
	MarkRead(ctx context.Context, id, userID int64) (bool, error)

	// MarkAllRead marks all of a user's notifications as read
	MarkAllRead(ctx context.Context, userID int64) error

	// CountUnread returns the number of unread notifications for a user
	CountUnread(ctx context.Context, userID int64) (int, error)
}
