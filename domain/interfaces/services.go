package interfaces

import (
	"context"
	"time"

	"betmate/domain/entities"
	"betmate/domain/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// UnitOfWork provides transactional repository access with event publishing on commit
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	GroupRepository() GroupRepository
	MembershipRepository() MembershipRepository
	MessageRepository() MessageRepository
	BetRepository() BetRepository
	FulfillmentRepository() FulfillmentRepository
	NotificationRepository() NotificationRepository

	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService manages accounts and the credit ledger
type UserService interface {
	// Register creates a new account with the configured starting balance
	Register(ctx context.Context, username, displayName string) (*entities.User, error)

	// GetUser retrieves an active user
	GetUser(ctx context.Context, userID int64) (*entities.User, error)

	// UpdateProfile changes the display name
	UpdateProfile(ctx context.Context, userID int64, displayName string) (*entities.User, error)

	// Deactivate soft-deletes an account
	Deactivate(ctx context.Context, userID int64) error

	// GetTransactions returns the user's balance history, newest first.
	// When both from and to are set only entries inside the range are
	// returned.
	GetTransactions(ctx context.Context, userID int64, limit int, from, to *time.Time) ([]*entities.BalanceHistory, error)
}

// DailyRewardService hands out the once-per-day login reward
type DailyRewardService interface {
	// Claim grants the daily reward; rejects a second claim on the same UTC day
	Claim(ctx context.Context, userID int64) (*entities.BalanceHistory, error)
}

// GroupService manages groups and memberships
type GroupService interface {
	CreateGroup(ctx context.Context, ownerID int64, name, description string, privacy entities.GroupPrivacy, maxMembers int) (*entities.Group, error)
	GetGroup(ctx context.Context, groupID int64) (*entities.Group, error)
	ListPublicGroups(ctx context.Context, limit, offset int) ([]*entities.Group, error)
	UpdateGroup(ctx context.Context, actorID, groupID int64, name, description string, maxMembers int) (*entities.Group, error)

	// RequestJoin joins a public group immediately or files a pending request on a private one
	RequestJoin(ctx context.Context, groupID, userID int64) (*entities.GroupMembership, error)

	// DecideJoinRequest approves or rejects a pending membership
	DecideJoinRequest(ctx context.Context, groupID, actorID, userID int64, approve bool) (*entities.GroupMembership, error)

	// Leave marks the actor's membership as left
	Leave(ctx context.Context, groupID, userID int64) error

	// PromoteMember changes a member's role
	PromoteMember(ctx context.Context, groupID, actorID, userID int64, role entities.MembershipRole) (*entities.GroupMembership, error)

	ListMembers(ctx context.Context, groupID int64, status entities.MembershipStatus) ([]*entities.GroupMembership, error)

	// ListMyGroups returns the groups the user is an approved member of
	ListMyGroups(ctx context.Context, userID int64) ([]*entities.Group, error)
}

// MessageService manages group chat
type MessageService interface {
	// PostMessage posts a chat message; only approved members may post
	PostMessage(ctx context.Context, groupID, authorID int64, content string) (*entities.Message, error)

	// ListMessages returns a group's messages, newest first
	ListMessages(ctx context.Context, groupID, requesterID int64, limit, offset int) ([]*entities.Message, error)
}

// BetService manages the bet lifecycle
type BetService interface {
	// CreateBet opens a new bet in a group
	CreateBet(ctx context.Context, params CreateBetParams) (*entities.BetDetail, error)

	// GetBetDetail retrieves a bet with options and participations
	GetBetDetail(ctx context.Context, betID int64) (*entities.BetDetail, error)

	// ListGroupBets returns bets in a group filtered by status
	ListGroupBets(ctx context.Context, groupID int64, status entities.BetStatus, limit int) ([]*entities.Bet, error)

	// PlaceParticipation creates or updates a user's entry while the bet is open
	PlaceParticipation(ctx context.Context, betID, userID int64, optionID *int64, prediction *float64, amount int64, insured bool) (*entities.BetParticipation, error)

	// CloseBet transitions an open bet to closed ahead of its deadline
	CloseBet(ctx context.Context, betID, actorID int64) error

	// ResolveBet resolves a closed bet with a winning option or actual value
	ResolveBet(ctx context.Context, betID int64, resolverID *int64, winningOptionID *int64, actualValue *float64) (*entities.BetResult, error)

	// CastResolutionVote records a participant's vote and resolves on consensus
	CastResolutionVote(ctx context.Context, betID, voterID, optionID int64) (*entities.BetResult, error)

	// CancelBet voids a bet and refunds insurance premiums
	CancelBet(ctx context.Context, betID, actorID int64) error

	// CloseExpiredBet closes a single open bet whose deadline has passed.
	// A bet that was meanwhile closed, resolved or cancelled is left alone.
	CloseExpiredBet(ctx context.Context, betID int64) error
}

// CreateBetParams carries the inputs for opening a bet
type CreateBetParams struct {
	GroupID          int64
	CreatorID        int64
	Title            string
	Description      string
	BetType          entities.BetType
	StakeType        entities.StakeType
	StakeDescription string
	ResolutionMethod entities.ResolutionMethod
	Options          []string
	ResolverIDs      []int64
	ClosesAt         time.Time
}

// FulfillmentService tracks delivery of social stakes
type FulfillmentService interface {
	// ConfirmFulfillment records a winner's confirmation; rejects duplicates
	ConfirmFulfillment(ctx context.Context, betID, winnerID int64) (*entities.BetFulfillment, error)

	// ListFulfillments returns the fulfillment rows for a bet
	ListFulfillments(ctx context.Context, betID int64) ([]*entities.BetFulfillment, error)
}

// NotificationService manages a user's notification feed
type NotificationService interface {
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*entities.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// PresenceService tracks which users are currently online
type PresenceService interface {
	// Heartbeat refreshes the user's online marker
	Heartbeat(ctx context.Context, userID int64) error

	// IsOnline checks whether a user's marker is still live
	IsOnline(ctx context.Context, userID int64) (bool, error)

	// OnlineUsers filters the given users down to those currently online
	OnlineUsers(ctx context.Context, userIDs []int64) ([]int64, error)
}
