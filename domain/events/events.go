package events

import (
	"betmate/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated          EventType = "user_created"
	EventTypeBalanceChange        EventType = "balance_change"
	EventTypeGroupJoinRequested   EventType = "group_join_requested"
	EventTypeMembershipDecided    EventType = "membership_decided"
	EventTypeBetCreated           EventType = "bet_created"
	EventTypeBetStateChange       EventType = "bet_state_change"
	EventTypeBetResolved          EventType = "bet_resolved"
	EventTypeFulfillmentConfirmed EventType = "fulfillment_confirmed"
	EventTypeMessagePosted        EventType = "message_posted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user registration
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType entities.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// GroupJoinRequestedEvent represents a pending join request on a private group
type GroupJoinRequestedEvent struct {
	GroupID     int64
	GroupName   string
	RequesterID int64
	Requester   string
}

func (e GroupJoinRequestedEvent) Type() EventType {
	return EventTypeGroupJoinRequested
}

// MembershipDecidedEvent represents an approved or rejected join request
type MembershipDecidedEvent struct {
	GroupID   int64
	GroupName string
	UserID    int64
	Approved  bool
}

func (e MembershipDecidedEvent) Type() EventType {
	return EventTypeMembershipDecided
}

// BetCreatedEvent represents a new bet opened in a group
type BetCreatedEvent struct {
	BetID     int64
	GroupID   int64
	CreatorID int64
	Title     string
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// BetStateChangeEvent represents a bet status transition
type BetStateChangeEvent struct {
	BetID     int64
	GroupID   int64
	Title     string
	OldStatus string
	NewStatus string
}

func (e BetStateChangeEvent) Type() EventType {
	return EventTypeBetStateChange
}

// BetResolvedEvent carries the full outcome of a resolved bet
type BetResolvedEvent struct {
	BetID         int64
	GroupID       int64
	Title         string
	StakeType     entities.StakeType
	WinnerIDs     []int64
	LoserIDs      []int64
	PayoutDetails map[int64]int64
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// FulfillmentConfirmedEvent represents a winner confirming receipt of a social stake
type FulfillmentConfirmedEvent struct {
	BetID        int64
	GroupID      int64
	Title        string
	WinnerID     int64
	AllConfirmed bool
	LoserIDs     []int64
}

func (e FulfillmentConfirmedEvent) Type() EventType {
	return EventTypeFulfillmentConfirmed
}

// MessagePostedEvent represents a chat message posted to a group
type MessagePostedEvent struct {
	MessageID int64
	GroupID   int64
	AuthorID  int64
	Content   string
}

func (e MessagePostedEvent) Type() EventType {
	return EventTypeMessagePosted
}
