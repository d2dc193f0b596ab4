package entities

import "time"

// NotificationType represents what lifecycle event a notification describes
type NotificationType string

const (
	NotificationTypeJoinRequest          NotificationType = "join_request"
	NotificationTypeMembershipApproved   NotificationType = "membership_approved"
	NotificationTypeMembershipRejected   NotificationType = "membership_rejected"
	NotificationTypeBetCreated           NotificationType = "bet_created"
	NotificationTypeBetClosed            NotificationType = "bet_closed"
	NotificationTypeBetResolved          NotificationType = "bet_resolved"
	NotificationTypeBetCancelled         NotificationType = "bet_cancelled"
	NotificationTypeFulfillmentRequested NotificationType = "fulfillment_requested"
	NotificationTypeFulfillmentComplete  NotificationType = "fulfillment_complete"
)

// NotificationPriority represents how prominently a notification should surface
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// Notification represents a message delivered to a single recipient
type Notification struct {
	ID          int64                `db:"id"`
	RecipientID int64                `db:"recipient_id"`
	Type        NotificationType     `db:"notification_type"`
	Priority    NotificationPriority `db:"priority"`
	Title       string               `db:"title"`
	Body        string               `db:"body"`
	RelatedType *RelatedType         `db:"related_type"`
	RelatedID   *int64               `db:"related_id"`
	Read        bool                 `db:"read"`
	CreatedAt   time.Time            `db:"created_at"`
}
