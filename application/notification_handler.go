package application

import (
	"context"
	"fmt"

	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
	"betmate/infrastructure"

	log "github.com/sirupsen/logrus"
)

// NotificationEventHandler fans domain events out into per-recipient
// notification rows and realtime pushes. Handlers run after the originating
// transaction committed, so failures are logged rather than propagated.
type NotificationEventHandler struct {
	uowFactory interfaces.UnitOfWorkFactory
	pusher     *infrastructure.PushPublisher
}

// NewNotificationEventHandler creates a new notification event handler
func NewNotificationEventHandler(uowFactory interfaces.UnitOfWorkFactory, pusher *infrastructure.PushPublisher) *NotificationEventHandler {
	return &NotificationEventHandler{
		uowFactory: uowFactory,
		pusher:     pusher,
	}
}

// HandleGroupJoinRequested notifies the group's moderators about a pending request
func (h *NotificationEventHandler) HandleGroupJoinRequested(ctx context.Context, event events.Event) {
	e, ok := event.(events.GroupJoinRequestedEvent)
	if !ok {
		log.Errorf("HandleGroupJoinRequested received unexpected event type: %T", event)
		return
	}

	groupRelated := entities.RelatedTypeGroup
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		moderators, err := uow.MembershipRepository().ListModerators(ctx, e.GroupID)
		if err != nil {
			return err
		}
		for _, m := range moderators {
			notification := &entities.Notification{
				RecipientID: m.UserID,
				Type:        entities.NotificationTypeJoinRequest,
				Priority:    entities.NotificationPriorityHigh,
				Title:       fmt.Sprintf("%s wants to join %s", e.Requester, e.GroupName),
				Body:        "Approve or decline the pending request from the member list.",
				RelatedType: &groupRelated,
				RelatedID:   &e.GroupID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, m.UserID, "notification", notification)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("groupID", e.GroupID).Error("Failed to handle join request event")
	}
}

// HandleMembershipDecided notifies the requester about the decision
func (h *NotificationEventHandler) HandleMembershipDecided(ctx context.Context, event events.Event) {
	e, ok := event.(events.MembershipDecidedEvent)
	if !ok {
		log.Errorf("HandleMembershipDecided received unexpected event type: %T", event)
		return
	}

	notificationType := entities.NotificationTypeMembershipApproved
	title := fmt.Sprintf("You are now a member of %s", e.GroupName)
	body := "You can browse the group's bets and join the chat."
	if !e.Approved {
		notificationType = entities.NotificationTypeMembershipRejected
		title = fmt.Sprintf("Your request to join %s was declined", e.GroupName)
		body = "A moderator turned down your join request."
	}

	groupRelated := entities.RelatedTypeGroup
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		notification := &entities.Notification{
			RecipientID: e.UserID,
			Type:        notificationType,
			Priority:    entities.NotificationPriorityNormal,
			Title:       title,
			Body:        body,
			RelatedType: &groupRelated,
			RelatedID:   &e.GroupID,
		}
		if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
			return err
		}
		h.pusher.PushToUser(ctx, e.UserID, "notification", notification)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("groupID", e.GroupID).Error("Failed to handle membership decided event")
	}
}

// HandleBetCreated notifies group members about a new bet
func (h *NotificationEventHandler) HandleBetCreated(ctx context.Context, event events.Event) {
	e, ok := event.(events.BetCreatedEvent)
	if !ok {
		log.Errorf("HandleBetCreated received unexpected event type: %T", event)
		return
	}

	betRelated := entities.RelatedTypeBet
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		members, err := uow.MembershipRepository().ListByGroup(ctx, e.GroupID, entities.MembershipStatusApproved)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.UserID == e.CreatorID {
				continue
			}
			notification := &entities.Notification{
				RecipientID: m.UserID,
				Type:        entities.NotificationTypeBetCreated,
				Priority:    entities.NotificationPriorityNormal,
				Title:       fmt.Sprintf("New bet: %s", e.Title),
				Body:        "Place your stake before the bet closes.",
				RelatedType: &betRelated,
				RelatedID:   &e.BetID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, m.UserID, "notification", notification)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("betID", e.BetID).Error("Failed to handle bet created event")
	}
	h.pusher.PushToGroup(ctx, e.GroupID, "bet_created", e)
}

// HandleBetStateChange notifies participants when a bet closes or is cancelled
func (h *NotificationEventHandler) HandleBetStateChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BetStateChangeEvent)
	if !ok {
		log.Errorf("HandleBetStateChange received unexpected event type: %T", event)
		return
	}

	var notificationType entities.NotificationType
	var title, body string
	switch entities.BetStatus(e.NewStatus) {
	case entities.BetStatusClosed:
		notificationType = entities.NotificationTypeBetClosed
		title = fmt.Sprintf("Bet closed: %s", e.Title)
		body = "No more stakes are accepted. The outcome will settle your stake."
	case entities.BetStatusCancelled:
		notificationType = entities.NotificationTypeBetCancelled
		title = fmt.Sprintf("Bet cancelled: %s", e.Title)
		body = "All stakes were voided and insurance premiums refunded."
	default:
		h.pusher.PushToGroup(ctx, e.GroupID, "bet_state_change", e)
		return
	}

	betRelated := entities.RelatedTypeBet
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		detail, err := uow.BetRepository().GetDetailByID(ctx, e.BetID)
		if err != nil {
			return err
		}
		if detail == nil {
			return fmt.Errorf("bet %d not found", e.BetID)
		}
		for _, p := range detail.Participations {
			notification := &entities.Notification{
				RecipientID: p.UserID,
				Type:        notificationType,
				Priority:    entities.NotificationPriorityNormal,
				Title:       title,
				Body:        body,
				RelatedType: &betRelated,
				RelatedID:   &e.BetID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, p.UserID, "notification", notification)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("betID", e.BetID).Error("Failed to handle bet state change event")
	}
	h.pusher.PushToGroup(ctx, e.GroupID, "bet_state_change", e)
}

// HandleBetResolved notifies winners and losers about the outcome
func (h *NotificationEventHandler) HandleBetResolved(ctx context.Context, event events.Event) {
	e, ok := event.(events.BetResolvedEvent)
	if !ok {
		log.Errorf("HandleBetResolved received unexpected event type: %T", event)
		return
	}

	betRelated := entities.RelatedTypeBet
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		for _, winnerID := range e.WinnerIDs {
			title := fmt.Sprintf("You won: %s", e.Title)
			body := "The losers owe you the agreed stake."
			if payout, ok := e.PayoutDetails[winnerID]; ok {
				title = fmt.Sprintf("You won %d credits: %s", payout, e.Title)
				body = fmt.Sprintf("%d credits were added to your balance.", payout)
			}
			notification := &entities.Notification{
				RecipientID: winnerID,
				Type:        entities.NotificationTypeBetResolved,
				Priority:    entities.NotificationPriorityHigh,
				Title:       title,
				Body:        body,
				RelatedType: &betRelated,
				RelatedID:   &e.BetID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, winnerID, "notification", notification)
		}
		for _, loserID := range e.LoserIDs {
			notificationType := entities.NotificationTypeBetResolved
			title := fmt.Sprintf("You lost: %s", e.Title)
			body := "Your stake went to the winners."
			if e.StakeType == entities.StakeTypeSocial {
				// Losers of a social bet owe the forfeit
				notificationType = entities.NotificationTypeFulfillmentRequested
				title = fmt.Sprintf("Time to pay up: %s", e.Title)
				body = "Honor the stake; the winners will confirm once you have."
			}
			notification := &entities.Notification{
				RecipientID: loserID,
				Type:        notificationType,
				Priority:    entities.NotificationPriorityHigh,
				Title:       title,
				Body:        body,
				RelatedType: &betRelated,
				RelatedID:   &e.BetID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, loserID, "notification", notification)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("betID", e.BetID).Error("Failed to handle bet resolved event")
	}
	h.pusher.PushToGroup(ctx, e.GroupID, "bet_resolved", e)
}

// HandleFulfillmentConfirmed notifies losers once every winner has confirmed
func (h *NotificationEventHandler) HandleFulfillmentConfirmed(ctx context.Context, event events.Event) {
	e, ok := event.(events.FulfillmentConfirmedEvent)
	if !ok {
		log.Errorf("HandleFulfillmentConfirmed received unexpected event type: %T", event)
		return
	}

	h.pusher.PushToGroup(ctx, e.GroupID, "fulfillment_confirmed", e)
	if !e.AllConfirmed {
		return
	}

	betRelated := entities.RelatedTypeBet
	err := h.withUow(ctx, func(uow interfaces.UnitOfWork) error {
		for _, loserID := range e.LoserIDs {
			notification := &entities.Notification{
				RecipientID: loserID,
				Type:        entities.NotificationTypeFulfillmentComplete,
				Priority:    entities.NotificationPriorityNormal,
				Title:       fmt.Sprintf("Debt settled: %s", e.Title),
				Body:        "Every winner confirmed the stake was honored.",
				RelatedType: &betRelated,
				RelatedID:   &e.BetID,
			}
			if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
				return err
			}
			h.pusher.PushToUser(ctx, loserID, "notification", notification)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("betID", e.BetID).Error("Failed to handle fulfillment confirmed event")
	}
}

// HandleMessagePosted pushes chat messages to the group's live watchers
func (h *NotificationEventHandler) HandleMessagePosted(ctx context.Context, event events.Event) {
	e, ok := event.(events.MessagePostedEvent)
	if !ok {
		log.Errorf("HandleMessagePosted received unexpected event type: %T", event)
		return
	}
	h.pusher.PushToGroup(ctx, e.GroupID, "message", e)
}

// HandleBalanceChange pushes the new balance to the affected user
func (h *NotificationEventHandler) HandleBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		log.Errorf("HandleBalanceChange received unexpected event type: %T", event)
		return
	}
	h.pusher.PushToUser(ctx, e.UserID, "balance", e)
}

// withUow runs fn inside a fresh unit of work
func (h *NotificationEventHandler) withUow(ctx context.Context, fn func(uow interfaces.UnitOfWork) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}
