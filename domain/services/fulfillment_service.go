package services

import (
	"context"
	"fmt"
	"time"

	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
)

type fulfillmentService struct {
	fulfillmentRepo interfaces.FulfillmentRepository
	betRepo         interfaces.BetRepository
	eventPublisher  interfaces.EventPublisher
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(
	fulfillmentRepo interfaces.FulfillmentRepository,
	betRepo interfaces.BetRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.FulfillmentService {
	return &fulfillmentService{
		fulfillmentRepo: fulfillmentRepo,
		betRepo:         betRepo,
		eventPublisher:  eventPublisher,
	}
}

// ConfirmFulfillment records a winner's confirmation; rejects duplicates
func (s *fulfillmentService) ConfirmFulfillment(ctx context.Context, betID, winnerID int64) (*entities.BetFulfillment, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, domain.NewNotFoundError("bet %d not found", betID)
	}
	if bet.FulfillmentStatus != entities.FulfillmentStatusPending {
		return nil, domain.NewConflictError("bet has no pending fulfillment")
	}

	fulfillment, err := s.fulfillmentRepo.GetByBetAndWinner(ctx, betID, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment: %w", err)
	}
	if fulfillment == nil {
		return nil, domain.NewForbiddenError("only winners confirm fulfillment")
	}
	if fulfillment.Confirmed {
		return nil, domain.NewConflictError("fulfillment already confirmed")
	}

	fulfillment.Confirm(time.Now())
	if err := s.fulfillmentRepo.Update(ctx, fulfillment); err != nil {
		return nil, fmt.Errorf("failed to update fulfillment: %w", err)
	}

	confirmed, err := s.fulfillmentRepo.CountConfirmed(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to count confirmations: %w", err)
	}
	all, err := s.fulfillmentRepo.ListByBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfillments: %w", err)
	}

	allConfirmed := confirmed == len(all)
	if allConfirmed {
		bet.FulfillmentStatus = entities.FulfillmentStatusFulfilled
		if err := s.betRepo.Update(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to update bet: %w", err)
		}
	}

	var loserIDs []int64
	if allConfirmed {
		detail, err := s.betRepo.GetDetailByID(ctx, betID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bet detail: %w", err)
		}
		if detail != nil {
			for _, p := range detail.Participations {
				if p.Status == entities.ParticipationStatusLost {
					loserIDs = append(loserIDs, p.UserID)
				}
			}
		}
	}

	if err := s.eventPublisher.Publish(events.FulfillmentConfirmedEvent{
		BetID:        betID,
		GroupID:      bet.GroupID,
		Title:        bet.Title,
		WinnerID:     winnerID,
		AllConfirmed: allConfirmed,
		LoserIDs:     loserIDs,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish fulfillment confirmed event: %w", err)
	}

	return fulfillment, nil
}

// ListFulfillments returns the fulfillment rows for a bet
func (s *fulfillmentService) ListFulfillments(ctx context.Context, betID int64) ([]*entities.BetFulfillment, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, domain.NewNotFoundError("bet %d not found", betID)
	}
	fulfillments, err := s.fulfillmentRepo.ListByBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfillments: %w", err)
	}
	return fulfillments, nil
}
