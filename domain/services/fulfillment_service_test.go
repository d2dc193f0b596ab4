package services

import (
	"context"
	"testing"
	"time"

	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
	"betmate/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fulfillmentServiceMocks struct {
	fulfillmentRepo *testhelpers.MockFulfillmentRepository
	betRepo         *testhelpers.MockBetRepository
	publisher       *testhelpers.MockEventPublisher
}

func newFulfillmentServiceWithMocks() (interfaces.FulfillmentService, *fulfillmentServiceMocks) {
	mocks := &fulfillmentServiceMocks{
		fulfillmentRepo: new(testhelpers.MockFulfillmentRepository),
		betRepo:         new(testhelpers.MockBetRepository),
		publisher:       new(testhelpers.MockEventPublisher),
	}
	service := NewFulfillmentService(mocks.fulfillmentRepo, mocks.betRepo, mocks.publisher)
	return service, mocks
}

func pendingSocialBet(betID int64) *entities.Bet {
	return &entities.Bet{
		ID:                betID,
		GroupID:           1,
		Title:             "Loser cooks dinner",
		Status:            entities.BetStatusResolved,
		StakeType:         entities.StakeTypeSocial,
		FulfillmentStatus: entities.FulfillmentStatusPending,
	}
}

func TestFulfillmentService_ConfirmFulfillment(t *testing.T) {
	ctx := context.Background()

	t.Run("partial confirmation keeps the bet pending", func(t *testing.T) {
		service, mocks := newFulfillmentServiceWithMocks()
		bet := pendingSocialBet(5)
		row := &entities.BetFulfillment{ID: 1, BetID: 5, WinnerID: 20}

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)
		mocks.fulfillmentRepo.On("GetByBetAndWinner", mock.Anything, int64(5), int64(20)).Return(row, nil)
		mocks.fulfillmentRepo.On("Update", mock.Anything, row).Return(nil)
		mocks.fulfillmentRepo.On("CountConfirmed", mock.Anything, int64(5)).Return(1, nil)
		mocks.fulfillmentRepo.On("ListByBet", mock.Anything, int64(5)).Return([]*entities.BetFulfillment{
			row,
			{ID: 2, BetID: 5, WinnerID: 21},
		}, nil)
		mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.FulfillmentConfirmedEvent)
			return ok && !event.AllConfirmed
		})).Return(nil)

		fulfillment, err := service.ConfirmFulfillment(ctx, 5, 20)

		require.NoError(t, err)
		assert.True(t, fulfillment.Confirmed)
		assert.NotNil(t, fulfillment.ConfirmedAt)
		assert.Equal(t, entities.FulfillmentStatusPending, bet.FulfillmentStatus)
	})

	t.Run("last confirmation settles the debt", func(t *testing.T) {
		service, mocks := newFulfillmentServiceWithMocks()
		bet := pendingSocialBet(5)
		row := &entities.BetFulfillment{ID: 2, BetID: 5, WinnerID: 21}
		now := time.Now()
		other := &entities.BetFulfillment{ID: 1, BetID: 5, WinnerID: 20, Confirmed: true, ConfirmedAt: &now}

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)
		mocks.fulfillmentRepo.On("GetByBetAndWinner", mock.Anything, int64(5), int64(21)).Return(row, nil)
		mocks.fulfillmentRepo.On("Update", mock.Anything, row).Return(nil)
		mocks.fulfillmentRepo.On("CountConfirmed", mock.Anything, int64(5)).Return(2, nil)
		mocks.fulfillmentRepo.On("ListByBet", mock.Anything, int64(5)).Return([]*entities.BetFulfillment{other, row}, nil)
		mocks.betRepo.On("Update", mock.Anything, bet).Return(nil)
		mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(&entities.BetDetail{
			Bet: bet,
			Participations: []*entities.BetParticipation{
				{UserID: 20, Status: entities.ParticipationStatusWon},
				{UserID: 30, Status: entities.ParticipationStatusLost},
			},
		}, nil)
		mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.FulfillmentConfirmedEvent)
			return ok && event.AllConfirmed && len(event.LoserIDs) == 1 && event.LoserIDs[0] == 30
		})).Return(nil)

		_, err := service.ConfirmFulfillment(ctx, 5, 21)

		require.NoError(t, err)
		assert.Equal(t, entities.FulfillmentStatusFulfilled, bet.FulfillmentStatus)

		mocks.publisher.AssertExpectations(t)
	})

	t.Run("non-winner forbidden", func(t *testing.T) {
		service, mocks := newFulfillmentServiceWithMocks()

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(pendingSocialBet(5), nil)
		mocks.fulfillmentRepo.On("GetByBetAndWinner", mock.Anything, int64(5), int64(99)).Return(nil, nil)

		fulfillment, err := service.ConfirmFulfillment(ctx, 5, 99)

		assert.Nil(t, fulfillment)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("double confirmation rejected", func(t *testing.T) {
		service, mocks := newFulfillmentServiceWithMocks()
		now := time.Now()
		row := &entities.BetFulfillment{ID: 1, BetID: 5, WinnerID: 20, Confirmed: true, ConfirmedAt: &now}

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(pendingSocialBet(5), nil)
		mocks.fulfillmentRepo.On("GetByBetAndWinner", mock.Anything, int64(5), int64(20)).Return(row, nil)

		fulfillment, err := service.ConfirmFulfillment(ctx, 5, 20)

		assert.Nil(t, fulfillment)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})

	t.Run("credit bets have nothing to fulfill", func(t *testing.T) {
		service, mocks := newFulfillmentServiceWithMocks()
		bet := pendingSocialBet(5)
		bet.StakeType = entities.StakeTypeCredit
		bet.FulfillmentStatus = entities.FulfillmentStatusNone

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)

		fulfillment, err := service.ConfirmFulfillment(ctx, 5, 20)

		assert.Nil(t, fulfillment)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})
}
