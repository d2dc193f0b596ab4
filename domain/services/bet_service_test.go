package services

import (
	"context"
	"testing"
	"time"

	"betmate/config"
	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
	"betmate/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type betServiceMocks struct {
	betRepo         *testhelpers.MockBetRepository
	userRepo        *testhelpers.MockUserRepository
	historyRepo     *testhelpers.MockBalanceHistoryRepository
	membershipRepo  *testhelpers.MockMembershipRepository
	fulfillmentRepo *testhelpers.MockFulfillmentRepository
	publisher       *testhelpers.MockEventPublisher
}

func newBetServiceWithMocks() (interfaces.BetService, *betServiceMocks) {
	mocks := &betServiceMocks{
		betRepo:         new(testhelpers.MockBetRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		historyRepo:     new(testhelpers.MockBalanceHistoryRepository),
		membershipRepo:  new(testhelpers.MockMembershipRepository),
		fulfillmentRepo: new(testhelpers.MockFulfillmentRepository),
		publisher:       new(testhelpers.MockEventPublisher),
	}
	service := NewBetService(
		mocks.betRepo,
		mocks.userRepo,
		mocks.historyRepo,
		mocks.membershipRepo,
		mocks.fulfillmentRepo,
		mocks.publisher,
	)
	return service, mocks
}

func approvedMembership(groupID, userID int64, role entities.MembershipRole) *entities.GroupMembership {
	return &entities.GroupMembership{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
		Status:  entities.MembershipStatusApproved,
	}
}

func validCreateParams() interfaces.CreateBetParams {
	return interfaces.CreateBetParams{
		GroupID:          1,
		CreatorID:        10,
		Title:            "Will it rain tomorrow",
		BetType:          entities.BetTypeBinary,
		StakeType:        entities.StakeTypeCredit,
		ResolutionMethod: entities.ResolutionMethodSelf,
		ClosesAt:         time.Now().Add(24 * time.Hour),
	}
}

func TestBetService_CreateBet_Validation(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(p *interfaces.CreateBetParams)
	}{
		{
			name:   "empty title",
			modify: func(p *interfaces.CreateBetParams) { p.Title = "  " },
		},
		{
			name:   "invalid bet type",
			modify: func(p *interfaces.CreateBetParams) { p.BetType = "COIN_FLIP" },
		},
		{
			name: "binary with three options",
			modify: func(p *interfaces.CreateBetParams) {
				p.Options = []string{"Yes", "No", "Maybe"}
			},
		},
		{
			name: "multiple choice with one option",
			modify: func(p *interfaces.CreateBetParams) {
				p.BetType = entities.BetTypeMultipleChoice
				p.Options = []string{"Only"}
			},
		},
		{
			name: "duplicate options",
			modify: func(p *interfaces.CreateBetParams) {
				p.BetType = entities.BetTypeMultipleChoice
				p.Options = []string{"Red", "Blue", "red"}
			},
		},
		{
			name: "prediction with options",
			modify: func(p *interfaces.CreateBetParams) {
				p.BetType = entities.BetTypePrediction
				p.Options = []string{"Yes", "No"}
			},
		},
		{
			name: "prediction with participant vote",
			modify: func(p *interfaces.CreateBetParams) {
				p.BetType = entities.BetTypePrediction
				p.ResolutionMethod = entities.ResolutionMethodParticipantVote
			},
		},
		{
			name: "social stake without description",
			modify: func(p *interfaces.CreateBetParams) {
				p.StakeType = entities.StakeTypeSocial
				p.StakeDescription = ""
			},
		},
		{
			name: "assigned resolvers without resolvers",
			modify: func(p *interfaces.CreateBetParams) {
				p.ResolutionMethod = entities.ResolutionMethodAssignedResolvers
				p.ResolverIDs = nil
			},
		},
		{
			name:   "deadline in the past",
			modify: func(p *interfaces.CreateBetParams) { p.ClosesAt = time.Now().Add(-time.Hour) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newBetServiceWithMocks()
			params := validCreateParams()
			tt.modify(&params)

			detail, err := service.CreateBet(ctx, params)

			assert.Nil(t, detail)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestBetService_CreateBet_Success(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	params := validCreateParams()

	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(10)).
		Return(approvedMembership(1, 10, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("CreateWithOptions", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mocks.publisher.On("Publish", mock.Anything).Return(nil)

	detail, err := service.CreateBet(ctx, params)

	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, entities.BetStatusOpen, detail.Bet.Status)
	assert.Equal(t, entities.FulfillmentStatusNone, detail.Bet.FulfillmentStatus)

	// Binary bets default to Yes/No options
	require.Len(t, detail.Options, 2)
	assert.Equal(t, "Yes", detail.Options[0].OptionText)
	assert.Equal(t, "No", detail.Options[1].OptionText)

	mocks.betRepo.AssertExpectations(t)
	mocks.membershipRepo.AssertExpectations(t)
}

func TestBetService_CreateBet_NonMemberForbidden(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()

	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(10)).Return(nil, nil)

	detail, err := service.CreateBet(ctx, validCreateParams())

	assert.Nil(t, detail)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func openCreditBetDetail(betID int64) *entities.BetDetail {
	bet := &entities.Bet{
		ID:               betID,
		GroupID:          1,
		CreatorID:        10,
		Title:            "Test bet",
		BetType:          entities.BetTypeBinary,
		Status:           entities.BetStatusOpen,
		StakeType:        entities.StakeTypeCredit,
		ResolutionMethod: entities.ResolutionMethodSelf,
		ClosesAt:         time.Now().Add(time.Hour),
	}
	return &entities.BetDetail{
		Bet: bet,
		Options: []*entities.BetOption{
			{ID: 1, BetID: betID, OptionText: "Yes", OptionOrder: 0},
			{ID: 2, BetID: betID, OptionText: "No", OptionOrder: 1},
		},
	}
}

func TestBetService_PlaceParticipation_Success(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	optionID := int64(1)
	user := &entities.User{ID: 20, Balance: 1000, AvailableBalance: 1000}

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)
	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(20)).
		Return(approvedMembership(1, 20, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("GetParticipation", mock.Anything, int64(5), int64(20)).Return(nil, nil)
	mocks.userRepo.On("GetByID", mock.Anything, int64(20)).Return(user, nil)
	mocks.betRepo.On("SaveParticipation", mock.Anything, mock.Anything).Return(nil)
	mocks.betRepo.On("UpdateOptionTotal", mock.Anything, int64(1), int64(200)).Return(nil)
	mocks.betRepo.On("Update", mock.Anything, detail.Bet).Return(nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 200, false)

	require.NoError(t, err)
	assert.Equal(t, int64(200), participation.Amount)
	assert.Equal(t, entities.ParticipationStatusActive, participation.Status)
	assert.False(t, participation.Insured)

	// Stake is reserved, not withdrawn
	assert.Equal(t, int64(1000), user.Balance)
	assert.Equal(t, int64(200), detail.Bet.TotalPot)
	assert.Equal(t, int64(200), detail.Options[0].TotalAmount)

	mocks.betRepo.AssertExpectations(t)
}

func TestBetService_PlaceParticipation_InsuranceChargesPremium(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	optionID := int64(1)
	user := &entities.User{ID: 20, Balance: 1000, AvailableBalance: 1000}

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)
	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(20)).
		Return(approvedMembership(1, 20, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("GetParticipation", mock.Anything, int64(5), int64(20)).Return(nil, nil)
	mocks.userRepo.On("GetByID", mock.Anything, int64(20)).Return(user, nil)
	mocks.userRepo.On("UpdateBalance", mock.Anything, int64(20), int64(980)).Return(nil)
	mocks.historyRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.TransactionType == entities.TransactionTypeInsurancePaid && h.ChangeAmount == -20
	})).Return(nil)
	mocks.publisher.On("Publish", mock.Anything).Return(nil)
	mocks.betRepo.On("SaveParticipation", mock.Anything, mock.Anything).Return(nil)
	mocks.betRepo.On("UpdateOptionTotal", mock.Anything, int64(1), int64(200)).Return(nil)
	mocks.betRepo.On("Update", mock.Anything, detail.Bet).Return(nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 200, true)

	require.NoError(t, err)
	assert.True(t, participation.Insured)
	assert.Equal(t, int64(20), participation.PremiumPaid)
	assert.Equal(t, int64(980), user.Balance)

	mocks.userRepo.AssertExpectations(t)
	mocks.historyRepo.AssertExpectations(t)
}

func TestBetService_PlaceParticipation_InsufficientBalance(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	optionID := int64(1)
	// Most of the balance is already reserved in other open bets
	user := &entities.User{ID: 20, Balance: 1000, AvailableBalance: 100}

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)
	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(20)).
		Return(approvedMembership(1, 20, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("GetParticipation", mock.Anything, int64(5), int64(20)).Return(nil, nil)
	mocks.userRepo.On("GetByID", mock.Anything, int64(20)).Return(user, nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 200, false)

	assert.Nil(t, participation)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestBetService_PlaceParticipation_IncreaseOnlyRequiresDelta(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	optionID := int64(1)
	existing := &entities.BetParticipation{
		BetID:    5,
		UserID:   20,
		OptionID: &optionID,
		Amount:   200,
		Status:   entities.ParticipationStatusActive,
	}
	detail.Participations = []*entities.BetParticipation{existing}
	detail.Bet.TotalPot = 200
	detail.Options[0].TotalAmount = 200
	// 200 reserved by the existing stake; raising to 250 needs only 50 more
	user := &entities.User{ID: 20, Balance: 1000, AvailableBalance: 60}

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)
	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(20)).
		Return(approvedMembership(1, 20, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("GetParticipation", mock.Anything, int64(5), int64(20)).Return(existing, nil)
	mocks.userRepo.On("GetByID", mock.Anything, int64(20)).Return(user, nil)
	mocks.betRepo.On("SaveParticipation", mock.Anything, existing).Return(nil)
	mocks.betRepo.On("UpdateOptionTotal", mock.Anything, int64(1), int64(250)).Return(nil)
	mocks.betRepo.On("Update", mock.Anything, detail.Bet).Return(nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 250, false)

	require.NoError(t, err)
	assert.Equal(t, int64(250), participation.Amount)
	assert.Equal(t, int64(250), detail.Bet.TotalPot)
}

func TestBetService_PlaceParticipation_SocialIgnoresStake(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	detail.Bet.StakeType = entities.StakeTypeSocial
	detail.Bet.StakeDescription = "loser buys coffee"
	optionID := int64(2)
	user := &entities.User{ID: 20, Balance: 0, AvailableBalance: 0}

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)
	mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(20)).
		Return(approvedMembership(1, 20, entities.MembershipRoleMember), nil)
	mocks.betRepo.On("GetParticipation", mock.Anything, int64(5), int64(20)).Return(nil, nil)
	mocks.userRepo.On("GetByID", mock.Anything, int64(20)).Return(user, nil)
	mocks.betRepo.On("SaveParticipation", mock.Anything, mock.Anything).Return(nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 500, true)

	require.NoError(t, err)
	assert.Equal(t, int64(0), participation.Amount)
	assert.False(t, participation.Insured)
}

func TestBetService_PlaceParticipation_ClosedBetRejected(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service, mocks := newBetServiceWithMocks()
	detail := openCreditBetDetail(5)
	detail.Bet.Status = entities.BetStatusClosed
	optionID := int64(1)

	mocks.betRepo.On("GetDetailByID", mock.Anything, int64(5)).Return(detail, nil)

	participation, err := service.PlaceParticipation(ctx, 5, 20, &optionID, nil, 100, false)

	assert.Nil(t, participation)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestBetService_CloseBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("creator closes early", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := openCreditBetDetail(5).Bet

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)
		mocks.betRepo.On("Update", mock.Anything, bet).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		err := service.CloseBet(ctx, 5, 10)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusClosed, bet.Status)
	})

	t.Run("regular member cannot close", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := openCreditBetDetail(5).Bet

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)
		mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(99)).
			Return(approvedMembership(1, 99, entities.MembershipRoleMember), nil)

		err := service.CloseBet(ctx, 5, 99)

		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("admin can close", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := openCreditBetDetail(5).Bet

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)
		mocks.membershipRepo.On("Get", mock.Anything, int64(1), int64(99)).
			Return(approvedMembership(1, 99, entities.MembershipRoleAdmin), nil)
		mocks.betRepo.On("Update", mock.Anything, bet).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		err := service.CloseBet(ctx, 5, 99)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusClosed, bet.Status)
	})

	t.Run("already closed", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := openCreditBetDetail(5).Bet
		bet.Status = entities.BetStatusClosed

		mocks.betRepo.On("GetByID", mock.Anything, int64(5)).Return(bet, nil)

		err := service.CloseBet(ctx, 5, 10)

		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})
}

func TestBetService_CloseExpiredBet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("closes a bet past its deadline", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := &entities.Bet{
			ID:       1,
			GroupID:  1,
			Status:   entities.BetStatusOpen,
			Title:    "one",
			ClosesAt: time.Now().Add(-time.Minute),
		}

		mocks.betRepo.On("GetByID", mock.Anything, int64(1)).Return(bet, nil)
		mocks.betRepo.On("Update", mock.Anything, bet).Return(nil)
		mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			change, ok := e.(events.BetStateChangeEvent)
			return ok && change.BetID == 1 && change.NewStatus == string(entities.BetStatusClosed)
		})).Return(nil)

		err := service.CloseExpiredBet(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusClosed, bet.Status)
		mocks.betRepo.AssertExpectations(t)
	})

	t.Run("leaves a bet before its deadline alone", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := &entities.Bet{
			ID:       2,
			Status:   entities.BetStatusOpen,
			ClosesAt: time.Now().Add(time.Hour),
		}

		mocks.betRepo.On("GetByID", mock.Anything, int64(2)).Return(bet, nil)

		err := service.CloseExpiredBet(ctx, 2)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusOpen, bet.Status)
		mocks.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("leaves an already closed bet alone", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()
		bet := &entities.Bet{
			ID:       3,
			Status:   entities.BetStatusClosed,
			ClosesAt: time.Now().Add(-time.Minute),
		}

		mocks.betRepo.On("GetByID", mock.Anything, int64(3)).Return(bet, nil)

		err := service.CloseExpiredBet(ctx, 3)

		require.NoError(t, err)
		mocks.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing bet is a no-op", func(t *testing.T) {
		service, mocks := newBetServiceWithMocks()

		mocks.betRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, nil)

		err := service.CloseExpiredBet(ctx, 9)

		require.NoError(t, err)
		mocks.betRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
