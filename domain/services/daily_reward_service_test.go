package services

import (
	"context"
	"testing"
	"time"

	"betmate/config"
	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/interfaces"
	"betmate/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDailyRewardServiceWithMocks() (interfaces.DailyRewardService, *userServiceMocks) {
	mocks := &userServiceMocks{
		userRepo:    new(testhelpers.MockUserRepository),
		historyRepo: new(testhelpers.MockBalanceHistoryRepository),
		publisher:   new(testhelpers.MockEventPublisher),
	}
	service := NewDailyRewardService(mocks.userRepo, mocks.historyRepo, mocks.publisher)
	return service, mocks
}

func TestDailyRewardService_Claim(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("first claim starts the streak", func(t *testing.T) {
		service, mocks := newDailyRewardServiceWithMocks()
		user := &entities.User{ID: 1, Balance: 1000, AvailableBalance: 1000}

		mocks.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
		mocks.userRepo.On("Update", mock.Anything, user).Return(nil)
		mocks.userRepo.On("UpdateBalance", mock.Anything, int64(1), int64(1050)).Return(nil)
		mocks.historyRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeDailyReward && h.ChangeAmount == 50
		})).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		history, err := service.Claim(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(50), history.ChangeAmount)
		assert.Equal(t, 1, user.DailyStreak)
		assert.NotNil(t, user.LastDailyClaim)

		mocks.userRepo.AssertExpectations(t)
	})

	t.Run("consecutive day grows the reward", func(t *testing.T) {
		service, mocks := newDailyRewardServiceWithMocks()
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		user := &entities.User{ID: 1, Balance: 1000, AvailableBalance: 1000, DailyStreak: 3, LastDailyClaim: &yesterday}

		// Streak reaches 4: 50 base + 10*3 bonus
		mocks.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
		mocks.userRepo.On("Update", mock.Anything, user).Return(nil)
		mocks.userRepo.On("UpdateBalance", mock.Anything, int64(1), int64(1080)).Return(nil)
		mocks.historyRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		history, err := service.Claim(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(80), history.ChangeAmount)
		assert.Equal(t, 4, user.DailyStreak)
	})

	t.Run("reward is capped", func(t *testing.T) {
		service, mocks := newDailyRewardServiceWithMocks()
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		// Streak 15 would earn 190 uncapped
		user := &entities.User{ID: 1, Balance: 1000, AvailableBalance: 1000, DailyStreak: 14, LastDailyClaim: &yesterday}

		mocks.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
		mocks.userRepo.On("Update", mock.Anything, user).Return(nil)
		mocks.userRepo.On("UpdateBalance", mock.Anything, int64(1), int64(1150)).Return(nil)
		mocks.historyRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		history, err := service.Claim(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(150), history.ChangeAmount)
	})

	t.Run("missed day resets the streak", func(t *testing.T) {
		service, mocks := newDailyRewardServiceWithMocks()
		threeDaysAgo := time.Now().UTC().AddDate(0, 0, -3)
		user := &entities.User{ID: 1, Balance: 1000, AvailableBalance: 1000, DailyStreak: 7, LastDailyClaim: &threeDaysAgo}

		mocks.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
		mocks.userRepo.On("Update", mock.Anything, user).Return(nil)
		mocks.userRepo.On("UpdateBalance", mock.Anything, int64(1), int64(1050)).Return(nil)
		mocks.historyRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		history, err := service.Claim(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(50), history.ChangeAmount)
		assert.Equal(t, 1, user.DailyStreak)
	})

	t.Run("second claim same day rejected", func(t *testing.T) {
		service, mocks := newDailyRewardServiceWithMocks()
		now := time.Now().UTC()
		user := &entities.User{ID: 1, Balance: 1050, AvailableBalance: 1050, DailyStreak: 1, LastDailyClaim: &now}

		mocks.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)

		history, err := service.Claim(ctx, 1)

		assert.Nil(t, history)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})
}
