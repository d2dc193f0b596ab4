package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"betmate/config"
	"betmate/domain/entities"
	"betmate/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeadlineWorker_Sweep(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("closes every expired bet", func(t *testing.T) {
		factory := testhelpers.NewMockUnitOfWorkFactory()
		worker := NewDeadlineWorker(factory, time.Minute)

		expired := []*entities.Bet{
			{ID: 1, GroupID: 1, Status: entities.BetStatusOpen, ClosesAt: time.Now().Add(-time.Hour)},
			{ID: 2, GroupID: 1, Status: entities.BetStatusOpen, ClosesAt: time.Now().Add(-time.Hour)},
		}
		betRepo := factory.UnitOfWork.BetRepo
		betRepo.On("GetExpiredOpenBets", mock.Anything, mock.Anything).Return(expired, nil)
		betRepo.On("GetByID", mock.Anything, int64(1)).Return(expired[0], nil)
		betRepo.On("GetByID", mock.Anything, int64(2)).Return(expired[1], nil)
		betRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		factory.UnitOfWork.Publisher.On("Publish", mock.Anything).Return(nil)

		err := worker.sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusClosed, expired[0].Status)
		assert.Equal(t, entities.BetStatusClosed, expired[1].Status)
	})

	t.Run("one failing bet does not stop the rest", func(t *testing.T) {
		factory := testhelpers.NewMockUnitOfWorkFactory()
		worker := NewDeadlineWorker(factory, time.Minute)

		expired := []*entities.Bet{
			{ID: 1, GroupID: 1, Status: entities.BetStatusOpen, ClosesAt: time.Now().Add(-time.Hour)},
			{ID: 2, GroupID: 1, Status: entities.BetStatusOpen, ClosesAt: time.Now().Add(-time.Hour)},
		}
		betRepo := factory.UnitOfWork.BetRepo
		betRepo.On("GetExpiredOpenBets", mock.Anything, mock.Anything).Return(expired, nil)
		betRepo.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("connection reset"))
		betRepo.On("GetByID", mock.Anything, int64(2)).Return(expired[1], nil)
		betRepo.On("Update", mock.Anything, expired[1]).Return(nil)
		factory.UnitOfWork.Publisher.On("Publish", mock.Anything).Return(nil)

		err := worker.sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, entities.BetStatusOpen, expired[0].Status)
		assert.Equal(t, entities.BetStatusClosed, expired[1].Status)
	})
}
