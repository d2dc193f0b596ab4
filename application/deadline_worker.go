package application

import (
	"context"
	"fmt"
	"time"

	"betmate/domain/interfaces"
	"betmate/domain/services"

	log "github.com/sirupsen/logrus"
)

// DeadlineWorker periodically closes open bets whose deadline has passed
type DeadlineWorker struct {
	uowFactory interfaces.UnitOfWorkFactory
	interval   time.Duration
}

// NewDeadlineWorker creates a new deadline worker
func NewDeadlineWorker(uowFactory interfaces.UnitOfWorkFactory, interval time.Duration) *DeadlineWorker {
	return &DeadlineWorker{
		uowFactory: uowFactory,
		interval:   interval,
	}
}

// Start begins the sweep loop and returns a stop function
func (w *DeadlineWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("Deadline worker started, sweeping every %v", w.interval)

		for {
			select {
			case <-ctx.Done():
				log.Info("Deadline worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Deadline worker shutting down (stop requested)...")
				return
			case <-time.After(w.interval):
				if err := w.sweep(ctx); err != nil {
					log.Errorf("Error sweeping expired bets: %v", err)
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// sweep snapshots the expired open bets and closes each one in its own
// transaction; a failing bet is logged and skipped, not the whole batch
func (w *DeadlineWorker) sweep(ctx context.Context) error {
	expired, err := w.expiredBetIDs(ctx)
	if err != nil {
		return err
	}

	closed := 0
	for _, betID := range expired {
		if err := w.closeExpiredBet(ctx, betID); err != nil {
			log.WithError(err).WithField("betID", betID).Error("Failed to close expired bet")
			continue
		}
		closed++
	}

	if closed > 0 {
		log.WithField("count", closed).Info("Closed expired bets")
	}
	return nil
}

func (w *DeadlineWorker) expiredBetIDs(ctx context.Context) ([]int64, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := uow.BetRepository().GetExpiredOpenBets(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	ids := make([]int64, 0, len(expired))
	for _, bet := range expired {
		ids = append(ids, bet.ID)
	}
	return ids, nil
}

func (w *DeadlineWorker) closeExpiredBet(ctx context.Context, betID int64) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	betService := services.NewBetService(
		uow.BetRepository(),
		uow.UserRepository(),
		uow.BalanceHistoryRepository(),
		uow.MembershipRepository(),
		uow.FulfillmentRepository(),
		uow.EventBus(),
	)

	if err := betService.CloseExpiredBet(ctx, betID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
