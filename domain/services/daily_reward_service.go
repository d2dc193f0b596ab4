package services

import (
	"context"
	"fmt"
	"time"

	"betmate/config"
	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/interfaces"
)

type dailyRewardService struct {
	config             *config.Config
	userRepo           interfaces.UserRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewDailyRewardService creates a new daily reward service
func NewDailyRewardService(
	userRepo interfaces.UserRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.DailyRewardService {
	return &dailyRewardService{
		config:             config.Get(),
		userRepo:           userRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// Claim grants the daily reward; rejects a second claim on the same UTC day
func (s *dailyRewardService) Claim(ctx context.Context, userID int64) (*entities.BalanceHistory, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user %d not found", userID)
	}

	now := time.Now()
	if user.HasClaimedDailyReward(now) {
		return nil, domain.NewConflictError("daily reward already claimed today")
	}

	if user.ContinuesDailyStreak(now) {
		user.DailyStreak++
	} else {
		user.DailyStreak = 1
	}

	reward := s.config.DailyRewardBase + s.config.DailyRewardBonus*int64(user.DailyStreak-1)
	if reward > s.config.DailyRewardCap {
		reward = s.config.DailyRewardCap
	}

	user.LastDailyClaim = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update daily claim: %w", err)
	}

	history, err := recordBalanceChange(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
		user, reward, entities.TransactionTypeDailyReward, nil, nil,
		map[string]any{"streak": user.DailyStreak})
	if err != nil {
		return nil, err
	}

	return history, nil
}
