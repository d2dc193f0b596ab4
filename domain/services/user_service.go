package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"betmate/config"
	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
)

const (
	maxUsernameLength    = 32
	maxDisplayNameLength = 64
)

type userService struct {
	config             *config.Config
	userRepo           interfaces.UserRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewUserService creates a new user service
func NewUserService(
	userRepo interfaces.UserRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.UserService {
	return &userService{
		config:             config.Get(),
		userRepo:           userRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// Register creates a new account with the configured starting balance
func (s *userService) Register(ctx context.Context, username, displayName string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username cannot be empty")
	}
	if len(username) > maxUsernameLength {
		return nil, domain.NewValidationError("username cannot exceed %d characters", maxUsernameLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if len(displayName) > maxDisplayNameLength {
		return nil, domain.NewValidationError("display name cannot exceed %d characters", maxDisplayNameLength)
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username availability: %w", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("username %s is already taken", username)
	}

	user, err := s.userRepo.Create(ctx, username, displayName, s.config.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &entities.BalanceHistory{
		UserID:          user.ID,
		BalanceBefore:   0,
		BalanceAfter:    s.config.StartingBalance,
		ChangeAmount:    s.config.StartingBalance,
		TransactionType: entities.TransactionTypeInitial,
	}
	if err := s.balanceHistoryRepo.Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := s.eventPublisher.Publish(events.UserCreatedEvent{
		UserID:         user.ID,
		Username:       user.Username,
		InitialBalance: user.Balance,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish user created event: %w", err)
	}

	return user, nil
}

// GetUser retrieves an active user
func (s *userService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user %d not found", userID)
	}
	return user, nil
}

// UpdateProfile changes the display name
func (s *userService) UpdateProfile(ctx context.Context, userID int64, displayName string) (*entities.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.NewValidationError("display name cannot be empty")
	}
	if len(displayName) > maxDisplayNameLength {
		return nil, domain.NewValidationError("display name cannot exceed %d characters", maxDisplayNameLength)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = displayName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Deactivate soft-deletes an account
func (s *userService) Deactivate(ctx context.Context, userID int64) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.GetPendingAmount() > 0 {
		return domain.NewConflictError("cannot deactivate while credits are staked in open bets")
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// GetTransactions returns the user's balance history, newest first
func (s *userService) GetTransactions(ctx context.Context, userID int64, limit int, from, to *time.Time) ([]*entities.BalanceHistory, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	if (from == nil) != (to == nil) {
		return nil, domain.NewValidationError("from and to must be provided together")
	}
	if from != nil {
		if to.Before(*from) {
			return nil, domain.NewValidationError("to cannot be before from")
		}
		history, err := s.balanceHistoryRepo.GetByDateRange(ctx, userID, *from, *to)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance history: %w", err)
		}
		return history, nil
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	history, err := s.balanceHistoryRepo.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

// recordBalanceChange persists a ledger entry, updates the stored balance and
// publishes the matching event. Shared by the services that move credits.
func recordBalanceChange(
	ctx context.Context,
	userRepo interfaces.UserRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
	user *entities.User,
	change int64,
	transactionType entities.TransactionType,
	relatedType *entities.RelatedType,
	relatedID *int64,
	metadata map[string]any,
) (*entities.BalanceHistory, error) {
	oldBalance := user.Balance
	newBalance := oldBalance + change
	if newBalance < 0 {
		return nil, domain.NewConflictError("balance cannot go negative")
	}

	if err := userRepo.UpdateBalance(ctx, user.ID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	user.Balance = newBalance
	user.AvailableBalance += change

	history := &entities.BalanceHistory{
		UserID:              user.ID,
		BalanceBefore:       oldBalance,
		BalanceAfter:        newBalance,
		ChangeAmount:        change,
		TransactionType:     transactionType,
		TransactionMetadata: metadata,
		RelatedID:           relatedID,
		RelatedType:         relatedType,
		CreatedAt:           time.Now(),
	}
	if err := balanceHistoryRepo.Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record balance history: %w", err)
	}

	if err := eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          user.ID,
		OldBalance:      oldBalance,
		NewBalance:      newBalance,
		TransactionType: transactionType,
		ChangeAmount:    change,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish balance change event: %w", err)
	}

	return history, nil
}
