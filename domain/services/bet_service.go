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
	maxBetTitleLength = 128
	minBetOptions     = 2
	maxBetOptions     = 10
)

type betService struct {
	config             *config.Config
	betRepo            interfaces.BetRepository
	userRepo           interfaces.UserRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	membershipRepo     interfaces.MembershipRepository
	fulfillmentRepo    interfaces.FulfillmentRepository
	eventPublisher     interfaces.EventPublisher
}

// NewBetService creates a new bet service
func NewBetService(
	betRepo interfaces.BetRepository,
	userRepo interfaces.UserRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	membershipRepo interfaces.MembershipRepository,
	fulfillmentRepo interfaces.FulfillmentRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.BetService {
	return &betService{
		config:             config.Get(),
		betRepo:            betRepo,
		userRepo:           userRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		membershipRepo:     membershipRepo,
		fulfillmentRepo:    fulfillmentRepo,
		eventPublisher:     eventPublisher,
	}
}

// CreateBet opens a new bet in a group
func (s *betService) CreateBet(ctx context.Context, params interfaces.CreateBetParams) (*entities.BetDetail, error) {
	if err := s.validateCreateParams(&params); err != nil {
		return nil, err
	}

	creator, err := s.membershipRepo.Get(ctx, params.GroupID, params.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator membership: %w", err)
	}
	if creator == nil || !creator.IsApproved() {
		return nil, domain.NewForbiddenError("only group members can create bets")
	}

	bet := &entities.Bet{
		GroupID:           params.GroupID,
		CreatorID:         params.CreatorID,
		Title:             params.Title,
		Description:       params.Description,
		BetType:           params.BetType,
		Status:            entities.BetStatusOpen,
		StakeType:         params.StakeType,
		StakeDescription:  params.StakeDescription,
		ResolutionMethod:  params.ResolutionMethod,
		FulfillmentStatus: entities.FulfillmentStatusNone,
		ClosesAt:          params.ClosesAt,
	}

	var options []*entities.BetOption
	for i, text := range params.Options {
		options = append(options, &entities.BetOption{
			OptionText:  text,
			OptionOrder: int16(i),
		})
	}

	if err := s.betRepo.CreateWithOptions(ctx, bet, options); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if params.ResolutionMethod == entities.ResolutionMethodAssignedResolvers {
		for _, resolverID := range params.ResolverIDs {
			membership, err := s.membershipRepo.Get(ctx, params.GroupID, resolverID)
			if err != nil {
				return nil, fmt.Errorf("failed to get resolver membership: %w", err)
			}
			if membership == nil || !membership.IsApproved() {
				return nil, domain.NewValidationError("resolver %d is not a member of the group", resolverID)
			}
			if err := s.betRepo.AddResolver(ctx, bet.ID, resolverID); err != nil {
				return nil, fmt.Errorf("failed to add resolver: %w", err)
			}
		}
	}

	if err := s.eventPublisher.Publish(events.BetCreatedEvent{
		BetID:     bet.ID,
		GroupID:   bet.GroupID,
		CreatorID: bet.CreatorID,
		Title:     bet.Title,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish bet created event: %w", err)
	}

	return &entities.BetDetail{Bet: bet, Options: options}, nil
}

func (s *betService) validateCreateParams(params *interfaces.CreateBetParams) error {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return domain.NewValidationError("bet title cannot be empty")
	}
	if len(params.Title) > maxBetTitleLength {
		return domain.NewValidationError("bet title cannot exceed %d characters", maxBetTitleLength)
	}

	switch params.BetType {
	case entities.BetTypeBinary:
		if len(params.Options) == 0 {
			params.Options = []string{"Yes", "No"}
		}
		if len(params.Options) != 2 {
			return domain.NewValidationError("binary bets require exactly 2 options")
		}
	case entities.BetTypeMultipleChoice:
		if len(params.Options) < minBetOptions || len(params.Options) > maxBetOptions {
			return domain.NewValidationError("multiple choice bets require between %d and %d options", minBetOptions, maxBetOptions)
		}
	case entities.BetTypePrediction:
		if len(params.Options) > 0 {
			return domain.NewValidationError("prediction bets do not take options")
		}
	default:
		return domain.NewValidationError("invalid bet type: %s", params.BetType)
	}

	// Reject duplicate options, case-insensitively
	seen := make(map[string]bool)
	for _, option := range params.Options {
		key := strings.ToLower(strings.TrimSpace(option))
		if key == "" {
			return domain.NewValidationError("options cannot be empty")
		}
		if seen[key] {
			return domain.NewValidationError("duplicate option: %s", option)
		}
		seen[key] = true
	}

	switch params.StakeType {
	case entities.StakeTypeCredit:
	case entities.StakeTypeSocial:
		if strings.TrimSpace(params.StakeDescription) == "" {
			return domain.NewValidationError("social bets require a stake description")
		}
	default:
		return domain.NewValidationError("invalid stake type: %s", params.StakeType)
	}

	switch params.ResolutionMethod {
	case entities.ResolutionMethodSelf:
	case entities.ResolutionMethodAssignedResolvers:
		if len(params.ResolverIDs) == 0 {
			return domain.NewValidationError("at least one resolver must be assigned")
		}
	case entities.ResolutionMethodParticipantVote:
		if params.BetType == entities.BetTypePrediction {
			return domain.NewValidationError("prediction bets cannot resolve by participant vote")
		}
	default:
		return domain.NewValidationError("invalid resolution method: %s", params.ResolutionMethod)
	}

	if !params.ClosesAt.After(time.Now()) {
		return domain.NewValidationError("the deadline must be in the future")
	}

	return nil
}

// GetBetDetail retrieves a bet with options and participations
func (s *betService) GetBetDetail(ctx context.Context, betID int64) (*entities.BetDetail, error) {
	detail, err := s.betRepo.GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, domain.NewNotFoundError("bet %d not found", betID)
	}
	return detail, nil
}

// ListGroupBets returns bets in a group filtered by status
func (s *betService) ListGroupBets(ctx context.Context, groupID int64, status entities.BetStatus, limit int) ([]*entities.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	bets, err := s.betRepo.ListByGroup(ctx, groupID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}

// PlaceParticipation creates or updates a user's entry while the bet is open
func (s *betService) PlaceParticipation(ctx context.Context, betID, userID int64, optionID *int64, prediction *float64, amount int64, insured bool) (*entities.BetParticipation, error) {
	detail, err := s.GetBetDetail(ctx, betID)
	if err != nil {
		return nil, err
	}
	bet := detail.Bet

	if !bet.CanAcceptParticipants(time.Now()) {
		return nil, domain.NewConflictError("bet is no longer accepting participants")
	}

	membership, err := s.membershipRepo.Get(ctx, bet.GroupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil || !membership.IsApproved() {
		return nil, domain.NewForbiddenError("only group members can join bets")
	}

	if bet.IsPrediction() {
		if prediction == nil {
			return nil, domain.NewValidationError("prediction bets require a predicted value")
		}
		optionID = nil
	} else {
		if optionID == nil {
			return nil, domain.NewValidationError("an option must be chosen")
		}
		if s.findOption(detail, *optionID) == nil {
			return nil, domain.NewValidationError("option %d does not belong to this bet", *optionID)
		}
		prediction = nil
	}

	if bet.IsSocialStake() {
		amount = 0
		insured = false
	} else if amount <= 0 {
		return nil, domain.NewValidationError("stake amount must be positive")
	}

	existing, err := s.betRepo.GetParticipation(ctx, betID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user %d not found", userID)
	}

	if bet.IsCreditStake() {
		// The existing stake is already reserved; only the increase must be covered
		required := amount
		if existing != nil {
			required -= existing.Amount
		}
		newlyInsured := insured && (existing == nil || !existing.Insured)
		if newlyInsured {
			required += entities.InsurancePremium(amount)
		}
		if required > 0 && !user.CanAfford(required) {
			return nil, domain.NewConflictError("insufficient available balance")
		}
	}

	participation := existing
	if participation == nil {
		participation = &entities.BetParticipation{
			BetID:  betID,
			UserID: userID,
			Status: entities.ParticipationStatusActive,
		}
	}

	// The premium is non-refundable, so insurance cannot be revoked
	chargePremium := insured && !participation.Insured
	participation.OptionID = optionID
	participation.Prediction = prediction
	participation.Amount = amount
	participation.Insured = participation.Insured || insured

	if chargePremium {
		premium := entities.InsurancePremium(amount)
		// Remember the charged amount; a later stake increase must not
		// inflate the refund on cancellation
		participation.PremiumPaid = premium
		betRelated := entities.RelatedTypeBet
		if _, err := recordBalanceChange(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
			user, -premium, entities.TransactionTypeInsurancePaid, &betRelated, &betID,
			map[string]any{"stake": amount}); err != nil {
			return nil, err
		}
	}

	if err := s.betRepo.SaveParticipation(ctx, participation); err != nil {
		return nil, fmt.Errorf("failed to save participation: %w", err)
	}

	if err := s.refreshTotals(ctx, detail, participation, existing); err != nil {
		return nil, err
	}

	return participation, nil
}

// refreshTotals recomputes the option totals and the bet's pot after a
// participation was created or changed
func (s *betService) refreshTotals(ctx context.Context, detail *entities.BetDetail, updated, previous *entities.BetParticipation) error {
	bet := detail.Bet

	// Patch the in-memory detail so totals reflect the saved row
	replaced := false
	for i, p := range detail.Participations {
		if p.UserID == updated.UserID {
			detail.Participations[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		detail.Participations = append(detail.Participations, updated)
	}

	if !bet.IsCreditStake() {
		return nil
	}

	var pot int64
	totals := make(map[int64]int64)
	for _, p := range detail.Participations {
		if p.Status != entities.ParticipationStatusActive {
			continue
		}
		pot += p.Amount
		if p.OptionID != nil {
			totals[*p.OptionID] += p.Amount
		}
	}

	for _, option := range detail.Options {
		newTotal := totals[option.ID]
		if newTotal == option.TotalAmount {
			continue
		}
		if err := s.betRepo.UpdateOptionTotal(ctx, option.ID, newTotal); err != nil {
			return fmt.Errorf("failed to update option total: %w", err)
		}
		option.TotalAmount = newTotal
	}

	if pot != bet.TotalPot {
		bet.TotalPot = pot
		if err := s.betRepo.Update(ctx, bet); err != nil {
			return fmt.Errorf("failed to update bet pot: %w", err)
		}
	}
	return nil
}

func (s *betService) findOption(detail *entities.BetDetail, optionID int64) *entities.BetOption {
	for _, option := range detail.Options {
		if option.ID == optionID {
			return option
		}
	}
	return nil
}

// CloseBet transitions an open bet to closed ahead of its deadline
func (s *betService) CloseBet(ctx context.Context, betID, actorID int64) error {
	bet, err := s.getBet(ctx, betID)
	if err != nil {
		return err
	}
	if !bet.IsOpen() {
		return domain.NewConflictError("bet is not open")
	}

	if err := s.requireLifecycleAuthority(ctx, bet, actorID); err != nil {
		return err
	}

	bet.Close()
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return fmt.Errorf("failed to close bet: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BetStateChangeEvent{
		BetID:     bet.ID,
		GroupID:   bet.GroupID,
		Title:     bet.Title,
		OldStatus: string(entities.BetStatusOpen),
		NewStatus: string(entities.BetStatusClosed),
	}); err != nil {
		return fmt.Errorf("failed to publish bet state change event: %w", err)
	}
	return nil
}

func (s *betService) getBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, domain.NewNotFoundError("bet %d not found", betID)
	}
	return bet, nil
}

// requireLifecycleAuthority allows the creator and group moderators to
// close or cancel a bet
func (s *betService) requireLifecycleAuthority(ctx context.Context, bet *entities.Bet, actorID int64) error {
	if bet.CreatorID == actorID {
		return nil
	}
	membership, err := s.membershipRepo.Get(ctx, bet.GroupID, actorID)
	if err != nil {
		return fmt.Errorf("failed to get actor membership: %w", err)
	}
	if membership == nil || !membership.CanModerate() {
		return domain.NewForbiddenError("only the creator or a group moderator can do this")
	}
	return nil
}

// CloseExpiredBet closes a single open bet whose deadline has passed. The
// deadline worker runs it in its own transaction per bet, so one bad bet
// cannot abort a whole sweep.
func (s *betService) CloseExpiredBet(ctx context.Context, betID int64) error {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil || !bet.IsOpen() || time.Now().Before(bet.ClosesAt) {
		return nil
	}

	bet.Close()
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return fmt.Errorf("failed to close bet %d: %w", bet.ID, err)
	}
	if err := s.eventPublisher.Publish(events.BetStateChangeEvent{
		BetID:     bet.ID,
		GroupID:   bet.GroupID,
		Title:     bet.Title,
		OldStatus: string(entities.BetStatusOpen),
		NewStatus: string(entities.BetStatusClosed),
	}); err != nil {
		return fmt.Errorf("failed to publish bet state change event: %w", err)
	}
	return nil
}
