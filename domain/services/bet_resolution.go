package services

import (
	"context"
	"fmt"
	"time"

	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"

	log "github.com/sirupsen/logrus"
)

// ResolveBet resolves an open or closed bet with a winning option or
// actual value. Resolving while still open settles the bet early.
func (s *betService) ResolveBet(ctx context.Context, betID int64, resolverID *int64, winningOptionID *int64, actualValue *float64) (*entities.BetResult, error) {
	detail, err := s.GetBetDetail(ctx, betID)
	if err != nil {
		return nil, err
	}
	bet := detail.Bet

	if !bet.IsOpen() && !bet.IsClosed() {
		return nil, domain.NewConflictError("bet is already %s", bet.Status)
	}

	if err := s.requireResolutionAuthority(ctx, bet, resolverID); err != nil {
		return nil, err
	}

	var winners []*entities.BetParticipation
	var winningOption *entities.BetOption

	if bet.IsPrediction() {
		if actualValue == nil {
			return nil, domain.NewValidationError("prediction bets resolve against an actual value")
		}
		winningOptionID = nil
		winners = detail.ClosestPredictions(*actualValue)
	} else {
		if winningOptionID == nil {
			return nil, domain.NewValidationError("a winning option must be chosen")
		}
		actualValue = nil
		winningOption = s.findOption(detail, *winningOptionID)
		if winningOption == nil {
			return nil, domain.NewValidationError("option %d does not belong to this bet", *winningOptionID)
		}
		for _, p := range detail.ActiveParticipations() {
			if p.OptionID != nil && *p.OptionID == *winningOptionID {
				winners = append(winners, p)
			}
		}
	}

	return s.settle(ctx, detail, winningOption, winningOptionID, actualValue, winners)
}

// requireResolutionAuthority enforces the bet's resolution method. A nil
// resolver is the system itself and is always allowed.
func (s *betService) requireResolutionAuthority(ctx context.Context, bet *entities.Bet, resolverID *int64) error {
	if resolverID == nil {
		return nil
	}
	switch bet.ResolutionMethod {
	case entities.ResolutionMethodSelf:
		if bet.CreatorID != *resolverID {
			return domain.NewForbiddenError("only the creator can resolve this bet")
		}
	case entities.ResolutionMethodAssignedResolvers:
		isResolver, err := s.betRepo.IsResolver(ctx, bet.ID, *resolverID)
		if err != nil {
			return fmt.Errorf("failed to check resolver: %w", err)
		}
		if !isResolver {
			return domain.NewForbiddenError("only an assigned resolver can resolve this bet")
		}
	case entities.ResolutionMethodParticipantVote:
		return domain.NewConflictError("this bet resolves by participant vote")
	}
	return nil
}

// settle marks the outcome, moves credits, records streaks and emits the
// resolved event. Winners and losers are drawn from active participations.
func (s *betService) settle(
	ctx context.Context,
	detail *entities.BetDetail,
	winningOption *entities.BetOption,
	winningOptionID *int64,
	actualValue *float64,
	winners []*entities.BetParticipation,
) (*entities.BetResult, error) {
	bet := detail.Bet
	now := time.Now()

	winnerSet := make(map[int64]bool, len(winners))
	for _, w := range winners {
		winnerSet[w.UserID] = true
	}

	var losers []*entities.BetParticipation
	for _, p := range detail.ActiveParticipations() {
		if !winnerSet[p.UserID] {
			losers = append(losers, p)
		}
	}

	// With no winners every active entry is refunded. Stakes were only
	// reserved, so no credits move; the insurance premium stays spent.
	if len(winners) == 0 {
		return s.refundAll(ctx, detail, now)
	}

	result := &entities.BetResult{
		Bet:           bet,
		WinningOption: winningOption,
		Winners:       winners,
		Losers:        losers,
		TotalPot:      bet.TotalPot,
		PayoutDetails: make(map[int64]int64),
	}

	var winningTotal, losersPot int64
	if bet.IsCreditStake() {
		for _, w := range winners {
			winningTotal += w.Amount
		}
		for _, l := range losers {
			losersPot += l.Amount - l.InsuredRefund()
		}
	}

	betRelated := entities.RelatedTypeBet

	for _, p := range losers {
		p.Status = entities.ParticipationStatusLost
		if bet.IsCreditStake() {
			if err := s.moveCredits(ctx, p, -p.Amount, entities.TransactionTypeBetLoss, &betRelated, bet.ID); err != nil {
				return nil, err
			}
			if refund := p.InsuredRefund(); refund > 0 {
				user, err := s.userRepo.GetByID(ctx, p.UserID)
				if err != nil {
					return nil, fmt.Errorf("failed to get user: %w", err)
				}
				if _, err := recordBalanceChange(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
					user, refund, entities.TransactionTypeInsuranceRefund, &betRelated, &bet.ID, nil); err != nil {
					return nil, err
				}
			}
		}
		if err := s.recordStreak(ctx, p.UserID, false); err != nil {
			return nil, err
		}
	}

	for _, p := range winners {
		p.Status = entities.ParticipationStatusWon
		if bet.IsCreditStake() {
			payout := p.CalculatePayout(winningTotal, losersPot)
			p.PayoutAmount = &payout
			result.PayoutDetails[p.UserID] = payout
			// The stake never left the balance, so only the share moves
			if share := payout - p.Amount; share > 0 {
				if err := s.moveCredits(ctx, p, share, entities.TransactionTypeBetWin, &betRelated, bet.ID); err != nil {
					return nil, err
				}
			}
		}
		if err := s.recordStreak(ctx, p.UserID, true); err != nil {
			return nil, err
		}
	}

	if err := s.betRepo.UpdateParticipationResults(ctx, detail.Participations); err != nil {
		return nil, fmt.Errorf("failed to update participation results: %w", err)
	}

	bet.Resolve(winningOptionID, actualValue, now)
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to resolve bet: %w", err)
	}

	// Social stakes get one confirmation row per winner
	if bet.IsSocialStake() {
		var fulfillments []*entities.BetFulfillment
		for _, w := range winners {
			fulfillments = append(fulfillments, &entities.BetFulfillment{
				BetID:    bet.ID,
				WinnerID: w.UserID,
			})
		}
		if err := s.fulfillmentRepo.CreateBatch(ctx, fulfillments); err != nil {
			return nil, fmt.Errorf("failed to create fulfillments: %w", err)
		}
	}

	winnerIDs := make([]int64, 0, len(winners))
	for _, w := range winners {
		winnerIDs = append(winnerIDs, w.UserID)
	}
	loserIDs := make([]int64, 0, len(losers))
	for _, l := range losers {
		loserIDs = append(loserIDs, l.UserID)
	}

	if err := s.eventPublisher.Publish(events.BetResolvedEvent{
		BetID:         bet.ID,
		GroupID:       bet.GroupID,
		Title:         bet.Title,
		StakeType:     bet.StakeType,
		WinnerIDs:     winnerIDs,
		LoserIDs:      loserIDs,
		PayoutDetails: result.PayoutDetails,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish bet resolved event: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":   bet.ID,
		"winners": len(winners),
		"losers":  len(losers),
		"pot":     result.TotalPot,
	}).Info("Bet resolved")

	return result, nil
}

func (s *betService) refundAll(ctx context.Context, detail *entities.BetDetail, now time.Time) (*entities.BetResult, error) {
	bet := detail.Bet
	oldStatus := bet.Status
	for _, p := range detail.ActiveParticipations() {
		p.Status = entities.ParticipationStatusRefunded
	}
	if err := s.betRepo.UpdateParticipationResults(ctx, detail.Participations); err != nil {
		return nil, fmt.Errorf("failed to update participation results: %w", err)
	}

	bet.Cancel()
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to cancel bet: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BetStateChangeEvent{
		BetID:     bet.ID,
		GroupID:   bet.GroupID,
		Title:     bet.Title,
		OldStatus: string(oldStatus),
		NewStatus: string(entities.BetStatusCancelled),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish bet state change event: %w", err)
	}

	return &entities.BetResult{Bet: bet, TotalPot: bet.TotalPot, PayoutDetails: map[int64]int64{}}, nil
}

func (s *betService) moveCredits(ctx context.Context, p *entities.BetParticipation, change int64, transactionType entities.TransactionType, relatedType *entities.RelatedType, betID int64) error {
	user, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d no longer exists", p.UserID)
	}
	history, err := recordBalanceChange(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
		user, change, transactionType, relatedType, &betID, nil)
	if err != nil {
		return err
	}
	p.BalanceHistoryID = &history.ID
	return nil
}

func (s *betService) recordStreak(ctx context.Context, userID int64, won bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}
	if won {
		user.RecordWin()
	} else {
		user.RecordLoss()
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user record: %w", err)
	}
	return nil
}

// CastResolutionVote records a participant's vote and resolves on consensus.
// Returns a nil result while the vote is still open.
func (s *betService) CastResolutionVote(ctx context.Context, betID, voterID, optionID int64) (*entities.BetResult, error) {
	detail, err := s.GetBetDetail(ctx, betID)
	if err != nil {
		return nil, err
	}
	bet := detail.Bet

	if bet.ResolutionMethod != entities.ResolutionMethodParticipantVote {
		return nil, domain.NewConflictError("this bet does not resolve by participant vote")
	}
	if !bet.IsClosed() {
		return nil, domain.NewConflictError("voting opens once the bet is closed")
	}
	if s.findOption(detail, optionID) == nil {
		return nil, domain.NewValidationError("option %d does not belong to this bet", optionID)
	}

	active := detail.ActiveParticipations()
	isParticipant := false
	for _, p := range active {
		if p.UserID == voterID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return nil, domain.NewForbiddenError("only participants can vote on the outcome")
	}

	if err := s.betRepo.UpsertVote(ctx, &entities.ResolutionVote{
		BetID:    betID,
		VoterID:  voterID,
		OptionID: optionID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	votes, err := s.betRepo.ListVotes(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	// Consensus requires every active participant to have voted and a
	// strict majority behind one option
	if len(votes) < len(active) {
		return nil, nil
	}

	tally := make(map[int64]int)
	for _, vote := range votes {
		tally[vote.OptionID]++
	}
	var consensusOption int64
	for option, count := range tally {
		if count*2 > len(votes) {
			consensusOption = option
			break
		}
	}
	if consensusOption == 0 {
		log.WithFields(log.Fields{
			"betID": betID,
			"votes": len(votes),
		}).Info("Resolution vote complete without a majority")
		return nil, nil
	}

	winningOption := s.findOption(detail, consensusOption)
	var winners []*entities.BetParticipation
	for _, p := range active {
		if p.OptionID != nil && *p.OptionID == consensusOption {
			winners = append(winners, p)
		}
	}

	return s.settle(ctx, detail, winningOption, &consensusOption, nil, winners)
}

// CancelBet voids a bet and refunds insurance premiums
func (s *betService) CancelBet(ctx context.Context, betID, actorID int64) error {
	detail, err := s.GetBetDetail(ctx, betID)
	if err != nil {
		return err
	}
	bet := detail.Bet

	if !bet.IsOpen() && !bet.IsClosed() {
		return domain.NewConflictError("bet is already %s", bet.Status)
	}

	if err := s.requireLifecycleAuthority(ctx, bet, actorID); err != nil {
		return err
	}

	oldStatus := bet.Status
	betRelated := entities.RelatedTypeBet

	for _, p := range detail.ActiveParticipations() {
		p.Status = entities.ParticipationStatusRefunded
		// Stakes were only reserved, but the paid premium comes back when
		// the bet is voided
		if bet.IsCreditStake() && p.Insured && p.PremiumPaid > 0 {
			premium := p.PremiumPaid
			user, err := s.userRepo.GetByID(ctx, p.UserID)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}
			if user == nil {
				continue
			}
			if _, err := recordBalanceChange(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
				user, premium, entities.TransactionTypeInsuranceRefund, &betRelated, &betID, nil); err != nil {
				return err
			}
		}
	}

	if err := s.betRepo.UpdateParticipationResults(ctx, detail.Participations); err != nil {
		return fmt.Errorf("failed to update participation results: %w", err)
	}

	bet.Cancel()
	if err := s.betRepo.Update(ctx, bet); err != nil {
		return fmt.Errorf("failed to cancel bet: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BetStateChangeEvent{
		BetID:     bet.ID,
		GroupID:   bet.GroupID,
		Title:     bet.Title,
		OldStatus: string(oldStatus),
		NewStatus: string(entities.BetStatusCancelled),
	}); err != nil {
		return fmt.Errorf("failed to publish bet state change event: %w", err)
	}
	return nil
}
