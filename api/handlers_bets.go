package api

import (
	"net/http"
	"strconv"
	"time"

	"betmate/domain/entities"
	"betmate/domain/interfaces"
	"betmate/domain/services"
)

type createBetRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	BetType          string    `json:"betType"`
	StakeType        string    `json:"stakeType"`
	StakeDescription string    `json:"stakeDescription"`
	ResolutionMethod string    `json:"resolutionMethod"`
	Options          []string  `json:"options"`
	ResolverIDs      []int64   `json:"resolverIds"`
	ClosesAt         time.Time `json:"closesAt"`
}

type placeParticipationRequest struct {
	OptionID   *int64   `json:"optionId"`
	Prediction *float64 `json:"prediction"`
	Amount     int64    `json:"amount"`
	Insured    bool     `json:"insured"`
}

type resolveBetRequest struct {
	WinningOptionID *int64   `json:"winningOptionId"`
	ActualValue     *float64 `json:"actualValue"`
}

type castVoteRequest struct {
	OptionID int64 `json:"optionId"`
}

func newBetService(uow interfaces.UnitOfWork) interfaces.BetService {
	return services.NewBetService(
		uow.BetRepository(),
		uow.UserRepository(),
		uow.BalanceHistoryRepository(),
		uow.MembershipRepository(),
		uow.FulfillmentRepository(),
		uow.EventBus(),
	)
}

func (s *Server) handleCreateBet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	var req createBetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := interfaces.CreateBetParams{
		GroupID:          groupID,
		CreatorID:        actor,
		Title:            req.Title,
		Description:      req.Description,
		BetType:          entities.BetType(req.BetType),
		StakeType:        entities.StakeType(req.StakeType),
		StakeDescription: req.StakeDescription,
		ResolutionMethod: entities.ResolutionMethod(req.ResolutionMethod),
		Options:          req.Options,
		ResolverIDs:      req.ResolverIDs,
		ClosesAt:         req.ClosesAt,
	}

	var detail *entities.BetDetail
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		detail, err = newBetService(uow).CreateBet(r.Context(), params)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleListGroupBets(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	status := entities.BetStatus(r.URL.Query().Get("status"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var bets []*entities.Bet
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		bets, err = newBetService(uow).ListGroupBets(r.Context(), groupID, status, limit)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) handleGetBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}

	var detail *entities.BetDetail
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		detail, err = newBetService(uow).GetBetDetail(r.Context(), betID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePlaceParticipation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}
	var req placeParticipationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var participation *entities.BetParticipation
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		participation, err = newBetService(uow).PlaceParticipation(r.Context(), betID, actor, req.OptionID, req.Prediction, req.Amount, req.Insured)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participation)
}

func (s *Server) handleCloseBet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		return newBetService(uow).CloseBet(r.Context(), betID, actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResolveBet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}
	var req resolveBetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var result *entities.BetResult
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = newBetService(uow).ResolveBet(r.Context(), betID, &actor, req.WinningOptionID, req.ActualValue)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}
	var req castVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var result *entities.BetResult
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = newBetService(uow).CastResolutionVote(r.Context(), betID, actor, req.OptionID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		// Vote recorded but consensus not reached yet.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "vote recorded"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelBet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		return newBetService(uow).CancelBet(r.Context(), betID, actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListFulfillments(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}

	var fulfillments []*entities.BetFulfillment
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewFulfillmentService(uow.FulfillmentRepository(), uow.BetRepository(), uow.EventBus())
		var err error
		fulfillments, err = svc.ListFulfillments(r.Context(), betID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fulfillments)
}

func (s *Server) handleConfirmFulfillment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	betID, ok := pathID(r, "betID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bet id"})
		return
	}

	var fulfillment *entities.BetFulfillment
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewFulfillmentService(uow.FulfillmentRepository(), uow.BetRepository(), uow.EventBus())
		var err error
		fulfillment, err = svc.ConfirmFulfillment(r.Context(), betID, actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fulfillment)
}
