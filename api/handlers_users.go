package api

import (
	"net/http"
	"strconv"

	"betmate/domain/entities"
	"betmate/domain/interfaces"
	"betmate/domain/services"
)

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var user *entities.User
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewUserService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		var err error
		user, err = svc.Register(r.Context(), req.Username, req.DisplayName)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	var user *entities.User
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewUserService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		var err error
		user, err = svc.GetUser(r.Context(), userID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var user *entities.User
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewUserService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		var err error
		user, err = svc.UpdateProfile(r.Context(), actor, req.DisplayName)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewUserService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		return svc.Deactivate(r.Context(), actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}

	var history []*entities.BalanceHistory
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewUserService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		var err error
		history, err = svc.GetTransactions(r.Context(), actor, limit, from, to)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleClaimDailyReward(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var reward *entities.BalanceHistory
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewDailyRewardService(uow.UserRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
		var err error
		reward, err = svc.Claim(r.Context(), actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := s.presence.Heartbeat(r.Context(), actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
