package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"betmate/config"
	"betmate/domain/interfaces"
	"betmate/api/ws"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP surface of the application
type Server struct {
	cfg        *config.Config
	uowFactory interfaces.UnitOfWorkFactory
	presence   interfaces.PresenceService
	hub        *ws.Hub
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, uowFactory interfaces.UnitOfWorkFactory, presence interfaces.PresenceService, hub *ws.Hub) *Server {
	return &Server{
		cfg:        cfg,
		uowFactory: uowFactory,
		presence:   presence,
		hub:        hub,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users/me", s.handleUpdateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/users/me", s.handleDeactivate).Methods(http.MethodDelete)
	api.HandleFunc("/users/me/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/users/me/groups", s.handleListMyGroups).Methods(http.MethodGet)
	api.HandleFunc("/users/me/daily-reward", s.handleClaimDailyReward).Methods(http.MethodPost)
	api.HandleFunc("/users/me/heartbeat", s.handleHeartbeat).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}", s.handleGetUser).Methods(http.MethodGet)

	// Groups
	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups", s.handleListPublicGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", s.handleUpdateGroup).Methods(http.MethodPatch)
	api.HandleFunc("/groups/{groupID}/join", s.handleJoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/leave", s.handleLeaveGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/members", s.handleListMembers).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/members/online", s.handleListOnlineMembers).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/members/{userID}/decision", s.handleDecideJoinRequest).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/members/{userID}/role", s.handleChangeRole).Methods(http.MethodPatch)
	api.HandleFunc("/groups/{groupID}/messages", s.handlePostMessage).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}/bets", s.handleCreateBet).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/bets", s.handleListGroupBets).Methods(http.MethodGet)

	// Bets
	api.HandleFunc("/bets/{betID}", s.handleGetBet).Methods(http.MethodGet)
	api.HandleFunc("/bets/{betID}/participations", s.handlePlaceParticipation).Methods(http.MethodPost)
	api.HandleFunc("/bets/{betID}/close", s.handleCloseBet).Methods(http.MethodPost)
	api.HandleFunc("/bets/{betID}/resolve", s.handleResolveBet).Methods(http.MethodPost)
	api.HandleFunc("/bets/{betID}/votes", s.handleCastVote).Methods(http.MethodPost)
	api.HandleFunc("/bets/{betID}/cancel", s.handleCancelBet).Methods(http.MethodPost)
	api.HandleFunc("/bets/{betID}/fulfillments", s.handleListFulfillments).Methods(http.MethodGet)
	api.HandleFunc("/bets/{betID}/fulfillments/confirm", s.handleConfirmFulfillment).Methods(http.MethodPost)

	// Notifications
	api.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", s.handleUnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", s.handleMarkAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/read", s.handleMarkRead).Methods(http.MethodPost)

	// Realtime
	r.HandleFunc("/ws", s.hub.HandleWS)

	return r
}

// Start serves HTTP until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.cfg.HTTPPort,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.WithField("port", s.cfg.HTTPPort).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// inTx runs fn inside a unit of work, committing on success
func (s *Server) inTx(ctx context.Context, fn func(uow interfaces.UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}
