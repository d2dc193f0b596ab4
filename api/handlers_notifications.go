package api

import (
	"net/http"
	"strconv"

	"betmate/domain/entities"
	"betmate/domain/interfaces"
	"betmate/domain/services"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var notifications []*entities.Notification
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewNotificationService(uow.NotificationRepository())
		var err error
		notifications, err = svc.ListNotifications(r.Context(), actor, unreadOnly, limit, offset)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var count int
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewNotificationService(uow.NotificationRepository())
		var err error
		count, err = svc.UnreadCount(r.Context(), actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathID(r, "notificationID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notification id"})
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		return services.NewNotificationService(uow.NotificationRepository()).MarkRead(r.Context(), notificationID, actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		return services.NewNotificationService(uow.NotificationRepository()).MarkAllRead(r.Context(), actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
