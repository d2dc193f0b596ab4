package api

import (
	"net/http"
	"strconv"

	"betmate/domain/entities"
	"betmate/domain/interfaces"
	"betmate/domain/services"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
	MaxMembers  int    `json:"maxMembers"`
}

type updateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxMembers  int    `json:"maxMembers"`
}

type decisionRequest struct {
	Approve bool `json:"approve"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func newGroupService(uow interfaces.UnitOfWork) interfaces.GroupService {
	return services.NewGroupService(uow.GroupRepository(), uow.MembershipRepository(), uow.UserRepository(), uow.EventBus())
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Privacy == "" {
		req.Privacy = string(entities.GroupPrivacyPublic)
	}

	var group *entities.Group
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		group, err = newGroupService(uow).CreateGroup(r.Context(), actor, req.Name, req.Description, entities.GroupPrivacy(req.Privacy), req.MaxMembers)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListPublicGroups(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var groups []*entities.Group
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		groups, err = newGroupService(uow).ListPublicGroups(r.Context(), limit, offset)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleListMyGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var groups []*entities.Group
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		groups, err = newGroupService(uow).ListMyGroups(r.Context(), actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}

	var group *entities.Group
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		group, err = newGroupService(uow).GetGroup(r.Context(), groupID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	var req updateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var group *entities.Group
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		group, err = newGroupService(uow).UpdateGroup(r.Context(), actor, groupID, req.Name, req.Description, req.MaxMembers)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}

	var membership *entities.GroupMembership
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		membership, err = newGroupService(uow).RequestJoin(r.Context(), groupID, actor)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}

	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		return newGroupService(uow).Leave(r.Context(), groupID, actor)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDecideJoinRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	userID, ok := pathID(r, "userID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}
	var req decisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var membership *entities.GroupMembership
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		membership, err = newGroupService(uow).DecideJoinRequest(r.Context(), groupID, actor, userID, req.Approve)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	userID, ok := pathID(r, "userID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}
	var req changeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var membership *entities.GroupMembership
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		membership, err = newGroupService(uow).PromoteMember(r.Context(), groupID, actor, userID, entities.MembershipRole(req.Role))
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	status := entities.MembershipStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = entities.MembershipStatusApproved
	}

	var members []*entities.GroupMembership
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		members, err = newGroupService(uow).ListMembers(r.Context(), groupID, status)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleListOnlineMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}

	var members []*entities.GroupMembership
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		var err error
		members, err = newGroupService(uow).ListMembers(r.Context(), groupID, entities.MembershipStatusApproved)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	userIDs := make([]int64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	online, err := s.presence.OnlineUsers(r.Context(), userIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if online == nil {
		online = []int64{}
	}
	writeJSON(w, http.StatusOK, online)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	var req postMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var message *entities.Message
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewMessageService(uow.MessageRepository(), uow.MembershipRepository(), uow.EventBus())
		var err error
		message, err = svc.PostMessage(r.Context(), groupID, actor, req.Content)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(r, "groupID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group id"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var messages []*entities.Message
	err := s.inTx(r.Context(), func(uow interfaces.UnitOfWork) error {
		svc := services.NewMessageService(uow.MessageRepository(), uow.MembershipRepository(), uow.EventBus())
		var err error
		messages, err = svc.ListMessages(r.Context(), groupID, actor, limit, offset)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
