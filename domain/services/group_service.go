package services

import (
	"context"
	"fmt"
	"strings"

	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/events"
	"betmate/domain/interfaces"
)

const (
	maxGroupNameLength = 64
	defaultMaxMembers  = 50
	groupMemberCeiling = 500
)

type groupService struct {
	groupRepo      interfaces.GroupRepository
	membershipRepo interfaces.MembershipRepository
	userRepo       interfaces.UserRepository
	eventPublisher interfaces.EventPublisher
}

// NewGroupService creates a new group service
func NewGroupService(
	groupRepo interfaces.GroupRepository,
	membershipRepo interfaces.MembershipRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateGroup creates a group and enrolls the owner as its admin
func (s *groupService) CreateGroup(ctx context.Context, ownerID int64, name, description string, privacy entities.GroupPrivacy, maxMembers int) (*entities.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("group name cannot be empty")
	}
	if len(name) > maxGroupNameLength {
		return nil, domain.NewValidationError("group name cannot exceed %d characters", maxGroupNameLength)
	}
	if privacy != entities.GroupPrivacyPublic && privacy != entities.GroupPrivacyPrivate {
		return nil, domain.NewValidationError("invalid group privacy: %s", privacy)
	}
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}
	if maxMembers > groupMemberCeiling {
		return nil, domain.NewValidationError("max members cannot exceed %d", groupMemberCeiling)
	}

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if owner == nil {
		return nil, domain.NewNotFoundError("user %d not found", ownerID)
	}

	group := &entities.Group{
		Name:        name,
		Description: description,
		Privacy:     privacy,
		OwnerID:     ownerID,
		MaxMembers:  maxMembers,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	// The owner joins immediately as admin
	membership := &entities.GroupMembership{
		GroupID: group.ID,
		UserID:  ownerID,
		Role:    entities.MembershipRoleAdmin,
		Status:  entities.MembershipStatusApproved,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	return group, nil
}

// GetGroup retrieves a group by ID
func (s *groupService) GetGroup(ctx context.Context, groupID int64) (*entities.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, domain.NewNotFoundError("group %d not found", groupID)
	}
	return group, nil
}

// ListPublicGroups returns public groups, newest first
func (s *groupService) ListPublicGroups(ctx context.Context, limit, offset int) ([]*entities.Group, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	groups, err := s.groupRepo.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup edits group settings; only admins may do this
func (s *groupService) UpdateGroup(ctx context.Context, actorID, groupID int64, name, description string, maxMembers int) (*entities.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	actor, err := s.membershipRepo.Get(ctx, groupID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor membership: %w", err)
	}
	if actor == nil || !actor.IsApproved() || actor.Role != entities.MembershipRoleAdmin {
		return nil, domain.NewForbiddenError("only group admins can edit the group")
	}

	name = strings.TrimSpace(name)
	if name != "" {
		if len(name) > maxGroupNameLength {
			return nil, domain.NewValidationError("group name cannot exceed %d characters", maxGroupNameLength)
		}
		group.Name = name
	}
	if description != "" {
		group.Description = description
	}
	if maxMembers > 0 {
		if maxMembers > groupMemberCeiling {
			return nil, domain.NewValidationError("max members cannot exceed %d", groupMemberCeiling)
		}
		approved, err := s.membershipRepo.CountApproved(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		if maxMembers < approved {
			return nil, domain.NewConflictError("max members cannot be below the current member count of %d", approved)
		}
		group.MaxMembers = maxMembers
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// RequestJoin joins a public group immediately or files a pending request on a private one
func (s *groupService) RequestJoin(ctx context.Context, groupID, userID int64) (*entities.GroupMembership, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user %d not found", userID)
	}

	existing, err := s.membershipRepo.Get(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if existing != nil && !existing.CanRejoin() {
		if existing.IsPending() {
			return nil, domain.NewConflictError("join request already pending")
		}
		return nil, domain.NewConflictError("already a member of this group")
	}

	status := entities.MembershipStatusPending
	if group.IsPublic() {
		approved, err := s.membershipRepo.CountApproved(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		if !group.HasCapacityFor(approved) {
			return nil, domain.NewConflictError("group %s is full", group.Name)
		}
		status = entities.MembershipStatusApproved
	}

	var membership *entities.GroupMembership
	if existing != nil {
		existing.Role = entities.MembershipRoleMember
		existing.Status = status
		if err := s.membershipRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update membership: %w", err)
		}
		membership = existing
	} else {
		membership = &entities.GroupMembership{
			GroupID: groupID,
			UserID:  userID,
			Role:    entities.MembershipRoleMember,
			Status:  status,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}
	}

	if status == entities.MembershipStatusPending {
		if err := s.eventPublisher.Publish(events.GroupJoinRequestedEvent{
			GroupID:     groupID,
			GroupName:   group.Name,
			RequesterID: userID,
			Requester:   user.DisplayName,
		}); err != nil {
			return nil, fmt.Errorf("failed to publish join request event: %w", err)
		}
	}

	return membership, nil
}

// DecideJoinRequest approves or rejects a pending membership
func (s *groupService) DecideJoinRequest(ctx context.Context, groupID, actorID, userID int64, approve bool) (*entities.GroupMembership, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	actor, err := s.membershipRepo.Get(ctx, groupID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor membership: %w", err)
	}
	if actor == nil || !actor.CanModerate() {
		return nil, domain.NewForbiddenError("only admins and officers can decide join requests")
	}

	membership, err := s.membershipRepo.Get(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil {
		return nil, domain.NewNotFoundError("no join request from user %d", userID)
	}
	if !membership.IsPending() {
		return nil, domain.NewConflictError("join request is not pending")
	}

	if approve {
		approved, err := s.membershipRepo.CountApproved(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		if !group.HasCapacityFor(approved) {
			return nil, domain.NewConflictError("group %s is full", group.Name)
		}
		membership.Status = entities.MembershipStatusApproved
	} else {
		membership.Status = entities.MembershipStatusRejected
	}

	if err := s.membershipRepo.Update(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}

	if err := s.eventPublisher.Publish(events.MembershipDecidedEvent{
		GroupID:   groupID,
		GroupName: group.Name,
		UserID:    userID,
		Approved:  approve,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish membership decided event: %w", err)
	}

	return membership, nil
}

// Leave marks the actor's membership as left
func (s *groupService) Leave(ctx context.Context, groupID, userID int64) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return domain.NewConflictError("the group owner cannot leave the group")
	}

	membership, err := s.membershipRepo.Get(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil || !membership.IsApproved() {
		return domain.NewNotFoundError("not a member of group %d", groupID)
	}

	membership.Status = entities.MembershipStatusLeft
	if err := s.membershipRepo.Update(ctx, membership); err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	return nil
}

// PromoteMember changes a member's role; only admins may do this
func (s *groupService) PromoteMember(ctx context.Context, groupID, actorID, userID int64, role entities.MembershipRole) (*entities.GroupMembership, error) {
	if role != entities.MembershipRoleOfficer && role != entities.MembershipRoleMember {
		return nil, domain.NewValidationError("invalid target role: %s", role)
	}

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID == userID {
		return nil, domain.NewConflictError("the owner's role cannot be changed")
	}

	actor, err := s.membershipRepo.Get(ctx, groupID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor membership: %w", err)
	}
	if actor == nil || !actor.IsApproved() || actor.Role != entities.MembershipRoleAdmin {
		return nil, domain.NewForbiddenError("only group admins can change roles")
	}

	membership, err := s.membershipRepo.Get(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil || !membership.IsApproved() {
		return nil, domain.NewNotFoundError("user %d is not a member of group %d", userID, groupID)
	}

	membership.Role = role
	if err := s.membershipRepo.Update(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	return membership, nil
}

// ListMembers returns memberships in a group filtered by status
func (s *groupService) ListMembers(ctx context.Context, groupID int64, status entities.MembershipStatus) ([]*entities.GroupMembership, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.membershipRepo.ListByGroup(ctx, groupID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListMyGroups returns the groups the user is an approved member of
func (s *groupService) ListMyGroups(ctx context.Context, userID int64) ([]*entities.Group, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	groups := make([]*entities.Group, 0, len(memberships))
	for _, membership := range memberships {
		group, err := s.groupRepo.GetByID(ctx, membership.GroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to get group %d: %w", membership.GroupID, err)
		}
		if group != nil {
			groups = append(groups, group)
		}
	}
	return groups, nil
}
