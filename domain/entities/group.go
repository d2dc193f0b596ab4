package entities

import (
	"time"
)

// GroupPrivacy represents the visibility of a group
type GroupPrivacy string

const (
	GroupPrivacyPublic  GroupPrivacy = "PUBLIC"
	GroupPrivacyPrivate GroupPrivacy = "PRIVATE"
)

// MembershipRole represents a member's role within a group
type MembershipRole string

const (
	MembershipRoleAdmin   MembershipRole = "ADMIN"
	MembershipRoleOfficer MembershipRole = "OFFICER"
	MembershipRoleMember  MembershipRole = "MEMBER"
)

// MembershipStatus represents the lifecycle state of a group membership
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "PENDING"
	MembershipStatusApproved MembershipStatus = "APPROVED"
	MembershipStatusRejected MembershipStatus = "REJECTED"
	MembershipStatusLeft     MembershipStatus = "LEFT"
)

// Group represents a betting group
type Group struct {
	ID          int64        `db:"id"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	Privacy     GroupPrivacy `db:"privacy"`
	OwnerID     int64        `db:"owner_id"`
	MaxMembers  int          `db:"max_members"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// IsPublic checks if the group is publicly joinable
func (g *Group) IsPublic() bool {
	return g.Privacy == GroupPrivacyPublic
}

// HasCapacityFor checks whether the group can admit another member
func (g *Group) HasCapacityFor(approvedCount int) bool {
	return approvedCount < g.MaxMembers
}

// GroupMembership represents a user's membership in a group
type GroupMembership struct {
	ID        int64            `db:"id"`
	GroupID   int64            `db:"group_id"`
	UserID    int64            `db:"user_id"`
	Role      MembershipRole   `db:"role"`
	Status    MembershipStatus `db:"status"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// IsApproved checks if the membership is active
func (m *GroupMembership) IsApproved() bool {
	return m.Status == MembershipStatusApproved
}

// IsPending checks if the membership awaits a decision
func (m *GroupMembership) IsPending() bool {
	return m.Status == MembershipStatusPending
}

// CanModerate checks whether the member may approve or reject join requests
func (m *GroupMembership) CanModerate() bool {
	return m.IsApproved() && (m.Role == MembershipRoleAdmin || m.Role == MembershipRoleOfficer)
}

// CanRejoin checks whether a new join request may re-use this membership row
func (m *GroupMembership) CanRejoin() bool {
	return m.Status == MembershipStatusLeft || m.Status == MembershipStatusRejected
}
