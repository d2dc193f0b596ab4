package testutil

import (
	"time"

	"betmate/domain/entities"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username string) *entities.User {
	return &entities.User{
		Username:         username,
		DisplayName:      username,
		Balance:          1000,
		AvailableBalance: 1000,
	}
}

// CreateTestGroup creates a public test group owned by the given user
func CreateTestGroup(ownerID int64, name string) *entities.Group {
	return &entities.Group{
		Name:       name,
		Privacy:    entities.GroupPrivacyPublic,
		OwnerID:    ownerID,
		MaxMembers: 50,
	}
}

// CreateTestMembership creates an approved membership
func CreateTestMembership(groupID, userID int64, role entities.MembershipRole) *entities.GroupMembership {
	return &entities.GroupMembership{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
		Status:  entities.MembershipStatusApproved,
	}
}

// CreateTestBet creates an open binary credit bet with sensible defaults
func CreateTestBet(groupID, creatorID int64, title string) *entities.Bet {
	return &entities.Bet{
		GroupID:           groupID,
		CreatorID:         creatorID,
		Title:             title,
		BetType:           entities.BetTypeBinary,
		Status:            entities.BetStatusOpen,
		StakeType:         entities.StakeTypeCredit,
		ResolutionMethod:  entities.ResolutionMethodSelf,
		FulfillmentStatus: entities.FulfillmentStatusNone,
		ClosesAt:          time.Now().Add(24 * time.Hour),
	}
}

// CreateTestOptions creates yes/no options for a bet
func CreateTestOptions() []*entities.BetOption {
	return []*entities.BetOption{
		{OptionText: "Yes", OptionOrder: 0},
		{OptionText: "No", OptionOrder: 1},
	}
}

// CreateTestParticipation creates an active participation on an option
func CreateTestParticipation(betID, userID, optionID, amount int64) *entities.BetParticipation {
	return &entities.BetParticipation{
		BetID:    betID,
		UserID:   userID,
		OptionID: &optionID,
		Amount:   amount,
		Status:   entities.ParticipationStatusActive,
	}
}

// CreateTestNotification creates an unread notification
func CreateTestNotification(recipientID int64, notificationType entities.NotificationType) *entities.Notification {
	return &entities.Notification{
		RecipientID: recipientID,
		Type:        notificationType,
		Priority:    entities.NotificationPriorityNormal,
		Title:       "test notification",
	}
}
