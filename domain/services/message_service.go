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

const maxMessageLength = 2000

type messageService struct {
	messageRepo    interfaces.MessageRepository
	membershipRepo interfaces.MembershipRepository
	eventPublisher interfaces.EventPublisher
}

// NewMessageService creates a new message service
func NewMessageService(
	messageRepo interfaces.MessageRepository,
	membershipRepo interfaces.MembershipRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.MessageService {
	return &messageService{
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
	}
}

// PostMessage posts a chat message; only approved members may post
func (s *messageService) PostMessage(ctx context.Context, groupID, authorID int64, content string) (*entities.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("message cannot be empty")
	}
	if len(content) > maxMessageLength {
		return nil, domain.NewValidationError("message cannot exceed %d characters", maxMessageLength)
	}

	membership, err := s.membershipRepo.Get(ctx, groupID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil || !membership.IsApproved() {
		return nil, domain.NewForbiddenError("only group members can post messages")
	}

	message := &entities.Message{
		GroupID:  groupID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := s.eventPublisher.Publish(events.MessagePostedEvent{
		MessageID: message.ID,
		GroupID:   groupID,
		AuthorID:  authorID,
		Content:   content,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish message posted event: %w", err)
	}

	return message, nil
}

// ListMessages returns a group's messages, newest first
func (s *messageService) ListMessages(ctx context.Context, groupID, requesterID int64, limit, offset int) ([]*entities.Message, error) {
	membership, err := s.membershipRepo.Get(ctx, groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil || !membership.IsApproved() {
		return nil, domain.NewForbiddenError("only group members can read messages")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messageRepo.ListByGroup(ctx, groupID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
