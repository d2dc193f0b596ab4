package services

import (
	"context"
	"fmt"

	"betmate/domain"
	"betmate/domain/entities"
	"betmate/domain/interfaces"
)

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo interfaces.NotificationRepository) interfaces.NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

// ListNotifications returns a user's notifications, newest first
func (s *notificationService) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*entities.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications
func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification as read
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	ok, err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return domain.NewNotFoundError("notification %d not found", notificationID)
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
