package infrastructure

import (
	"context"
	"fmt"
	"time"

	"betmate/domain/interfaces"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:"

// presenceService tracks online users with expiring Redis keys. A user is
// online while their heartbeat key has not expired.
type presenceService struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPresenceService creates a Redis-backed presence service
func NewPresenceService(rdb *redis.Client, ttl time.Duration) interfaces.PresenceService {
	return &presenceService{rdb: rdb, ttl: ttl}
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("%s%d", presenceKeyPrefix, userID)
}

// Heartbeat refreshes the user's online marker
func (s *presenceService) Heartbeat(ctx context.Context, userID int64) error {
	if err := s.rdb.Set(ctx, presenceKey(userID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record heartbeat for user %d: %w", userID, err)
	}
	return nil
}

// IsOnline checks whether a user's marker is still live
func (s *presenceService) IsOnline(ctx context.Context, userID int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence for user %d: %w", userID, err)
	}
	return n > 0, nil
}

// OnlineUsers filters the given users down to those currently online
func (s *presenceService) OnlineUsers(ctx context.Context, userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKey(id)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check presence: %w", err)
	}

	var online []int64
	for i, v := range values {
		if v != nil {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}
