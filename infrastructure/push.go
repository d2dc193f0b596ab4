package infrastructure

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/redis/go-redis/v9"
)

// pushChannel is the Redis Pub/Sub channel that carries realtime push
// messages between instances
const pushChannel = "betmate:push"

// PushMessage is the wire format for realtime delivery. Exactly one of
// UserID or GroupID is set: direct push or group broadcast.
type PushMessage struct {
	UserID  *int64          `json:"userId,omitempty"`
	GroupID *int64          `json:"groupId,omitempty"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// PushPublisher fans realtime messages out through Redis so every instance
// can deliver to its own WebSocket connections
type PushPublisher struct {
	rdb *redis.Client
}

// NewPushPublisher creates a new push publisher
func NewPushPublisher(rdb *redis.Client) *PushPublisher {
	return &PushPublisher{rdb: rdb}
}

// PushToUser publishes a direct message for a single recipient
func (p *PushPublisher) PushToUser(ctx context.Context, userID int64, kind string, data any) {
	p.publish(ctx, PushMessage{UserID: &userID, Kind: kind}, data)
}

// PushToGroup publishes a broadcast for everyone watching a group
func (p *PushPublisher) PushToGroup(ctx context.Context, groupID int64, kind string, data any) {
	p.publish(ctx, PushMessage{GroupID: &groupID, Kind: kind}, data)
}

// publish serializes and sends; push is best-effort so failures are logged,
// not returned
func (p *PushPublisher) publish(ctx context.Context, msg PushMessage, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).Error("Failed to marshal push payload")
		return
	}
	msg.Data = payload

	raw, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("Failed to marshal push message")
		return
	}

	if err := p.rdb.Publish(ctx, pushChannel, raw).Err(); err != nil {
		log.WithError(err).WithField("kind", msg.Kind).Error("Failed to publish push message")
	}
}

// StartPushSubscriber listens on the push channel and hands each message to
// deliver until the context is cancelled
func StartPushSubscriber(ctx context.Context, rdb *redis.Client, deliver func(PushMessage)) {
	sub := rdb.Subscribe(ctx, pushChannel)
	ch := sub.Channel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				if err := sub.Close(); err != nil {
					log.WithError(err).Warn("Failed to close push subscription")
				}
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var push PushMessage
				if err := json.Unmarshal([]byte(msg.Payload), &push); err != nil {
					log.WithError(err).Error("Failed to unmarshal push message")
					continue
				}
				deliver(push)
			}
		}
	}()
}
