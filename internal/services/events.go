package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnpulse-backend/internal/models"
)

// EventPublisher fans session events out through redis pub/sub. The
// websocket hub subscribes to the per-user channel and relays to every
// open connection. Delivery is best-effort: a dropped event never blocks
// or fails the session that produced it.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", msg.Type, err)
		return
	}
	if err := p.redis.Publish(ctx, "session_events:"+userID.String(), payload).Err(); err != nil {
		log.Printf("Failed to publish %s event for user %s: %v", msg.Type, userID, err)
	}
}
