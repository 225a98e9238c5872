package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/voiceline/voiceline-api/db"
)

// Redis channel the media gateway subscribes to for routing decisions.
const callRoutedChannel = "voiceline:call.routed"

// RoutingEventPublisher announces routing decisions over Redis pub/sub.
// Publishing is fire and forget: a missing or unreachable Redis never
// affects the routing result.
type RoutingEventPublisher struct {
	Redis *redis.Client
}

func NewRoutingEventPublisher(redisClient *redis.Client) *RoutingEventPublisher {
	return &RoutingEventPublisher{Redis: redisClient}
}

type callRoutedEvent struct {
	CallSID       string    `json:"call_sid"`
	AgentID       string    `json:"agent_id"`
	AgentName     string    `json:"agent_name"`
	RoutingReason string    `json:"routing_reason"`
	RoutedAt      time.Time `json:"routed_at"`
}

// PublishCallRouted publishes a call.routed event. Errors are logged and
// swallowed.
func (p *RoutingEventPublisher) PublishCallRouted(callSID string, agent db.Agent, routingReason string) {
	if p == nil || p.Redis == nil {
		return
	}

	payload, err := json.Marshal(callRoutedEvent{
		CallSID:       callSID,
		AgentID:       agent.ID,
		AgentName:     agent.Name,
		RoutingReason: routingReason,
		RoutedAt:      time.Now(),
	})
	if err != nil {
		log.Printf("Failed to encode call.routed event for %s: %v", callSID, err)
		return
	}

	if err := p.Redis.Publish(context.Background(), callRoutedChannel, payload).Err(); err != nil {
		log.Printf("Failed to publish call.routed event for %s: %v", callSID, err)
	}
}
