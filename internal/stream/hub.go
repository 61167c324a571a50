package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const eventsChannel = "tracking:events:broadcast"

// Hub fans accepted tracking events out to every connected monitoring
// client. There is no per-subscriber filtering; viewers filter by role
// or user on their side. With a redis client attached, events travel
// through a pub/sub channel so every instance delivers them; without
// one they are fanned out locally.
type Hub struct {
	redis   *redis.Client
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Send chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register() *Client {
	client := &Client{
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *Hub) PublishLocation(e LocationEvent) {
	h.publish("userLocation", e)
}

func (h *Hub) PublishRemoval(userID string) {
	h.publish("removeUser", RemovalEvent{UserID: userID})
}

func (h *Hub) PublishJobAssigned(driverID, guideID string) {
	h.publish("jobAssigned", JobAssignedEvent{DriverID: driverID, GuideID: guideID})
}

// publish is fire-and-forget: a slow subscriber drops the event rather
// than blocking the writer.
func (h *Hub) publish(eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	if h.redis != nil {
		// local delivery happens through the subscribe loop
		err := h.redis.Publish(context.Background(), eventsChannel, payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.fanout(payload)
}

func (h *Hub) fanout(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.Subscribe(context.Background(), eventsChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.fanout([]byte(msg.Payload))
	}
}
