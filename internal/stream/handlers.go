package stream

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Tracker is the slice of the tracking service the live transport
// needs for inbound messages.
type Tracker interface {
	RecordLocation(ctx context.Context, update LocationUpdate) error
	StopUser(ctx context.Context, userID string) error
}

func RegisterRoutes(r fiber.Router, hub *Hub, tracker Tracker) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		client := hub.Register()
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			dispatch(tracker, msg)
		}
		<-done
	}))
}

func dispatch(tracker Tracker, msg []byte) {
	if tracker == nil {
		return
	}

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("stream message parse error: %v", err)
		return
	}

	switch env.Type {
	case "locationUpdate":
		var update LocationUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			log.Printf("locationUpdate parse error: %v", err)
			return
		}
		if err := tracker.RecordLocation(context.Background(), update); err != nil {
			log.Printf("locationUpdate error: %v", err)
		}
	case "userStopped":
		var stopped UserStopped
		if err := json.Unmarshal(env.Data, &stopped); err != nil {
			log.Printf("userStopped parse error: %v", err)
			return
		}
		if err := tracker.StopUser(context.Background(), stopped.UserID); err != nil {
			log.Printf("userStopped error: %v", err)
		}
	}
}
