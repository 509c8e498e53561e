package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gorilla/websocket"
)

const hubWriteTimeout = 5 * time.Second

// Hub keeps the websocket connections of signed-in users and pushes events
// to them. It is created once at startup and injected where needed.
type Hub struct {
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[uint][]*websocket.Conn
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[uint][]*websocket.Conn),
	}
}

// Subscribe upgrades the request and blocks until the client disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.subscribers[userID] = append(h.subscribers[userID], conn)
	h.mu.Unlock()
	utils.LogDebug("Websocket subscribed - User ID: %d", userID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(userID, conn)
	conn.Close()
	utils.LogDebug("Websocket disconnected - User ID: %d", userID)
	return nil
}

func (h *Hub) remove(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.subscribers[userID]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, userID)
		return
	}
	h.subscribers[userID] = kept
}

// Notify writes the event to every connection of the event's user. Broken
// connections are dropped.
func (h *Hub) Notify(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.subscribers[event.UserID]
	kept := conns[:0]
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.LogError("Websocket write failed - User ID: %d: %v", event.UserID, err)
			conn.Close()
			continue
		}
		kept = append(kept, conn)
	}
	if len(kept) == 0 {
		delete(h.subscribers, event.UserID)
	} else {
		h.subscribers[event.UserID] = kept
	}
	return nil
}

// SubscriberCount returns the number of open connections for a user.
func (h *Hub) SubscriberCount(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for userID, conns := range h.subscribers {
		for _, conn := range conns {
			conn.Close()
		}
		delete(h.subscribers, userID)
	}
}
