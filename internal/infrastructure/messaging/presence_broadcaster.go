// Package messaging pushes live presence updates to connected dashboard
// clients over websockets.
package messaging

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/tracker"
)

// PresenceClient represents a single connected dashboard client.
type PresenceClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// PresencePayload is the message sent to clients on every tick and on every
// session close.
type PresencePayload struct {
	Type          string               `json:"type"` // "presence" or "sessionClosed"
	At            time.Time            `json:"at"`
	Online        []tracker.OnlineUser `json:"online"`
	OnlineCount   int                  `json:"onlineCount"`
	ClosedSession *activity.Session    `json:"closedSession,omitempty"`
}

// PresenceBroadcaster manages connected clients and pushes the current
// online set at the scan cadence plus an event for each closed session.
type PresenceBroadcaster struct {
	clients    map[*PresenceClient]bool
	register   chan *PresenceClient
	unregister chan *PresenceClient
	tracker    *tracker.LiveStateTracker
	interval   time.Duration
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

// NewPresenceBroadcaster creates a broadcaster over the given tracker.
func NewPresenceBroadcaster(t *tracker.LiveStateTracker, interval time.Duration, logger *logging.ChanneledLogger) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		clients:    make(map[*PresenceClient]bool),
		register:   make(chan *PresenceClient),
		unregister: make(chan *PresenceClient),
		tracker:    t,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *PresenceBroadcaster) Run() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.WebSocket().Info("Presence client registered", "clients", b.clientCount())

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.WebSocket().Info("Presence client unregistered", "clients", b.clientCount())

		case <-ticker.C:
			b.broadcastPresence(nil)
		}
	}
}

// Register queues a client for registration.
func (b *PresenceBroadcaster) Register(client *PresenceClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *PresenceBroadcaster) Unregister(client *PresenceClient) {
	b.unregister <- client
}

// NotifySessionClosed pushes a closed session to all clients immediately.
// Wired as a tracker callback.
func (b *PresenceBroadcaster) NotifySessionClosed(session *activity.Session) {
	b.broadcastPresence(session)
}

func (b *PresenceBroadcaster) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *PresenceBroadcaster) broadcastPresence(closed *activity.Session) {
	if b.clientCount() == 0 {
		return
	}

	online := b.tracker.OnlineNow()
	sort.Slice(online, func(i, j int) bool { return online[i].Name < online[j].Name })

	payload := PresencePayload{
		Type:        "presence",
		At:          time.Now(),
		Online:      online,
		OnlineCount: len(online),
	}
	if closed != nil {
		payload.Type = "sessionClosed"
		payload.ClosedSession = closed
	}

	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.WebSocket().Error("Failed to marshal presence payload", "error", err.Error())
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
			// Slow client; it will catch up on the next tick.
		}
	}
	b.mu.RUnlock()
}
