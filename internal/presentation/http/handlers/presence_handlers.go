package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lozalien/FB-Counter/internal/infrastructure/messaging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/tracker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced on the REST surface; the socket carries
		// presence data only.
		return true
	},
}

// PresenceHandlers contains the live-presence and ingest HTTP handlers.
type PresenceHandlers struct {
	tracker     *tracker.LiveStateTracker
	collector   *tracker.Collector
	broadcaster *messaging.PresenceBroadcaster
	logger      *logging.ChanneledLogger
}

// NewPresenceHandlers creates presence handlers with injected dependencies.
func NewPresenceHandlers(liveTracker *tracker.LiveStateTracker, collector *tracker.Collector, broadcaster *messaging.PresenceBroadcaster, logger *logging.ChanneledLogger) *PresenceHandlers {
	return &PresenceHandlers{
		tracker:     liveTracker,
		collector:   collector,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// snapshotRequest is the ingest payload from the collector.
type snapshotRequest struct {
	Names []string `json:"names"`
}

// PostSnapshot handles POST /api/v1/snapshots - one scan from the collector.
func (h *PresenceHandlers) PostSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot payload"})
		return
	}

	id, err := h.collector.Submit(req.Names)
	if err != nil {
		if errors.Is(err, tracker.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot queue full"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"snapshotId": id,
		"names":      len(req.Names),
	})
}

// GetLivePresence handles GET /api/v1/presence/live - the tracker's view of
// who is online right now, with running aggregates and recent sessions.
func (h *PresenceHandlers) GetLivePresence(c *gin.Context) {
	online := h.tracker.OnlineNow()
	c.JSON(http.StatusOK, gin.H{
		"online":         online,
		"onlineCount":    len(online),
		"lastScan":       h.tracker.LastScan(),
		"recentSessions": h.tracker.RecentSessions(),
		"stats":          h.tracker.Stats(),
	})
}

// GetPresenceWS handles GET /api/v1/presence/ws - upgrades to a websocket
// that receives presence pushes on every scan tick.
func (h *PresenceHandlers) GetPresenceWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WebSocket().Error("Websocket upgrade failed", "error", err, "remote", c.ClientIP())
		return
	}

	client := &messaging.PresenceClient{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel onto the wire. Exits when the
// broadcaster closes the channel.
func (h *PresenceHandlers) writePump(client *messaging.PresenceClient) {
	defer client.Conn.Close()
	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames and unregisters the client when the
// connection drops.
func (h *PresenceHandlers) readPump(client *messaging.PresenceClient) {
	defer h.broadcaster.Unregister(client)
	client.Conn.SetReadLimit(512)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
