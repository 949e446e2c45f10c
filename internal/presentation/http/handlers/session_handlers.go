package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// SessionHandlers contains the batch-sessionization HTTP handlers.
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
}

// NewSessionHandlers creates session handlers with injected dependencies.
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
	}
}

// GetSessions handles GET /api/v1/sessions?user=<name>
func (h *SessionHandlers) GetSessions(c *gin.Context) {
	start := time.Now()

	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user parameter is required"})
		return
	}

	gap, err := parseGap(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessions := h.sessionService.GetSessions(user, gap, startDate, endDate)
	h.logger.Analytics().Debug("Served sessions request",
		"user", user, "sessions", len(sessions), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"gapMinutes": int(gap.Minutes()),
		"count":      len(sessions),
		"sessions":   sessions,
	})
}

// GetSummaries handles GET /api/v1/sessions/summary
func (h *SessionHandlers) GetSummaries(c *gin.Context) {
	gap, err := parseGap(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summaries := h.sessionService.GetUserSummaries(gap, startDate, endDate, parseUsers(c))
	c.JSON(http.StatusOK, gin.H{
		"gapMinutes": int(gap.Minutes()),
		"count":      len(summaries),
		"summaries":  summaries,
	})
}
