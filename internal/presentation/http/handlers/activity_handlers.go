package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// ActivityHandlers contains the raw-observation HTTP handlers.
type ActivityHandlers struct {
	activityService *services.ActivityService
	logger          *logging.ChanneledLogger
}

// NewActivityHandlers creates activity handlers with injected dependencies.
func NewActivityHandlers(activityService *services.ActivityService, logger *logging.ChanneledLogger) *ActivityHandlers {
	return &ActivityHandlers{
		activityService: activityService,
		logger:          logger,
	}
}

// GetActivity handles GET /api/v1/activity
func (h *ActivityHandlers) GetActivity(c *gin.Context) {
	start := time.Now()

	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	observations := h.activityService.GetActivity(startDate, endDate, parseUsers(c), limit)
	h.logger.Analytics().Debug("Served activity request",
		"count", len(observations), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"count":        len(observations),
		"observations": observations,
	})
}

// GetRecentActivity handles GET /api/v1/activity/recent
func (h *ActivityHandlers) GetRecentActivity(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours"})
			return
		}
		hours = parsed
	}

	observations := h.activityService.GetRecentActivity(time.Duration(hours) * time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"hours":        hours,
		"count":        len(observations),
		"observations": observations,
	})
}

// GetUsers handles GET /api/v1/users
func (h *ActivityHandlers) GetUsers(c *gin.Context) {
	users := h.activityService.GetUsers()
	c.JSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": users,
	})
}
