package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// AggregateHandlers contains the histogram and heatmap HTTP handlers.
type AggregateHandlers struct {
	aggregateService *services.AggregateService
	logger           *logging.ChanneledLogger
}

// NewAggregateHandlers creates aggregate handlers with injected dependencies.
func NewAggregateHandlers(aggregateService *services.AggregateService, logger *logging.ChanneledLogger) *AggregateHandlers {
	return &AggregateHandlers{
		aggregateService: aggregateService,
		logger:           logger,
	}
}

// GetAggregates handles GET /api/v1/aggregates
func (h *AggregateHandlers) GetAggregates(c *gin.Context) {
	start := time.Now()

	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	aggregates := h.aggregateService.GetAggregates(startDate, endDate, parseUsers(c))
	h.logger.Analytics().Debug("Served aggregates request",
		"observations", aggregates.TotalObservations, "duration", time.Since(start))

	c.JSON(http.StatusOK, aggregates)
}

// GetCurrentlyOnline handles GET /api/v1/presence/online
func (h *AggregateHandlers) GetCurrentlyOnline(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregateService.GetCurrentlyOnline())
}
