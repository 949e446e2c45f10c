package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	persistence "github.com/lozalien/FB-Counter/internal/infrastructure/persistence/activity"
)

// DatabaseHandlers contains database status HTTP handlers.
type DatabaseHandlers struct {
	repo   *persistence.SQLObservationRepository
	cache  *stores.ActivityStore
	logger *logging.ChanneledLogger
}

// NewDBHandlers creates database handlers with injected dependencies.
func NewDBHandlers(repo *persistence.SQLObservationRepository, cache *stores.ActivityStore, logger *logging.ChanneledLogger) *DatabaseHandlers {
	return &DatabaseHandlers{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetDatabaseStatus handles GET /api/v1/db/status
func (h *DatabaseHandlers) GetDatabaseStatus(c *gin.Context) {
	start := time.Now()

	count, err := h.repo.Count()
	if err != nil {
		h.logger.Database().Error("Database status check failed", "error", err, "duration", time.Since(start))
		// Return error status but still return 200 OK with error details
		c.JSON(http.StatusOK, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	h.logger.Database().Debug("Database status check completed", "observations", count, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"observations": count,
		"cacheRefresh": h.cache.FetchedAt(),
		"responseTime": time.Since(start).String(),
	})
}
