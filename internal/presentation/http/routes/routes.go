// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/application/container"
	"github.com/lozalien/FB-Counter/internal/presentation/http/handlers"
	"github.com/lozalien/FB-Counter/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	activityHandlers := handlers.NewActivityHandlers(c.ActivityService, c.Logger)
	sessionHandlers := handlers.NewSessionHandlers(c.SessionService, c.Logger)
	aggregateHandlers := handlers.NewAggregateHandlers(c.AggregateService, c.Logger)
	presenceHandlers := handlers.NewPresenceHandlers(c.Tracker, c.Collector, c.Broadcaster, c.Logger)
	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.Logger)
	dbHandlers := handlers.NewDBHandlers(c.ObservationRepo, c.ActivityStore, c.Logger)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandlers.PostLogin)

		// Ingest requires a collector token
		snapshots := api.Group("/snapshots")
		snapshots.Use(middleware.CollectorAuthMiddleware(c.AuthService))
		{
			snapshots.POST("", presenceHandlers.PostSnapshot)
		}

		// Read-only analytics surface
		api.GET("/activity", activityHandlers.GetActivity)
		api.GET("/activity/recent", activityHandlers.GetRecentActivity)
		api.GET("/users", activityHandlers.GetUsers)
		api.GET("/sessions", sessionHandlers.GetSessions)
		api.GET("/sessions/summary", sessionHandlers.GetSummaries)
		api.GET("/aggregates", aggregateHandlers.GetAggregates)

		// Presence
		api.GET("/presence/online", aggregateHandlers.GetCurrentlyOnline)
		api.GET("/presence/live", presenceHandlers.GetLivePresence)
		api.GET("/presence/ws", presenceHandlers.GetPresenceWS)

		// Database status
		api.GET("/db/status", dbHandlers.GetDatabaseStatus)
	}

	return r
}
