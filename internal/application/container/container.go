// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/messaging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	persistence "github.com/lozalien/FB-Counter/internal/infrastructure/persistence/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/persistence/database"
	"github.com/lozalien/FB-Counter/internal/infrastructure/tracker"
	"github.com/lozalien/FB-Counter/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	ActivityService  *services.ActivityService
	SessionService   *services.SessionService
	AggregateService *services.AggregateService
	AuthService      *services.AuthService

	// Infrastructure dependencies
	Logger          *logging.ChanneledLogger
	Handles         *database.Handles
	ObservationRepo *persistence.SQLObservationRepository
	ActivityStore   *stores.ActivityStore
	Tracker         *tracker.LiveStateTracker
	Collector       *tracker.Collector
	Broadcaster     *messaging.PresenceBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer(logger *logging.ChanneledLogger, handles *database.Handles) *Container {
	observationRepo := persistence.NewSQLObservationRepository(handles, logger)
	activityStore := stores.NewActivityStore(observationRepo, config.ActivityCacheTTL, logger)
	liveTracker := tracker.NewLiveStateTracker(observationRepo, config.RecentSessionsKept, logger)
	collector := tracker.NewCollector(liveTracker, config.SnapshotQueueDepth, config.ScanInterval, logger)
	broadcaster := messaging.NewPresenceBroadcaster(liveTracker, config.ScanInterval, logger)

	// Every closed live session invalidates the read cache and reaches
	// connected websocket clients.
	liveTracker.OnSessionClosed(func(session *activity.Session) {
		activityStore.Invalidate()
		broadcaster.NotifySessionClosed(session)
	})

	return &Container{
		ActivityService:  services.NewActivityService(activityStore, logger),
		SessionService:   services.NewSessionService(activityStore, logger),
		AggregateService: services.NewAggregateService(activityStore, config.FreshnessWindow, logger),
		AuthService:      services.NewAuthService(logger),

		Logger:          logger,
		Handles:         handles,
		ObservationRepo: observationRepo,
		ActivityStore:   activityStore,
		Tracker:         liveTracker,
		Collector:       collector,
		Broadcaster:     broadcaster,
	}
}
