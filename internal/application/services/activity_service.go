package services

import (
	"sort"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// TrackedUser is one distinct user seen in the observation log.
type TrackedUser struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Observations int       `json:"observations"`
	FirstSeen    time.Time `json:"firstSeen"`
	LastSeen     time.Time `json:"lastSeen"`
}

// ActivityService serves raw observation queries from the freshness cache.
type ActivityService struct {
	cache  *stores.ActivityStore
	logger *logging.ChanneledLogger
}

// NewActivityService creates a new instance of the activity service.
func NewActivityService(cache *stores.ActivityStore, logger *logging.ChanneledLogger) *ActivityService {
	return &ActivityService{
		cache:  cache,
		logger: logger,
	}
}

// GetActivity returns observations narrowed by the optional time range and
// users, newest first, capped at limit when limit > 0.
func (s *ActivityService) GetActivity(start, end *time.Time, users []string, limit int) []*activity.Observation {
	filtered := filterObservations(s.cache.Get(), start, end, users)

	sorted := make([]*activity.Observation, len(filtered))
	copy(sorted, filtered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// GetRecentActivity returns observations from the trailing window, newest
// first.
func (s *ActivityService) GetRecentActivity(window time.Duration) []*activity.Observation {
	cutoff := time.Now().Add(-window)
	return s.GetActivity(&cutoff, nil, nil, 0)
}

// GetUsers lists every distinct user in the log with first and last
// appearance, ordered by observation count descending.
func (s *ActivityService) GetUsers() []*TrackedUser {
	byUser := make(map[string]*TrackedUser)
	for _, obs := range s.cache.Get() {
		id := obs.UserID()
		user, ok := byUser[id]
		if !ok {
			byUser[id] = &TrackedUser{
				UserID:       id,
				Name:         obs.Name,
				Observations: 1,
				FirstSeen:    obs.Timestamp,
				LastSeen:     obs.Timestamp,
			}
			continue
		}
		user.Observations++
		if obs.Timestamp.Before(user.FirstSeen) {
			user.FirstSeen = obs.Timestamp
		}
		if !obs.Timestamp.Before(user.LastSeen) {
			user.LastSeen = obs.Timestamp
			user.Name = obs.Name
		}
	}

	users := make([]*TrackedUser, 0, len(byUser))
	for _, user := range byUser {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Observations != users[j].Observations {
			return users[i].Observations > users[j].Observations
		}
		return users[i].UserID < users[j].UserID
	})
	return users
}
