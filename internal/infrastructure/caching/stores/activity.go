// Package stores contains the cache stores that sit between analytics
// readers and the observation log.
package stores

import (
	"sync"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// ActivityStore is a read-through cache over the full observation log. It
// holds a single snapshot plus a freshness timestamp so that concurrent
// dashboard queries do not hammer a store the collector is writing to.
//
// The store is an explicit object with an injected clock; it is constructed
// once per process and passed by reference, never reached through globals.
type ActivityStore struct {
	repo   activity.ObservationRepository
	ttl    time.Duration
	now    func() time.Time
	logger *logging.ChanneledLogger

	mu        sync.RWMutex
	snapshot  []*activity.Observation
	fetchedAt time.Time
}

// NewActivityStore creates a freshness cache over the given repository.
func NewActivityStore(repo activity.ObservationRepository, ttl time.Duration, logger *logging.ChanneledLogger) *ActivityStore {
	return &ActivityStore{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the time source. Tests inject a fake clock here.
func (s *ActivityStore) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the cached snapshot while it is fresh, refreshing it through
// the repository otherwise. If the refresh fails the previous snapshot is
// served stale rather than surfacing an error; concurrent callers race
// benignly and each receives a valid, possibly stale snapshot.
func (s *ActivityStore) Get() []*activity.Observation {
	start := time.Now()

	s.mu.RLock()
	fresh := !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.ttl
	if fresh {
		snapshot := copySnapshot(s.snapshot)
		s.mu.RUnlock()
		s.logger.LogCacheOperation("get", true, time.Since(start))
		return snapshot
	}
	s.mu.RUnlock()

	observations, err := s.repo.ReadAll()
	if err != nil {
		s.logger.Cache().Warn("Refresh failed, serving stale snapshot", "error", err.Error())
		s.mu.RLock()
		snapshot := copySnapshot(s.snapshot)
		s.mu.RUnlock()
		return snapshot
	}

	s.mu.Lock()
	s.snapshot = observations
	s.fetchedAt = s.now()
	snapshot := copySnapshot(s.snapshot)
	s.mu.Unlock()

	s.logger.LogCacheOperation("get", false, time.Since(start))
	return snapshot
}

// Invalidate discards the cached snapshot so the next Get refreshes.
func (s *ActivityStore) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

// FetchedAt reports when the current snapshot was read from the store.
func (s *ActivityStore) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// copySnapshot returns a defensive copy so callers cannot mutate shared
// cache state. Observations themselves are immutable facts.
func copySnapshot(snapshot []*activity.Observation) []*activity.Observation {
	if snapshot == nil {
		return nil
	}
	out := make([]*activity.Observation, len(snapshot))
	copy(out, snapshot)
	return out
}
