// Package tracker maintains the live per-user online/offline state machine.
// It turns the scanner's snapshots into stored observations, closes sessions
// when users disappear, and keeps running activity totals for the dashboard.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/security"
)

// entry is the live state for one tracked user. An entry exists iff the user
// was present in the most recent scan and has not yet been found absent.
type entry struct {
	displayName string
	onlineSince time.Time
	lastSeen    time.Time
}

// OnlineUser describes one currently tracked user for live status views.
type OnlineUser struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	OnlineSince time.Time `json:"onlineSince"`
	LastSeen    time.Time `json:"lastSeen"`
}

// UserStats holds the running totals folded in as sessions close. These are
// process-local conveniences; the batch reconstruction over the stored log
// remains the source of truth.
type UserStats struct {
	Name          string             `json:"name"`
	SessionCount  int                `json:"sessionCount"`
	TotalMinutes  float64            `json:"totalMinutes"`
	DailyMinutes  map[string]float64 `json:"dailyMinutes"`  // "2006-01-02" -> minutes
	WeeklyMinutes map[string]float64 `json:"weeklyMinutes"` // "2006-W01" -> minutes
	HourlyMinutes map[string]float64 `json:"hourlyMinutes"` // "15" (hour of start) -> minutes
}

// LiveStateTracker converts successive snapshots into observation rows and
// session-close events. It must only be driven from a single goroutine (the
// collector); the read accessors are safe from any goroutine.
type LiveStateTracker struct {
	repo   activity.ObservationRepository
	logger *logging.ChanneledLogger

	mu          sync.RWMutex
	online      map[string]*entry
	stats       map[string]*UserStats
	recent      []*activity.Session
	recentLimit int
	lastScan    time.Time

	onClose []func(*activity.Session)
}

// NewLiveStateTracker creates a tracker that appends observations to the
// given repository and keeps up to recentLimit recently closed sessions.
func NewLiveStateTracker(repo activity.ObservationRepository, recentLimit int, logger *logging.ChanneledLogger) *LiveStateTracker {
	return &LiveStateTracker{
		repo:        repo,
		logger:      logger,
		online:      make(map[string]*entry),
		stats:       make(map[string]*UserStats),
		recentLimit: recentLimit,
	}
}

// OnSessionClosed registers a callback invoked for every closed session.
// Must be called before the collector starts.
func (t *LiveStateTracker) OnSessionClosed(fn func(*activity.Session)) {
	t.onClose = append(t.onClose, fn)
}

// Apply processes one snapshot: the set of display names observed online at
// time at. Every present user produces a new observation row; users that
// vanished since the previous scan have their session closed. An empty or
// nil snapshot means nobody was online this scan, so every tracked user
// closes through the normal path.
func (t *LiveStateTracker) Apply(names []string, at time.Time) {
	present := make(map[string]string, len(names))
	for _, name := range names {
		userID := activity.NormalizeUserID(name)
		if userID == "" {
			continue
		}
		present[userID] = name
	}

	for userID, name := range present {
		if err := t.repo.Append(at, name); err != nil {
			// A failed append loses one sighting, never corrupts the log.
			t.logger.Collector().Error("Failed to store observation", "user", userID, "error", err.Error())
		}
	}

	var closed []*activity.Session

	t.mu.Lock()
	for userID, name := range present {
		if e, tracked := t.online[userID]; tracked {
			e.lastSeen = at
			continue
		}
		t.online[userID] = &entry{displayName: name, onlineSince: at, lastSeen: at}
		t.logger.Collector().Info("Started tracking", "user", userID, "name", name)
	}

	for userID, e := range t.online {
		if _, stillOnline := present[userID]; stillOnline {
			continue
		}
		session := t.closeLocked(userID, e)
		closed = append(closed, session)
	}

	t.lastScan = at
	t.mu.Unlock()

	for _, session := range closed {
		for _, fn := range t.onClose {
			fn(session)
		}
	}
}

// closeLocked turns a live entry into a closed session and folds its
// duration into the running totals. Caller holds the write lock.
func (t *LiveStateTracker) closeLocked(userID string, e *entry) *activity.Session {
	session := &activity.Session{
		ID:       security.GenerateULID(),
		UserID:   userID,
		Name:     e.displayName,
		Start:    e.onlineSince,
		End:      e.lastSeen,
		Duration: e.lastSeen.Sub(e.onlineSince),
	}
	delete(t.online, userID)

	stats, ok := t.stats[userID]
	if !ok {
		stats = &UserStats{
			Name:          e.displayName,
			DailyMinutes:  make(map[string]float64),
			WeeklyMinutes: make(map[string]float64),
			HourlyMinutes: make(map[string]float64),
		}
		t.stats[userID] = stats
	}

	minutes := session.Duration.Minutes()
	stats.SessionCount++
	stats.TotalMinutes += minutes
	stats.DailyMinutes[session.Start.Format("2006-01-02")] += minutes
	year, week := session.Start.ISOWeek()
	stats.WeeklyMinutes[fmt.Sprintf("%d-W%02d", year, week)] += minutes
	stats.HourlyMinutes[session.Start.Format("15")] += minutes

	t.recent = append(t.recent, session)
	if len(t.recent) > t.recentLimit {
		t.recent = t.recent[len(t.recent)-t.recentLimit:]
	}

	t.logger.Collector().Info("Went offline",
		"user", userID,
		"name", e.displayName,
		"minutes", fmt.Sprintf("%.1f", minutes))
	return session
}

// OnlineNow returns the users currently tracked as online.
func (t *LiveStateTracker) OnlineNow() []OnlineUser {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]OnlineUser, 0, len(t.online))
	for userID, e := range t.online {
		users = append(users, OnlineUser{
			UserID:      userID,
			Name:        e.displayName,
			OnlineSince: e.onlineSince,
			LastSeen:    e.lastSeen,
		})
	}
	return users
}

// Stats returns a copy of the running per-user totals.
func (t *LiveStateTracker) Stats() map[string]*UserStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]*UserStats, len(t.stats))
	for userID, stats := range t.stats {
		copied := &UserStats{
			Name:          stats.Name,
			SessionCount:  stats.SessionCount,
			TotalMinutes:  stats.TotalMinutes,
			DailyMinutes:  make(map[string]float64, len(stats.DailyMinutes)),
			WeeklyMinutes: make(map[string]float64, len(stats.WeeklyMinutes)),
			HourlyMinutes: make(map[string]float64, len(stats.HourlyMinutes)),
		}
		for k, v := range stats.DailyMinutes {
			copied.DailyMinutes[k] = v
		}
		for k, v := range stats.WeeklyMinutes {
			copied.WeeklyMinutes[k] = v
		}
		for k, v := range stats.HourlyMinutes {
			copied.HourlyMinutes[k] = v
		}
		out[userID] = copied
	}
	return out
}

// RecentSessions returns the most recently closed sessions, oldest first.
func (t *LiveStateTracker) RecentSessions() []*activity.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*activity.Session, len(t.recent))
	copy(out, t.recent)
	return out
}

// LastScan reports when the tracker last processed a snapshot.
func (t *LiveStateTracker) LastScan() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastScan
}

// Shutdown logs any still-open sessions. Their durations are never
// recorded; the loss is accepted rather than guessed at.
func (t *LiveStateTracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for userID, e := range t.online {
		t.logger.Shutdown().Warn("Open session lost at shutdown",
			"user", userID,
			"onlineSince", e.onlineSince.Format(activity.TimestampLayout),
			"lastSeen", e.lastSeen.Format(activity.TimestampLayout))
		delete(t.online, userID)
	}
}
