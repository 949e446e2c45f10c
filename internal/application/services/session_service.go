// Package services contains the application services that compute sessions
// and activity analytics from the observation log.
package services

import (
	"sort"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// SessionService reconstructs sessions in batch from the stored observation
// log. This reconstruction is the canonical sessionization: it is pure and
// reproducible from stored timestamps alone, where the live tracker depends
// on scan timing. The two can disagree near scan boundaries.
type SessionService struct {
	cache  *stores.ActivityStore
	logger *logging.ChanneledLogger
}

// NewSessionService creates a new instance of the session service.
func NewSessionService(cache *stores.ActivityStore, logger *logging.ChanneledLogger) *SessionService {
	return &SessionService{
		cache:  cache,
		logger: logger,
	}
}

// GetSessions reconstructs the sessions for one user over the optional date
// range. gap <= 0 falls back to the caller's configured default upstream.
func (s *SessionService) GetSessions(user string, gap time.Duration, start, end *time.Time) []*activity.Session {
	began := time.Now()
	userID := activity.NormalizeUserID(user)

	observations := filterObservations(s.cache.Get(), start, end, nil)
	var userObs []*activity.Observation
	for _, obs := range observations {
		if obs.UserID() == userID {
			userObs = append(userObs, obs)
		}
	}

	sessions := ReconstructSessions(userObs, gap)
	s.logger.Analytics().Debug("Reconstructed sessions",
		"user", userID,
		"observations", len(userObs),
		"sessions", len(sessions),
		"duration", time.Since(began))
	return sessions
}

// GetUserSummaries reconstructs sessions for every user in scope and derives
// per-user summary statistics, ordered by total online minutes descending.
func (s *SessionService) GetUserSummaries(gap time.Duration, start, end *time.Time, users []string) []*activity.UserSummary {
	observations := filterObservations(s.cache.Get(), start, end, users)

	var summaries []*activity.UserSummary
	for _, group := range groupByUser(observations) {
		sessions := ReconstructSessions(group, gap)
		if summary := SummarizeUser(group, sessions); summary != nil {
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalOnlineMinutes != summaries[j].TotalOnlineMinutes {
			return summaries[i].TotalOnlineMinutes > summaries[j].TotalOnlineMinutes
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	return summaries
}

// ReconstructSessions partitions one user's observations into sessions using
// gap-based segmentation. Input must belong to a single user; it is sorted
// by timestamp before segmentation. A break occurs where the difference
// between consecutive timestamps strictly exceeds gap: a silence exactly
// equal to the threshold stays within the same session. A single
// observation yields one degenerate session with start == end and zero
// duration. The function is pure; reconstructing twice from the same input
// yields identical results.
func ReconstructSessions(observations []*activity.Observation, gap time.Duration) []*activity.Session {
	if len(observations) == 0 {
		return nil
	}

	sorted := make([]*activity.Observation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	userID := sorted[0].UserID()
	name := sorted[len(sorted)-1].Name

	var sessions []*activity.Session
	runStart := 0
	for i := 1; i <= len(sorted); i++ {
		atBreak := i == len(sorted) ||
			sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) > gap
		if !atBreak {
			continue
		}

		first := sorted[runStart].Timestamp
		last := sorted[i-1].Timestamp
		sessions = append(sessions, &activity.Session{
			UserID:   userID,
			Name:     name,
			Start:    first,
			End:      last,
			Duration: last.Sub(first),
		})
		runStart = i
	}
	return sessions
}

// SummarizeUser derives a summary row from one user's observations and the
// sessions reconstructed from them. Returns nil for empty input.
func SummarizeUser(observations []*activity.Observation, sessions []*activity.Session) *activity.UserSummary {
	if len(observations) == 0 || len(sessions) == 0 {
		return nil
	}

	firstSeen := observations[0].Timestamp
	lastSeen := observations[0].Timestamp
	days := make(map[string]bool)
	for _, obs := range observations {
		if obs.Timestamp.Before(firstSeen) {
			firstSeen = obs.Timestamp
		}
		if obs.Timestamp.After(lastSeen) {
			lastSeen = obs.Timestamp
		}
		days[obs.Timestamp.Format("2006-01-02")] = true
	}

	var total, max float64
	for _, session := range sessions {
		minutes := session.Minutes()
		total += minutes
		if minutes > max {
			max = minutes
		}
	}

	return &activity.UserSummary{
		UserID:             sessions[0].UserID,
		Name:               sessions[0].Name,
		TotalSessions:      len(sessions),
		AvgSessionMinutes:  total / float64(len(sessions)),
		MaxSessionMinutes:  max,
		TotalOnlineMinutes: total,
		FirstSeen:          firstSeen,
		LastSeen:           lastSeen,
		DaysActive:         len(days),
	}
}
