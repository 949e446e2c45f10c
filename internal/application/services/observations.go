package services

import (
	"sort"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
)

// filterObservations narrows the observation log to an optional inclusive
// time range and an optional set of users. User matching goes through
// NormalizeUserID so callers can pass display-cased names.
func filterObservations(observations []*activity.Observation, start, end *time.Time, users []string) []*activity.Observation {
	var wanted map[string]bool
	if len(users) > 0 {
		wanted = make(map[string]bool, len(users))
		for _, user := range users {
			wanted[activity.NormalizeUserID(user)] = true
		}
	}

	var filtered []*activity.Observation
	for _, obs := range observations {
		if start != nil && obs.Timestamp.Before(*start) {
			continue
		}
		if end != nil && obs.Timestamp.After(*end) {
			continue
		}
		if wanted != nil && !wanted[obs.UserID()] {
			continue
		}
		filtered = append(filtered, obs)
	}
	return filtered
}

// groupByUser splits observations into per-user slices keyed by normalized
// user ID. Groups come back in deterministic (sorted key) order.
func groupByUser(observations []*activity.Observation) [][]*activity.Observation {
	byUser := make(map[string][]*activity.Observation)
	for _, obs := range observations {
		id := obs.UserID()
		byUser[id] = append(byUser[id], obs)
	}

	keys := make([]string, 0, len(byUser))
	for id := range byUser {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	groups := make([][]*activity.Observation, 0, len(keys))
	for _, id := range keys {
		groups = append(groups, byUser[id])
	}
	return groups
}
