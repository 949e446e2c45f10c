// Package activity defines the core entities of the presence tracker:
// observations (timestamped "user seen online" facts), the sessions derived
// from them, and per-user summary statistics.
package activity

import (
	"strings"
	"time"
)

// TimestampLayout is the storage format for observation timestamps,
// recorded in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// StatusOnline is the only status ever written. Offline is inferred by
// absence; no explicit offline rows exist.
const StatusOnline = "Online"

// Observation is one immutable "user seen online" fact. Rows are append-only
// and never updated or deleted; repeated sightings of the same user in
// consecutive scans each produce a new row.
type Observation struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}

// UserID returns the canonical identity key for this observation's user.
func (o *Observation) UserID() string {
	return NormalizeUserID(o.Name)
}

// Session is a contiguous interval of presumed continuous online presence.
// Sessions are derived from observations on demand and never persisted; for
// a fixed user they are totally ordered and non-overlapping, with
// Start <= End always.
type Session struct {
	ID       string        `json:"id,omitempty"`
	UserID   string        `json:"userId"`
	Name     string        `json:"name"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// Minutes returns the session duration in minutes.
func (s *Session) Minutes() float64 {
	return s.Duration.Minutes()
}

// UserSummary holds per-user session statistics over an observation set.
type UserSummary struct {
	UserID             string    `json:"userId"`
	Name               string    `json:"name"`
	TotalSessions      int       `json:"totalSessions"`
	AvgSessionMinutes  float64   `json:"avgSessionMinutes"`
	MaxSessionMinutes  float64   `json:"maxSessionMinutes"`
	TotalOnlineMinutes float64   `json:"totalOnlineMinutes"`
	FirstSeen          time.Time `json:"firstSeen"`
	LastSeen           time.Time `json:"lastSeen"`
	DaysActive         int       `json:"daysActive"`
}

// NormalizeUserID derives a stable identity key from a free-text display
// name: case-folded, with runs of whitespace collapsed to single
// underscores. Repeated observations of the same person collapse to one key
// regardless of minor text variation.
func NormalizeUserID(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}
