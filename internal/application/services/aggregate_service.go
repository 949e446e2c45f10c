package services

import (
	"sort"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

// Weekday labels in Monday-first order, the order every weekday-keyed
// aggregate is reported in.
var weekdayLabels = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// HourBucket is one hour-of-day bin in a histogram.
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// WeekdayBucket is one day-of-week bin in a histogram.
type WeekdayBucket struct {
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

// HeatmapCell is one weekday x hour cell of the activity heatmap.
type HeatmapCell struct {
	Weekday string `json:"weekday"`
	Hour    int    `json:"hour"`
	Count   int    `json:"count"`
}

// Aggregates bundles the histogram views over one filtered slice of the
// observation log. Buckets with no observations are present with zero
// counts so consumers always see the full 24 hours, 7 weekdays and 168
// heatmap cells.
type Aggregates struct {
	TotalObservations int             `json:"totalObservations"`
	ByHour            []HourBucket    `json:"byHour"`
	ByWeekday         []WeekdayBucket `json:"byWeekday"`
	Heatmap           []HeatmapCell   `json:"heatmap"`
}

// OnlineStatus reports who was present at the most recent snapshot, and
// whether that snapshot is fresh enough to trust.
type OnlineStatus struct {
	AsOf   time.Time `json:"asOf"`
	Stale  bool      `json:"stale"`
	Online []string  `json:"online"`
	Count  int       `json:"count"`
}

// AggregateService computes histogram aggregates and the log-derived
// currently-online view.
type AggregateService struct {
	cache  *stores.ActivityStore
	window time.Duration
	now    func() time.Time
	logger *logging.ChanneledLogger
}

// NewAggregateService creates a new instance of the aggregate service.
// window is the freshness window for the currently-online view.
func NewAggregateService(cache *stores.ActivityStore, window time.Duration, logger *logging.ChanneledLogger) *AggregateService {
	return &AggregateService{
		cache:  cache,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock swaps the time source. Tests only.
func (s *AggregateService) SetClock(now func() time.Time) {
	s.now = now
}

// GetAggregates computes all histogram views over the optionally filtered
// observation log.
func (s *AggregateService) GetAggregates(start, end *time.Time, users []string) *Aggregates {
	began := time.Now()
	observations := filterObservations(s.cache.Get(), start, end, users)

	var hours [24]int
	var weekdays [7]int
	var cells [7][24]int
	for _, obs := range observations {
		hour := obs.Timestamp.Hour()
		day := mondayIndex(obs.Timestamp.Weekday())
		hours[hour]++
		weekdays[day]++
		cells[day][hour]++
	}

	agg := &Aggregates{
		TotalObservations: len(observations),
		ByHour:            make([]HourBucket, 24),
		ByWeekday:         make([]WeekdayBucket, 7),
		Heatmap:           make([]HeatmapCell, 0, 7*24),
	}
	for hour := 0; hour < 24; hour++ {
		agg.ByHour[hour] = HourBucket{Hour: hour, Count: hours[hour]}
	}
	for day := 0; day < 7; day++ {
		agg.ByWeekday[day] = WeekdayBucket{Weekday: weekdayLabels[day], Count: weekdays[day]}
		for hour := 0; hour < 24; hour++ {
			agg.Heatmap = append(agg.Heatmap, HeatmapCell{
				Weekday: weekdayLabels[day],
				Hour:    hour,
				Count:   cells[day][hour],
			})
		}
	}

	s.logger.Analytics().Debug("Computed aggregates",
		"observations", len(observations),
		"duration", time.Since(began))
	return agg
}

// GetCurrentlyOnline derives presence from the observation log: the users
// observed within the freshness window ending at the most recent
// timestamp. When that timestamp is itself older than the window the whole
// dataset is flagged stale and nobody is reported online, a distinct
// signal from "nobody is online."
func (s *AggregateService) GetCurrentlyOnline() *OnlineStatus {
	observations := s.cache.Get()
	if len(observations) == 0 {
		return &OnlineStatus{Online: []string{}}
	}

	latest := observations[0].Timestamp
	for _, obs := range observations {
		if obs.Timestamp.After(latest) {
			latest = obs.Timestamp
		}
	}

	if s.now().Sub(latest) > s.window {
		s.logger.Analytics().Warn("Latest observation outside freshness window",
			"latest", latest.Format(activity.TimestampLayout),
			"window", s.window)
		return &OnlineStatus{AsOf: latest, Stale: true, Online: []string{}}
	}

	cutoff := latest.Add(-s.window)
	seen := make(map[string]string)
	for _, obs := range observations {
		if !obs.Timestamp.Before(cutoff) {
			seen[obs.UserID()] = obs.Name
		}
	}
	online := make([]string, 0, len(seen))
	for _, name := range seen {
		online = append(online, name)
	}
	sort.Strings(online)

	return &OnlineStatus{
		AsOf:   latest,
		Online: online,
		Count:  len(online),
	}
}

func mondayIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}
