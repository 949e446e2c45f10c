package services_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/caching/stores"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
)

type stubRepo struct {
	observations []*activity.Observation
	err          error
}

func (r *stubRepo) Append(timestamp time.Time, name string) error { return r.err }

func (r *stubRepo) ReadAll() ([]*activity.Observation, error) {
	return r.observations, r.err
}

func (r *stubRepo) ReadSince(d time.Duration) ([]*activity.Observation, error) {
	return r.observations, r.err
}

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

func newStoreWith(t *testing.T, observations []*activity.Observation) *stores.ActivityStore {
	t.Helper()
	return stores.NewActivityStore(&stubRepo{observations: observations}, time.Minute, newTestLogger(t))
}

func TestAggregatesZeroFilled(t *testing.T) {
	service := services.NewAggregateService(newStoreWith(t, nil), 15*time.Minute, newTestLogger(t))

	agg := service.GetAggregates(nil, nil, nil)

	require.Zero(t, agg.TotalObservations)
	require.Len(t, agg.ByHour, 24)
	require.Len(t, agg.ByWeekday, 7)
	require.Len(t, agg.Heatmap, 7*24)
	for _, bucket := range agg.ByHour {
		require.Zero(t, bucket.Count)
	}
	require.Equal(t, "Monday", agg.ByWeekday[0].Weekday)
	require.Equal(t, "Sunday", agg.ByWeekday[6].Weekday)
}

func TestAggregatesCountsBuckets(t *testing.T) {
	// 2025-03-10 is a Monday.
	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	tuesday := monday.Add(24 * time.Hour)
	obs := []*activity.Observation{
		obsAt("Bob", monday),
		obsAt("Bob", monday.Add(30*time.Minute)),
		obsAt("Bob", tuesday.Add(14*time.Hour)),
	}

	service := services.NewAggregateService(newStoreWith(t, obs), 15*time.Minute, newTestLogger(t))
	agg := service.GetAggregates(nil, nil, nil)

	require.Equal(t, 3, agg.TotalObservations)
	require.Equal(t, 2, agg.ByHour[9].Count)
	require.Equal(t, 1, agg.ByHour[23].Count)
	require.Equal(t, 2, agg.ByWeekday[0].Count)
	require.Equal(t, 1, agg.ByWeekday[1].Count)

	// Heatmap rows are weekday-major, 24 cells each.
	require.Equal(t, 2, agg.Heatmap[9].Count)
	require.Equal(t, 1, agg.Heatmap[24+23].Count)
}

func TestCurrentlyOnlineFresh(t *testing.T) {
	// Online means observed within the window ending at the latest
	// timestamp, not only at the latest instant.
	latest := time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)
	obs := []*activity.Observation{
		obsAt("Alice Smith", latest.Add(-10*time.Minute)),
		obsAt("Bob", latest),
		obsAt("Carol", latest.Add(-20*time.Minute)),
	}

	service := services.NewAggregateService(newStoreWith(t, obs), 15*time.Minute, newTestLogger(t))
	service.SetClock(func() time.Time { return latest.Add(5 * time.Minute) })

	status := service.GetCurrentlyOnline()

	require.False(t, status.Stale)
	require.Equal(t, latest, status.AsOf)
	require.Equal(t, []string{"Alice Smith", "Bob"}, status.Online)
	require.Equal(t, 2, status.Count)
}

func TestCurrentlyOnlineStale(t *testing.T) {
	// Latest observation at 10:00, freshness window 15 minutes, clock at
	// 10:20. Presence that old is reported stale with nobody online.
	latest := time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)
	obs := []*activity.Observation{obsAt("Bob", latest)}

	service := services.NewAggregateService(newStoreWith(t, obs), 15*time.Minute, newTestLogger(t))
	service.SetClock(func() time.Time { return latest.Add(20 * time.Minute) })

	status := service.GetCurrentlyOnline()

	require.True(t, status.Stale)
	require.Empty(t, status.Online)
	require.Equal(t, latest, status.AsOf)
}

func TestCurrentlyOnlineEmptyLog(t *testing.T) {
	service := services.NewAggregateService(newStoreWith(t, nil), 15*time.Minute, newTestLogger(t))

	status := service.GetCurrentlyOnline()

	require.False(t, status.Stale)
	require.Empty(t, status.Online)
	require.True(t, status.AsOf.IsZero())
}

func TestUserSummariesMergeNameVariants(t *testing.T) {
	// "Alice SMITH" and " alice   smith " are the same user after
	// normalization; summaries collapse them into one row.
	obs := minuteSeries("Alice SMITH", base, 5)
	obs = append(obs, minuteSeries(" alice   smith ", base.Add(time.Hour), 5)...)
	obs = append(obs, minuteSeries("Bob", base, 3)...)

	service := services.NewSessionService(newStoreWith(t, obs), newTestLogger(t))
	summaries := service.GetUserSummaries(15*time.Minute, nil, nil, nil)

	require.Len(t, summaries, 2)
	require.Equal(t, "alice_smith", summaries[0].UserID)
	require.Equal(t, 2, summaries[0].TotalSessions)
	require.Equal(t, "bob", summaries[1].UserID)
}
