package tracker_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/tracker"
)

type appendRecord struct {
	at   time.Time
	name string
}

type recordingRepo struct {
	appends []appendRecord
}

func (r *recordingRepo) Append(timestamp time.Time, name string) error {
	r.appends = append(r.appends, appendRecord{at: timestamp, name: name})
	return nil
}

func (r *recordingRepo) ReadAll() ([]*activity.Observation, error)                  { return nil, nil }
func (r *recordingRepo) ReadSince(d time.Duration) ([]*activity.Observation, error) { return nil, nil }

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

var scanStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func TestTrackerClosesSessionOnAbsence(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	var closed []*activity.Session
	tr.OnSessionClosed(func(s *activity.Session) { closed = append(closed, s) })

	// Bob present for three consecutive scans, then absent.
	for i := 0; i < 3; i++ {
		tr.Apply([]string{"Bob"}, scanStart.Add(time.Duration(i)*time.Minute))
	}
	require.Len(t, repo.appends, 3)
	require.Len(t, tr.OnlineNow(), 1)

	tr.Apply(nil, scanStart.Add(3*time.Minute))

	require.Empty(t, tr.OnlineNow())
	require.Len(t, closed, 1)

	// The session spans first sighting to last sighting, not to the scan
	// that noticed the absence.
	session := closed[0]
	require.Equal(t, "bob", session.UserID)
	require.Equal(t, scanStart, session.Start)
	require.Equal(t, scanStart.Add(2*time.Minute), session.End)
	require.Equal(t, 2.0, session.Minutes())
	require.NotEmpty(t, session.ID)
}

func TestTrackerAppendsRowForEveryPresentUserEachScan(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	tr.Apply([]string{"Bob", "Alice Smith"}, scanStart)
	tr.Apply([]string{"Bob", "Alice Smith"}, scanStart.Add(time.Minute))

	require.Len(t, repo.appends, 4)
}

func TestTrackerDeduplicatesNameVariantsWithinSnapshot(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	tr.Apply([]string{"Bob", " bob ", "BOB"}, scanStart)

	require.Len(t, repo.appends, 1)
	require.Len(t, tr.OnlineNow(), 1)
}

func TestTrackerEmptySnapshotClosesEveryone(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	tr.Apply([]string{"Bob", "Alice Smith"}, scanStart)
	tr.Apply([]string{}, scanStart.Add(time.Minute))

	require.Empty(t, tr.OnlineNow())
	require.Len(t, tr.RecentSessions(), 2)
}

func TestTrackerRecentSessionsBounded(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 2, newTestLogger(t))

	for i := 0; i < 4; i++ {
		at := scanStart.Add(time.Duration(2*i) * time.Minute)
		tr.Apply([]string{"Bob"}, at)
		tr.Apply(nil, at.Add(time.Minute))
	}

	require.Len(t, tr.RecentSessions(), 2)
}

func TestTrackerStatsAccumulate(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	// Two sessions of ten minutes each.
	for i := 0; i <= 10; i++ {
		tr.Apply([]string{"Bob"}, scanStart.Add(time.Duration(i)*time.Minute))
	}
	tr.Apply(nil, scanStart.Add(11*time.Minute))

	later := scanStart.Add(2 * time.Hour)
	for i := 0; i <= 10; i++ {
		tr.Apply([]string{"Bob"}, later.Add(time.Duration(i)*time.Minute))
	}
	tr.Apply(nil, later.Add(11*time.Minute))

	stats := tr.Stats()
	require.Contains(t, stats, "bob")
	require.Equal(t, 2, stats["bob"].SessionCount)
	require.Equal(t, 20.0, stats["bob"].TotalMinutes)

	day := scanStart.Format("2006-01-02")
	require.Equal(t, 20.0, stats["bob"].DailyMinutes[day])
}

func TestTrackerLastScanAdvances(t *testing.T) {
	repo := &recordingRepo{}
	tr := tracker.NewLiveStateTracker(repo, 100, newTestLogger(t))

	require.True(t, tr.LastScan().IsZero())
	tr.Apply([]string{"Bob"}, scanStart)
	require.Equal(t, scanStart, tr.LastScan())

	// Even an empty scan counts as a scan.
	tr.Apply(nil, scanStart.Add(time.Minute))
	require.Equal(t, scanStart.Add(time.Minute), tr.LastScan())
}
