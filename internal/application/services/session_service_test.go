package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lozalien/FB-Counter/internal/application/services"
	"github.com/lozalien/FB-Counter/internal/domain/activity"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func obsAt(name string, at time.Time) *activity.Observation {
	return &activity.Observation{
		Timestamp: at,
		Name:      name,
		Status:    activity.StatusOnline,
	}
}

func minuteSeries(name string, start time.Time, count int) []*activity.Observation {
	obs := make([]*activity.Observation, 0, count)
	for i := 0; i < count; i++ {
		obs = append(obs, obsAt(name, start.Add(time.Duration(i)*time.Minute)))
	}
	return obs
}

func TestReconstructContinuousRun(t *testing.T) {
	// Eleven observations one minute apart stay one session of ten minutes.
	obs := minuteSeries("Alice Smith", base, 11)

	sessions := services.ReconstructSessions(obs, 15*time.Minute)

	require.Len(t, sessions, 1)
	require.Equal(t, base, sessions[0].Start)
	require.Equal(t, base.Add(10*time.Minute), sessions[0].End)
	require.Equal(t, 10.0, sessions[0].Minutes())
	require.Equal(t, "alice_smith", sessions[0].UserID)
}

func TestReconstructSplitsOnGap(t *testing.T) {
	obs := minuteSeries("Bob", base, 3)
	obs = append(obs, minuteSeries("Bob", base.Add(50*time.Minute), 3)...)

	sessions := services.ReconstructSessions(obs, 15*time.Minute)

	require.Len(t, sessions, 2)
	require.Equal(t, base, sessions[0].Start)
	require.Equal(t, base.Add(2*time.Minute), sessions[0].End)
	require.Equal(t, base.Add(50*time.Minute), sessions[1].Start)
	require.Equal(t, base.Add(52*time.Minute), sessions[1].End)
}

func TestReconstructGapExactlyAtThresholdStaysJoined(t *testing.T) {
	// A silence of exactly the threshold does not break the session; only
	// a strictly greater gap does.
	gap := 15 * time.Minute
	obs := []*activity.Observation{
		obsAt("Bob", base),
		obsAt("Bob", base.Add(gap)),
		obsAt("Bob", base.Add(gap).Add(gap+time.Second)),
	}

	sessions := services.ReconstructSessions(obs, gap)

	require.Len(t, sessions, 2)
	require.Equal(t, base, sessions[0].Start)
	require.Equal(t, base.Add(gap), sessions[0].End)
}

func TestReconstructTrailingDegenerateRun(t *testing.T) {
	// 09:00, 09:05, 09:30 with a 15 minute threshold: the 25 minute gap
	// splits off a zero-length second session.
	nine := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	obs := []*activity.Observation{
		obsAt("Alice Smith", nine),
		obsAt("Alice Smith", nine.Add(5*time.Minute)),
		obsAt("Alice Smith", nine.Add(30*time.Minute)),
	}

	sessions := services.ReconstructSessions(obs, 15*time.Minute)

	require.Len(t, sessions, 2)
	require.Equal(t, 5.0, sessions[0].Minutes())
	require.Equal(t, sessions[1].Start, sessions[1].End)
	require.Zero(t, sessions[1].Duration)
}

func TestReconstructSingleObservation(t *testing.T) {
	sessions := services.ReconstructSessions([]*activity.Observation{obsAt("Bob", base)}, 15*time.Minute)

	require.Len(t, sessions, 1)
	require.Equal(t, sessions[0].Start, sessions[0].End)
	require.Zero(t, sessions[0].Duration)
}

func TestReconstructEmptyInput(t *testing.T) {
	require.Empty(t, services.ReconstructSessions(nil, 15*time.Minute))
}

func TestReconstructUnsortedInput(t *testing.T) {
	obs := []*activity.Observation{
		obsAt("Bob", base.Add(2*time.Minute)),
		obsAt("Bob", base),
		obsAt("Bob", base.Add(time.Minute)),
	}

	sessions := services.ReconstructSessions(obs, 15*time.Minute)

	require.Len(t, sessions, 1)
	require.Equal(t, base, sessions[0].Start)
	require.Equal(t, base.Add(2*time.Minute), sessions[0].End)
}

func TestReconstructIsIdempotent(t *testing.T) {
	obs := minuteSeries("Bob", base, 5)
	obs = append(obs, minuteSeries("Bob", base.Add(time.Hour), 5)...)

	first := services.ReconstructSessions(obs, 15*time.Minute)
	second := services.ReconstructSessions(obs, 15*time.Minute)

	require.Equal(t, first, second)
}

func TestReconstructSessionsDoNotOverlap(t *testing.T) {
	obs := minuteSeries("Bob", base, 4)
	obs = append(obs, minuteSeries("Bob", base.Add(30*time.Minute), 4)...)
	obs = append(obs, minuteSeries("Bob", base.Add(2*time.Hour), 4)...)

	sessions := services.ReconstructSessions(obs, 15*time.Minute)

	require.Len(t, sessions, 3)
	var total time.Duration
	for i, session := range sessions {
		require.False(t, session.End.Before(session.Start))
		total += session.Duration
		if i > 0 {
			require.True(t, session.Start.After(sessions[i-1].End))
		}
	}

	// Total session time never exceeds the span of the observations.
	span := obs[len(obs)-1].Timestamp.Sub(obs[0].Timestamp)
	require.LessOrEqual(t, total, span)
}

func TestSummarizeUser(t *testing.T) {
	day2 := base.Add(24 * time.Hour)
	obs := minuteSeries("Alice Smith", base, 11)
	obs = append(obs, minuteSeries("alice smith", day2, 6)...)

	sessions := services.ReconstructSessions(obs, 15*time.Minute)
	require.Len(t, sessions, 2)

	summary := services.SummarizeUser(obs, sessions)
	require.NotNil(t, summary)
	require.Equal(t, "alice_smith", summary.UserID)
	require.Equal(t, 2, summary.TotalSessions)
	require.Equal(t, 15.0, summary.TotalOnlineMinutes)
	require.Equal(t, 7.5, summary.AvgSessionMinutes)
	require.Equal(t, 10.0, summary.MaxSessionMinutes)
	require.Equal(t, 2, summary.DaysActive)
	require.Equal(t, base, summary.FirstSeen)
	require.Equal(t, day2.Add(5*time.Minute), summary.LastSeen)
}

func TestSummarizeUserEmpty(t *testing.T) {
	require.Nil(t, services.SummarizeUser(nil, nil))
}
