package activity_test

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	persistence "github.com/lozalien/FB-Counter/internal/infrastructure/persistence/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/persistence/database"
	"github.com/lozalien/FB-Counter/pkg/config"
)

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

func newTestRepo(t *testing.T) (*persistence.SQLObservationRepository, *database.Handles) {
	t.Helper()

	config.ReadRetries = 3
	config.SlowQueryThreshold = time.Second

	logger := newTestLogger(t)
	dbPath := filepath.Join(t.TempDir(), "tracking.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=2000", dbPath)

	conn, err := database.NewConnection("sqlite3", dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	handles := &database.Handles{RW: conn, RO: conn}
	repo := persistence.NewSQLObservationRepository(handles, logger)
	require.NoError(t, repo.EnsureSchema())
	return repo, handles
}

func TestAppendAndReadAll(t *testing.T) {
	repo, _ := newTestRepo(t)

	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	require.NoError(t, repo.Append(first, "Bob"))
	require.NoError(t, repo.Append(first.Add(time.Minute), "Alice Smith"))

	observations, err := repo.ReadAll()
	require.NoError(t, err)
	require.Len(t, observations, 2)

	// Insertion order is preserved.
	require.Equal(t, "Bob", observations[0].Name)
	require.Equal(t, domain.StatusOnline, observations[0].Status)
	require.True(t, observations[0].Timestamp.Equal(first))
	require.Equal(t, "Alice Smith", observations[1].Name)
	require.Greater(t, observations[1].ID, observations[0].ID)
}

func TestReadAllEmptyTable(t *testing.T) {
	repo, _ := newTestRepo(t)

	observations, err := repo.ReadAll()
	require.NoError(t, err)
	require.Empty(t, observations)
}

func TestReadSinceWindows(t *testing.T) {
	repo, _ := newTestRepo(t)

	now := time.Now()
	require.NoError(t, repo.Append(now.Add(-48*time.Hour), "Bob"))
	require.NoError(t, repo.Append(now.Add(-time.Hour), "Bob"))
	require.NoError(t, repo.Append(now.Add(-time.Minute), "Alice Smith"))

	observations, err := repo.ReadSince(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, observations, 2)
}

func TestMalformedTimestampRowsAreSkipped(t *testing.T) {
	repo, handles := newTestRepo(t)

	require.NoError(t, repo.Append(time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local), "Bob"))

	// A corrupt row written by some earlier tool must not poison reads.
	_, err := handles.RW.Exec(
		`INSERT INTO online_activity (timestamp, name, status) VALUES (?, ?, ?)`,
		"not-a-timestamp", "Ghost", domain.StatusOnline)
	require.NoError(t, err)

	observations, readErr := repo.ReadAll()
	require.NoError(t, readErr)
	require.Len(t, observations, 1)
	require.Equal(t, "Bob", observations[0].Name)
}

func TestCount(t *testing.T) {
	repo, _ := newTestRepo(t)

	count, err := repo.Count()
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, repo.Append(time.Now(), "Bob"))
	count, err = repo.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
