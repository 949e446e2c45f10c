// Package activity provides the concrete SQL-based implementation of the
// observation log.
//
// PURPOSE: persist one row per sighting as the collector scans, and serve
// full or windowed reads to analytics. The table is an event log, not a
// state table: offline is inferred by absence, never written.
package activity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lozalien/FB-Counter/internal/domain/activity"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/persistence/database"
	"github.com/lozalien/FB-Counter/pkg/config"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS online_activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_online_activity_timestamp ON online_activity(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_online_activity_name ON online_activity(name)`,
}

// SQLObservationRepository persists observations through the read-write
// handle and serves reads through the read-only handle, falling back to the
// locked handle with bounded retries when the store is mid-write.
type SQLObservationRepository struct {
	handles *database.Handles
	logger  *logging.ChanneledLogger
}

// NewSQLObservationRepository creates a new instance of the repository.
func NewSQLObservationRepository(handles *database.Handles, logger *logging.ChanneledLogger) *SQLObservationRepository {
	return &SQLObservationRepository{
		handles: handles,
		logger:  logger,
	}
}

// EnsureSchema idempotently creates the observation log table and indexes.
func (r *SQLObservationRepository) EnsureSchema() error {
	for _, tableSQL := range tables {
		if _, err := r.handles.RW.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := r.handles.RW.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// Append stores one sighting as a single-row insert, atomic per row.
func (r *SQLObservationRepository) Append(timestamp time.Time, name string) error {
	const query = `
		INSERT INTO online_activity (timestamp, name, status)
		VALUES (?, ?, ?)`

	start := time.Now()
	_, err := r.handles.RW.Exec(
		query,
		timestamp.Format(activity.TimestampLayout),
		name,
		activity.StatusOnline,
	)
	if err != nil {
		r.logger.Database().Error("Observation insert failed",
			"error", err.Error(),
			"name", name)
		return fmt.Errorf("failed to append observation: %w", err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// ReadAll retrieves every observation in arrival order.
func (r *SQLObservationRepository) ReadAll() ([]*activity.Observation, error) {
	const query = `SELECT id, timestamp, name, status FROM online_activity ORDER BY id ASC`
	return r.queryObservations(query)
}

// ReadSince retrieves observations with timestamp >= now-d.
func (r *SQLObservationRepository) ReadSince(d time.Duration) ([]*activity.Observation, error) {
	const query = `SELECT id, timestamp, name, status FROM online_activity WHERE timestamp >= ? ORDER BY id ASC`
	cutoff := time.Now().Add(-d).Format(activity.TimestampLayout)
	return r.queryObservations(query, cutoff)
}

// queryObservations runs a read against the read-only handle first, retrying
// on the locked handle when the store is mid-write. Rows with malformed
// timestamps are excluded and counted, never aborting the batch.
func (r *SQLObservationRepository) queryObservations(query string, args ...any) ([]*activity.Observation, error) {
	start := time.Now()

	rows, err := r.handles.RO.Query(query, args...)
	if err != nil {
		r.logger.Database().Debug("Read-only query failed, retrying on locked handle", "error", err.Error())
		rows, err = r.queryWithRetry(query, args...)
		if err != nil {
			return nil, err
		}
	}
	defer rows.Close()

	var observations []*activity.Observation
	malformed := 0
	for rows.Next() {
		var (
			id           int64
			ts           string
			name, status string
		)
		if err := rows.Scan(&id, &ts, &name, &status); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}

		parsed, err := time.ParseInLocation(activity.TimestampLayout, ts, time.Local)
		if err != nil {
			malformed++
			continue
		}

		observations = append(observations, &activity.Observation{
			ID:        id,
			Timestamp: parsed,
			Name:      name,
			Status:    status,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observation rows: %w", err)
	}

	if malformed > 0 {
		r.logger.Database().Warn("Excluded rows with malformed timestamps", "count", malformed)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return observations, nil
}

// queryWithRetry runs a read on the read-write handle with bounded retries.
// The handle's busy timeout covers most contention; retries cover the rare
// SQLITE_BUSY surfaced past it.
func (r *SQLObservationRepository) queryWithRetry(query string, args ...any) (*sql.Rows, error) {
	var lastErr error
	for attempt := 0; attempt < config.ReadRetries; attempt++ {
		rows, err := r.handles.RW.Query(query, args...)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return nil, fmt.Errorf("read failed after %d attempts: %w", config.ReadRetries, lastErr)
}

// Count returns the number of stored observations. Used by the status
// endpoint.
func (r *SQLObservationRepository) Count() (int, error) {
	var count int
	if err := r.handles.RO.QueryRow(`SELECT COUNT(*) FROM online_activity`).Scan(&count); err != nil {
		if err = r.handles.RW.QueryRow(`SELECT COUNT(*) FROM online_activity`).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count observations: %w", err)
		}
	}
	return count, nil
}
