// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// Handles bundles the two connections the tracker uses: a read-write handle
// for the single writer, and a read-only handle that analytics readers try
// first so they are never queued behind an in-flight write.
type Handles struct {
	RW *DB
	RO *DB
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	if err = db.Ping(); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		db.Close()
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))
	return &DB{db}, nil
}

// Open connects to the tracker database. When a libsql URL and token are
// configured it connects remotely; otherwise it opens the local SQLite file,
// creating the parent directory if needed. For SQLite the read-only handle
// uses mode=ro so readers never take the write lock.
func Open(logger *logging.ChanneledLogger) (*Handles, error) {
	if config.DatabaseURL != "" && config.DatabaseToken != "" {
		connStr := config.DatabaseURL + "?authToken=" + config.DatabaseToken
		rw, err := NewConnection("libsql", connStr, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open libsql database: %w", err)
		}
		configurePool(rw)
		// Remote libsql has no local lock to avoid; readers share the handle.
		return &Handles{RW: rw, RO: rw}, nil
	}

	dbDir := filepath.Dir(config.DBPath)
	if dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	busyMs := config.ReadBusyTimeout.Milliseconds()
	rwDSN := fmt.Sprintf("file:%s?_busy_timeout=%d", config.DBPath, busyMs)
	rw, err := NewConnection("sqlite3", rwDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	configurePool(rw)
	// SQLite serializes writers; one connection keeps appends ordered.
	rw.SetMaxOpenConns(1)

	roDSN := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d", config.DBPath, busyMs)
	ro, err := NewConnection("sqlite3", roDSN, logger)
	if err != nil {
		// A missing file makes mode=ro fail until the first write; readers
		// fall back to the read-write handle.
		logger.Database().Warn("Read-only connection unavailable, readers will use the locked handle", "error", err.Error())
		return &Handles{RW: rw, RO: rw}, nil
	}
	configurePool(ro)

	return &Handles{RW: rw, RO: ro}, nil
}

// Close closes both handles.
func (h *Handles) Close() error {
	if h.RO != nil && h.RO != h.RW {
		h.RO.Close()
	}
	if h.RW != nil {
		return h.RW.Close()
	}
	return nil
}

func configurePool(db *DB) {
	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxMinutes) * time.Minute)
}
