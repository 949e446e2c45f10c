// Package activity defines the interfaces for accessing presence data.
package activity

import "time"

// ObservationRepository defines the contract for the append-only
// observation log. A single writer (the collector) appends; any number of
// readers consume the full log or a recent slice of it.
type ObservationRepository interface {
	// Append stores one sighting. Fails only on a storage I/O error.
	Append(timestamp time.Time, name string) error

	// ReadAll retrieves every observation in arrival order.
	ReadAll() ([]*Observation, error)

	// ReadSince retrieves observations with timestamp >= now-d, in arrival
	// order.
	ReadSince(d time.Duration) ([]*Observation, error)
}
