package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/security"
)

// Snapshot is one scan result handed to the collector: the display names
// observed online at a single instant. Acquisition happens elsewhere; the
// collector only consumes the result.
type Snapshot struct {
	ID    string    `json:"id"`
	Names []string  `json:"names"`
	At    time.Time `json:"at"`
}

// ErrQueueFull is returned when snapshots arrive faster than the collector
// drains them.
var ErrQueueFull = errors.New("snapshot queue full")

// Collector owns the LiveStateTracker and drives it from a single
// goroutine, which is what keeps the observation log single-writer. The
// ingest endpoint submits snapshots; Run applies them in arrival order.
type Collector struct {
	tracker   *LiveStateTracker
	snapshots chan Snapshot
	interval  time.Duration
	logger    *logging.ChanneledLogger
	done      chan struct{}
}

// NewCollector creates a collector with a bounded snapshot queue. interval
// is the expected scan cadence, used only to detect a stalled scanner.
func NewCollector(tracker *LiveStateTracker, queueDepth int, interval time.Duration, logger *logging.ChanneledLogger) *Collector {
	return &Collector{
		tracker:   tracker,
		snapshots: make(chan Snapshot, queueDepth),
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Done is closed once Run has drained the queue and stopped. Shutdown
// waits on it before closing the database.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Submit queues one scan result, stamping it with an ID and arrival time.
// Returns the snapshot ID, or ErrQueueFull without blocking the caller.
func (c *Collector) Submit(names []string) (string, error) {
	snap := Snapshot{
		ID:    security.GenerateULID(),
		Names: names,
		At:    time.Now(),
	}

	select {
	case c.snapshots <- snap:
		return snap.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// Run applies queued snapshots until the context is cancelled. No locks are
// held while waiting. On cancellation any still-open sessions are logged
// and dropped; there is no replay mechanism.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Collector().Info("Collector started", "scanInterval", c.interval.String())

	stallCheck := time.NewTicker(c.interval)
	defer stallCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Collector().Info("Collector stopping")
			c.drain()
			c.tracker.Shutdown()
			close(c.done)
			return

		case snap := <-c.snapshots:
			c.logger.Collector().Debug("Applying snapshot",
				"snapshotId", snap.ID,
				"online", len(snap.Names))
			c.tracker.Apply(snap.Names, snap.At)

		case <-stallCheck.C:
			last := c.tracker.LastScan()
			if !last.IsZero() && time.Since(last) > 3*c.interval {
				c.logger.Collector().Warn("No snapshot received recently, scanner may be stalled",
					"lastScan", last.Format(time.RFC3339),
					"scanInterval", c.interval.String())
			}
		}
	}
}

// drain applies snapshots already queued at shutdown so accepted scans are
// not silently discarded.
func (c *Collector) drain() {
	for {
		select {
		case snap := <-c.snapshots:
			c.tracker.Apply(snap.Names, snap.At)
		default:
			return
		}
	}
}
