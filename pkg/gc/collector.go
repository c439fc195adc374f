// Package gc removes orphaned records from the entity store.
//
// A record is orphaned when no reachable entity of the live model accounts
// for it. This can happen because:
//   - store writes fail and are only logged, so a purge may leave records behind
//   - the process stops with deletes still queued in the mirror
//   - a purge cascade is interrupted after its parent was deleted, leaving
//     children whose parent chain no longer reaches the root
//
// The model is the authority: the collector never changes it, it only
// brings the store back in line.
package gc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/store"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Source exposes the live collection.
type Source interface {
	Snapshot() *vfs.Snapshot
}

// Collector performs periodic garbage collection on an entity store.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	backend store.Backend
	source  Source
	config  Config

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether periodic collection runs (default: false)
	Enabled bool

	// Interval is how often to run garbage collection (default: 1h)
	Interval time.Duration

	// BatchSize is how many orphans are deleted between cancellation
	// checks (default: 100)
	BatchSize int

	// DryRun logs what would be deleted without deleting
	DryRun bool
}

// NewCollector creates a stopped collector over backend, checking records
// against source.
func NewCollector(backend store.Backend, source Source, config Config) *Collector {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &Collector{
		backend: backend,
		source:  source,
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins background garbage collection. Subsequent calls are no-ops.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Store garbage collection disabled")
		return
	}

	if !c.started.CompareAndSwap(false, true) {
		return
	}
	logger.Info("Starting store garbage collector: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)
	go c.worker()
}

// Stop stops the worker and waits for an in-progress run to finish, or for
// ctx to expire. Safe to call more than once.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	c.stopOnce.Do(func() { close(c.stopCh) })

	select {
	case <-c.doneCh:
		logger.Info("Store garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Store garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow runs one collection and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running store garbage collection (manual trigger)")
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			go func() {
				select {
				case <-c.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Store garbage collection failed: %v", err)
			} else {
				logger.Info("Store garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs a single run:
//  1. Load every record from the store
//  2. Compute the entities reachable from the root in the live model
//  3. Orphaned = stored - reachable
//  4. Delete orphans in batches
//
// Records are loaded before the model is read: a record can only exist for
// an entity the model created earlier, so a fresh entity is never mistaken
// for an orphan.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	records, err := c.backend.LoadRecords(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load records: %w", err)
	}
	stats.StoredCount = uint64(len(records))

	reachable := reachableIDs(c.source.Snapshot())
	stats.ReachableCount = uint64(len(reachable))

	var orphaned []string
	for _, r := range records {
		if _, ok := reachable[r.ID]; !ok {
			orphaned = append(orphaned, r.ID)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 {
		logger.Debug("GC: No orphaned records found")
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: Found %d orphaned records", stats.OrphanedCount)

	if c.config.DryRun {
		for i, id := range orphaned {
			if i == 10 {
				logger.Info("  ... and %d more", len(orphaned)-10)
				break
			}
			logger.Info("GC: DRY RUN - would delete %s", id)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for i := 0; i < len(orphaned); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		end := min(i+c.config.BatchSize, len(orphaned))
		for _, id := range orphaned[i:end] {
			if err := c.backend.DeleteRecord(ctx, id); err != nil {
				logger.Debug("GC: Failed to delete %s: %v", id, err)
				stats.FailedCount++
				continue
			}
			stats.DeletedCount++
		}
	}

	stats.EndTime = time.Now()
	logger.Info("GC: Completed - deleted %d records, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// reachableIDs returns the root and everything below it, trashed or not.
func reachableIDs(s *vfs.Snapshot) map[string]struct{} {
	reachable := make(map[string]struct{}, s.Len())
	root, ok := s.Root()
	if !ok {
		return reachable
	}
	reachable[root.ID] = struct{}{}
	for _, id := range s.Descendants(root.ID) {
		reachable[id] = struct{}{}
	}
	return reachable
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime      time.Time // When collection started
	EndTime        time.Time // When collection ended
	StoredCount    uint64    // Number of records in the store
	ReachableCount uint64    // Number of entities reachable from the root
	OrphanedCount  uint64    // Number of orphaned records found
	DeletedCount   uint64    // Number of orphaned records deleted
	FailedCount    uint64    // Number of orphaned records that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("stored=%d reachable=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.StoredCount, s.ReachableCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
