// Package store persists file-system entities.
//
// The package is split in three layers:
//   - Backend: raw record storage (memory, badger, s3, postgres subpackages)
//   - Adapter: converts entities to records, strips session-local media
//     handles on write and rebinds them on load
//   - Mirror: write-behind queue in front of an Adapter, implementing
//     vfs.Persister so model mutations never wait for the store
package store

import (
	"context"
	"time"
)

// Backend stores persisted records keyed by entity id.
//
// Implementations must be safe for concurrent use. PutRecords applies the
// whole batch atomically where the backend supports it. DeleteRecord of an
// unknown id is not an error.
type Backend interface {
	// PutRecords inserts or replaces records.
	PutRecords(ctx context.Context, records []Record) error

	// DeleteRecord removes the record with the given id.
	DeleteRecord(ctx context.Context, id string) error

	// LoadRecords returns every stored record. Order is unspecified.
	LoadRecords(ctx context.Context) ([]Record, error)

	// Close releases backend resources.
	Close() error
}

// Metrics records backend activity.
//
// Implementations live in pkg/metrics. A nil Metrics disables collection.
type Metrics interface {
	// ObserveOperation records one backend call and its duration.
	ObserveOperation(backend, op string, d time.Duration, err error)

	// RecordQueueDepth reports the number of pending mirror writes.
	RecordQueueDepth(n int)

	// RecordDropped counts mirror writes that failed and were discarded.
	RecordDropped(op string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration, error) {}
func (noopMetrics) RecordQueueDepth(int)                                  {}
func (noopMetrics) RecordDropped(string)                                  {}
