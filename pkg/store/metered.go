package store

import (
	"context"
	"time"
)

// metered decorates a Backend with operation metrics.
type metered struct {
	name    string
	backend Backend
	metrics Metrics
}

// NewMetered wraps backend so every call is recorded under name.
// With a nil Metrics the backend is returned unchanged.
func NewMetered(name string, backend Backend, metrics Metrics) Backend {
	if metrics == nil {
		return backend
	}
	return &metered{name: name, backend: backend, metrics: metrics}
}

func (m *metered) PutRecords(ctx context.Context, records []Record) error {
	start := time.Now()
	err := m.backend.PutRecords(ctx, records)
	m.metrics.ObserveOperation(m.name, "put", time.Since(start), err)
	return err
}

func (m *metered) DeleteRecord(ctx context.Context, id string) error {
	start := time.Now()
	err := m.backend.DeleteRecord(ctx, id)
	m.metrics.ObserveOperation(m.name, "delete", time.Since(start), err)
	return err
}

func (m *metered) LoadRecords(ctx context.Context) ([]Record, error) {
	start := time.Now()
	records, err := m.backend.LoadRecords(ctx)
	m.metrics.ObserveOperation(m.name, "load", time.Since(start), err)
	return records, err
}

func (m *metered) Close() error {
	return m.backend.Close()
}
