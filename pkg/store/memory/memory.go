package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittoexplorer/pkg/store"
)

// MemoryBackend implements store.Backend using in-memory maps.
//
// It is designed for:
//   - Testing and development
//   - Ephemeral sessions where nothing should survive a restart
//
// Records are kept in insertion order so LoadRecords returns them the way
// they were first written.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Payload bytes are copied
// on write and on read so callers never share buffers with the store.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]store.Record
	order   []string
	closed  bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]store.Record)}
}

// PutRecords inserts or replaces records atomically.
func (b *MemoryBackend) PutRecords(ctx context.Context, records []store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return store.ErrClosed
	}
	for _, r := range records {
		if _, exists := b.records[r.ID]; !exists {
			b.order = append(b.order, r.ID)
		}
		b.records[r.ID] = cloneRecord(r)
	}
	return nil
}

// DeleteRecord removes a record. Unknown ids are ignored.
func (b *MemoryBackend) DeleteRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return store.ErrClosed
	}
	if _, exists := b.records[id]; !exists {
		return nil
	}
	delete(b.records, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// LoadRecords returns every record in insertion order.
func (b *MemoryBackend) LoadRecords(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrClosed
	}
	out := make([]store.Record, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, cloneRecord(b.records[id]))
	}
	return out, nil
}

// Len returns the number of stored records.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Close marks the backend closed. Stored records are dropped.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.records = nil
	b.order = nil
	return nil
}

func cloneRecord(r store.Record) store.Record {
	if r.BinaryPayload != nil {
		r.BinaryPayload = append([]byte(nil), r.BinaryPayload...)
	}
	if r.ParentID != nil {
		p := *r.ParentID
		r.ParentID = &p
	}
	if r.SizeBytes != nil {
		s := *r.SizeBytes
		r.SizeBytes = &s
	}
	return r
}

var _ store.Backend = (*MemoryBackend)(nil)
