package store

import (
	"context"

	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Adapter is the persistent store contract used by the model.
//
// Writes drop the session-local media handle; loads bind a fresh handle for
// every media entity that carries a payload. Failures are returned as
// *StoreError wrapping the backend cause.
//
// Thread Safety:
// Safe for concurrent use if the backend is.
type Adapter struct {
	backend Backend
	media   *media.Registry
}

// NewAdapter creates an adapter over backend. reg may be nil, in which case
// loaded entities carry no media handle.
func NewAdapter(backend Backend, reg *media.Registry) *Adapter {
	return &Adapter{backend: backend, media: reg}
}

// Backend returns the underlying backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Put writes one entity.
func (a *Adapter) Put(ctx context.Context, e vfs.Entity) error {
	return wrap("put", e.ID, a.backend.PutRecords(ctx, []Record{FromEntity(e)}))
}

// PutAll writes a batch of entities.
func (a *Adapter) PutAll(ctx context.Context, entities []vfs.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	records := make([]Record, len(entities))
	for i, e := range entities {
		records[i] = FromEntity(e)
	}

	id := ""
	if len(entities) == 1 {
		id = entities[0].ID
	}
	return wrap("put_all", id, a.backend.PutRecords(ctx, records))
}

// Delete removes one entity.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	return wrap("delete", id, a.backend.DeleteRecord(ctx, id))
}

// LoadAll returns every stored entity with fresh media handles.
// Records that cannot be decoded are logged and skipped.
func (a *Adapter) LoadAll(ctx context.Context) ([]vfs.Entity, error) {
	records, err := a.backend.LoadRecords(ctx)
	if err != nil {
		return nil, wrap("load_all", "", err)
	}

	entities := make([]vfs.Entity, 0, len(records))
	for _, r := range records {
		e, err := r.Entity()
		if err != nil {
			logger.Warn("Skipping stored record: %v", err)
			continue
		}
		if a.media != nil && e.Kind.IsMedia() && len(e.Payload) > 0 {
			e.MediaRef = a.media.Bind(e.Payload)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Close closes the backend.
func (a *Adapter) Close() error {
	return wrap("close", "", a.backend.Close())
}
