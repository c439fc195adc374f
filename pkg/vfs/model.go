// Package vfs implements the in-memory virtual file tree.
//
// The Model is the single source of truth for the running session. It holds
// an immutable Snapshot of every entity and replaces it wholesale on each
// mutation. Durability is delegated to a Persister that trails the in-memory
// state: model operations never wait for, or fail because of, the store
// (except Import and Bootstrap seeding, which await each write).
package vfs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittoexplorer/pkg/media"
	"golang.org/x/text/language"
)

// Persister receives the durable side effects of model mutations.
//
// SchedulePut and ScheduleDelete must not block; implementations queue the
// work and log failures. PutNow writes synchronously and is used only where
// the model awaits durability (seeding, bulk import).
type Persister interface {
	SchedulePut(entities ...Entity)
	ScheduleDelete(ids ...string)
	PutNow(ctx context.Context, e Entity) error
}

// Loader reads the durable collection at startup.
type Loader interface {
	LoadAll(ctx context.Context) ([]Entity, error)
}

// Metrics records model activity.
//
// Implementations live in pkg/metrics. A nil Metrics disables collection.
type Metrics interface {
	// RecordMutation records one operation with outcome "ok" or the error code name.
	RecordMutation(op string, outcome string)

	// SetEntityCount reports the collection size after a mutation.
	SetEntityCount(n int)
}

type nopPersister struct{}

func (nopPersister) SchedulePut(...Entity)                {}
func (nopPersister) ScheduleDelete(...string)             {}
func (nopPersister) PutNow(context.Context, Entity) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordMutation(string, string) {}
func (nopMetrics) SetEntityCount(int)            {}

// Model is the authoritative entity collection plus its operations.
//
// Thread Safety:
// Mutations are serialised by an internal mutex. Reads go through the
// current Snapshot and never block on writers.
type Model struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	persister Persister
	media     *media.Registry
	metrics   Metrics
	now       func() time.Time
	newID     func(prefix string) string
	locale    language.Tag
}

// Option configures a Model.
type Option func(*Model)

// WithPersister sets the durable write target. Defaults to a no-op.
func WithPersister(p Persister) Option {
	return func(m *Model) {
		if p != nil {
			m.persister = p
		}
	}
}

// WithMedia sets the registry used to bind payloads to media handles.
// Without one, media entities carry no MediaRef.
func WithMedia(r *media.Registry) Option {
	return func(m *Model) { m.media = r }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt Metrics) Option {
	return func(m *Model) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithClock overrides the time source used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(m *Model) { m.newID = gen }
}

// WithLocale sets the collation locale for name sorting. Defaults to English.
func WithLocale(tag language.Tag) Option {
	return func(m *Model) { m.locale = tag }
}

// New creates a model over the given entities. No persistence is triggered.
func New(entities []Entity, opts ...Option) *Model {
	m := &Model{
		persister: nopPersister{},
		metrics:   nopMetrics{},
		now:       time.Now,
		newID:     defaultID,
		locale:    language.English,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(NewSnapshot(entities))
	return m
}

func defaultID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Snapshot returns the current immutable collection.
func (m *Model) Snapshot() *Snapshot {
	return m.current.Load()
}

// Lookup returns the entity with the given id.
func (m *Model) Lookup(id string) (Entity, bool) {
	return m.Snapshot().Get(id)
}

// Len returns the number of entities.
func (m *Model) Len() int {
	return m.Snapshot().Len()
}

// Media returns the media registry, or nil.
func (m *Model) Media() *media.Registry {
	return m.media
}

// publish swaps in next and records the mutation. Caller holds m.mu.
func (m *Model) publish(next *Snapshot) {
	m.current.Store(next)
	m.metrics.SetEntityCount(next.Len())
}

func (m *Model) record(op string, err error) {
	if err == nil {
		m.metrics.RecordMutation(op, "ok")
		return
	}
	code, ok := CodeOf(err)
	if !ok {
		m.metrics.RecordMutation(op, "error")
		return
	}
	m.metrics.RecordMutation(op, code.String())
}

func (m *Model) today() string {
	return m.now().Format("2006-01-02")
}

// bindMedia returns a fresh handle for media entities with a payload.
func (m *Model) bindMedia(kind Kind, payload []byte) media.Handle {
	if m.media == nil || !kind.IsMedia() || len(payload) == 0 {
		return ""
	}
	return m.media.Bind(payload)
}

func (m *Model) revokeMedia(e Entity) {
	if m.media != nil && e.MediaRef != "" {
		m.media.Revoke(e.MediaRef)
	}
}

// validParent checks that id names an existing, non-trashed container.
func validParent(s *Snapshot, id string) (Entity, error) {
	p, ok := s.Get(id)
	if !ok {
		return Entity{}, invalidParent(id, "target does not exist")
	}
	if p.IsTrashed {
		return Entity{}, invalidParent(id, "target is in the recycle bin")
	}
	if !p.IsContainer() {
		return Entity{}, invalidParent(id, "target is not a container")
	}
	return p, nil
}
