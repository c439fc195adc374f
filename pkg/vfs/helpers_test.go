package vfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingPersister captures scheduled writes.
type recordingPersister struct {
	mu      sync.Mutex
	puts    []Entity
	deletes []string
	now     []Entity
	failNow error
}

func (p *recordingPersister) SchedulePut(entities ...Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.puts = append(p.puts, entities...)
}

func (p *recordingPersister) ScheduleDelete(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, ids...)
}

func (p *recordingPersister) PutNow(_ context.Context, e Entity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = append(p.now, e)
	return p.failNow
}

type staticLoader struct {
	entities []Entity
	err      error
}

func (l staticLoader) LoadAll(context.Context) ([]Entity, error) {
	return l.entities, l.err
}

var errStoreDown = errors.New("store unavailable")

func sequentialIDs() func(prefix string) string {
	var mu sync.Mutex
	n := 0
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
}

// newSeededModel returns a model over the seed set plus its persister.
func newSeededModel(t *testing.T, opts ...Option) (*Model, *recordingPersister) {
	t.Helper()
	p := &recordingPersister{}
	base := []Option{WithPersister(p), WithIDGenerator(sequentialIDs()), WithClock(fixedClock)}
	m := New(Seed(), append(base, opts...)...)
	require.Equal(t, 8, m.Len())
	return m, p
}

func mustCreate(t *testing.T, m *Model, parent string, kind Kind, name string) Entity {
	t.Helper()
	e, err := m.Create(parent, kind, name)
	require.NoError(t, err)
	return e
}

func names(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}

// assertAcyclic walks every parent chain up to the root.
func assertAcyclic(t *testing.T, s *Snapshot) {
	t.Helper()
	roots := 0
	for _, e := range s.All() {
		if e.IsRoot() {
			roots++
			continue
		}
		cur := e
		for steps := 0; !cur.IsRoot(); steps++ {
			require.LessOrEqual(t, steps, s.Len(), "cycle through %s", e.ID)
			next, ok := s.Get(cur.ParentID)
			require.True(t, ok, "dangling parent %s of %s", cur.ParentID, cur.ID)
			cur = next
		}
	}
	require.Equal(t, 1, roots)
}
