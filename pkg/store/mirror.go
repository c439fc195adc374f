package store

import (
	"context"
	"sync"

	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

type jobKind int

const (
	jobPut jobKind = iota
	jobDelete
	jobBarrier
)

type job struct {
	kind     jobKind
	entities []vfs.Entity
	ids      []string

	// result is set for awaited jobs (PutNow, Flush)
	result chan error
}

// Mirror trails model mutations into the store.
//
// Scheduled writes are queued without bounds and executed in FIFO order by a
// single goroutine. Failures are logged and dropped; nothing is retried. The
// in-memory model stays authoritative, so a failed write only leaves the
// store one change behind for that entity.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Mirror struct {
	adapter *Adapter
	metrics Metrics

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMirror starts a mirror writing through adapter. metrics may be nil.
func NewMirror(adapter *Adapter, metrics Metrics) *Mirror {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mirror{
		adapter: adapter,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	go m.run()
	return m
}

// SchedulePut queues a write of entities as one batch. Never blocks.
func (m *Mirror) SchedulePut(entities ...vfs.Entity) {
	if len(entities) == 0 {
		return
	}
	batch := make([]vfs.Entity, len(entities))
	copy(batch, entities)
	m.enqueue(job{kind: jobPut, entities: batch})
}

// ScheduleDelete queues the removal of ids. Never blocks.
func (m *Mirror) ScheduleDelete(ids ...string) {
	if len(ids) == 0 {
		return
	}
	batch := make([]string, len(ids))
	copy(batch, ids)
	m.enqueue(job{kind: jobDelete, ids: batch})
}

// PutNow queues a write of e behind any pending work and waits for it.
func (m *Mirror) PutNow(ctx context.Context, e vfs.Entity) error {
	return m.await(ctx, job{kind: jobPut, entities: []vfs.Entity{e}})
}

// Flush waits until every write scheduled before the call has run.
func (m *Mirror) Flush(ctx context.Context) error {
	return m.await(ctx, job{kind: jobBarrier})
}

// Pending returns the number of queued jobs.
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close drains the queue, stops the worker and closes the adapter.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return nil
	}
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	<-m.done
	m.cancel()
	return m.adapter.Close()
}

func (m *Mirror) enqueue(j job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		logger.Warn("Store mirror closed, dropping %d writes", len(j.entities)+len(j.ids))
		return false
	}
	m.queue = append(m.queue, j)
	m.metrics.RecordQueueDepth(len(m.queue))
	m.cond.Signal()
	return true
}

func (m *Mirror) await(ctx context.Context, j job) error {
	j.result = make(chan error, 1)
	if !m.enqueue(j) {
		return ErrClosed
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) run() {
	defer close(m.done)

	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		j := m.queue[0]
		m.queue[0] = job{}
		m.queue = m.queue[1:]
		m.metrics.RecordQueueDepth(len(m.queue))
		m.mu.Unlock()

		err := m.execute(j)
		if j.result != nil {
			j.result <- err
		}
	}
}

func (m *Mirror) execute(j job) error {
	switch j.kind {
	case jobPut:
		err := m.adapter.PutAll(m.ctx, j.entities)
		if err != nil && j.result == nil {
			logger.Error("Failed to persist %d entities: %v", len(j.entities), err)
			m.metrics.RecordDropped("put")
		}
		return err

	case jobDelete:
		var first error
		for _, id := range j.ids {
			if err := m.adapter.Delete(m.ctx, id); err != nil {
				logger.Error("Failed to delete entity from store: %v", err)
				m.metrics.RecordDropped("delete")
				if first == nil {
					first = err
				}
			}
		}
		return first

	case jobBarrier:
		return nil
	}
	return nil
}

var _ vfs.Persister = (*Mirror)(nil)
var _ vfs.Loader = (*Adapter)(nil)
