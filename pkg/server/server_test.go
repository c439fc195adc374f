package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name, addr string
	failWith   error

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	once    sync.Once
}

func newFake(name, addr string) *fakeService {
	return &fakeService{name: name, addr: addr, stop: make(chan struct{})}
}

func (f *fakeService) Serve(ctx context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.stop:
		return nil
	}
}

func (f *fakeService) Stop(context.Context) error {
	f.once.Do(func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		close(f.stop)
	})
	return nil
}

func (f *fakeService) Name() string { return f.name }
func (f *fakeService) Addr() string { return f.addr }

func (f *fakeService) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestRunner_AddRejectsDuplicates(t *testing.T) {
	r := New(time.Second)

	require.NoError(t, r.Add(newFake("api", ":8080")))
	assert.Error(t, r.Add(newFake("api", ":8081")))
	assert.Error(t, r.Add(newFake("metrics", ":8080")))
	assert.Error(t, r.Add(nil))
	assert.Len(t, r.Services(), 1)
}

func TestRunner_ServeWithoutServices(t *testing.T) {
	r := New(time.Second)
	assert.Error(t, r.Serve(context.Background()))
}

func TestRunner_CancelStopsAll(t *testing.T) {
	r := New(time.Second)
	api := newFake("api", ":8080")
	metrics := newFake("metrics", ":9090")
	require.NoError(t, r.Add(api))
	require.NoError(t, r.Add(metrics))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.True(t, api.wasStopped())
	assert.True(t, metrics.wasStopped())
}

func TestRunner_FailureStopsOthers(t *testing.T) {
	r := New(time.Second)
	healthy := newFake("api", ":8080")
	broken := newFake("metrics", ":9090")
	broken.failWith = errors.New("address in use")
	require.NoError(t, r.Add(healthy))
	require.NoError(t, r.Add(broken))

	err := r.Serve(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics: address in use")
	assert.True(t, healthy.wasStopped())
}

func TestRunner_ServeOnce(t *testing.T) {
	r := New(time.Second)
	require.NoError(t, r.Add(newFake("api", ":8080")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = r.Serve(ctx)

	assert.ErrorIs(t, r.Serve(context.Background()), ErrAlreadyServed)
	assert.Error(t, r.Add(newFake("late", ":1")))
}
