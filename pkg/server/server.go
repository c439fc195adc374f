package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittoexplorer/internal/logger"
)

// ErrAlreadyServed is returned by a second call to Serve.
var ErrAlreadyServed = errors.New("server: Serve already called")

// Service is a long-running listener managed by a Runner (the API server,
// the metrics server).
type Service interface {
	// Serve blocks until the service stops. It returns nil or
	// context.Canceled on a graceful stop.
	Serve(ctx context.Context) error

	// Stop asks the service to shut down. Safe to call more than once.
	Stop(ctx context.Context) error

	// Name identifies the service in logs.
	Name() string

	// Addr is the listen address.
	Addr() string
}

// Runner manages the lifecycle of several services.
//
// Lifecycle:
//  1. Creation: New() with the shutdown timeout
//  2. Registration: Add() for each service
//  3. Startup: Serve() starts all services concurrently
//  4. Shutdown: context cancellation or a failing service stops every
//     service in reverse registration order
//
// Thread safety:
// Add() and Services() may be called concurrently. Serve() runs once per
// Runner.
type Runner struct {
	stopTimeout time.Duration

	mu       sync.RWMutex
	services []Service
	served   bool
}

// New creates a Runner. stopTimeout bounds the Stop() calls issued on
// shutdown (default: 30s).
func New(stopTimeout time.Duration) *Runner {
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}
	return &Runner{stopTimeout: stopTimeout}
}

// Add registers a service. Names and addresses must be unique.
func (r *Runner) Add(svc Service) error {
	if svc == nil {
		return errors.New("service cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.served {
		return errors.New("cannot add a service after Serve() has been called")
	}

	for _, existing := range r.services {
		if existing.Name() == svc.Name() {
			return fmt.Errorf("service %s already registered", svc.Name())
		}
		if existing.Addr() == svc.Addr() {
			return fmt.Errorf("address %s already in use by %s", svc.Addr(), existing.Name())
		}
	}

	r.services = append(r.services, svc)
	logger.Info("Registered %s on %s", svc.Name(), svc.Addr())
	return nil
}

// Serve starts every service and blocks until ctx is cancelled or a service
// fails.
//
// Returns:
//   - context.Canceled (or the context's error) after a graceful shutdown
//   - the first service error, wrapped with the service name
//   - ErrAlreadyServed on a second call
func (r *Runner) Serve(ctx context.Context) error {
	r.mu.Lock()
	if r.served {
		r.mu.Unlock()
		return ErrAlreadyServed
	}
	r.served = true
	if len(r.services) == 0 {
		r.mu.Unlock()
		return errors.New("no services registered; call Add() before Serve()")
	}
	services := make([]Service, len(r.services))
	copy(services, r.services)
	r.mu.Unlock()

	logger.Info("Starting %d service(s)", len(services))

	// Buffered so failing services never block
	errChan := make(chan serviceError, len(services))

	var wg sync.WaitGroup
	for _, svc := range services {
		wg.Add(1)
		go func(s Service) {
			defer wg.Done()

			if err := s.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				logger.Error("%s failed: %v", s.Name(), err)
				errChan <- serviceError{name: s.Name(), err: err}
				return
			}
			logger.Debug("%s stopped", s.Name())
		}(svc)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()
	case svcErr := <-errChan:
		logger.Error("%s failed, shutting down all services", svcErr.name)
		shutdownErr = fmt.Errorf("%s: %w", svcErr.name, svcErr.err)
	}

	r.stopAll(services)
	wg.Wait()

	logger.Info("All services stopped")
	return shutdownErr
}

type serviceError struct {
	name string
	err  error
}

// stopAll stops services in reverse registration order.
func (r *Runner) stopAll(services []Service) {
	ctx, cancel := context.WithTimeout(context.Background(), r.stopTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if err := svc.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s: %v", svc.Name(), err)
		}
	}
}

// Services returns a snapshot of the registered services.
func (r *Runner) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]Service, len(r.services))
	copy(services, r.services)
	return services
}
