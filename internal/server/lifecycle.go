// Package server runs the HTTP API and the gRPC health service under a
// lifecycle with graceful startup and signal-driven shutdown.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component owned by a Lifecycle.
type Service interface {
	// Start runs the service and blocks until it stops. A nil return after
	// Stop is a clean exit; any error is a failure.
	Start() error
	// Stop asks a running Start to return.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

type namedService struct {
	name string
	Service
}

// Lifecycle starts services together and stops them in reverse order of Add.
type Lifecycle struct {
	logger *zap.Logger

	mu       sync.Mutex
	services []namedService
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers svc under name.
//
// Precondition: Run has not been called.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, Service: svc})
}

// Run starts every service and blocks until SIGINT or SIGTERM arrives, ctx is
// done, or a service fails.
//
// Postcondition: every service has been stopped. Returns the first service
// failure, or nil for a signal or cancellation.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	failures := make(chan error, len(services))
	for _, svc := range services {
		go l.run(svc, failures)
	}
	l.logger.Info("services started", zap.Int("count", len(services)))

	var err error
	select {
	case err = <-failures:
		l.logger.Error("service failed, shutting down", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("shutdown requested", zap.NamedError("cause", context.Cause(ctx)))
	}

	l.stopAll(services)
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(began)))
	return err
}

func (l *Lifecycle) run(svc namedService, failures chan<- error) {
	began := time.Now()
	l.logger.Info("starting service", zap.String("service", svc.name))
	if err := svc.Start(); err != nil {
		l.logger.Error("service exited",
			zap.String("service", svc.name),
			zap.Duration("uptime", time.Since(began)),
			zap.Error(err),
		)
		failures <- fmt.Errorf("service %s: %w", svc.name, err)
	}
}

func (l *Lifecycle) stopAll(services []namedService) {
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		began := time.Now()
		svc.Stop()
		l.logger.Info("service stopped",
			zap.String("service", svc.name),
			zap.Duration("elapsed", time.Since(began)),
		)
	}
}
