package server

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name reported alongside "".
const HealthServiceName = "ficha"

// Probe reports whether a dependency is healthy.
type Probe func(ctx context.Context) error

// HealthService exposes the standard gRPC health protocol. Its serving status
// follows a probe that runs every interval.
type HealthService struct {
	addr     string
	interval time.Duration
	probe    Probe
	logger   *zap.Logger

	grpc   *grpc.Server
	health *health.Server

	ready   chan struct{}
	once    sync.Once
	stop    chan struct{}
	stopped sync.Once
	mu      sync.Mutex
	boundTo net.Addr
}

// NewHealthService creates a HealthService on addr.
//
// Precondition: interval > 0; probe and logger must be non-nil.
// Postcondition: Status is NOT_SERVING until the first probe succeeds.
func NewHealthService(addr string, interval time.Duration, probe Probe, logger *zap.Logger) *HealthService {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	s := &HealthService{
		addr:     addr,
		interval: interval,
		probe:    probe,
		logger:   logger,
		grpc:     grpcServer,
		health:   healthServer,
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// Start listens on the configured address, begins probing and serves gRPC
// until Stop is called.
func (s *HealthService) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.once.Do(func() { close(s.ready) })
		return err
	}
	s.mu.Lock()
	s.boundTo = ln.Addr()
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })

	s.logger.Info("grpc health listening", zap.String("addr", ln.Addr().String()))
	go s.watch()
	return s.grpc.Serve(ln)
}

// Stop marks every service NOT_SERVING and drains open RPCs.
func (s *HealthService) Stop() {
	s.stopped.Do(func() { close(s.stop) })
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Addr blocks until Start has bound its listener. It returns nil when the bind failed.
func (s *HealthService) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundTo, nil
}

func (s *HealthService) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	last := grpc_health_v1.HealthCheckResponse_UNKNOWN
	for {
		last = s.check(last)
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// check runs the probe once and logs status changes.
func (s *HealthService) check(last grpc_health_v1.HealthCheckResponse_ServingStatus) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	err := s.probe(ctx)
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	if status == last {
		return last
	}

	// no-op once Stop has called health.Shutdown
	s.setStatus(status)
	if err != nil {
		s.logger.Warn("storage unhealthy", zap.Error(err))
	} else {
		s.logger.Info("storage healthy")
	}
	return status
}

func (s *HealthService) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(HealthServiceName, status)
}
