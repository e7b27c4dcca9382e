package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/registry"
	"github.com/zero-day-ai/gridsync/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds serve configuration.
type Config struct {
	// Listen is the TCP address the gRPC server listens on.
	// Default: ":50051"
	Listen string

	// Listener, when set, is used instead of listening on Listen.
	Listener net.Listener

	// GracefulTimeout is the maximum duration to wait for active streams
	// to complete during graceful shutdown.
	// Default: 30 seconds
	GracefulTimeout time.Duration

	// TLSCertFile and TLSKeyFile enable TLS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// Name is the catalogue name registered for discovery.
	// Default: "network"
	Name string

	// Version is registered alongside the instance.
	Version string

	// AdvertiseAddr is the endpoint registered for discovery.
	// Default: the listener's address
	AdvertiseAddr string

	// Registry, when set, receives this instance's registration.
	Registry registry.Registry

	// ownsRegistry marks a registry created by WithRegistryFromEnv, closed on shutdown.
	ownsRegistry bool

	Logger *slog.Logger
}

// DefaultConfig returns default serve configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":50051",
		GracefulTimeout: 30 * time.Second,
		Name:            "network",
		Logger:          slog.Default(),
	}
}

// Server wraps a gRPC server serving one catalogue backend.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	config       *Config
	healthServer *health.Server
	catalogue    *catalogue.Server
	info         registry.ServiceInfo
}

// NewServer creates the gRPC server for backend and registers the catalogue and
// health services. The listener is opened here so Addr is valid before Serve.
func NewServer(backend catalogue.Backend, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("catalogue backend is required")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	listener := cfg.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", cfg.Listen)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
		}
	}

	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(rpc.MaxMessageSize),
		grpc.MaxSendMsgSize(rpc.MaxMessageSize),
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(serverOpts...)

	instanceID := uuid.New().String()
	cat := catalogue.NewServer(backend,
		catalogue.WithLogger(cfg.Logger),
		catalogue.WithInstanceID(instanceID))
	rpc.RegisterCatalogueServiceServer(grpcServer, cat)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(rpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	endpoint := cfg.AdvertiseAddr
	if endpoint == "" {
		endpoint = listener.Addr().String()
	}

	return &Server{
		grpcServer:   grpcServer,
		listener:     listener,
		config:       cfg,
		healthServer: healthServer,
		catalogue:    cat,
		info: registry.ServiceInfo{
			Kind:       registry.KindCatalogue,
			Name:       cfg.Name,
			Version:    cfg.Version,
			InstanceID: instanceID,
			Endpoint:   endpoint,
			Metadata:   map[string]string{"service": rpc.ServiceName},
			StartedAt:  time.Now().UTC(),
		},
	}, nil
}

// GRPCServer returns the underlying gRPC server.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// HealthServer returns the health check server.
func (s *Server) HealthServer() *health.Server {
	return s.healthServer
}

// ServiceInfo returns the registration record of this instance.
func (s *Server) ServiceInfo() registry.ServiceInfo {
	return s.info
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve starts the gRPC server and blocks until shutdown.
// It handles graceful shutdown on SIGINT/SIGTERM signals.
// The context can be used to initiate shutdown programmatically.
func (s *Server) Serve(ctx context.Context) error {
	logger := s.config.Logger.With("catalogue", s.info.Name, "instance_id", s.info.InstanceID)

	errCh := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	logger.Info("catalogue server listening", "addr", s.listener.Addr().String())

	if s.config.Registry != nil {
		if err := s.config.Registry.Register(ctx, s.info); err != nil {
			// The catalogue still serves direct connections.
			logger.Warn("service registration failed", "error", err)
		} else {
			logger.Info("registered catalogue", "endpoint", s.info.Endpoint)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		s.shutdown(logger)
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		s.shutdown(logger)
		return nil
	case err := <-errCh:
		s.deregister(logger)
		return err
	}
}

func (s *Server) shutdown(logger *slog.Logger) {
	s.healthServer.Shutdown()
	s.deregister(logger)
	s.GracefulStop()
}

func (s *Server) deregister(logger *slog.Logger) {
	reg := s.config.Registry
	if reg == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := reg.Deregister(ctx, s.info); err != nil {
		logger.Warn("service deregistration failed", "error", err)
	}
	if s.config.ownsRegistry {
		if err := reg.Close(); err != nil {
			logger.Warn("failed to close registry client", "error", err)
		}
	}
}

// Stop immediately stops the gRPC server.
// Active RPCs will be terminated abruptly.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// GracefulStop stops accepting new connections and waits for active RPCs
// to complete within the configured timeout period.
func (s *Server) GracefulStop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.GracefulTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.config.Logger.Info("server stopped gracefully")
	case <-ctx.Done():
		s.config.Logger.Warn("graceful shutdown timeout, forcing stop")
		s.grpcServer.Stop()
	}
}
