package serve

import (
	"log/slog"
	"net"
	"time"

	"github.com/zero-day-ai/gridsync/registry"
)

// Option is a functional option for configuring a Server.
type Option func(*Config)

// WithListen sets the TCP listen address, e.g. ":50051" or "127.0.0.1:0".
func WithListen(addr string) Option {
	return func(c *Config) {
		c.Listen = addr
	}
}

// WithListener serves on an existing listener instead of opening one.
func WithListener(lis net.Listener) Option {
	return func(c *Config) {
		c.Listener = lis
	}
}

// WithGracefulShutdown sets the maximum duration to wait for active
// streams to complete during graceful shutdown.
// After this timeout, the server will force shutdown.
func WithGracefulShutdown(timeout time.Duration) Option {
	return func(c *Config) {
		c.GracefulTimeout = timeout
	}
}

// WithTLS enables TLS encryption for the gRPC server.
// Both certFile and keyFile must be valid paths to PEM-encoded files.
// If either path is empty, TLS will be disabled.
func WithTLS(certFile, keyFile string) Option {
	return func(c *Config) {
		c.TLSCertFile = certFile
		c.TLSKeyFile = keyFile
	}
}

// WithName sets the catalogue name registered for discovery.
func WithName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.Name = name
		}
	}
}

// WithVersion sets the version registered for discovery.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// WithAdvertiseAddr sets the endpoint clients discover. Use it when the listen
// address is not reachable as-is, e.g. ":50051" behind a hostname.
func WithAdvertiseAddr(addr string) Option {
	return func(c *Config) {
		c.AdvertiseAddr = addr
	}
}

// WithLogger sets the logger for the server and the catalogue service.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithRegistry enables registration with reg. The server registers after it
// starts serving and deregisters during shutdown; the caller keeps ownership
// of reg.
//
// Example:
//
//	reg, _ := registry.NewClient(config)
//	defer reg.Close()
//	srv, _ := serve.NewServer(backend, serve.WithRegistry(reg))
func WithRegistry(reg registry.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
		c.ownsRegistry = false
	}
}

// WithRegistryFromEnv creates a registry client from GRIDSYNC_REGISTRY_ENDPOINTS.
// If the variable is not set or the registry is unreachable, registration is
// skipped: the catalogue works but isn't discoverable. The server closes the
// client on shutdown.
func WithRegistryFromEnv() Option {
	return func(c *Config) {
		logger := c.Logger
		if logger == nil {
			logger = slog.Default()
		}
		client, err := registry.NewClientFromEnv(registry.WithLogger(logger))
		if err != nil {
			logger.Warn("registry unavailable, continuing without registration", "error", err)
			return
		}
		if client != nil {
			c.Registry = client
			c.ownsRegistry = true
		}
	}
}
