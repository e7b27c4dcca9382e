// Package config loads gridsync.yaml, the shared configuration of the gridsync
// CLI and the catalogue server.
//
// Example file:
//
//	client:
//	  endpoint: localhost:50051
//	  batch_size: 500
//	  call_timeout: 30s
//	container_edges:
//	  Equipment.location: true
//	registry:
//	  endpoints: [localhost:2379]
//	server:
//	  listen: :50051
//	  backend: redis
//	  redis_url: redis://localhost:6379/0
//	  fixture: network.yaml
//
// Environment variables override the file: GRIDSYNC_ENDPOINT sets
// client.endpoint, GRIDSYNC_REGISTRY_ENDPOINTS sets registry.endpoints and
// GRIDSYNC_REDIS_URL sets server.redis_url.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/client"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/registry"
	"github.com/zero-day-ai/gridsync/rpc"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvEndpoint = "GRIDSYNC_ENDPOINT"
	EnvRedisURL = "GRIDSYNC_REDIS_URL"
)

// Backend names accepted by server.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the parsed gridsync.yaml.
type Config struct {
	Client ClientConfig `yaml:"client"`

	// ContainerEdges overrides the container-edge flag of named relationships.
	ContainerEdges map[string]bool `yaml:"container_edges,omitempty"`

	// Registry enables etcd discovery; nil leaves it off.
	Registry *registry.Config `yaml:"registry,omitempty"`

	Server ServerConfig `yaml:"server"`
}

// ClientConfig configures the catalogue client.
type ClientConfig struct {
	// Endpoint is the catalogue address (e.g., "localhost:50051")
	Endpoint string `yaml:"endpoint,omitempty"`

	// Discovery names a registered catalogue to dial instead of Endpoint
	Discovery string `yaml:"discovery,omitempty"`

	Token string              `yaml:"token,omitempty"`
	TLS   *registry.TLSConfig `yaml:"tls,omitempty"`

	// BatchSize is the maximum identifiers per FetchByIds call. Default: 1000
	BatchSize int `yaml:"batch_size,omitempty"`

	// MaxConcurrentBatches bounds in-flight FetchByIds calls per pass. Default: 4
	MaxConcurrentBatches int `yaml:"max_concurrent_batches,omitempty"`

	// CallTimeout bounds every operation.
	// Format: Go duration string (e.g., "30s"). Default: no timeout
	CallTimeout string `yaml:"call_timeout,omitempty"`
}

// ServerConfig configures the catalogue server.
type ServerConfig struct {
	// Listen is the TCP listen address. Default: ":50051"
	Listen string `yaml:"listen,omitempty"`

	// Name is the catalogue name registered for discovery. Default: "network"
	Name string `yaml:"name,omitempty"`

	// Backend is "memory" or "redis". Default: "memory"
	Backend string `yaml:"backend,omitempty"`

	RedisURL    string `yaml:"redis_url,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty"`

	// Fixture is a YAML dataset loaded into the backend at startup
	Fixture string `yaml:"fixture,omitempty"`

	// GracefulTimeout bounds graceful shutdown.
	// Format: Go duration string. Default: 30s
	GracefulTimeout string `yaml:"graceful_timeout,omitempty"`

	TLSCertFile string `yaml:"tls_cert_file,omitempty"`
	TLSKeyFile  string `yaml:"tls_key_file,omitempty"`
}

// GetBatchSize returns the configured batch size or the default value.
func (c *ClientConfig) GetBatchSize() int {
	if c == nil || c.BatchSize <= 0 {
		return client.DefaultBatchSize
	}
	return c.BatchSize
}

// GetMaxConcurrentBatches returns the configured concurrency or the default value.
func (c *ClientConfig) GetMaxConcurrentBatches() int {
	if c == nil || c.MaxConcurrentBatches <= 0 {
		return client.DefaultMaxConcurrentBatches
	}
	return c.MaxConcurrentBatches
}

// GetCallTimeout parses the call timeout. Unset or invalid values yield zero.
func (c *ClientConfig) GetCallTimeout() time.Duration {
	if c == nil || c.CallTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetListen returns the listen address or the default value.
func (s *ServerConfig) GetListen() string {
	if s == nil || s.Listen == "" {
		return ":50051"
	}
	return s.Listen
}

// GetName returns the catalogue name or the default value.
func (s *ServerConfig) GetName() string {
	if s == nil || s.Name == "" {
		return "network"
	}
	return s.Name
}

// GetBackend returns the backend name or the default value.
func (s *ServerConfig) GetBackend() string {
	if s == nil || s.Backend == "" {
		return BackendMemory
	}
	return s.Backend
}

// GetGracefulTimeout parses the graceful shutdown timeout.
// Returns the default value if not set or invalid.
func (s *ServerConfig) GetGracefulTimeout() time.Duration {
	if s == nil || s.GracefulTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.GracefulTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Load reads and parses a gridsync.yaml file. If path is a directory it looks for
// gridsync.yaml or gridsync.yml in it. Environment overrides are applied and the
// result validated.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"gridsync.yaml", "gridsync.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no gridsync.yaml or gridsync.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration, applies environment overrides and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides file values with the GRIDSYNC_* environment variables that
// are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Client.Endpoint = v
	}
	if endpoints := registry.ParseEndpoints(os.Getenv(registry.EnvEndpoints)); len(endpoints) > 0 {
		if c.Registry == nil {
			c.Registry = &registry.Config{}
		}
		c.Registry.Endpoints = endpoints
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Server.RedisURL = v
	}
}

// Validate reports every invalid setting, joined, as a configuration error.
func (c *Config) Validate() error {
	var errs []error

	if c.Client.BatchSize > rpc.MaxIdentifiersPerCall {
		errs = append(errs, fmt.Errorf("client.batch_size %d exceeds the per-call limit of %d",
			c.Client.BatchSize, rpc.MaxIdentifiersPerCall))
	}
	if c.Client.CallTimeout != "" {
		if _, err := time.ParseDuration(c.Client.CallTimeout); err != nil {
			errs = append(errs, fmt.Errorf("client.call_timeout: %w", err))
		}
	}
	if c.Client.Discovery != "" && c.Registry == nil {
		errs = append(errs, errors.New("client.discovery requires a registry section"))
	}
	if len(c.ContainerEdges) > 0 {
		if _, err := graph.DefaultSchema().WithContainerEdges(c.ContainerEdges); err != nil {
			errs = append(errs, fmt.Errorf("container_edges: %w", err))
		}
	}

	switch c.Server.GetBackend() {
	case BackendMemory:
	case BackendRedis:
		if c.Server.RedisURL == "" {
			errs = append(errs, errors.New("server.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("server.backend %q must be %q or %q",
			c.Server.Backend, BackendMemory, BackendRedis))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file must be set together"))
	}
	if c.Server.GracefulTimeout != "" {
		if _, err := time.ParseDuration(c.Server.GracefulTimeout); err != nil {
			errs = append(errs, fmt.Errorf("server.graceful_timeout: %w", err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return gridsync.NewConfigurationError("config.Validate",
		fmt.Errorf("%w: %w", gridsync.ErrInvalidConfig, errors.Join(errs...)))
}

// ClientOptions translates the client section into client options.
func (c *Config) ClientOptions() ([]client.Option, error) {
	opts := []client.Option{
		client.WithBatchSize(c.Client.GetBatchSize()),
		client.WithMaxConcurrentBatches(c.Client.GetMaxConcurrentBatches()),
		client.WithCallTimeout(c.Client.GetCallTimeout()),
	}
	if len(c.ContainerEdges) > 0 {
		opts = append(opts, client.WithContainerEdges(c.ContainerEdges))
	}
	if c.Client.Token != "" {
		opts = append(opts, client.WithToken(c.Client.Token))
	}

	tlsConf, err := c.Client.TLS.ClientConfig()
	if err != nil {
		return nil, gridsync.NewConfigurationError("config.ClientOptions", err)
	}
	if tlsConf != nil {
		opts = append(opts, client.WithTLS(tlsConf))
	}
	return opts, nil
}
