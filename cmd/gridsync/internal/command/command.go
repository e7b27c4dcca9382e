package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zero-day-ai/gridsync/client"
	"github.com/zero-day-ai/gridsync/config"
	"github.com/zero-day-ai/gridsync/registry"
)

// ConnectFunc opens a catalogue client for cfg.
type ConnectFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*client.Client, error)

// CLI holds shared state and is propagated from root to subcommands.
type CLI struct {
	Out    io.Writer
	Logger *slog.Logger

	// Flags bound on the root command.
	ConfigPath string
	Endpoint   string
	Output     string
	Debug      bool

	Connect ConnectFunc
}

func NewCLI(w io.Writer) *CLI {
	return &CLI{
		Out:     w,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Connect: Connect,
	}
}

// Config loads the configuration named by --config. Without the flag,
// ./gridsync.yaml is used when present, otherwise the defaults plus environment.
// --endpoint overrides client.endpoint.
func (c *CLI) Config() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case c.ConfigPath != "":
		cfg, err = config.Load(c.ConfigPath)
	case fileExists("gridsync.yaml"):
		cfg, err = config.Load("gridsync.yaml")
	default:
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}
	if c.Endpoint != "" {
		cfg.Client.Endpoint = c.Endpoint
	}
	return cfg, nil
}

// Client loads the configuration and connects to the catalogue.
func (c *CLI) Client(ctx context.Context) (*client.Client, *config.Config, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, nil, err
	}
	cl, err := c.Connect(ctx, cfg, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cl, cfg, nil
}

// Connect dials the catalogue named by client.discovery through the registry,
// or client.endpoint directly.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	opts, err := cfg.ClientOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, client.WithLogger(logger))

	if cfg.Client.Discovery != "" {
		reg, err := registry.NewClient(*cfg.Registry, registry.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to registry: %w", err)
		}
		defer reg.Close()
		return client.DialFromRegistry(ctx, reg, cfg.Client.Discovery, opts...)
	}

	if cfg.Client.Endpoint == "" {
		return nil, errors.New("no catalogue endpoint: set --endpoint, client.endpoint or " + config.EnvEndpoint)
	}
	return client.Dial(ctx, cfg.Client.Endpoint, opts...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
