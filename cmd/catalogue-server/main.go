// Command catalogue-server serves a network catalogue over gRPC from an
// in-memory or Redis backend, optionally seeded from a YAML fixture and
// registered in etcd for discovery.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/config"
	"github.com/zero-day-ai/gridsync/registry"
	"github.com/zero-day-ai/gridsync/serve"
)

var version = "dev"

type options struct {
	configPath string
	listen     string
	fixture    string
	backend    string
	advertise  string
	logLevel   string
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "catalogue-server",
		Short:         "Serve a network catalogue over gRPC",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to gridsync.yaml or its directory")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Listen address, overrides server.listen")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "YAML dataset to load, overrides server.fixture")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Storage backend (memory | redis), overrides server.backend")
	cmd.Flags().StringVar(&opts.advertise, "advertise", "", "Endpoint registered for discovery")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug | info | warn | error)")
	return cmd
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}

	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}
	if opts.fixture != "" {
		cfg.Server.Fixture = opts.fixture
	}
	if opts.backend != "" {
		cfg.Server.Backend = opts.backend
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// openBackend creates the configured backend and seeds it from the fixture.
func openBackend(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (catalogue.Backend, error) {
	var backend catalogue.Backend
	switch cfg.GetBackend() {
	case config.BackendRedis:
		b, err := catalogue.NewRedisBackend(catalogue.RedisOptions{URL: cfg.RedisURL, Prefix: cfg.RedisPrefix})
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		backend = catalogue.NewMemoryBackend()
	}

	if cfg.Fixture == "" {
		return backend, nil
	}
	fixture, err := catalogue.LoadFixture(cfg.Fixture)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if err := fixture.Apply(ctx, backend); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load fixture %s: %w", cfg.Fixture, err)
	}
	logger.Info("fixture loaded", "path", cfg.Fixture, "objects", len(fixture.Objects))
	return backend, nil
}

func run(ctx context.Context, opts options) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg.Server, logger)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(backend, logger, "catalogue backend")

	serveOpts := []serve.Option{
		serve.WithLogger(logger),
		serve.WithListen(cfg.Server.GetListen()),
		serve.WithName(cfg.Server.GetName()),
		serve.WithVersion(version),
		serve.WithGracefulShutdown(cfg.Server.GetGracefulTimeout()),
		serve.WithTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile),
		serve.WithAdvertiseAddr(opts.advertise),
	}
	if cfg.Registry != nil {
		reg, err := registry.NewClient(*cfg.Registry, registry.WithLogger(logger))
		if err != nil {
			logger.Warn("registry unavailable, continuing without registration", "error", err)
		} else {
			defer gridsync.CloseWithLog(reg, logger, "registry client")
			serveOpts = append(serveOpts, serve.WithRegistry(reg))
		}
	}

	srv, err := serve.NewServer(backend, serveOpts...)
	if err != nil {
		return err
	}
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
