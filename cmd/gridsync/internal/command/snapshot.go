package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/config"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/snapshot"
	"github.com/zero-day-ai/gridsync/wire"
)

// snapshotSummary is printed after save and load.
type snapshotSummary struct {
	Path     string           `json:"path" yaml:"path"`
	Objects  int              `json:"objects" yaml:"objects"`
	Kinds    map[cim.Kind]int `json:"kinds" yaml:"kinds"`
	Pending  int              `json:"pending_references" yaml:"pending_references"`
	Metadata *wire.Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func NewSnapshotCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save fetched networks to SQLite and load them back",
	}
	cmd.AddCommand(newSnapshotSaveCommand(cli), newSnapshotLoadCommand(cli))
	return cmd
}

type SnapshotSaveOptions struct {
	Hierarchy bool
	containerFlags
}

func newSnapshotSaveCommand(cli *CLI) *cobra.Command {
	var opts SnapshotSaveOptions

	cmd := &cobra.Command{
		Use:   "save <path> [mrid...]",
		Short: "Fetch objects and save the resolved graph",
		Long: "Fetch the given objects, or with --hierarchy the whole network hierarchy\n" +
			"and the equipment of its containers, and save everything to a SQLite file.\n" +
			"An existing snapshot at path is replaced.\n",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSnapshotSave(cmd.Context(), cli, args[0], args[1:], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Hierarchy, "hierarchy", false, "Fetch the network hierarchy and its equipment")
	opts.bind(cmd)
	return cmd
}

func RunSnapshotSave(ctx context.Context, cli *CLI, path string, mrids []string, opts SnapshotSaveOptions) error {
	if len(mrids) == 0 && !opts.Hierarchy {
		return fmt.Errorf("nothing to save: give identifiers or --hierarchy")
	}

	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	if len(mrids) > 0 {
		if err := c.GetIdentifiedObjects(ctx, mrids).Err(); err != nil {
			return err
		}
	}
	if opts.Hierarchy {
		h, err := c.GetNetworkHierarchy(ctx, wire.FullHierarchy()).Get()
		if err != nil {
			return err
		}
		if err := c.GetEquipmentForContainers(ctx, h.ContainerIDs(), opts.options()).Err(); err != nil {
			return err
		}
	}

	db, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(db, cli.Logger, "snapshot database")

	n, err := db.Save(ctx, c.Store())
	if err != nil {
		return err
	}

	summary := snapshotSummary{Path: path, Objects: n, Kinds: c.Store().Kinds(), Pending: c.Store().PendingCount()}
	if md, err := c.GetMetadata(ctx).Get(); err == nil {
		if err := db.SaveMetadata(ctx, md); err != nil {
			return err
		}
		summary.Metadata = md
	} else {
		cli.Logger.Warn("catalogue metadata unavailable, saved without it", "error", err)
	}
	return cli.print(summary)
}

func newSnapshotLoadCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Load a snapshot and report its contents",
		Long: "Load a snapshot into a fresh store, resolving every saved reference, and\n" +
			"print a summary. Required references left unresolved are reported as errors.\n",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSnapshotLoad(cmd.Context(), cli, args[0])
		},
	}
}

func RunSnapshotLoad(ctx context.Context, cli *CLI, path string) error {
	cfg, err := cli.Config()
	if err != nil {
		return err
	}
	store, md, err := loadSnapshot(ctx, cfg, path)
	if store == nil {
		return err
	}

	summary := snapshotSummary{
		Path:     path,
		Objects:  store.Len(),
		Kinds:    store.Kinds(),
		Pending:  store.PendingCount(),
		Metadata: md,
	}
	if printErr := cli.print(summary); printErr != nil {
		return printErr
	}
	return err
}

// loadSnapshot reads path into a new store built with the configured schema.
// A non-nil store is returned alongside reference errors so callers can still
// report what loaded.
func loadSnapshot(ctx context.Context, cfg *config.Config, path string) (*graph.Store, *wire.Metadata, error) {
	schema := graph.DefaultSchema()
	if cfg.ContainerEdges != nil {
		var err error
		if schema, err = schema.WithContainerEdges(cfg.ContainerEdges); err != nil {
			return nil, nil, err
		}
	}

	db, err := snapshot.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer gridsync.CloseWithLog(db, nil, "snapshot database")

	md, err := db.LoadMetadata(ctx)
	if err != nil {
		return nil, nil, err
	}

	store := graph.NewStore(schema)
	_, err = db.Load(ctx, store)
	return store, md, err
}
