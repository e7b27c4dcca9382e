package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/query"
)

type FilterOptions struct {
	Snapshot string
}

func NewFilterCommand(cli *CLI) *cobra.Command {
	var opts FilterOptions

	cmd := &cobra.Command{
		Use:   "filter <expression> [mrid...]",
		Short: "Select objects with a CEL expression",
		Long: "Evaluate a CEL expression against every object of a snapshot, or of the\n" +
			"graph fetched from the given identifiers, and print the matches.\n\n" +
			"Variables: mrid, kind, name (string), fields (map), targets (map of lists).\n\n" +
			"Examples:\n" +
			"  gridsync filter 'kind == \"Breaker\"' --snapshot network.db\n" +
			"  gridsync filter '\"f001\" in targets[\"Equipment.equipmentContainers\"]' b001 b002\n",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunFilter(cmd.Context(), cli, args[0], args[1:], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Snapshot, "snapshot", "s", "", "Filter a saved snapshot instead of fetching")
	return cmd
}

func RunFilter(ctx context.Context, cli *CLI, expr string, mrids []string, opts FilterOptions) error {
	filter, err := query.Compile(expr)
	if err != nil {
		return err
	}

	var store *graph.Store
	switch {
	case opts.Snapshot != "":
		cfg, err := cli.Config()
		if err != nil {
			return err
		}
		if store, _, err = loadSnapshot(ctx, cfg, opts.Snapshot); store == nil {
			return err
		} else if err != nil {
			cli.Logger.Warn("snapshot has unresolved references", "error", err)
		}
	case len(mrids) > 0:
		c, _, err := cli.Client(ctx)
		if err != nil {
			return err
		}
		defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")
		if err := c.GetIdentifiedObjects(ctx, mrids).Err(); err != nil {
			return err
		}
		store = c.Store()
	default:
		return fmt.Errorf("nothing to filter: give identifiers or --snapshot")
	}

	matches, err := filter.Store(store)
	if err != nil {
		return err
	}
	return cli.printObjects(newObjectList(matches, nil))
}
