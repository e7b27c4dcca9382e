package command

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/wire"
)

// containerFlags binds the equipment-for-container request parameters.
type containerFlags struct {
	energizing string
	energized  string
	state      string
}

func (f *containerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.energizing, "energizing", string(wire.EnergizingNone),
		"Upstream containers to include. One of: (NONE | FEEDERS | SUBSTATIONS)")
	cmd.Flags().StringVar(&f.energized, "energized", string(wire.EnergizedNone),
		"Downstream containers to include. One of: (NONE | FEEDERS | LV_FEEDERS)")
	cmd.Flags().StringVar(&f.state, "state", string(wire.NetworkStateNormal),
		"Network state. One of: (NORMAL | CURRENT | ALL)")
}

func (f *containerFlags) options() wire.ContainerOptions {
	return wire.ContainerOptions{
		IncludeEnergizing: wire.IncludedEnergizingContainers(strings.ToUpper(f.energizing)),
		IncludeEnergized:  wire.IncludedEnergizedContainers(strings.ToUpper(f.energized)),
		NetworkState:      wire.NetworkState(strings.ToUpper(f.state)),
	}
}

var errContainerArgs = errors.New("container accepts one mrid unless --equipment-only is set")

type ContainerOptions struct {
	Kind          string
	EquipmentOnly bool
	containerFlags
}

func NewContainerCommand(cli *CLI) *cobra.Command {
	var opts ContainerOptions

	cmd := &cobra.Command{
		Use:   "container <mrid>...",
		Short: "Fetch equipment containers with their equipment",
		Long: "Fetch a container (substation, feeder, LV feeder, circuit or site), its\n" +
			"equipment, and everything the equipment references.\n\n" +
			"With --equipment-only several containers can be given; members shared\n" +
			"between them are fetched once and the containers themselves are not fetched.\n",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunContainer(cmd.Context(), cli, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Expected container kind, e.g. Feeder. Empty accepts any")
	cmd.Flags().BoolVar(&opts.EquipmentOnly, "equipment-only", false, "Fetch only the equipment of the containers")
	opts.bind(cmd)
	return cmd
}

func RunContainer(ctx context.Context, cli *CLI, mrids []string, opts ContainerOptions) error {
	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	if opts.EquipmentOnly {
		res := c.GetEquipmentForContainers(ctx, mrids, opts.options())
		return cli.finishObjects(res.Value(), res.Err())
	}
	if len(mrids) != 1 {
		return errContainerArgs
	}
	res := c.GetEquipmentContainerOfKind(ctx, mrids[0], cim.Kind(opts.Kind), opts.options())
	return cli.finishObjects(res.Value(), res.Err())
}
