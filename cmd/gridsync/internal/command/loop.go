package command

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
)

type LoopOptions struct {
	containerFlags
}

func NewLoopCommand(cli *CLI) *cobra.Command {
	var opts LoopOptions

	cmd := &cobra.Command{
		Use:   "loop [mrid]",
		Short: "Fetch a loop with its equipment, or list every loop",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mrid := ""
			if len(args) == 1 {
				mrid = args[0]
			}
			return RunLoop(cmd.Context(), cli, mrid, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func RunLoop(ctx context.Context, cli *CLI, mrid string, opts LoopOptions) error {
	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	if mrid == "" {
		res := c.GetAllLoops(ctx)
		return cli.finishObjects(res.Value(), res.Err())
	}
	res := c.GetEquipmentForLoop(ctx, mrid, opts.options())
	return cli.finishObjects(res.Value(), res.Err())
}
