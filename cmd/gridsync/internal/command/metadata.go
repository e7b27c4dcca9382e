package command

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
)

func NewMetadataCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Print the catalogue's metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMetadata(cmd.Context(), cli)
		},
	}
}

func RunMetadata(ctx context.Context, cli *CLI) error {
	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	md, err := c.GetMetadata(ctx).Get()
	if err != nil {
		return err
	}
	return cli.print(md)
}
