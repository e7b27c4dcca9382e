package command

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/client"
)

func NewGetCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "get <mrid>...",
		Short: "Fetch objects and everything they reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunGet(cmd.Context(), cli, args)
		},
	}
}

func RunGet(ctx context.Context, cli *CLI, mrids []string) error {
	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	res := c.GetIdentifiedObjects(ctx, mrids)
	return cli.finishObjects(res.Value(), res.Err())
}

// finishObjects prints what was fetched, including a partial result, then
// returns the failure if there was one. Identifiers the catalogue did not
// return are listed in the output and logged, not treated as an error.
func (c *CLI) finishObjects(res *client.MultiObjectResult, err error) error {
	if printErr := c.printObjects(resultList(res)); printErr != nil {
		return printErr
	}
	if err == nil && res != nil && len(res.Failed) > 0 {
		c.Logger.Warn("identifiers not returned by the catalogue", "count", len(res.Failed), "mrids", res.FailedIDs())
	}
	return err
}
