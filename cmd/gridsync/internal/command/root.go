package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func NewRootCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridsync",
		Short: "Fetch and assemble electrical network models from a catalogue",
		Long: "gridsync fetches objects from a network catalogue service, follows their\n" +
			"references until the graph is complete, and prints the result.\n\n" +
			"Examples:\n" +
			"  # Fetch a breaker and everything it references\n" +
			"  gridsync get b001 --endpoint localhost:50051\n\n" +
			"  # Fetch a feeder with its equipment in the current state\n" +
			"  gridsync container f001 --kind Feeder --state CURRENT\n",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cli.Output {
			case "", OutputYAML, OutputJSON, OutputIDs:
			default:
				return fmt.Errorf("invalid output format %q", cli.Output)
			}
			if cli.Debug {
				cli.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
			}
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&cli.ConfigPath, "config", "c", "", "Path to gridsync.yaml or its directory")
	cmd.PersistentFlags().StringVarP(&cli.Endpoint, "endpoint", "e", "", "Catalogue address, overrides the configuration")
	cmd.PersistentFlags().StringVarP(&cli.Output, "output", "o", OutputYAML, "Output format. One of: (yaml | json | ids)")
	cmd.PersistentFlags().BoolVar(&cli.Debug, "debug", false, "Log debug output to stderr")
	return cmd
}

// AddCommands registers all subcommands to the root command.
func AddCommands(root *cobra.Command, cli *CLI) {
	root.AddCommand(
		NewGetCommand(cli),
		NewContainerCommand(cli),
		NewLoopCommand(cli),
		NewHierarchyCommand(cli),
		NewMetadataCommand(cli),
		NewFilterCommand(cli),
		NewSnapshotCommand(cli),
	)
}

func Execute() {
	cli := NewCLI(os.Stdout)
	root := NewRootCommand(cli)
	AddCommands(root, cli)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
