package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
)

// NewRootCommand creates the root command for the fleet CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fleet",
		Short: "SpaceTraders fleet commander - autonomous fleet orchestration",
		Long: `Fleet commander runs an autonomous SpaceTraders fleet: probes keep market
intel fresh, haulers run trade routes, service contracts, and supply jump
gate construction, all under one strategy loop.

The run command is the commander itself; the other commands read the
operations database it writes, so a dashboard session and a running
commander can share the same files.

Examples:
  fleet run
  fleet run --assign BADGER-3:gate_build --skip BADGER-5
  fleet markets --system X1-GZ7
  fleet trades --ship BADGER-3 --limit 20
  fleet snapshots --limit 50`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/spacetraders)")

	// Add commands
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewMarketsCommand())
	rootCmd.AddCommand(NewTradesCommand())
	rootCmd.AddCommand(NewSnapshotsCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
