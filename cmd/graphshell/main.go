package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/graphshell/cmd/graphshell/commands"
	"github.com/teranos/graphshell/logger"
)

var rootCmd = &cobra.Command{
	Use:   "graphshell",
	Short: "graphshell - a graph-native browsing surface",
	Long: `graphshell - a browser shell that keeps every visited page as a node
in a persistent, syncable graph instead of a disposable tab stack.

Available commands:
  run     - Start the shell runtime
  sync    - Manage peer pairing and workspace grants
  config  - Inspect the active configuration
  version - Print build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() != "show" {
			if err := logger.Initialize(false); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}
		return nil
	},
}

func init() {
	if err := logger.Initialize(false); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logger: %v\n", err)
	}

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
