package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sdss/sdssdli/pkg/daemon"
)

// The `daemon` command launches a long-running server that exposes the other
// commands as HTTP endpoints, so the switch can be driven remotely (e.g. by
// an observatory actor that doesn't want to shell out).
var daemonCmd = &cobra.Command{
	Use: "daemon",
	Example: `  // basic launch
  sdssdli daemon
  // launch with a custom configuration
  sdssdli daemon -c custom-settings.yml`,
	Short: "Launch a long-running web server, e.g. for container use",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Don't expose the `daemon` command itself; that could lead to very
		// weird recursion scenarios.
		rootCmd.RemoveCommand(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.RunServer(rootCmd)
	},
}

func init() {
	addFlag("daemon.endpoint", daemonCmd, "endpoint", "e", "localhost:8080", "Root endpoint for the daemon to listen on")
	rootCmd.AddCommand(daemonCmd)
}
