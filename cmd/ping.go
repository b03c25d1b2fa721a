package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The `ping` command probes the switch and reports whether it responds. The
// exit status reflects the result, for scripting.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the switch is responding to requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newController()
		if err != nil {
			return err
		}

		if !dc.IsConnected(cmd.Context()) {
			return fmt.Errorf("switch %s:%d is not responding", dc.Host, dc.Port)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "switch %s:%d is up\n", dc.Host, dc.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
