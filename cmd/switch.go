package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The `on` and `off` commands switch outlets. Passing "all" as the only
// argument switches every outlet directly on the device, without consulting
// the outlet registry.
var onCmd = &cobra.Command{
	Use: "on <outlet...|all>",
	Example: `  // turn on by name
  sdssdli on lamp
  // turn on several outlets at once
  sdssdli on lamp 3 Fan-1
  // turn on everything
  sdssdli on all`,
	Args:  cobra.MinimumNArgs(1),
	Short: "Turn outlets on",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args, true)
	},
}

var offCmd = &cobra.Command{
	Use:   "off <outlet...|all>",
	Args:  cobra.MinimumNArgs(1),
	Short: "Turn outlets off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args, false)
	},
}

func runSwitch(cmd *cobra.Command, args []string, value bool) error {
	dc, err := newController()
	if err != nil {
		return err
	}

	refs := parseOutletRefs(args)
	if value {
		err = dc.On(cmd.Context(), refs...)
	} else {
		err = dc.Off(cmd.Context(), refs...)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func init() {
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
}
