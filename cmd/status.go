package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sdss/sdssdli/pkg/dli"
)

// The `status` command queries the on/off state of one or more outlets.
var statusCmd = &cobra.Command{
	Use: "status [outlet...]",
	Example: `  // state of every outlet
  sdssdli status --host 10.1.1.21 -u admin
  // state of specific outlets, by name, prefix, or 0-indexed number
  sdssdli status lamp Fan-1 3`,
	Short: "Show the on/off state of outlets",
	Long: "Prints the state of the requested outlets, in request order.\n" +
		"Outlets may be given as names, unambiguous name prefixes, or 0-indexed\n" +
		"numbers. With no arguments the state of every outlet is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newController()
		if err != nil {
			return err
		}

		refs := parseOutletRefs(args)
		if len(refs) == 0 {
			refs = []dli.OutletRef{dli.All}
		}

		states, err := dc.State(cmd.Context(), refs...)
		if err != nil {
			return err
		}

		return writeOutput(cmd, "status.format", states, func(w io.Writer) {
			for _, s := range states {
				state := "off"
				if s.On {
					state = "on"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", s.Outlet, s.Name, state)
			}
		})
	},
}

func init() {
	addFlag("status.format", statusCmd, "format", "F", "list", "Set the output format (list|json|yaml)")
	rootCmd.AddCommand(statusCmd)
}
