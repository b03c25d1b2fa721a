package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `outlets` command reloads the outlet registry from the device and
// prints the name/number mapping. With a name argument it resolves that name
// to its 0-indexed outlet number instead.
var outletsCmd = &cobra.Command{
	Use: "outlets [name]",
	Example: `  // list all outlets
  sdssdli outlets
  // resolve an outlet name (prefixes allowed)
  sdssdli outlets lam
  // resolve with exact matching only
  sdssdli outlets lamp --exact`,
	Args:  cobra.MaximumNArgs(1),
	Short: "List outlet names or resolve a name to its number",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newController()
		if err != nil {
			return err
		}

		if err := dc.Reload(cmd.Context()); err != nil {
			return err
		}

		if len(args) == 1 {
			outlet, err := dc.GetOutletNumber(args[0], !viper.GetBool("outlets.exact"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outlet)
			return nil
		}

		outlets := dc.Outlets()
		return writeOutput(cmd, "outlets.format", outlets, func(w io.Writer) {
			for _, o := range outlets {
				fmt.Fprintf(w, "%d\t%s\n", o.Outlet, o.Name)
			}
		})
	},
}

func init() {
	addFlag("outlets.format", outletsCmd, "format", "F", "list", "Set the output format (list|json|yaml)")
	addFlag("outlets.exact", outletsCmd, "exact", "e", false, "Disable fuzzy prefix matching")
	rootCmd.AddCommand(outletsCmd)
}
