package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	versionTag    string
	versionCommit string
	versionDate   string
)

// SetVersionInfo stores build information injected by the linker at release
// time.
func SetVersionInfo(version string, commit string, date string) {
	versionTag = version
	versionCommit = commit
	versionDate = date
}

var versionCmd = &cobra.Command{
	Use: "version",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flag("rev").Value.String() == "true" {
			fmt.Printf("%s (%s)\n", versionCommit, versionDate)
		} else {
			fmt.Println(versionTag)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("rev", false, "show the version commit")
	rootCmd.AddCommand(versionCmd)
}
