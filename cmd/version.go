package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version string
	Commit  string
	BuiltAt string
)

func init() {
	rootCmd.AddCommand(version)
}

var version = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mittsmoke",
	Long:  `All software has versions. This is mittsmoke's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Mittsmoke smoke test runner, version %s (commit %s), built at %s\n", Version, Commit, BuiltAt)
	},
}
