package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured probes in execution order",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadSuite()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tKIND\tDRIVER\tTIMEOUT\tTARGET")
		for i, def := range loaded.registry.List() {
			name := def.Name
			if def.CanFail {
				name += " (can fail)"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, name, def.Kind, def.Driver, def.Timeout, def.Target)
		}
		return w.Flush()
	},
}
