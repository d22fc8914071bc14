package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without running any probe",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadSuite()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "configuration in %s is valid: %d probes for target %s\n", configDir, loaded.registry.Len(), target)
		return nil
	},
}
