package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mittwald/mittsmoke/pkg/engine"
	"github.com/mittwald/mittsmoke/pkg/files"
	"github.com/mittwald/mittsmoke/pkg/lockfile"
	"github.com/mittwald/mittsmoke/pkg/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runMode      engine.Mode
	outputFormat string
	lockFile     string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Var(&runMode, "mode", "what to do after a failed probe (fail-fast or continue)")
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "report format (text or json)")
	runCmd.Flags().StringVar(&lockFile, "lock-file", "", "refuse to run while another run holds this file")
}

var runCmd = &cobra.Command{
	Use:   "run [probe...]",
	Short: "Run the probes against the selected deployment target",
	Long:  "This sub-command runs all configured probes (or only the named ones) in configuration order and exits non-zero if the deployment is not operational",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		renderer, err := report.NewRenderer(outputFormat, colorEnabled(out))
		if err != nil {
			return configurationError(err)
		}

		loaded, err := loadSuite()
		if err != nil {
			return err
		}

		defs, err := loaded.registry.Select(args...)
		if err != nil {
			return configurationError(err)
		}

		lock := lockfile.New(lockFile)
		if err := lock.Acquire(); err != nil {
			return &ExitError{Code: report.ExitFailure, Err: err}
		}
		defer func() {
			if err := lock.Release(); err != nil {
				log.Errorf("error while cleaning up the lock file: %s", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rep := engine.New(engine.WithTarget(target.String())).Run(ctx, defs, runMode)

		if err := renderer.Render(out, rep); err != nil {
			return &ExitError{Code: report.ExitFailure, Err: err}
		}

		if err := files.WriteReports(loaded.reports, rep); err != nil {
			return &ExitError{Code: report.ExitFailure, Err: err}
		}

		if code := report.ExitCode(rep); code != report.ExitOK {
			return &ExitError{Code: code}
		}
		return nil
	},
}
