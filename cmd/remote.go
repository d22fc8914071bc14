package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/mittwald/mittsmoke/pkg/cli"
	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/spf13/cobra"
)

var (
	apiAddress    string
	remoteTimeout time.Duration
	remoteMode    string
)

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.PersistentFlags().StringVar(&apiAddress, "api-address", "http://localhost:9102", "address of a running \"mittsmoke serve\" (http://, https:// or unix://)")
	remoteCmd.PersistentFlags().DurationVar(&remoteTimeout, "timeout", 2*time.Minute, "request timeout for status and probes")
	remoteCmd.Flags().StringVar(&remoteMode, "mode", "", "run mode for the stream action (fail-fast or continue)")
}

var remoteCmd = &cobra.Command{
	Use:       "remote <status|probes|stream>",
	Short:     "Query a running mittsmoke status server",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{cli.APIActionStatus, cli.APIActionProbes, cli.APIActionStream},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		resp := cli.NewAPIClient(apiAddress, remoteTimeout).CallAction(ctx, args[0], remoteMode)

		switch r := resp.(type) {
		case *cli.StreamingAPIResponse:
			r.Color = colorEnabled(out)
		case *cli.TypedAPIResponse[cli.StatusBody]:
			r.Color = colorEnabled(out)
		}

		if err := resp.Print(out); err != nil {
			return &ExitError{Code: report.ExitFailure, Err: err}
		}

		if code := resp.ExitCode(); code != report.ExitOK {
			return &ExitError{Code: code, Err: resp.Err()}
		}
		return nil
	},
}
