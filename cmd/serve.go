package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/mittwald/mittsmoke/pkg/server"
	"github.com/spf13/cobra"
)

var listenAddress string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddress, "listen", "l", ":9102", "address to serve the status endpoints on")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the probes as HTTP status endpoints",
	Long:  "This sub-command keeps the configuration loaded and runs the probes on every request to /status or /v1/run/stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadSuite()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := server.Run(ctx, server.NewHandler(loaded.registry, target.String()), listenAddress); err != nil {
			return &ExitError{Code: report.ExitFailure, Err: err}
		}
		return nil
	},
}
