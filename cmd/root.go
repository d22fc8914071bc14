package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/logging"
	"github.com/mittwald/mittsmoke/pkg/files"
	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/mittwald/mittsmoke/pkg/registry"
	"github.com/mittwald/mittsmoke/pkg/report"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configDir string
	target    config.DeploymentTarget
	logOpts   logging.Options
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "/etc/mittsmoke.d", "set directory to where your .hcl-configs are located")
	rootCmd.PersistentFlags().VarP(&target, "target", "t", "deployment target to probe (host or container)")
	rootCmd.PersistentFlags().StringVar(&logOpts.Level, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOpts.Format, "log-format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logOpts.File, "log-file", "", "additionally write logs to this rotated file")
}

var rootCmd = &cobra.Command{
	Use:           "mittsmoke",
	Short:         "Mittsmoke - smoke tests for deployments",
	Long:          "Mittsmoke runs an ordered list of HTTP, command and database probes against a deployment and reports whether it is minimally operational",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Configure(logOpts); err != nil {
			return configurationError(err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Warn("Running 'mittsmoke' without any arguments - defaulting to 'run'. This behaviour may change in future releases!")
		return runCmd.RunE(cmd, args)
	},
}

// ExitError ends the process with Code. Err, if set, is logged first.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdout)
}

func execute(args []string, out io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	err := rootCmd.Execute()
	if err == nil {
		return report.ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			log.Error(exitErr.Err)
		}
		return exitErr.Code
	}

	// flag and argument errors surface here, before any probe has run
	log.Error(err)
	return report.ExitConfiguration
}

func configurationError(err error) error {
	var cfgErr *probe.ConfigurationError
	if !errors.As(err, &cfgErr) {
		err = probe.NewConfigurationError("", err)
	}
	return &ExitError{Code: report.ExitConfiguration, Err: err}
}

// loadedSuite is the configuration of one invocation, resolved for the
// selected deployment target.
type loadedSuite struct {
	suite    *config.Suite
	resolver *config.Resolver
	registry *registry.Registry
	reports  []files.Output
}

// loadSuite reads the configuration directory and registers every probe for
// the selected deployment target.
func loadSuite() (*loadedSuite, error) {
	suite, err := config.Load(configDir)
	if err != nil {
		return nil, configurationError(err)
	}

	resolver, err := config.NewResolver(suite, target)
	if err != nil {
		return nil, configurationError(err)
	}

	reg, err := registry.Build(suite, resolver)
	if err != nil {
		return nil, configurationError(err)
	}

	reports, err := files.Prepare(suite.Reports, resolver)
	if err != nil {
		return nil, configurationError(err)
	}

	return &loadedSuite{suite: suite, resolver: resolver, registry: reg, reports: reports}, nil
}

func colorEnabled(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}

	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
