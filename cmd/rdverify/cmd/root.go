package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "rdverify",
	Short: "Check an interconnect model against a physical device dump",
	Long: `rdverify walks a device model (tile classes, namings and grid) against
the physical dump of a part and reports every mismatch, plus every physical
wire, pip and site the model leaves unexplained.

Examples:
  rdverify verify --bundle bundle.yaml --part part.rdsexp
  rdverify verify -c rdverify.yaml --baseline runs.db
  rdverify check --bundle bundle.yaml --part part.rdsexp --stubs stubs.rdv
  rdverify stubs stubs.rdv
  rdverify baseline list --db runs.db --part xc7a35t`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.Msg)
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "run configuration file")
}

// newLogger logs to w at debug level when verbose, warnings otherwise.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
