package cmd

import (
	"errors"
	"freqgrabber/lib/serviceutil"
	libtelemetry "freqgrabber/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

// errReported is returned when the failure was already shown to the operator.
var errReported = errors.New("run failed")

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "freqgrabber",
	Short:         "freqgrabber fetches word frequencies from corpus web services into CSV files.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "debug", "d", false, "print debug information")
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, errReported) {
		os.Exit(1)
	}
	serviceutil.Fatal(os.Stdout, err)
}
