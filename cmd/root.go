// Package cmd is the CLI surface: a cobra root command with capture,
// replay, devices, and version subcommands, grounded on the teacher's
// cmd/root.go wiring style (persistent flags bound through viper, glog
// flag selection, SilenceUsage/SilenceErrors handling in Execute).
package cmd

import (
	goflag "flag"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/netsentryhq/netsentry/printer"
	"github.com/netsentryhq/netsentry/version"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "netsentry",
	Short:         "Live network traffic analyzer.",
	Long:          "netsentry captures, classifies, and aggregates network traffic and presents it live.",
	Version:       version.CLIDisplayString(),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// exitCodeError lets a subcommand request a specific process exit code,
// the analogue of the teacher's util.ExitError.
type exitCodeError struct {
	Code int
	Err  error
}

func (e exitCodeError) Error() string { return e.Err.Error() }
func (e exitCodeError) Unwrap() error { return e.Err }

// Execute runs the root command, mapping any returned error to a process
// exit code the way the teacher's Execute does.
func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		cmd.Println(cmd.UsageString())

		exitCode := 1
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.Code
		}
		printer.Stderr.Errorf("%s\n", err)
		os.Exit(exitCode)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "If set, outputs detailed information for debugging.")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase logging verbosity; repeatable.")
	viper.BindPFlag("verbose-level", rootCmd.PersistentFlags().Lookup("verbose"))

	// Select a couple of glog-style flags from the process's global flag
	// set, the way the teacher cherry-picks which ones to expose rather
	// than polluting the flag set with the whole set.
	goflag.CommandLine.VisitAll(func(f *goflag.Flag) {
		if f.Name == "alsologtostderr" || f.Name == "logtostderr" {
			flag.CommandLine.AddGoFlag(f)
			flag.CommandLine.MarkHidden(f.Name)
		}
	})
	goflag.CommandLine.Parse(nil)

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}
