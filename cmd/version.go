package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netsentryhq/netsentry/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the netsentry version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.CLIDisplayString())
		return nil
	},
}
