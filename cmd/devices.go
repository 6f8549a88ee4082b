package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netsentryhq/netsentry/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capturable network interfaces.",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := capture.Devices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			if d.Description != "" {
				fmt.Printf("%s\t%s\n", d.Name, d.Description)
			} else {
				fmt.Println(d.Name)
			}
		}
		return nil
	},
}
