package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netsentryhq/netsentry/engine"
)

var (
	captureInterface  string
	captureBPF        string
	captureUI         string
	captureStreamAddr string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture live traffic from a network interface.",
	RunE: func(cmd *cobra.Command, args []string) error {
		iface := captureInterface
		if iface == "" {
			picked, err := pickInterface()
			if err != nil {
				return err
			}
			iface = picked
		}

		return runEngine(engine.Source{
			InterfaceName: iface,
			BPFFilter:     captureBPF,
		}, uiKind(captureUI), captureStreamAddr)
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureInterface, "interface", "", "Capture interface name (prompted interactively if omitted)")
	captureCmd.Flags().StringVar(&captureBPF, "bpf", "", "Optional BPF filter expression")
	captureCmd.Flags().StringVar(&captureUI, "ui", string(uiDashboard), "Presentation collaborator: dashboard, stream, or none")
	captureCmd.Flags().StringVar(&captureStreamAddr, "stream-addr", "127.0.0.1:8787", "Listen address when --ui=stream")
}
