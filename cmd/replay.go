package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netsentryhq/netsentry/engine"
)

var (
	replayBPF        string
	replayUI         string
	replayStreamAddr string
)

var replayCmd = &cobra.Command{
	Use:   "replay <pcap-file>",
	Short: "Replay a PCAP capture file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(engine.Source{
			OfflineFile: args[0],
			BPFFilter:   replayBPF,
		}, uiKind(replayUI), replayStreamAddr)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayBPF, "bpf", "", "Optional BPF filter expression")
	replayCmd.Flags().StringVar(&replayUI, "ui", string(uiDashboard), "Presentation collaborator: dashboard, stream, or none")
	replayCmd.Flags().StringVar(&replayStreamAddr, "stream-addr", "127.0.0.1:8787", "Listen address when --ui=stream")
}
