package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
)

var liveFlags = struct {
	address    string
	readBuffer int
}{}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "display the tracks and ADC frames received via UDP",
	Run:   runWithCtx(runLive),
}

func init() {
	rootCmd.AddCommand(liveCmd)
	addPipelineFlags(liveCmd)

	liveCmd.Flags().StringVar(&liveFlags.address, "address", envString("RADARVIEW_UDP_ADDRESS", rx.DefaultUDPAddress), "the local UDP address")
	liveCmd.Flags().IntVar(&liveFlags.readBuffer, "read_buffer", 0, "the size of the socket receive buffer in bytes, 0 for the default")
}

func runLive(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	runPipeline(ctx, s, false, func(ctx context.Context, handler rx.PayloadHandler) error {
		listener := rx.NewUDPListener(rx.UDPListenerConfig{
			Address:    liveFlags.address,
			ReadBuffer: liveFlags.readBuffer,
			Handler:    handler,
		})
		return listener.Run(ctx)
	})
}
