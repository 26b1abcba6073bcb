package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
)

var replayFlags = struct {
	file     string
	port     int
	realtime bool
	speed    float64
}{}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "display the UDP payloads of a pcap capture",
	Run:   runWithCtx(runReplay),
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addPipelineFlags(replayCmd)

	replayCmd.Flags().StringVar(&replayFlags.file, "file", "", "the pcap file")
	replayCmd.Flags().IntVar(&replayFlags.port, "port", 5000, "the UDP destination port of the radar payloads, 0 for all")
	replayCmd.Flags().BoolVar(&replayFlags.realtime, "realtime", true, "replay with the timing of the capture")
	replayCmd.Flags().Float64Var(&replayFlags.speed, "speed", 1, "the replay speed factor")
	replayCmd.MarkFlagRequired("file")
}

func runReplay(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	runPipeline(ctx, s, false, func(ctx context.Context, handler rx.PayloadHandler) error {
		stats, err := rx.ReplayFile(ctx, replayFlags.file, rx.ReplayConfig{
			Port:     replayFlags.port,
			Realtime: replayFlags.realtime,
			Speed:    replayFlags.speed,
			Handler:  handler,
		})
		log.Printf("replayed %d of %d packets in %v", stats.Payloads, stats.Packets, stats.Duration)
		return err
	})
}
