package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/plotting"
	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
	"github.com/ftl/radarview/sim"
)

var snapshotFlags = struct {
	dir    string
	frames int
	pcap   string
	port   int
}{}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "render the spectrum and the PPI of single frames into PNG files",
	Long:  "render the spectrum and the PPI of single frames into PNG files. Without --pcap the frames are simulated.",
	Run:   runWithCtx(runSnapshot),
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	addPipelineFlags(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotFlags.dir, "dir", ".", "the output directory")
	snapshotCmd.Flags().IntVar(&snapshotFlags.frames, "frames", 1, "the number of frames to render")
	snapshotCmd.Flags().StringVar(&snapshotFlags.pcap, "pcap", "", "render the last frame of this pcap file")
	snapshotCmd.Flags().IntVar(&snapshotFlags.port, "port", 5000, "the UDP destination port of the radar payloads in the pcap file, 0 for all")
}

func runSnapshot(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	err := os.MkdirAll(snapshotFlags.dir, 0o755)
	if err != nil {
		log.Fatalf("cannot create output directory: %v", err)
	}

	orchestrator, err := newOrchestrator(pipelineFlags.seed, sim.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	input := frame.Input{
		Simulate: snapshotFlags.pcap == "",
		MaxRange: pipelineFlags.maxRange,
	}
	frames := snapshotFlags.frames
	if frames <= 0 {
		frames = 1
	}

	if snapshotFlags.pcap != "" {
		mailbox := rx.NewMailbox()
		handler := rx.PayloadHandlerFunc(func(data []byte) {
			mailbox.Put(protocol.Decode(data), rx.WallClock.Now())
		})
		stats, err := rx.ReplayFile(ctx, snapshotFlags.pcap, rx.ReplayConfig{Port: snapshotFlags.port, Handler: handler})
		if err != nil {
			log.Fatal(err)
		}
		input.Live = mailbox.Latest()
		log.Printf("replayed %d of %d packets, %d decode errors", stats.Payloads, stats.Packets, input.Live.DecodeErrors)
		frames = 1
	}

	for i := 0; i < frames; i++ {
		snapshot := orchestrator.RunOnce(ctx, input, scope.NewSink(s))
		filenames, err := plotting.WriteSnapshot(snapshot, snapshotFlags.dir)
		if err != nil {
			log.Fatal(err)
		}
		for _, filename := range filenames {
			fmt.Println(filename)
		}
	}
}
