package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
	"github.com/ftl/radarview/sim"
)

var sendFlags = struct {
	destination string
	count       int
	interval    time.Duration
	seed        int64
	combined    bool
	pcap        string
	port        int
}{}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "send synthetic track and ADC payloads via UDP",
	Long:  "send synthetic track and ADC payloads via UDP. With --pcap the payloads are written into a capture file instead.",
	Run:   runWithCtx(runSend),
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendFlags.destination, "destination", envString("RADARVIEW_SEND_DESTINATION", "localhost:5000"), "the UDP destination address")
	sendCmd.Flags().IntVar(&sendFlags.count, "count", 0, "the number of frames to send, 0 sends until interrupted")
	sendCmd.Flags().DurationVar(&sendFlags.interval, "interval", 100*time.Millisecond, "the time between two frames")
	sendCmd.Flags().Int64Var(&sendFlags.seed, "seed", time.Now().UnixNano(), "the seed of the synthetic source")
	sendCmd.Flags().BoolVar(&sendFlags.combined, "combined", false, "send the track list and the ADC frame in one payload")
	sendCmd.Flags().StringVar(&sendFlags.pcap, "pcap", "", "write the payloads into this pcap file instead of sending them")
	sendCmd.Flags().IntVar(&sendFlags.port, "port", 5000, "the UDP destination port of the datagrams in the pcap file")
}

func runSend(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	generator := sim.NewSeededGenerator(sendFlags.seed, sim.DefaultConfig())

	if sendFlags.pcap != "" {
		count := sendFlags.count
		if count <= 0 {
			count = 100
		}
		err := writeSyntheticCapture(generator, sendFlags.pcap, count)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%d frames written to %s\n", count, sendFlags.pcap)
		return
	}

	conn, err := net.Dial("udp", sendFlags.destination)
	if err != nil {
		log.Fatalf("cannot open UDP connection to %s: %v", sendFlags.destination, err)
	}
	defer conn.Close()

	ticker := time.NewTicker(sendFlags.interval)
	defer ticker.Stop()

	var frameNumber uint32
	for {
		frameNumber++
		for _, payload := range syntheticPayloads(generator, frameNumber) {
			_, err := conn.Write(payload)
			if err != nil {
				log.Printf("cannot send frame %d: %v", frameNumber, err)
			}
		}
		if sendFlags.count > 0 && int(frameNumber) >= sendFlags.count {
			log.Printf("%d frames sent to %s", frameNumber, sendFlags.destination)
			return
		}

		select {
		case <-ctx.Done():
			log.Printf("%d frames sent to %s", frameNumber, sendFlags.destination)
			return
		case <-ticker.C:
		}
	}
}

func syntheticPayloads(generator *sim.Generator, frameNumber uint32) [][]byte {
	tracks := protocol.FormatTracks(generator.Tracks())
	adc := protocol.FormatADC(generator.ADC(frameNumber))
	if sendFlags.combined {
		return [][]byte{[]byte(tracks + " " + adc)}
	}
	return [][]byte{[]byte(tracks), []byte(adc)}
}

func writeSyntheticCapture(generator *sim.Generator, filename string, count int) error {
	payloads := make([][]byte, 0, 2*count)
	for i := 1; i <= count; i++ {
		payloads = append(payloads, syntheticPayloads(generator, uint32(i))...)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create pcap file %s: %w", filename, err)
	}
	defer f.Close()

	interval := sendFlags.interval
	if !sendFlags.combined {
		interval /= 2
	}
	err = rx.WriteCapture(f, sendFlags.port, time.Now(), interval, payloads...)
	if err != nil {
		return err
	}
	return f.Close()
}
