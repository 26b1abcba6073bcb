package rx

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type ReplayConfig struct {
	// Port selects the UDP destination port, 0 replays all UDP payloads.
	Port int
	// Realtime paces the replay according to the capture time stamps.
	Realtime bool
	// Speed scales the pacing, 2 replays twice as fast. Values <= 0 mean 1.
	Speed   float64
	Handler PayloadHandler
}

type ReplayStats struct {
	Packets  int
	Payloads int
	Duration time.Duration
}

// ReplayFile replays the UDP payloads of the given pcap file.
func ReplayFile(ctx context.Context, filename string, config ReplayConfig) (ReplayStats, error) {
	f, err := os.Open(filename)
	if err != nil {
		return ReplayStats{}, fmt.Errorf("cannot open pcap file %s: %w", filename, err)
	}
	defer f.Close()

	return Replay(ctx, f, config)
}

// Replay reads a pcap stream and hands the payload of every matching UDP datagram to the handler.
func Replay(ctx context.Context, r io.Reader, config ReplayConfig) (ReplayStats, error) {
	var stats ReplayStats

	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("cannot read pcap header: %w", err)
	}

	speed := config.Speed
	if speed <= 0 {
		speed = 1
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.NoCopy = true

	var firstCapture time.Time
	startTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("pcap replay stopped after %d packets", stats.Packets)
			return stats, ctx.Err()
		default:
		}

		packet, err := source.NextPacket()
		if err == io.EOF {
			stats.Duration = time.Since(startTime)
			log.Printf("pcap replay complete: %d packets, %d payloads in %v", stats.Packets, stats.Payloads, stats.Duration)
			return stats, nil
		}
		if err != nil {
			log.Printf("cannot decode packet %d: %v", stats.Packets+1, err)
			continue
		}
		stats.Packets++

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		if config.Port != 0 && int(udp.DstPort) != config.Port {
			continue
		}
		if len(udp.Payload) == 0 {
			continue
		}

		if config.Realtime {
			captured := packet.Metadata().Timestamp
			if firstCapture.IsZero() {
				firstCapture = captured
			}
			offset := time.Duration(float64(captured.Sub(firstCapture)) / speed)
			if err := sleepUntil(ctx, startTime.Add(offset)); err != nil {
				return stats, err
			}
		}

		payload := make([]byte, len(udp.Payload))
		copy(payload, udp.Payload)
		stats.Payloads++
		if config.Handler != nil {
			config.Handler.Payload(payload)
		}
	}
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WriteCapture writes the given payloads as UDP datagrams into a pcap stream, one datagram
// per interval. It is used to record simulated traffic for later replay.
func WriteCapture(w io.Writer, port int, start time.Time, interval time.Duration, payloads ...[]byte) error {
	writer := pcapgo.NewWriter(w)
	if err := writer.WriteFileHeader(maxDatagramSize, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("cannot write pcap header: %w", err)
	}

	for i, payload := range payloads {
		data, err := encodeDatagram(port, payload)
		if err != nil {
			return err
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * interval),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := writer.WritePacket(ci, data); err != nil {
			return fmt.Errorf("cannot write packet %d: %w", i, err)
		}
	}
	return nil
}

func encodeDatagram(port int, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       []byte{0x02, 0, 0, 0, 0, 1},
		DstMAC:       []byte{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    []byte{127, 0, 0, 1},
		DstIP:    []byte{127, 0, 0, 1},
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(port),
		DstPort: layers.UDPPort(port),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("cannot prepare UDP checksum: %w", err)
	}

	buffer := gopacket.NewSerializeBuffer()
	options := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buffer, options, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("cannot serialize datagram: %w", err)
	}
	return buffer.Bytes(), nil
}
