package rx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

const (
	DefaultUDPAddress = ":5000"

	defaultReadBuffer  = 1 << 20
	maxDatagramSize    = 64 * 1024
	udpReadPollTimeout = 100 * time.Millisecond
)

type UDPListenerConfig struct {
	Address string
	// ReadBuffer is the size of the socket receive buffer in bytes.
	ReadBuffer int
	Handler    PayloadHandler
}

// UDPListener receives one payload per datagram.
type UDPListener struct {
	address    string
	readBuffer int
	handler    PayloadHandler

	ready chan net.Addr
}

func NewUDPListener(config UDPListenerConfig) *UDPListener {
	address := config.Address
	if address == "" {
		address = DefaultUDPAddress
	}
	readBuffer := config.ReadBuffer
	if readBuffer == 0 {
		readBuffer = defaultReadBuffer
	}
	handler := config.Handler
	if handler == nil {
		handler = PayloadHandlerFunc(func([]byte) {})
	}

	return &UDPListener{
		address:    address,
		readBuffer: readBuffer,
		handler:    handler,
		ready:      make(chan net.Addr, 1),
	}
}

// Ready delivers the local address once the listener is bound.
func (l *UDPListener) Ready() <-chan net.Addr {
	return l.ready
}

// Run receives datagrams until the context is done.
func (l *UDPListener) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("cannot resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("cannot listen on UDP address: %w", err)
	}
	defer conn.Close()

	if err := conn.SetReadBuffer(l.readBuffer); err != nil {
		log.Printf("cannot set UDP receive buffer size to %d: %v", l.readBuffer, err)
	}

	log.Printf("UDP listener started on %s", conn.LocalAddr())
	l.ready <- conn.LocalAddr()

	buffer := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			log.Print("UDP listener stopped")
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(udpReadPollTimeout))
		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("UDP read error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}

		payload := make([]byte, n)
		copy(payload, buffer[:n])
		l.handler.Payload(payload)
	}
}
