package rx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate = 115200

	maxLineLength = 1024 * 1024
)

// SerialPort receives one payload per line from a radar attached to a serial port.
type SerialPort struct {
	serial.Port
	name string
}

// OpenSerialPort opens the named port with 8N1 framing at the given baud rate.
func OpenSerialPort(portName string, baudRate int) (*SerialPort, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %w", portName, err)
	}

	return &SerialPort{Port: port, name: portName}, nil
}

// SerialPortNames lists the serial ports available on this machine.
func SerialPortNames() ([]string, error) {
	return serial.GetPortsList()
}

func (p *SerialPort) Name() string {
	return p.name
}

// Monitor reads lines from the port until the context is done or the port fails.
// The port is closed when Monitor returns.
func (p *SerialPort) Monitor(ctx context.Context, handler PayloadHandler) error {
	go func() {
		<-ctx.Done()
		p.Port.Close()
	}()
	defer p.Port.Close()

	err := ScanLines(ctx, p.Port, handler)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ScanLines hands every non-empty line of the given reader as one payload to the handler.
func ScanLines(ctx context.Context, r io.Reader, handler PayloadHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		payload := make([]byte, len(line))
		copy(payload, line)
		handler.Payload(payload)
	}

	if err := scanner.Err(); err != nil {
		log.Printf("cannot read lines: %v", err)
		return fmt.Errorf("cannot read lines: %w", err)
	}
	return nil
}
