// Package trace provides lightweight debug tracers that dump the intermediate values of one
// pipeline stage into a file or to a UDP destination.
package trace

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
)

// The contexts that can be traced.
const (
	SpectrumContext = "spectrum"
	TracksContext   = "tracks"
	DecodeContext   = "decode"
)

type Tracer interface {
	Context() string
	Start()
	Trace(context string, format string, args ...any)
	Stop()
}

type NoTracer struct{}

func (t *NoTracer) Context() string              { return "" }
func (t *NoTracer) Start()                       {}
func (t *NoTracer) Trace(string, string, ...any) {}
func (t *NoTracer) Stop()                        {}

// New creates a tracer for the given context from a destination in the form "file:<filename>"
// or "udp:<host:port>".
func New(context string, destination string) (Tracer, error) {
	if destination == "" {
		return nil, fmt.Errorf("no trace destination")
	}
	switch context {
	case SpectrumContext, TracksContext, DecodeContext:
	default:
		return nil, fmt.Errorf("unknown trace context %q", context)
	}

	protocol, target, found := strings.Cut(destination, ":")
	if !found || target == "" {
		return nil, fmt.Errorf("invalid trace destination %q", destination)
	}

	switch strings.ToLower(protocol) {
	case "file":
		return NewFileTracer(context, target), nil
	case "udp":
		tracer, err := NewUDPTracer(context, target)
		if err != nil {
			return nil, err
		}
		return tracer, nil
	default:
		return nil, fmt.Errorf("unknown trace protocol %q", protocol)
	}
}

// writerTracer writes the formatted traces of its context to an output that is opened on Start.
type writerTracer struct {
	context string
	open    func() (io.WriteCloser, error)

	outLock sync.Mutex
	out     io.WriteCloser
}

func (t *writerTracer) Context() string {
	return t.context
}

func (t *writerTracer) Start() {
	t.outLock.Lock()
	defer t.outLock.Unlock()
	if t.out != nil {
		return
	}

	out, err := t.open()
	if err != nil {
		log.Printf("cannot start trace: %v", err)
		return
	}
	t.out = out
}

func (t *writerTracer) Trace(context string, format string, args ...any) {
	if context != t.context {
		return
	}
	t.outLock.Lock()
	defer t.outLock.Unlock()
	if t.out == nil {
		return
	}

	fmt.Fprintf(t.out, format, args...)
}

func (t *writerTracer) Stop() {
	t.outLock.Lock()
	defer t.outLock.Unlock()
	if t.out == nil {
		return
	}

	t.out.Close()
	t.out = nil
}

type FileTracer struct {
	writerTracer
	filename string
}

func NewFileTracer(context string, filename string) *FileTracer {
	result := &FileTracer{filename: filename}
	result.context = context
	result.open = func() (io.WriteCloser, error) {
		return os.Create(result.filename)
	}
	return result
}

func (t *FileTracer) Filename() string {
	return t.filename
}

type UDPTracer struct {
	writerTracer
	addr *net.UDPAddr
}

func NewUDPTracer(context string, destination string) (*UDPTracer, error) {
	addr, err := net.ResolveUDPAddr("udp", destination)
	if err != nil {
		return nil, fmt.Errorf("cannot parse UDP destination: %w", err)
	}
	result := &UDPTracer{addr: addr}
	result.context = context
	result.open = func() (io.WriteCloser, error) {
		return net.DialUDP("udp", nil, result.addr)
	}
	return result, nil
}

func (t *UDPTracer) Addr() *net.UDPAddr {
	return t.addr
}
