package rx

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/trace"
)

const payloadBufferSize = 100

// Receiver decodes incoming payloads on its own goroutine and puts the results into a Mailbox.
type Receiver struct {
	id      string
	clock   Clock
	mailbox *Mailbox
	errors  *protocol.ErrorCounter
	skipped atomic.Uint64

	in chan []byte
	op chan func()

	lifecycle sync.Mutex
	stop      chan struct{}
	stopped   chan struct{}
	running   atomic.Bool

	tracer trace.Tracer
}

func NewReceiver(id string, mailbox *Mailbox, clock Clock) *Receiver {
	if clock == nil {
		clock = WallClock
	}
	if mailbox == nil {
		mailbox = NewMailbox()
	}
	return &Receiver{
		id:      id,
		clock:   clock,
		mailbox: mailbox,
		errors:  new(protocol.ErrorCounter),
		in:      make(chan []byte, payloadBufferSize),
		op:      make(chan func()),
		tracer:  new(trace.NoTracer),
	}
}

func (r *Receiver) ID() string {
	return r.id
}

func (r *Receiver) Mailbox() *Mailbox {
	return r.mailbox
}

// DecodeErrors returns the total number of values that could not be decoded.
func (r *Receiver) DecodeErrors() uint64 {
	return r.errors.Count()
}

// Skipped returns the number of payloads that were dropped because the receiver was busy.
func (r *Receiver) Skipped() uint64 {
	return r.skipped.Load()
}

// Start decodes the payloads on a separate goroutine until Stop is called.
func (r *Receiver) Start() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if r.running.Load() {
		return
	}

	r.stop = make(chan struct{})
	r.stopped = make(chan struct{})
	r.running.Store(true)

	go r.run(r.stop, r.stopped)
}

// Stop waits for the decoding goroutine to finish. Payloads that are still buffered are
// decoded before Stop returns, later payloads are decoded synchronously.
func (r *Receiver) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if !r.running.Load() {
		return
	}

	r.running.Store(false)
	close(r.stop)
	<-r.stopped

	r.drain()
	r.tracer.Stop()
}

func (r *Receiver) drain() {
	for {
		select {
		case payload := <-r.in:
			r.decode(payload)
		default:
			return
		}
	}
}

func (r *Receiver) do(f func()) {
	r.lifecycle.Lock()
	if !r.running.Load() {
		r.lifecycle.Unlock()
		f()
		return
	}
	stopped := r.stopped
	r.lifecycle.Unlock()

	select {
	case r.op <- f:
	case <-stopped:
		f()
	}
}

func (r *Receiver) SetTracer(tracer trace.Tracer) {
	r.do(func() {
		r.tracer.Stop()
		r.tracer = tracer
		r.tracer.Start()
	})
}

// Payload hands one payload to the receiver. It never blocks: if the receiver is busy,
// the payload is skipped. A stopped receiver decodes the payload synchronously.
func (r *Receiver) Payload(data []byte) {
	if !r.running.Load() {
		r.decode(data)
		return
	}

	select {
	case r.in <- data:
	default:
		r.skipped.Add(1)
		log.Printf("payload skipped on receiver %s", r.id)
	}
}

func (r *Receiver) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	for {
		select {
		case <-stop:
			return
		case op := <-r.op:
			op()
		case payload := <-r.in:
			r.decode(payload)
		}
	}
}

func (r *Receiver) decode(payload []byte) {
	if len(payload) == 0 {
		return
	}

	msg := protocol.Decode(payload)
	r.errors.Add(msg.Errors)
	if msg.Empty() {
		if r.tracer.Context() == trace.DecodeContext {
			r.tracer.Trace(trace.DecodeContext, "ignored;%d\n", len(payload))
		}
		return
	}

	r.mailbox.Put(msg, r.clock.Now())

	if r.tracer.Context() == trace.DecodeContext {
		targets := -1
		if msg.Tracks != nil {
			targets = msg.Tracks.Count()
		}
		samples := -1
		if msg.ADC != nil {
			samples = len(msg.ADC.Samples)
		}
		r.tracer.Trace(trace.DecodeContext, "decoded;%d;%d;%d;%d\n", len(payload), targets, samples, msg.Errors)
	}
}
