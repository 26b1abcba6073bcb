package frame

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ftl/radarview/rx"
)

const tracerName = "github.com/ftl/radarview/frame"

// Controls are the operator inputs of the pipeline. They are safe for concurrent use.
type Controls struct {
	simulate atomic.Bool
	maxRange atomic.Uint64
}

func NewControls(simulate bool, maxRange float64) *Controls {
	result := &Controls{}
	result.simulate.Store(simulate)
	result.maxRange.Store(math.Float64bits(maxRange))
	return result
}

func (c *Controls) Simulate() bool {
	return c.simulate.Load()
}

func (c *Controls) SetSimulate(simulate bool) {
	c.simulate.Store(simulate)
}

func (c *Controls) MaxRange() float64 {
	return math.Float64frombits(c.maxRange.Load())
}

// SetMaxRange sets the displayed range in meters. Non-positive ranges are rejected.
func (c *Controls) SetMaxRange(maxRange float64) error {
	if maxRange <= 0 || math.IsNaN(maxRange) || math.IsInf(maxRange, 0) {
		return fmt.Errorf("invalid max range: %v", maxRange)
	}
	c.maxRange.Store(math.Float64bits(maxRange))
	return nil
}

// Sink consumes snapshots. Publish is called from the tick goroutine and should return quickly.
type Sink interface {
	Publish(ctx context.Context, snapshot Snapshot) error
}

type SinkFunc func(ctx context.Context, snapshot Snapshot) error

func (f SinkFunc) Publish(ctx context.Context, snapshot Snapshot) error {
	return f(ctx, snapshot)
}

// Run ticks the orchestrator with the given interval until the context is done.
// The ticks never overlap. Sink errors are logged and do not stop the loop.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration, controls *Controls, mailbox *rx.Mailbox, sinks ...Sink) error {
	if controls == nil {
		return fmt.Errorf("no controls")
	}
	if mailbox == nil {
		mailbox = rx.NewMailbox()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("frame orchestrator %s running every %v", o.session, interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("frame orchestrator %s stopped after %d frames", o.session, o.frames)
			return nil
		case <-ticker.C:
			o.RunOnce(ctx, Input{
				Simulate: controls.Simulate(),
				MaxRange: controls.MaxRange(),
				Live:     mailbox.Latest(),
			}, sinks...)
		}
	}
}

// RunOnce computes one snapshot and hands it to all sinks.
func (o *Orchestrator) RunOnce(ctx context.Context, in Input, sinks ...Sink) Snapshot {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tick")
	defer span.End()

	snapshot := o.Tick(in)
	span.SetAttributes(
		attribute.Int64("frame.number", int64(snapshot.Number)),
		attribute.Bool("frame.simulated", snapshot.Simulated),
		attribute.Int("frame.targets", snapshot.Tracks.Count()),
		attribute.Int("frame.projected", len(snapshot.Projected)),
		attribute.Int("frame.bins", snapshot.Spectrum.Len()),
	)

	for _, sink := range sinks {
		err := sink.Publish(ctx, snapshot)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			log.Printf("cannot publish snapshot %d: %v", snapshot.Number, err)
		}
	}

	return snapshot
}
