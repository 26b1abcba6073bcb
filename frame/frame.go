// Package frame ties the pipeline together once per display refresh: it selects synthetic or
// live records, computes the spectrum, projects the targets and hands out immutable snapshots.
package frame

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/ppi"
	"github.com/ftl/radarview/radar"
	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/sim"
	"github.com/ftl/radarview/trace"
)

const (
	DefaultInterval = 50 * time.Millisecond

	defaultReferenceWindow = 20
)

type Config struct {
	Clock rx.Clock
	// Width, Height and Margin describe the canvas of the PPI view in pixels.
	Width, Height, Margin float64
	// ReferenceWindow is the number of ticks that are averaged for the reference level.
	ReferenceWindow int
}

func DefaultConfig() Config {
	return Config{
		Clock:           rx.WallClock,
		Width:           800,
		Height:          440,
		Margin:          ppi.DefaultMargin,
		ReferenceWindow: defaultReferenceWindow,
	}
}

// Stats are monotonic counters for status reporting.
type Stats struct {
	Frames       uint64
	Targets      uint64
	DecodeErrors uint64
	// ReferenceLevel is the rolling mean of the spectrum's maximum magnitude in dB.
	ReferenceLevel float64
}

// Snapshot is the result of one tick. It is never modified after it was handed out.
type Snapshot struct {
	Session   string
	Number    uint64
	Timestamp time.Time
	Simulated bool
	MaxRange  float64

	Tracks    radar.TrackList
	ADC       radar.AdcFrame
	Spectrum  dsp.SpectrumResult
	Projected []ppi.ProjectedTarget
	Grid      ppi.Grid

	Stats Stats
}

// FrameLine returns the frame counter as shown in the status bar.
func (s Snapshot) FrameLine() string {
	return fmt.Sprintf("Frames: %d", s.Stats.Frames)
}

// StatusLine describes the data source of this snapshot.
func (s Snapshot) StatusLine() string {
	if s.Simulated {
		return fmt.Sprintf("Simulation Active - %d targets", s.Tracks.Count())
	}
	return fmt.Sprintf("Live - %d targets", s.Tracks.Count())
}

// Input contains everything a tick depends on besides the orchestrator's own state.
type Input struct {
	Simulate bool
	MaxRange float64
	Live     rx.Records
}

// Orchestrator computes the snapshots. It must be used from a single goroutine.
type Orchestrator struct {
	session   string
	clock     rx.Clock
	generator *sim.Generator
	spectrum  *dsp.Spectrum[float64]
	center    ppi.Point
	radius    float64
	tracer    trace.Tracer

	frames         uint64
	targets        uint64
	referenceLevel *dsp.RollingMean[float64]
}

func New(cfg Config, generator *sim.Generator, spectrum *dsp.Spectrum[float64]) *Orchestrator {
	if cfg.Clock == nil {
		cfg.Clock = rx.WallClock
	}
	if cfg.ReferenceWindow <= 0 {
		cfg.ReferenceWindow = defaultReferenceWindow
	}
	if spectrum == nil {
		spectrum = dsp.NewIndexSpectrum[float64]()
	}
	center, radius := ppi.Layout(cfg.Width, cfg.Height, cfg.Margin)

	return &Orchestrator{
		session:        uuid.NewString(),
		clock:          cfg.Clock,
		generator:      generator,
		spectrum:       spectrum,
		center:         center,
		radius:         radius,
		tracer:         new(trace.NoTracer),
		referenceLevel: dsp.NewRollingMean[float64](cfg.ReferenceWindow),
	}
}

// Session identifies the snapshots of this orchestrator.
func (o *Orchestrator) Session() string {
	return o.session
}

// SetTracer replaces the current tracer. It must not be called concurrently with Tick.
func (o *Orchestrator) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = new(trace.NoTracer)
	}
	o.tracer.Stop()
	o.tracer = tracer
	o.tracer.Start()
}

// Tick computes the next snapshot. Simulated and live records are never mixed: with
// Simulate set, both the tracks and the ADC frame come from the generator, otherwise both
// come from the latest live records.
func (o *Orchestrator) Tick(in Input) Snapshot {
	var tracks radar.TrackList
	var adc radar.AdcFrame
	simulated := in.Simulate && o.generator != nil
	if simulated {
		tracks = o.generator.Tracks()
		adc = o.generator.ADC(uint32(o.frames + 1))
	} else {
		tracks = in.Live.Tracks
		adc = in.Live.ADC
	}

	spectrum := o.spectrum.Compute(adc.Samples)
	if !spectrum.Empty() {
		o.referenceLevel.Put(spectrum.MaxMagnitude)
	}

	projector := ppi.Projector{MaxRange: in.MaxRange, Center: o.center, PlotRadius: o.radius}
	projected := projector.ProjectAll(tracks)

	o.frames++
	o.targets += uint64(tracks.Count())
	o.traceTick(spectrum, projected)

	return Snapshot{
		Session:   o.session,
		Number:    o.frames,
		Timestamp: o.clock.Now(),
		Simulated: simulated,
		MaxRange:  in.MaxRange,
		Tracks:    tracks,
		ADC:       adc,
		Spectrum:  spectrum,
		Projected: projected,
		Grid:      ppi.NewGrid(in.MaxRange, o.center, o.radius),
		Stats: Stats{
			Frames:         o.frames,
			Targets:        o.targets,
			DecodeErrors:   in.Live.DecodeErrors,
			ReferenceLevel: o.referenceLevel.Get(),
		},
	}
}

func (o *Orchestrator) traceTick(spectrum dsp.SpectrumResult, projected []ppi.ProjectedTarget) {
	switch o.tracer.Context() {
	case trace.SpectrumContext:
		peak, magnitude := spectrum.Peak()
		frequency := 0.0
		if peak >= 0 {
			frequency = spectrum.Frequency[peak]
		}
		o.tracer.Trace(trace.SpectrumContext, "%d;%d;%f;%f;%f\n", o.frames, spectrum.Len(), frequency, magnitude, o.referenceLevel.Get())
	case trace.TracksContext:
		for _, target := range projected {
			o.tracer.Trace(trace.TracksContext, "%d;%d;%f;%f;%f;%s\n", o.frames, target.Source.ID, target.Source.Range, target.Source.Azimuth, target.Source.RadialSpeed, target.Class)
		}
	}
}
