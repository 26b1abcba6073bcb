// Package telemetry exposes the pipeline's health as Prometheus metrics and sets up
// OpenTelemetry tracing for the per tick spans.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/frame"
)

const (
	sourceSimulated = "simulated"
	sourceLive      = "live"
)

// Collector bundles the Prometheus metrics of the frame pipeline. It is a frame.Sink.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames           *prometheus.CounterVec
	Targets          prometheus.Counter
	TargetsPerFrame  prometheus.Histogram
	ProjectedTargets prometheus.Gauge
	DecodeErrors     prometheus.Gauge
	ReferenceLevel   prometheus.Gauge
	PeakMagnitude    prometheus.Gauge
	SpectralEnergy   prometheus.Gauge
	MaxRange         prometheus.Gauge
}

// NewCollector registers the metrics against the given registerer, defaulting to the
// global Prometheus registry when nil. Registering twice against the same registry
// returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radarview_frames_total",
		Help: "Total number of computed frames, labeled by the data source.",
	}, []string{"source"}), "radarview_frames_total")
	if err != nil {
		return nil, err
	}
	targets, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radarview_targets_total",
		Help: "Total number of targets over all frames.",
	}), "radarview_targets_total")
	if err != nil {
		return nil, err
	}
	targetsPerFrame, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radarview_frame_targets",
		Help:    "Number of targets per frame.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}), "radarview_frame_targets")
	if err != nil {
		return nil, err
	}

	gauges := make(map[string]prometheus.Gauge)
	for _, opts := range []prometheus.GaugeOpts{
		{Name: "radarview_projected_targets", Help: "Number of targets inside the displayed area of the last frame."},
		{Name: "radarview_decode_errors", Help: "Number of value tokens that could not be parsed since the start."},
		{Name: "radarview_reference_level_db", Help: "Rolling mean of the maximum spectrum magnitude in dB."},
		{Name: "radarview_peak_magnitude_db", Help: "Maximum spectrum magnitude of the last frame in dB."},
		{Name: "radarview_spectral_energy", Help: "Linear energy of the last spectrum."},
		{Name: "radarview_max_range_meters", Help: "Currently displayed range in meters."},
	} {
		gauge, err := registerGauge(reg, prometheus.NewGauge(opts), opts.Name)
		if err != nil {
			return nil, err
		}
		gauges[opts.Name] = gauge
	}

	return &Collector{
		gatherer:         gatherer,
		Frames:           frames,
		Targets:          targets,
		TargetsPerFrame:  targetsPerFrame,
		ProjectedTargets: gauges["radarview_projected_targets"],
		DecodeErrors:     gauges["radarview_decode_errors"],
		ReferenceLevel:   gauges["radarview_reference_level_db"],
		PeakMagnitude:    gauges["radarview_peak_magnitude_db"],
		SpectralEnergy:   gauges["radarview_spectral_energy"],
		MaxRange:         gauges["radarview_max_range_meters"],
	}, nil
}

// Publish records the given snapshot.
func (c *Collector) Publish(_ context.Context, snapshot frame.Snapshot) error {
	if c == nil {
		return nil
	}

	source := sourceLive
	if snapshot.Simulated {
		source = sourceSimulated
	}
	c.Frames.WithLabelValues(source).Inc()

	count := snapshot.Tracks.Count()
	c.Targets.Add(float64(count))
	c.TargetsPerFrame.Observe(float64(count))
	c.ProjectedTargets.Set(float64(len(snapshot.Projected)))
	c.DecodeErrors.Set(float64(snapshot.Stats.DecodeErrors))
	c.ReferenceLevel.Set(snapshot.Stats.ReferenceLevel)
	c.MaxRange.Set(snapshot.MaxRange)
	if !snapshot.Spectrum.Empty() {
		c.PeakMagnitude.Set(snapshot.Spectrum.MaxMagnitude)
		c.SpectralEnergy.Set(dsp.SpectralEnergy(snapshot.Spectrum))
	}
	return nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, histogram prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(histogram); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return histogram, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
