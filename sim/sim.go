// Package sim generates synthetic track lists and ADC frames, so the pipeline can run
// without a live radar.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ftl/radarview/radar"
)

// Tone is one sinusoid contributing to the synthetic ADC signal.
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64
}

type Config struct {
	MinRange, MaxRange     float64 // m
	MinTargets, MaxTargets int
	SampleCount            int
	SampleRate             float64 // Hz
	Tones                  []Tone
	Noise                  float64 // uniform noise in [-Noise, Noise]
}

// DefaultConfig returns the configuration of the classic radar simulation:
// 3 to 8 targets between 1 and 15 km and 512 samples of three tones at 100 kHz.
func DefaultConfig() Config {
	return Config{
		MinRange:    1000,
		MaxRange:    15000,
		MinTargets:  3,
		MaxTargets:  8,
		SampleCount: 512,
		SampleRate:  100000,
		Tones: []Tone{
			{Frequency: 5000, Amplitude: 0.8},
			{Frequency: 15000, Amplitude: 0.5},
			{Frequency: 25000, Amplitude: 0.3},
		},
		Noise: 0.1,
	}
}

func (c Config) Validate() error {
	if c.MinRange > c.MaxRange {
		return fmt.Errorf("invalid range span: %.0f > %.0f", c.MinRange, c.MaxRange)
	}
	if c.MinTargets < 0 || c.MinTargets > c.MaxTargets {
		return fmt.Errorf("invalid target count span: %d - %d", c.MinTargets, c.MaxTargets)
	}
	if c.SampleCount < 0 {
		return fmt.Errorf("invalid sample count: %d", c.SampleCount)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %f", c.SampleRate)
	}
	return nil
}

// Generator produces random records from its own random source.
// A Generator must not be used concurrently.
type Generator struct {
	rng *rand.Rand
	cfg Config
}

// NewGenerator returns a generator that draws all its randomness from the given source.
func NewGenerator(rng *rand.Rand, cfg Config) *Generator {
	return &Generator{
		rng: rng,
		cfg: cfg,
	}
}

// NewSeededGenerator returns a generator with a deterministic random source.
func NewSeededGenerator(seed int64, cfg Config) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), cfg)
}

func (g *Generator) Config() Config {
	return g.cfg
}

// Tracks returns a fresh track list. The target ids start at 1.
func (g *Generator) Tracks() radar.TrackList {
	count := g.cfg.MinTargets + g.rng.Intn(g.cfg.MaxTargets-g.cfg.MinTargets+1)
	targets := make([]radar.Target, count)
	for i := range targets {
		targets[i] = radar.Target{
			ID:             uint32(i + 1),
			Level:          g.uniform(10, 100),
			Range:          g.uniform(g.cfg.MinRange, g.cfg.MaxRange),
			Azimuth:        g.uniform(-90, 90),
			Elevation:      g.uniform(-30, 30),
			RadialSpeed:    g.uniform(-50, 50),
			AzimuthSpeed:   g.uniform(-5, 5),
			ElevationSpeed: g.uniform(-2, 2),
		}
	}
	return radar.TrackList{Targets: targets}
}

// ADC returns a fresh frame with the configured tones and new noise.
func (g *Generator) ADC(frameNumber uint32) radar.AdcFrame {
	samples := make([]float64, g.cfg.SampleCount)
	for i := range samples {
		t := float64(i) / g.cfg.SampleRate
		var value float64
		for _, tone := range g.cfg.Tones {
			value += tone.Amplitude * math.Sin(2*math.Pi*tone.Frequency*t)
		}
		samples[i] = value + g.uniform(-g.cfg.Noise, g.cfg.Noise)
	}
	return radar.NewAdcFrame(frameNumber, samples)
}

func (g *Generator) uniform(from, to float64) float64 {
	return from + g.rng.Float64()*(to-from)
}
