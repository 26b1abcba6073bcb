// Package publish hands the frame snapshots to external views through a message bus or a
// key value store. Both carry the same JSON document.
package publish

import (
	"time"

	"github.com/ftl/radarview/frame"
)

// Document is the JSON form of a frame snapshot. It carries the projected targets and a
// summary of the spectrum, not the raw samples.
type Document struct {
	Session   string    `json:"session"`
	Number    uint64    `json:"number"`
	Timestamp time.Time `json:"timestamp"`
	Simulated bool      `json:"simulated"`
	MaxRange  float64   `json:"max_range"`
	Status    string    `json:"status"`

	Targets  []TargetDocument `json:"targets"`
	Spectrum SpectrumDocument `json:"spectrum"`
	Stats    frame.Stats      `json:"stats"`
}

type TargetDocument struct {
	ID           uint32  `json:"id"`
	Range        float64 `json:"range"`
	Azimuth      float64 `json:"azimuth"`
	Elevation    float64 `json:"elevation"`
	RadialSpeed  float64 `json:"radial_speed"`
	Level        float64 `json:"level"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	MarkerRadius float64 `json:"marker_radius"`
	Color        string  `json:"color"`
	Class        string  `json:"class"`
}

type SpectrumDocument struct {
	Bins          int     `json:"bins"`
	PeakBin       int     `json:"peak_bin"`
	PeakFrequency float64 `json:"peak_frequency"`
	MaxMagnitude  float64 `json:"max_magnitude"`
}

// NewDocument converts the given snapshot. Only the targets inside the displayed area are included.
func NewDocument(snapshot frame.Snapshot) Document {
	result := Document{
		Session:   snapshot.Session,
		Number:    snapshot.Number,
		Timestamp: snapshot.Timestamp,
		Simulated: snapshot.Simulated,
		MaxRange:  snapshot.MaxRange,
		Status:    snapshot.StatusLine(),
		Targets:   make([]TargetDocument, len(snapshot.Projected)),
		Stats:     snapshot.Stats,
	}

	for i, target := range snapshot.Projected {
		result.Targets[i] = TargetDocument{
			ID:           target.Source.ID,
			Range:        target.Source.Range,
			Azimuth:      target.Source.Azimuth,
			Elevation:    target.Source.Elevation,
			RadialSpeed:  target.Source.RadialSpeed,
			Level:        target.Source.Level,
			X:            target.X,
			Y:            target.Y,
			MarkerRadius: target.MarkerRadius,
			Color:        target.Color.String(),
			Class:        target.Class.String(),
		}
	}

	peak, _ := snapshot.Spectrum.Peak()
	result.Spectrum = SpectrumDocument{
		Bins:         snapshot.Spectrum.Len(),
		PeakBin:      peak,
		MaxMagnitude: snapshot.Spectrum.MaxMagnitude,
	}
	if peak >= 0 {
		result.Spectrum.PeakFrequency = snapshot.Spectrum.Frequency[peak]
	}

	return result
}
