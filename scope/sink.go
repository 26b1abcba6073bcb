package scope

import (
	"context"

	"github.com/ftl/radarview/frame"
)

const (
	SpectrumStream StreamID = "spectrum"
	StatsStream    StreamID = "stats"
	PPIStream      StreamID = "ppi"
)

// Sink shows every snapshot on the given scope.
type Sink struct {
	scope Scope
}

func NewSink(scope Scope) *Sink {
	if scope == nil {
		scope = NewNullScope()
	}
	return &Sink{scope: scope}
}

func (s *Sink) Publish(_ context.Context, snapshot frame.Snapshot) error {
	s.scope.ShowSpectralFrame(SpectralFrameOf(snapshot))
	s.scope.ShowTimeFrame(TimeFrameOf(snapshot))
	s.scope.ShowPlotFrame(PlotFrameOf(snapshot))
	return nil
}

func SpectralFrameOf(snapshot frame.Snapshot) *SpectralFrame {
	spectrum := snapshot.Spectrum
	result := &SpectralFrame{
		Frame:            Frame{Stream: SpectrumStream, Timestamp: snapshot.Timestamp},
		Values:           spectrum.Magnitude,
		FrequencyMarkers: make(map[MarkerID]float64),
		MagnitudeMarkers: map[MarkerID]float64{
			"reference": snapshot.Stats.ReferenceLevel,
		},
	}
	if spectrum.Empty() {
		return result
	}

	result.FromFrequency = spectrum.Frequency[0]
	result.ToFrequency = spectrum.Frequency[spectrum.Len()-1]
	peak, magnitude := spectrum.Peak()
	result.FrequencyMarkers["peak"] = spectrum.Frequency[peak]
	result.MagnitudeMarkers["peak"] = magnitude
	return result
}

func TimeFrameOf(snapshot frame.Snapshot) *TimeFrame {
	simulated := 0.0
	if snapshot.Simulated {
		simulated = 1
	}
	return &TimeFrame{
		Frame: Frame{Stream: StatsStream, Timestamp: snapshot.Timestamp},
		Values: map[ChannelID]float64{
			"frames":        float64(snapshot.Stats.Frames),
			"targets":       float64(snapshot.Tracks.Count()),
			"projected":     float64(len(snapshot.Projected)),
			"total_targets": float64(snapshot.Stats.Targets),
			"decode_errors": float64(snapshot.Stats.DecodeErrors),
			"simulated":     simulated,
		},
	}
}

func PlotFrameOf(snapshot frame.Snapshot) *PlotFrame {
	result := &PlotFrame{
		Frame:    Frame{Stream: PPIStream, Timestamp: snapshot.Timestamp},
		MaxRange: snapshot.MaxRange,
		Points:   make([]PlotPoint, len(snapshot.Projected)),
	}
	for i, target := range snapshot.Projected {
		result.Points[i] = PlotPoint{
			ID:     target.Source.ID,
			X:      target.X,
			Y:      target.Y,
			Radius: target.MarkerRadius,
			Color:  target.Color.String(),
			Class:  target.Class.String(),
		}
	}
	return result
}
