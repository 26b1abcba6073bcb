// Package radar contains the records that flow through the radarview pipeline.
package radar

import "fmt"

// Target is one detected object as reported by the radar.
type Target struct {
	ID             uint32
	Level          float64 // dB
	Range          float64 // m
	Azimuth        float64 // deg, -90 to +90
	Elevation      float64 // deg
	RadialSpeed    float64 // m/s, positive = approaching, negative = receding
	AzimuthSpeed   float64 // deg/s
	ElevationSpeed float64 // deg/s
}

func (t Target) String() string {
	return fmt.Sprintf("#%d %.0fm %.1f° %.1fm/s", t.ID, t.Range, t.Azimuth, t.RadialSpeed)
}

// TrackList is the complete set of targets of one snapshot.
// The number of targets is always len(Targets).
type TrackList struct {
	Targets []Target
}

// NewTrackList returns a track list that contains the given targets.
func NewTrackList(targets ...Target) TrackList {
	return TrackList{Targets: targets}
}

// Count of the targets in this track list.
func (l TrackList) Count() int {
	return len(l.Targets)
}

// Empty indicates that this track list contains no targets.
func (l TrackList) Empty() bool {
	return len(l.Targets) == 0
}

// AdcFrame is a batch of raw ADC samples covering one capture window.
type AdcFrame struct {
	Samples     []float64
	FrameNumber uint32
	SampleCount uint32
}

// NewAdcFrame returns a frame with the given samples. SampleCount is derived from the samples.
func NewAdcFrame(frameNumber uint32, samples []float64) AdcFrame {
	return AdcFrame{
		Samples:     samples,
		FrameNumber: frameNumber,
		SampleCount: uint32(len(samples)),
	}
}

// Empty indicates that this frame contains no samples.
func (f AdcFrame) Empty() bool {
	return len(f.Samples) == 0
}
