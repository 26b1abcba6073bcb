// Package scope streams a visualisation of the radar pipeline to remote viewers in form of
// spectral, time domain and plan position plots.
package scope

import (
	"errors"
	"time"
)

var ErrAlreadyStarted = errors.New("scope was already started")

type StreamID string
type ChannelID string
type MarkerID string

type Frame struct {
	Stream    StreamID
	Timestamp time.Time
}

type TimeFrame struct {
	Frame
	Values map[ChannelID]float64
}

type SpectralFrame struct {
	Frame
	FromFrequency    float64
	ToFrequency      float64
	Values           []float64
	FrequencyMarkers map[MarkerID]float64
	MagnitudeMarkers map[MarkerID]float64
}

// PlotPoint is one target marker on the plan position indicator.
type PlotPoint struct {
	ID     uint32
	X, Y   float64
	Radius float64
	Color  string
	Class  string
}

type PlotFrame struct {
	Frame
	MaxRange float64
	Points   []PlotPoint
}

// Message carries exactly one of the frame kinds.
type Message struct {
	Time     *TimeFrame
	Spectral *SpectralFrame
	Plot     *PlotFrame
}

type Scope interface {
	ShowTimeFrame(*TimeFrame)
	ShowSpectralFrame(*SpectralFrame)
	ShowPlotFrame(*PlotFrame)
}

type nullScope struct{}

func NewNullScope() Scope {
	return &nullScope{}
}

func (s *nullScope) ShowTimeFrame(*TimeFrame)         {}
func (s *nullScope) ShowSpectralFrame(*SpectralFrame) {}
func (s *nullScope) ShowPlotFrame(*PlotFrame)         {}
