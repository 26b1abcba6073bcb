// Package ppi projects radar targets onto a semicircular plan position indicator.
//
// Screen coordinates are used throughout: x grows to the right, y grows downward.
// Azimuth 0 points up, positive azimuth sweeps clockwise.
package ppi

import (
	"fmt"
	"math"

	"github.com/ftl/radarview/radar"
)

const (
	MinAzimuth = -90.0
	MaxAzimuth = 90.0

	// StationaryThreshold is the radial speed in m/s below which a target is considered stationary.
	StationaryThreshold = 1.0

	DefaultMaxRange = 10000.0 // m
	DefaultMargin   = 40.0
)

type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type SpeedClass int

const (
	Stationary SpeedClass = iota
	Approaching
	Receding
)

func (c SpeedClass) String() string {
	switch c {
	case Stationary:
		return "stationary"
	case Approaching:
		return "approaching"
	case Receding:
		return "receding"
	default:
		return "unknown"
	}
}

var Green = RGB{G: 255}

// ProjectedTarget is the view ready form of a target.
type ProjectedTarget struct {
	Source       radar.Target
	X, Y         float64
	Color        RGB
	MarkerRadius float64
	Class        SpeedClass
}

func (t ProjectedTarget) Position() Point {
	return Point{X: t.X, Y: t.Y}
}

// Project maps the given target into plot coordinates. The second return value is false if
// the target is outside the azimuth span or beyond maxRange. A non-positive maxRange excludes
// every target.
func Project(t radar.Target, maxRange float64, center Point, plotRadius float64) (ProjectedTarget, bool) {
	if !Visible(t, maxRange) {
		return ProjectedTarget{}, false
	}

	position := polarToCartesian(t.Range/maxRange*plotRadius, t.Azimuth, center)
	class, color := Classify(t.RadialSpeed)

	return ProjectedTarget{
		Source:       t,
		X:            position.X,
		Y:            position.Y,
		Color:        color,
		MarkerRadius: MarkerRadius(t.Level),
		Class:        class,
	}, true
}

// Visible indicates if the given target is inside the displayed area.
func Visible(t radar.Target, maxRange float64) bool {
	// NaN fails every comparison and is excluded
	if !(maxRange > 0) {
		return false
	}
	if !(t.Azimuth >= MinAzimuth && t.Azimuth <= MaxAzimuth) {
		return false
	}
	return t.Range <= maxRange
}

// MarkerRadius is derived from the signal level in dB. It is not clamped.
func MarkerRadius(level float64) float64 {
	return 6 + 0.1*level
}

// Classify the given radial speed. Targets slower than 1 m/s are stationary,
// all others are colored by direction with an intensity that grows with the speed.
func Classify(speed float64) (SpeedClass, RGB) {
	abs := math.Abs(speed)
	if !(abs >= StationaryThreshold) {
		return Stationary, Green
	}

	intensity := uint8(math.Min(255, 50+10*abs))
	if speed > 0 {
		return Approaching, RGB{R: intensity}
	}
	return Receding, RGB{B: intensity}
}

func polarToCartesian(radius, azimuth float64, center Point) Point {
	angle := (90 - azimuth) * math.Pi / 180
	return Point{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y - radius*math.Sin(angle),
	}
}

// Projector projects whole track lists with a fixed geometry.
type Projector struct {
	MaxRange   float64
	Center     Point
	PlotRadius float64
}

// ProjectAll projects all visible targets of the given track list, keeping their order.
func (p Projector) ProjectAll(tracks radar.TrackList) []ProjectedTarget {
	result := make([]ProjectedTarget, 0, tracks.Count())
	for _, t := range tracks.Targets {
		projected, ok := Project(t, p.MaxRange, p.Center, p.PlotRadius)
		if !ok {
			continue
		}
		result = append(result, projected)
	}
	return result
}
