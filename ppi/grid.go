package ppi

import "fmt"

const (
	RangeRingCount    = 5
	AzimuthSpokeCount = 9

	azimuthLabelOffset = 20.0
)

type RangeRing struct {
	Radius float64 // px
	Range  float64 // m
	Label  string
	// LabelPosition is on the 45° diagonal of the ring.
	LabelPosition Point
}

type AzimuthSpoke struct {
	Azimuth float64 // deg
	End     Point
	// Label is empty for every other spoke.
	Label         string
	LabelPosition Point
}

// Grid contains the geometry of the PPI background.
type Grid struct {
	Center     Point
	PlotRadius float64
	Rings      []RangeRing
	Spokes     []AzimuthSpoke
}

// NewGrid returns five range rings up to maxRange and nine azimuth spokes from -90° to 90°.
func NewGrid(maxRange float64, center Point, plotRadius float64) Grid {
	result := Grid{
		Center:     center,
		PlotRadius: plotRadius,
		Rings:      make([]RangeRing, RangeRingCount),
		Spokes:     make([]AzimuthSpoke, AzimuthSpokeCount),
	}

	for i := range result.Rings {
		fraction := float64(i+1) / RangeRingCount
		radius := fraction * plotRadius
		ringRange := fraction * maxRange
		result.Rings[i] = RangeRing{
			Radius:        radius,
			Range:         ringRange,
			Label:         fmt.Sprintf("%.1fkm", ringRange/1000),
			LabelPosition: polarToCartesian(radius, 45, center),
		}
	}

	for i := range result.Spokes {
		azimuth := MinAzimuth + float64(i)/(AzimuthSpokeCount-1)*(MaxAzimuth-MinAzimuth)
		spoke := AzimuthSpoke{
			Azimuth: azimuth,
			End:     polarToCartesian(plotRadius, azimuth, center),
		}
		if i%2 == 0 {
			spoke.Label = fmt.Sprintf("%.0f°", azimuth)
			spoke.LabelPosition = polarToCartesian(plotRadius+azimuthLabelOffset, azimuth, center)
		}
		result.Spokes[i] = spoke
	}

	return result
}

// Layout places the semicircle on a canvas of the given size: the center sits on the bottom
// margin, the radius is limited by both the width and twice the height.
func Layout(width, height, margin float64) (Point, float64) {
	availableWidth := width - 2*margin
	availableHeight := height - 2*margin
	diameter := max(0, min(availableWidth, 2*availableHeight))

	center := Point{X: width / 2, Y: height - margin}
	return center, diameter / 2
}

// Arc returns steps+1 points along the given ring from -90° to 90°.
func (g Grid) Arc(ring RangeRing, steps int) []Point {
	steps = max(1, steps)
	result := make([]Point, steps+1)
	for i := range result {
		azimuth := MinAzimuth + float64(i)/float64(steps)*(MaxAzimuth-MinAzimuth)
		result[i] = polarToCartesian(ring.Radius, azimuth, g.Center)
	}
	return result
}
