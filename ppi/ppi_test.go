package ppi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/radar"
)

func TestProject_Position(t *testing.T) {
	center := Point{X: 200, Y: 300}
	tt := []struct {
		desc     string
		target   radar.Target
		expected Point
	}{
		{
			desc:     "straight ahead points up",
			target:   radar.Target{Range: 5000, Azimuth: 0},
			expected: Point{X: 200, Y: 200},
		},
		{
			desc:     "positive azimuth sweeps clockwise",
			target:   radar.Target{Range: 10000, Azimuth: 90},
			expected: Point{X: 400, Y: 300},
		},
		{
			desc:     "negative azimuth",
			target:   radar.Target{Range: 10000, Azimuth: -90},
			expected: Point{X: 0, Y: 300},
		},
		{
			desc:     "zero range is the center",
			target:   radar.Target{Range: 0, Azimuth: 33},
			expected: center,
		},
		{
			desc:     "range equal to max range is on the edge",
			target:   radar.Target{Range: 10000, Azimuth: 0},
			expected: Point{X: 200, Y: 100},
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			projected, ok := Project(tc.target, 10000, center, 200)

			require.True(t, ok)
			assert.InDelta(t, tc.expected.X, projected.X, 1e-9)
			assert.InDelta(t, tc.expected.Y, projected.Y, 1e-9)
			assert.Equal(t, tc.target, projected.Source)
		})
	}
}

func TestProject_Exclusion(t *testing.T) {
	maxRange := 10000.0
	tt := []struct {
		desc     string
		target   radar.Target
		maxRange float64
		excluded bool
	}{
		{desc: "azimuth 91", target: radar.Target{Azimuth: 91, Range: 100}, maxRange: maxRange, excluded: true},
		{desc: "azimuth -91", target: radar.Target{Azimuth: -91, Range: 100}, maxRange: maxRange, excluded: true},
		{desc: "azimuth 90", target: radar.Target{Azimuth: 90, Range: 100}, maxRange: maxRange},
		{desc: "azimuth -90", target: radar.Target{Azimuth: -90, Range: 100}, maxRange: maxRange},
		{desc: "beyond max range", target: radar.Target{Range: maxRange + 1}, maxRange: maxRange, excluded: true},
		{desc: "at max range", target: radar.Target{Range: maxRange}, maxRange: maxRange},
		{desc: "zero max range", target: radar.Target{Range: 0}, maxRange: 0, excluded: true},
		{desc: "negative max range", target: radar.Target{Range: 10}, maxRange: -100, excluded: true},
		{desc: "NaN azimuth", target: radar.Target{Azimuth: math.NaN(), Range: 100}, maxRange: maxRange, excluded: true},
		{desc: "NaN range", target: radar.Target{Range: math.NaN()}, maxRange: maxRange, excluded: true},
		{desc: "infinite range", target: radar.Target{Range: math.Inf(1)}, maxRange: maxRange, excluded: true},
		{desc: "NaN max range", target: radar.Target{Range: 10}, maxRange: math.NaN(), excluded: true},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			_, ok := Project(tc.target, tc.maxRange, Point{}, 100)
			assert.Equal(t, !tc.excluded, ok)
		})
	}
}

func TestProject_MarkerRadius(t *testing.T) {
	projected, ok := Project(radar.Target{Level: 42}, 100, Point{}, 100)

	require.True(t, ok)
	assert.InDelta(t, 10.2, projected.MarkerRadius, 1e-9)
	assert.InDelta(t, -4.0, MarkerRadius(-100), 1e-9)
	assert.InDelta(t, 106.0, MarkerRadius(1000), 1e-9)
}

func TestClassify(t *testing.T) {
	tt := []struct {
		speed         float64
		expectedClass SpeedClass
		expectedColor RGB
	}{
		{0, Stationary, RGB{0, 255, 0}},
		{0.999, Stationary, RGB{0, 255, 0}},
		{-0.999, Stationary, RGB{0, 255, 0}},
		{1.0, Approaching, RGB{60, 0, 0}},
		{-1.0, Receding, RGB{0, 0, 60}},
		{5, Approaching, RGB{100, 0, 0}},
		{-12.5, Receding, RGB{0, 0, 175}},
		{20.5, Approaching, RGB{255, 0, 0}},
		{-50, Receding, RGB{0, 0, 255}},
		{1e19, Approaching, RGB{255, 0, 0}},
		{-1e19, Receding, RGB{0, 0, 255}},
		{math.Inf(1), Approaching, RGB{255, 0, 0}},
		{math.Inf(-1), Receding, RGB{0, 0, 255}},
		{math.NaN(), Stationary, RGB{0, 255, 0}},
	}
	for _, tc := range tt {
		t.Run(tc.expectedClass.String(), func(t *testing.T) {
			class, color := Classify(tc.speed)

			assert.Equal(t, tc.expectedClass, class, "speed %f", tc.speed)
			assert.Equal(t, tc.expectedColor, color, "speed %f", tc.speed)
		})
	}
}

func TestProjectAll(t *testing.T) {
	tracks := radar.NewTrackList(
		radar.Target{ID: 1, Range: 100, Azimuth: 0},
		radar.Target{ID: 2, Range: 100, Azimuth: 91},
		radar.Target{ID: 3, Range: 20000, Azimuth: 0},
		radar.Target{ID: 4, Range: 9000, Azimuth: -45, RadialSpeed: -3},
		radar.Target{ID: 5, Range: 10001, Azimuth: 10},
	)
	projector := Projector{MaxRange: 10000, Center: Point{X: 100, Y: 100}, PlotRadius: 100}

	projected := projector.ProjectAll(tracks)

	require.Len(t, projected, 2)
	assert.Equal(t, uint32(1), projected[0].Source.ID)
	assert.Equal(t, uint32(4), projected[1].Source.ID)
	assert.Equal(t, Receding, projected[1].Class)
}

func TestProjectAll_Empty(t *testing.T) {
	projected := Projector{MaxRange: 100, PlotRadius: 10}.ProjectAll(radar.TrackList{})

	assert.Empty(t, projected)
}
