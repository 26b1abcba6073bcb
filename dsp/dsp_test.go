package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingMean(t *testing.T) {
	tt := []struct {
		desc     string
		size     int
		values   []float64
		expected float64
	}{
		{desc: "single value", size: 3, values: []float64{6}, expected: 6},
		{desc: "window not yet filled", size: 4, values: []float64{2, 4}, expected: 3},
		{desc: "window filled", size: 3, values: []float64{1, 2, 3}, expected: 2},
		{desc: "oldest values drop out", size: 2, values: []float64{100, 1, 3}, expected: 2},
		{desc: "negative values", size: 3, values: []float64{-60, -40, -50, -70}, expected: -160.0 / 3},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			mean := NewRollingMean[float64](tc.size)
			var actual float64
			for _, value := range tc.values {
				actual = mean.Put(value)
			}

			assert.InDelta(t, tc.expected, actual, 1e-9)
			assert.Equal(t, actual, mean.Get())
			assert.Equal(t, min(tc.size, len(tc.values)), mean.Len())
		})
	}
}

func TestRollingMean_Reset(t *testing.T) {
	mean := NewRollingMean[int](2)
	mean.Put(10)
	mean.Put(20)

	mean.Reset()

	assert.Equal(t, 0, mean.Get())
	assert.Equal(t, 0, mean.Len())
	assert.Equal(t, 4, mean.Put(4))
}
