// Package dsp provides the spectrum computation of the radar pipeline: a radix-2 FFT,
// the magnitude spectrum of real valued samples and some rolling statistics.
package dsp

// RollingMean calculates the mean over the last n values.
// Until the window is filled, the mean covers only the values put so far.
type RollingMean[T Number] struct {
	values []T
	filled int
	next   int

	sumForMean T
	mean       T
}

// NewRollingMean with size n.
func NewRollingMean[T Number](n int) *RollingMean[T] {
	return &RollingMean[T]{
		values: make([]T, max(1, n)),
	}
}

// Put a new value into the rolling window and get the new mean back.
func (v *RollingMean[T]) Put(value T) T {
	v.sumForMean -= v.values[v.next]

	v.values[v.next] = value
	v.filled = min(v.filled+1, len(v.values))

	v.sumForMean += v.values[v.next]
	v.mean = v.sumForMean / T(v.filled)

	v.next = (v.next + 1) % len(v.values)

	return v.mean
}

// Get the current mean value.
func (v *RollingMean[T]) Get() T {
	return v.mean
}

// Len returns the number of values that contribute to the current mean.
func (v *RollingMean[T]) Len() int {
	return v.filled
}

// Reset the rolling window.
func (v *RollingMean[T]) Reset() {
	clear(v.values)
	v.filled = 0
	v.next = 0
	v.sumForMean = 0
	v.mean = 0
}
