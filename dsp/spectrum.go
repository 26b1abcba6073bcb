package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

const (
	// Epsilon is added to every bin magnitude to avoid log(0).
	Epsilon = 1e-10

	// DisplayMinDB and DisplayMaxDB define the fixed magnitude range of the spectrum display.
	DisplayMinDB = -80.0
	DisplayMaxDB = 20.0
)

// AxisMode selects how the frequency axis of a spectrum is labeled.
type AxisMode int

const (
	// IndexAxis labels each bin with its index.
	IndexAxis AxisMode = iota
	// FrequencyAxis labels each bin i with (i - N/2) * sampleRate / N in Hz.
	FrequencyAxis
)

func (m AxisMode) String() string {
	switch m {
	case IndexAxis:
		return "index"
	case FrequencyAxis:
		return "frequency"
	default:
		return "unknown"
	}
}

// SpectrumResult is the magnitude spectrum of one block of real samples.
// Magnitude and Frequency have the same length: half of the padded block size.
type SpectrumResult struct {
	Magnitude    []float64 // dB
	Frequency    []float64
	MaxMagnitude float64 // dB
	BlockSize    int
}

// Len returns the number of bins.
func (r SpectrumResult) Len() int {
	return len(r.Magnitude)
}

// Empty indicates that this result contains no bins.
func (r SpectrumResult) Empty() bool {
	return len(r.Magnitude) == 0
}

// Peak returns the index and the magnitude of the strongest bin, or -1 for an empty result.
func (r SpectrumResult) Peak() (int, float64) {
	if r.Empty() {
		return -1, 0
	}
	i := floats.MaxIdx(r.Magnitude)
	return i, r.Magnitude[i]
}

// Spectrum computes magnitude spectra from real valued samples.
// A Spectrum reuses its internal buffer and must not be used concurrently.
type Spectrum[T Number] struct {
	mode       AxisMode
	sampleRate float64

	buffer []complex128
}

// NewIndexSpectrum returns a spectrum engine that labels the bins with their index.
func NewIndexSpectrum[T Number]() *Spectrum[T] {
	return &Spectrum[T]{mode: IndexAxis}
}

// NewFrequencySpectrum returns a spectrum engine that labels the bins with a zero centered
// frequency axis in Hz, based on the given sample rate.
func NewFrequencySpectrum[T Number](sampleRate float64) *Spectrum[T] {
	return &Spectrum[T]{mode: FrequencyAxis, sampleRate: sampleRate}
}

func (s *Spectrum[T]) Mode() AxisMode {
	return s.mode
}

func (s *Spectrum[T]) SampleRate() float64 {
	return s.sampleRate
}

// Compute the magnitude spectrum of the given samples. The samples are zero padded to the
// next power of two. Only the first half of the bins is used.
func (s *Spectrum[T]) Compute(samples []T) SpectrumResult {
	if len(samples) == 0 {
		return SpectrumResult{}
	}

	blockSize := NextPowerOfTwo(len(samples))
	s.setSamples(samples, blockSize)
	FFT(s.buffer)

	binCount := blockSize / 2
	result := SpectrumResult{
		Magnitude: make([]float64, binCount),
		Frequency: make([]float64, binCount),
		BlockSize: blockSize,
	}
	if binCount == 0 {
		return result
	}

	var mapping *FrequencyMapping[float64]
	if s.mode == FrequencyAxis {
		mapping = NewFrequencyMapping(s.sampleRate, blockSize, 0.0)
	}
	for i := range binCount {
		result.Magnitude[i] = MagnitudeIndB(s.buffer[i])
		if mapping != nil {
			result.Frequency[i] = mapping.BinToFrequency(i, BinCenter)
		} else {
			result.Frequency[i] = float64(i)
		}
	}
	result.MaxMagnitude = floats.Max(result.Magnitude)

	return result
}

func (s *Spectrum[T]) setSamples(samples []T, blockSize int) {
	if len(s.buffer) != blockSize {
		s.buffer = make([]complex128, blockSize)
	}
	for i := range s.buffer {
		if i < len(samples) {
			s.buffer[i] = complex(float64(samples[i]), 0)
		} else {
			s.buffer[i] = 0
		}
	}
}

// ComputeSpectrum is a shortcut to compute the index labeled spectrum of the given samples.
func ComputeSpectrum[T Number](samples []T) SpectrumResult {
	return NewIndexSpectrum[T]().Compute(samples)
}

// MagnitudeIndB returns 20*log10(|value| + Epsilon).
func MagnitudeIndB(value complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(value)+Epsilon)
}

// SpectralEnergy sums up the linear power of all bins in the given result.
func SpectralEnergy(result SpectrumResult) float64 {
	var sum float64
	for _, magnitude := range result.Magnitude {
		sum += math.Pow(10, magnitude/10)
	}
	return sum
}

// ClampDB limits the given magnitude to the fixed display range.
func ClampDB(magnitude float64) float64 {
	return max(DisplayMinDB, min(DisplayMaxDB, magnitude))
}
