package dsp

import (
	"fmt"
	"math"
	"math/bits"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// NextPowerOfTwo returns the smallest power of two that is greater or equal to n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// IsPowerOfTwo indicates if n is a power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FFT transforms the given data in place using an iterative radix-2 Cooley-Tukey FFT.
// The length of data must be a power of two.
func FFT(data []complex128) {
	n := len(data)
	if n <= 1 {
		return
	}
	if !IsPowerOfTwo(n) {
		panic(fmt.Sprintf("the FFT block size must be a power of two: %d", n))
	}

	bitReverse(data)

	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wlen := complex(math.Cos(angle), math.Sin(angle))
		half := length / 2

		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < half; j++ {
				u := data[i+j]
				v := data[i+j+half] * w
				data[i+j] = u + v
				data[i+j+half] = u - v
				w *= wlen
			}
		}
	}
}

// bitReverse swaps every element with the element at the bit reversed index.
func bitReverse(data []complex128) {
	n := len(data)
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit

		if i < j {
			data[i], data[j] = data[j], data[i]
		}
	}
}

type BinLocation float64

const (
	BinFrom   BinLocation = -0.5
	BinCenter BinLocation = 0
	BinTo     BinLocation = 0.5
)

// FrequencyMapping maps FFT bins to frequencies. The block covers the sample rate
// centered on the center frequency.
type FrequencyMapping[F Number] struct {
	sampleRate float64
	blockSize  int
	binSize    float64

	centerFrequency float64
	fromFrequency   float64
}

func NewFrequencyMapping[F Number](sampleRate float64, blockSize int, centerFrequency F) *FrequencyMapping[F] {
	result := &FrequencyMapping[F]{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		binSize:    sampleRate / float64(blockSize),
	}
	result.SetCenterFrequency(centerFrequency)

	return result
}

func (m *FrequencyMapping[F]) String() string {
	return fmt.Sprintf("[%v - %v - %v]", m.fromFrequency, m.centerFrequency, m.BinToFrequency(m.blockSize-1, BinTo))
}

func (m *FrequencyMapping[F]) SetCenterFrequency(frequency F) {
	m.centerFrequency = float64(frequency)
	m.fromFrequency = m.centerFrequency - m.sampleRate/2
}

// BinSize is the width of one bin in Hz.
func (m *FrequencyMapping[F]) BinSize() float64 {
	return m.binSize
}

func (m *FrequencyMapping[F]) BinToFrequency(bin int, location BinLocation) F {
	locationDelta := m.binSize * float64(location)

	return F(m.fromFrequency + float64(bin)*m.binSize + locationDelta)
}

func (m *FrequencyMapping[F]) FrequencyToBin(frequency F) int {
	bin := int(math.Round((float64(frequency) - m.fromFrequency) / m.binSize))
	return max(0, min(bin, m.blockSize-1))
}
