package plotting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/radar"
	"github.com/ftl/radarview/sim"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestSpectrum(t *testing.T) {
	generator := sim.NewSeededGenerator(1, sim.DefaultConfig())
	spectrum := dsp.ComputeSpectrum(generator.ADC(1).Samples)

	p, err := Spectrum(spectrum, "test")
	require.NoError(t, err)

	assert.Equal(t, dsp.DisplayMinDB, p.Y.Min)
	assert.Equal(t, dsp.DisplayMaxDB, p.Y.Max)
	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 255.0, p.X.Max)

	buffer := &bytes.Buffer{}
	require.NoError(t, WritePNG(buffer, p, DefaultWidth, DefaultHeight))
	assert.True(t, bytes.HasPrefix(buffer.Bytes(), pngSignature))
}

func TestSpectrum_Empty(t *testing.T) {
	p, err := Spectrum(dsp.SpectrumResult{}, "empty")
	require.NoError(t, err)

	buffer := &bytes.Buffer{}
	assert.NoError(t, WritePNG(buffer, p, DefaultWidth, DefaultHeight))
}

func TestPPI(t *testing.T) {
	tracks := radar.NewTrackList(
		radar.Target{ID: 1, Range: 2000, Azimuth: -30, RadialSpeed: 10, Level: 50},
		radar.Target{ID: 2, Range: 20000, Azimuth: 0},
	)

	p, err := PPI(tracks, 10000, "test")
	require.NoError(t, err)

	assert.Equal(t, -10000.0, p.X.Min)
	assert.Equal(t, 10000.0, p.Y.Max)
	buffer := &bytes.Buffer{}
	require.NoError(t, WritePNG(buffer, p, DefaultWidth, DefaultHeight))
	assert.True(t, bytes.HasPrefix(buffer.Bytes(), pngSignature))
}

func TestPPI_InvalidRange(t *testing.T) {
	_, err := PPI(radar.TrackList{}, 0, "test")

	assert.Error(t, err)
}

func TestWriteSnapshot(t *testing.T) {
	generator := sim.NewSeededGenerator(2, sim.DefaultConfig())
	orchestrator := frame.New(frame.DefaultConfig(), generator, nil)
	snapshot := orchestrator.Tick(frame.Input{Simulate: true, MaxRange: 15000})
	dir := t.TempDir()

	filenames, err := WriteSnapshot(snapshot, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "spectrum_000001.png"),
		filepath.Join(dir, "ppi_000001.png"),
	}, filenames)
	for _, filename := range filenames {
		content, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(content, pngSignature), filename)
	}
}
