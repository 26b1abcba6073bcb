package scope

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/ppi"
	"github.com/ftl/radarview/radar"
)

func TestStartStopScope(t *testing.T) {
	scope := NewScopeServer("localhost:")

	err := scope.Start()
	require.NoError(t, err)
	assert.True(t, scope.Active())
	assert.NotNil(t, scope.Addr())
	assert.ErrorIs(t, scope.Start(), ErrAlreadyStarted)

	scope.Stop()
	assert.False(t, scope.Active())
	assert.Nil(t, scope.Addr())

	scope.ShowTimeFrame(&TimeFrame{})
}

func TestFrameRoundTrip(t *testing.T) {
	scope := NewScopeServer("localhost:")
	err := scope.Start()
	require.NoError(t, err)
	defer scope.Stop()

	client := NewClient(scope.Addr().String())
	err = client.Open()
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := client.GetFrames(ctx)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	timestamp := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	scope.ShowTimeFrame(&TimeFrame{Frame: Frame{Stream: "frame1", Timestamp: timestamp}, Values: map[ChannelID]float64{"frames": 3}})
	scope.ShowSpectralFrame(&SpectralFrame{Frame: Frame{Stream: "frame2"}, Values: []float64{-80, 1.5}, FromFrequency: -10, ToFrequency: 10})
	scope.ShowPlotFrame(&PlotFrame{Frame: Frame{Stream: "frame3"}, MaxRange: 5000, Points: []PlotPoint{{ID: 7, X: 1, Y: 2, Radius: 10.2, Color: "#ff0000", Class: "approaching"}}})

	received := make([]Message, 0, 3)
	for range 3 {
		select {
		case msg := <-messages:
			received = append(received, msg)
		case <-time.After(time.Second):
			t.Fatal("no frame received")
		}
	}

	require.NotNil(t, received[0].Time)
	assert.Equal(t, StreamID("frame1"), received[0].Time.Stream)
	assert.Equal(t, timestamp, received[0].Time.Timestamp)
	assert.Equal(t, 3.0, received[0].Time.Values["frames"])

	require.NotNil(t, received[1].Spectral)
	assert.Equal(t, StreamID("frame2"), received[1].Spectral.Stream)
	assert.Equal(t, []float64{-80, 1.5}, received[1].Spectral.Values)
	assert.Equal(t, -10.0, received[1].Spectral.FromFrequency)

	require.NotNil(t, received[2].Plot)
	assert.Equal(t, 5000.0, received[2].Plot.MaxRange)
	assert.Equal(t, []PlotPoint{{ID: 7, X: 1, Y: 2, Radius: 10.2, Color: "#ff0000", Class: "approaching"}}, received[2].Plot.Points)
}

func TestDecodeMessage_UnknownKind(t *testing.T) {
	raw := newFrameStruct("audio", Frame{Stream: "x"})

	_, err := decodeMessage(raw)

	assert.Error(t, err)
}

type recordingScope struct {
	time     []*TimeFrame
	spectral []*SpectralFrame
	plot     []*PlotFrame
}

func (s *recordingScope) ShowTimeFrame(f *TimeFrame)         { s.time = append(s.time, f) }
func (s *recordingScope) ShowSpectralFrame(f *SpectralFrame) { s.spectral = append(s.spectral, f) }
func (s *recordingScope) ShowPlotFrame(f *PlotFrame)         { s.plot = append(s.plot, f) }

func TestSink(t *testing.T) {
	target := radar.Target{ID: 3, Range: 1000, Azimuth: 0, RadialSpeed: 10, Level: 40}
	projected, ok := ppi.Project(target, 2000, ppi.Point{X: 100, Y: 100}, 100)
	require.True(t, ok)
	snapshot := frame.Snapshot{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Simulated: true,
		MaxRange:  2000,
		Tracks:    radar.NewTrackList(target),
		Spectrum:  dsp.ComputeSpectrum([]float64{1, 0, -1, 0}),
		Projected: []ppi.ProjectedTarget{projected},
		Stats:     frame.Stats{Frames: 9, Targets: 30, DecodeErrors: 1, ReferenceLevel: 5},
	}
	recorder := &recordingScope{}

	err := NewSink(recorder).Publish(context.Background(), snapshot)

	require.NoError(t, err)
	require.Len(t, recorder.spectral, 1)
	spectral := recorder.spectral[0]
	assert.Equal(t, SpectrumStream, spectral.Stream)
	assert.Equal(t, 1.0, spectral.FrequencyMarkers["peak"])
	assert.Equal(t, 5.0, spectral.MagnitudeMarkers["reference"])
	assert.Equal(t, 0.0, spectral.FromFrequency)
	assert.Equal(t, 1.0, spectral.ToFrequency)

	require.Len(t, recorder.time, 1)
	assert.Equal(t, 9.0, recorder.time[0].Values["frames"])
	assert.Equal(t, 1.0, recorder.time[0].Values["simulated"])

	require.Len(t, recorder.plot, 1)
	require.Len(t, recorder.plot[0].Points, 1)
	assert.Equal(t, uint32(3), recorder.plot[0].Points[0].ID)
	assert.Equal(t, "approaching", recorder.plot[0].Points[0].Class)
	assert.Equal(t, "#960000", recorder.plot[0].Points[0].Color)
	assert.InDelta(t, 50.0, recorder.plot[0].Points[0].Y, 1e-9)
}
