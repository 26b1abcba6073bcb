package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/radar"
	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/sim"
	"github.com/ftl/radarview/trace"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(seed int64) *Orchestrator {
	cfg := DefaultConfig()
	cfg.Clock = rx.NewManualClock(testTime)
	return New(cfg, sim.NewSeededGenerator(seed, sim.DefaultConfig()), dsp.NewIndexSpectrum[float64]())
}

func liveRecords() rx.Records {
	return rx.Records{
		Tracks: radar.NewTrackList(
			radar.Target{ID: 7, Level: 42, Range: 3000, Azimuth: 10, RadialSpeed: 5},
			radar.Target{ID: 8, Range: 3000, Azimuth: 95},
		),
		ADC:           radar.NewAdcFrame(11, []float64{1, 0, -1, 0}),
		TracksUpdated: testTime,
		ADCUpdated:    testTime,
		DecodeErrors:  3,
	}
}

func TestTick_Simulated(t *testing.T) {
	orchestrator := newTestOrchestrator(1)
	reference := sim.NewSeededGenerator(1, sim.DefaultConfig())

	snapshot := orchestrator.Tick(Input{Simulate: true, MaxRange: 20000, Live: liveRecords()})

	assert.True(t, snapshot.Simulated)
	assert.Equal(t, reference.Tracks(), snapshot.Tracks, "simulated tracks are never mixed with live tracks")
	assert.Equal(t, reference.ADC(1), snapshot.ADC)
	assert.Equal(t, 256, snapshot.Spectrum.Len())
	assert.Equal(t, snapshot.Tracks.Count(), len(snapshot.Projected), "all simulated targets are within 20 km")
	assert.Equal(t, uint64(1), snapshot.Number)
	assert.Equal(t, testTime, snapshot.Timestamp)
	assert.Equal(t, orchestrator.Session(), snapshot.Session)
}

func TestTick_Live(t *testing.T) {
	orchestrator := newTestOrchestrator(1)
	live := liveRecords()

	snapshot := orchestrator.Tick(Input{Simulate: false, MaxRange: 10000, Live: live})

	assert.False(t, snapshot.Simulated)
	assert.Equal(t, live.Tracks, snapshot.Tracks)
	assert.Equal(t, live.ADC, snapshot.ADC)
	assert.Equal(t, 2, snapshot.Spectrum.Len())
	require.Len(t, snapshot.Projected, 1, "the target at 95° is excluded")
	assert.Equal(t, uint32(7), snapshot.Projected[0].Source.ID)
	assert.Equal(t, uint64(3), snapshot.Stats.DecodeErrors)
	assert.Equal(t, 10000.0, snapshot.MaxRange)
	assert.Equal(t, "Live - 2 targets", snapshot.StatusLine())
}

func TestTick_NoLiveData(t *testing.T) {
	orchestrator := newTestOrchestrator(1)

	snapshot := orchestrator.Tick(Input{MaxRange: 10000})

	assert.True(t, snapshot.Tracks.Empty())
	assert.True(t, snapshot.Spectrum.Empty())
	assert.Empty(t, snapshot.Projected)
	assert.Equal(t, uint64(1), snapshot.Stats.Frames)
	assert.Equal(t, 0.0, snapshot.Stats.ReferenceLevel)
}

func TestTick_CountersAreMonotonic(t *testing.T) {
	orchestrator := newTestOrchestrator(2)

	var last Stats
	var totalTargets uint64
	for i := range 20 {
		snapshot := orchestrator.Tick(Input{Simulate: i%3 != 0, MaxRange: 10000, Live: liveRecords()})
		totalTargets += uint64(snapshot.Tracks.Count())

		assert.Equal(t, last.Frames+1, snapshot.Stats.Frames)
		assert.GreaterOrEqual(t, snapshot.Stats.Targets, last.Targets)
		assert.Equal(t, totalTargets, snapshot.Stats.Targets)
		assert.Equal(t, snapshot.Stats.Frames, snapshot.Number)
		last = snapshot.Stats
	}
}

func TestTick_ReferenceLevel(t *testing.T) {
	orchestrator := newTestOrchestrator(3)
	live := liveRecords()

	first := orchestrator.Tick(Input{MaxRange: 10000, Live: live})
	second := orchestrator.Tick(Input{MaxRange: 10000, Live: live})

	assert.InDelta(t, first.Spectrum.MaxMagnitude, first.Stats.ReferenceLevel, 1e-9)
	assert.InDelta(t, first.Spectrum.MaxMagnitude, second.Stats.ReferenceLevel, 1e-9)
}

func TestTick_WithoutGenerator(t *testing.T) {
	orchestrator := New(DefaultConfig(), nil, nil)

	snapshot := orchestrator.Tick(Input{Simulate: true, MaxRange: 10000, Live: liveRecords()})

	assert.False(t, snapshot.Simulated)
	assert.Equal(t, 2, snapshot.Tracks.Count())
}

func TestSnapshot_Lines(t *testing.T) {
	snapshot := Snapshot{
		Simulated: true,
		Tracks:    radar.NewTrackList(radar.Target{ID: 1}, radar.Target{ID: 2}, radar.Target{ID: 3}),
		Stats:     Stats{Frames: 42},
	}

	assert.Equal(t, "Frames: 42", snapshot.FrameLine())
	assert.Equal(t, "Simulation Active - 3 targets", snapshot.StatusLine())
}

func TestControls(t *testing.T) {
	controls := NewControls(true, 10000)

	assert.True(t, controls.Simulate())
	assert.Equal(t, 10000.0, controls.MaxRange())

	controls.SetSimulate(false)
	assert.False(t, controls.Simulate())

	assert.NoError(t, controls.SetMaxRange(2500))
	assert.Equal(t, 2500.0, controls.MaxRange())
	assert.Error(t, controls.SetMaxRange(0))
	assert.Error(t, controls.SetMaxRange(-1))
	assert.Equal(t, 2500.0, controls.MaxRange())
}

type recordingSink struct {
	mutex     sync.Mutex
	snapshots []Snapshot
	err       error
}

func (s *recordingSink) Publish(_ context.Context, snapshot Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return s.err
}

func (s *recordingSink) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.snapshots)
}

func TestRunOnce_SinkErrorsAreNotFatal(t *testing.T) {
	orchestrator := newTestOrchestrator(4)
	failing := &recordingSink{err: errors.New("publisher down")}
	healthy := &recordingSink{}

	orchestrator.RunOnce(context.Background(), Input{Simulate: true, MaxRange: 10000}, failing, healthy)
	orchestrator.RunOnce(context.Background(), Input{Simulate: true, MaxRange: 10000}, failing, healthy)

	assert.Equal(t, 2, failing.Count())
	assert.Equal(t, 2, healthy.Count())
}

func TestRun(t *testing.T) {
	orchestrator := newTestOrchestrator(5)
	controls := NewControls(false, 10000)
	mailbox := rx.NewMailbox()
	tracks := radar.NewTrackList(radar.Target{ID: 1, Range: 100})
	mailbox.Put(protocol.Message{Tracks: &tracks}, testTime)
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- orchestrator.Run(ctx, 5*time.Millisecond, controls, mailbox, sink)
	}()

	assert.Eventually(t, func() bool { return sink.Count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	for i, snapshot := range sink.snapshots {
		assert.Equal(t, uint64(i+1), snapshot.Number)
		assert.Equal(t, tracks, snapshot.Tracks)
	}
}

func TestRun_NoControls(t *testing.T) {
	orchestrator := newTestOrchestrator(6)

	err := orchestrator.Run(context.Background(), time.Millisecond, nil, nil)

	assert.Error(t, err)
}

type recordingTracer struct {
	context string
	started bool
	lines   []string
}

func (t *recordingTracer) Context() string { return t.context }
func (t *recordingTracer) Start()          { t.started = true }
func (t *recordingTracer) Stop()           { t.started = false }
func (t *recordingTracer) Trace(context string, format string, args ...any) {
	if context == t.context {
		t.lines = append(t.lines, fmt.Sprintf(format, args...))
	}
}

func TestTick_Tracing(t *testing.T) {
	tt := []struct {
		desc     string
		context  string
		expected []string
	}{
		{
			desc:     "tracks",
			context:  trace.TracksContext,
			expected: []string{"1;7;3000.000000;10.000000;5.000000;approaching\n"},
		},
		{
			desc:     "spectrum",
			context:  trace.SpectrumContext,
			expected: []string{"1;2;1.000000;6.020600;6.020600\n"},
		},
		{
			desc:    "decode is not traced by the orchestrator",
			context: trace.DecodeContext,
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			orchestrator := newTestOrchestrator(1)
			tracer := &recordingTracer{context: tc.context}
			orchestrator.SetTracer(tracer)
			assert.True(t, tracer.started)

			orchestrator.Tick(Input{MaxRange: 5000, Live: liveRecords()})

			assert.Equal(t, tc.expected, tracer.lines)

			orchestrator.SetTracer(nil)
			assert.False(t, tracer.started)
		})
	}
}
