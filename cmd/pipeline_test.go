package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/sim"
)

func TestNewOrchestrator(t *testing.T) {
	invertedTargets := sim.DefaultConfig()
	invertedTargets.MinTargets = 8
	invertedTargets.MaxTargets = 3
	invertedRange := sim.DefaultConfig()
	invertedRange.MinRange = 20000
	noSampleRate := sim.DefaultConfig()
	noSampleRate.SampleRate = 0

	tt := []struct {
		desc    string
		config  sim.Config
		invalid bool
	}{
		{desc: "default", config: sim.DefaultConfig()},
		{desc: "inverted target count", config: invertedTargets, invalid: true},
		{desc: "inverted range", config: invertedRange, invalid: true},
		{desc: "no sample rate", config: noSampleRate, invalid: true},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			orchestrator, err := newOrchestrator(1, tc.config)

			if tc.invalid {
				assert.Error(t, err)
				assert.Nil(t, orchestrator)
				return
			}
			require.NoError(t, err)
			snapshot := orchestrator.Tick(frame.Input{Simulate: true, MaxRange: 15000})
			assert.True(t, snapshot.Simulated)
			assert.False(t, snapshot.Tracks.Empty())
		})
	}
}
