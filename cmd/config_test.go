package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/sim"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("RADARVIEW_TEST_STRING", "value")
	t.Setenv("RADARVIEW_TEST_BOOL", "true")
	t.Setenv("RADARVIEW_TEST_INT", " 42 ")
	t.Setenv("RADARVIEW_TEST_FLOAT", "1.5")
	t.Setenv("RADARVIEW_TEST_DURATION", "250ms")
	t.Setenv("RADARVIEW_TEST_INVALID", "invalid")
	t.Setenv("RADARVIEW_TEST_EMPTY", "")

	assert.Equal(t, "value", envString("RADARVIEW_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", envString("RADARVIEW_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", envString("RADARVIEW_TEST_MISSING", "fallback"))

	assert.True(t, envBool("RADARVIEW_TEST_BOOL", false))
	assert.True(t, envBool("RADARVIEW_TEST_INVALID", true))

	assert.Equal(t, 42, envInt("RADARVIEW_TEST_INT", 0))
	assert.Equal(t, 7, envInt("RADARVIEW_TEST_INVALID", 7))

	assert.Equal(t, 1.5, envFloat("RADARVIEW_TEST_FLOAT", 0))
	assert.Equal(t, 2.5, envFloat("RADARVIEW_TEST_MISSING", 2.5))

	assert.Equal(t, 250*time.Millisecond, envDuration("RADARVIEW_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, envDuration("RADARVIEW_TEST_INVALID", time.Second))
}

func TestSyntheticPayloads(t *testing.T) {
	tt := []struct {
		desc     string
		combined bool
		expected int
	}{
		{desc: "separate", combined: false, expected: 2},
		{desc: "combined", combined: true, expected: 1},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			sendFlags.combined = tc.combined
			defer func() { sendFlags.combined = false }()

			generator := sim.NewSeededGenerator(1, sim.DefaultConfig())
			payloads := syntheticPayloads(generator, 1)

			require.Len(t, payloads, tc.expected)
			var tracks, adc int
			for _, payload := range payloads {
				msg := protocol.Decode(payload)
				assert.Zero(t, msg.Errors)
				if msg.Tracks != nil {
					tracks++
				}
				if msg.ADC != nil {
					adc++
				}
			}
			assert.Equal(t, 1, tracks)
			assert.Equal(t, 1, adc)
		})
	}
}
