package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/radar"
)

func TestFormatReport(t *testing.T) {
	snapshot := frame.Snapshot{
		Simulated: true,
		Tracks: radar.NewTrackList(
			radar.Target{ID: 1, Range: 2500.4, Azimuth: -12.34, RadialSpeed: 5.06},
			radar.Target{ID: 12, Range: 14999.6, Azimuth: 95, RadialSpeed: -0.5},
		),
		Stats: frame.Stats{Frames: 42},
	}
	expected := "Frames: 42 | Simulation Active - 2 targets\n" +
		"    ID  Range (m)  Azimuth (°) Radial Speed (m/s)\n" +
		"     1       2500        -12.3                5.1\n" +
		"    12      15000         95.0               -0.5\n"

	actual := FormatReport(snapshot)

	assert.Equal(t, expected, actual)
}

func TestCommands(t *testing.T) {
	tt := []struct {
		desc             string
		line             string
		expected         string
		expectedSimulate bool
		expectedRange    float64
	}{
		{desc: "empty", line: "  ", expected: "", expectedRange: 10000},
		{desc: "status", line: "status", expected: "source: live, range: 10000 m\n", expectedRange: 10000},
		{desc: "sim on", line: "sim on", expected: "source: simulation, range: 10000 m\n", expectedSimulate: true, expectedRange: 10000},
		{desc: "case insensitive", line: "SIM On", expected: "source: simulation, range: 10000 m\n", expectedSimulate: true, expectedRange: 10000},
		{desc: "sim without argument", line: "sim", expected: "usage: sim on|off\n", expectedRange: 10000},
		{desc: "sim with invalid argument", line: "sim maybe", expected: "usage: sim on|off\n", expectedRange: 10000},
		{desc: "range", line: "range 5000", expected: "source: live, range: 5000 m\n", expectedRange: 5000},
		{desc: "invalid range", line: "range far", expected: "invalid range: far\n", expectedRange: 10000},
		{desc: "non-positive range", line: "range 0", expected: "invalid max range: 0\n", expectedRange: 10000},
		{desc: "unknown", line: "launch", expected: "unknown command: launch\n", expectedRange: 10000},
		{desc: "help", line: "help", expected: helpText, expectedRange: 10000},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			controls := frame.NewControls(false, 10000)
			commands := NewCommands(controls)

			actual := commands.Execute(tc.line)

			assert.Equal(t, tc.expected, actual)
			assert.Equal(t, tc.expectedSimulate, controls.Simulate())
			assert.Equal(t, tc.expectedRange, controls.MaxRange())
		})
	}
}

func TestCommands_NoController(t *testing.T) {
	commands := NewCommands(nil)

	assert.Equal(t, "no controls available\n", commands.Execute("sim on"))
	assert.Equal(t, helpText, commands.Execute("help"))
}

func TestServer_ShouldReport(t *testing.T) {
	s := &Server{reportPeriod: time.Second}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, s.shouldReport(start))
	assert.False(t, s.shouldReport(start.Add(500*time.Millisecond)))
	assert.True(t, s.shouldReport(start.Add(time.Second)))
	assert.False(t, s.shouldReport(start.Add(1500*time.Millisecond)))

	s.SetReportPeriod(0)
	assert.True(t, s.shouldReport(start.Add(1500*time.Millisecond)))
}

func TestServer_Console(t *testing.T) {
	controls := frame.NewControls(false, 10000)
	server, err := NewServer("localhost:0", "test", controls)
	require.NoError(t, err)
	defer server.Stop()
	server.SetReportPeriod(0)

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "radarview Version test\n", line)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	_, err = conn.Write([]byte("sim on\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "> source: simulation, range: 10000 m\n", line)
	assert.True(t, controls.Simulate())

	assert.Eventually(t, func() bool {
		err := server.Publish(context.Background(), frame.Snapshot{
			Simulated: true,
			Tracks:    radar.NewTrackList(radar.Target{ID: 3, Range: 1200}),
			Stats:     frame.Stats{Frames: 1},
		})
		if err != nil {
			return false
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		return strings.HasSuffix(line, "Frames: 1 | Simulation Active - 1 targets\n")
	}, 2*time.Second, 50*time.Millisecond)
}

func TestServer_PublishAfterStop(t *testing.T) {
	server, err := NewServer("localhost:0", "test", nil)
	require.NoError(t, err)
	server.Stop()
	server.Stop()

	err = server.Publish(context.Background(), frame.Snapshot{})

	assert.ErrorIs(t, err, net.ErrClosed)
}
