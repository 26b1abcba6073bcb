package telnet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ftl/radarview/frame"
)

// Controller is the part of the pipeline that can be controlled from the console.
// *frame.Controls implements this interface.
type Controller interface {
	Simulate() bool
	SetSimulate(bool)
	MaxRange() float64
	SetMaxRange(float64) error
}

// Commands interprets the command lines of the console clients.
type Commands struct {
	controller Controller
}

func NewCommands(controller Controller) *Commands {
	return &Commands{controller: controller}
}

const helpText = `commands:
  sim on|off     switch the synthetic source on or off
  range <m>      set the displayed range in meters
  status         show the current settings
  help           show this text
`

// Execute runs the given command line and returns the response for the client.
func (c *Commands) Execute(line string) string {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return ""
	}
	if c.controller == nil && fields[0] != "help" {
		return "no controls available\n"
	}

	switch fields[0] {
	case "help", "?":
		return helpText
	case "status":
		return c.status()
	case "sim":
		if len(fields) != 2 {
			return "usage: sim on|off\n"
		}
		switch fields[1] {
		case "on":
			c.controller.SetSimulate(true)
		case "off":
			c.controller.SetSimulate(false)
		default:
			return "usage: sim on|off\n"
		}
		return c.status()
	case "range":
		if len(fields) != 2 {
			return "usage: range <m>\n"
		}
		maxRange, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Sprintf("invalid range: %s\n", fields[1])
		}
		err = c.controller.SetMaxRange(maxRange)
		if err != nil {
			return fmt.Sprintf("%v\n", err)
		}
		return c.status()
	default:
		return fmt.Sprintf("unknown command: %s\n", fields[0])
	}
}

func (c *Commands) status() string {
	source := "live"
	if c.controller.Simulate() {
		source = "simulation"
	}
	return fmt.Sprintf("source: %s, range: %.0f m\n", source, c.controller.MaxRange())
}

// FormatReport renders the status lines and the track table of the given snapshot.
// The table lists all tracks, including those outside the displayed area.
func FormatReport(snapshot frame.Snapshot) string {
	var report strings.Builder
	fmt.Fprintf(&report, "%s | %s\n", snapshot.FrameLine(), snapshot.StatusLine())
	fmt.Fprintf(&report, "%6s %10s %12s %18s\n", "ID", "Range (m)", "Azimuth (°)", "Radial Speed (m/s)")
	for _, target := range snapshot.Tracks.Targets {
		fmt.Fprintf(&report, "%6d %10.0f %12.1f %18.1f\n", target.ID, target.Range, target.Azimuth, target.RadialSpeed)
	}
	return report.String()
}
