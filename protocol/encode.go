package protocol

import (
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ftl/radarview/radar"
)

// EncodeTracks writes the given track list in the text format of a track message.
func EncodeTracks(w io.Writer, tracks radar.TrackList) error {
	_, err := io.WriteString(w, FormatTracks(tracks))
	return err
}

// FormatTracks returns the given track list in the text format of a track message.
func FormatTracks(tracks radar.TrackList) string {
	b := &strings.Builder{}
	b.WriteString(TrackMarker)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(tracks.Count()))
	for _, t := range tracks.Targets {
		writeUint(b, keyTargetID, uint64(t.ID))
		writeFloat(b, keyLevel, t.Level)
		writeFloat(b, keyRange, t.Range)
		writeFloat(b, keyAzimuth, t.Azimuth)
		writeFloat(b, keyElevation, t.Elevation)
		writeFloat(b, keyRadialSpeed, t.RadialSpeed)
		writeFloat(b, keyAzimuthSpeed, t.AzimuthSpeed)
		writeFloat(b, keyElevationSpeed, t.ElevationSpeed)
	}
	return b.String()
}

// EncodeADC writes the given frame in the text format of an ADC message.
func EncodeADC(w io.Writer, frame radar.AdcFrame) error {
	_, err := io.WriteString(w, FormatADC(frame))
	return err
}

// FormatADC returns the given frame in the text format of an ADC message.
func FormatADC(frame radar.AdcFrame) string {
	b := &strings.Builder{}
	b.WriteString(keyMessageID)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(uint64(frame.FrameNumber), 10))
	writeUint(b, keyNumSamples, uint64(len(frame.Samples)))
	for _, sample := range frame.Samples {
		writeFloat(b, ADCMarker, sample)
	}
	return b.String()
}

func writeUint(b *strings.Builder, key string, value uint64) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
}

func writeFloat(b *strings.Builder, key string, value float64) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
}

// ErrorCounter accumulates the decode errors of many payloads. It is safe for concurrent use.
type ErrorCounter struct {
	count atomic.Uint64
}

func (c *ErrorCounter) Add(errors int) {
	if errors <= 0 {
		return
	}
	c.count.Add(uint64(errors))
}

func (c *ErrorCounter) Count() uint64 {
	return c.count.Load()
}
