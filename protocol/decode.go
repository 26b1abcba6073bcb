// Package protocol implements the whitespace tokenized text protocol of the radar.
//
// A track message carries the token "NumTargets:" followed by groups of
// "TgtId: <id> Level: <dB> Range: <m> Azimuth: <deg> Elevation: <deg> RadialSpeed: <m/s>
// AzimuthSpeed: <deg/s> ElevationSpeed: <deg/s>". An ADC message carries "MsgId: <n>",
// "NumSamples: <n>" and one "ADC: <value>" pair per sample. Keys are case sensitive.
package protocol

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/ftl/radarview/radar"
)

const (
	TrackMarker = "NumTargets:"
	ADCMarker   = "ADC:"

	keyTargetID       = "TgtId:"
	keyLevel          = "Level:"
	keyRange          = "Range:"
	keyAzimuth        = "Azimuth:"
	keyElevation      = "Elevation:"
	keyRadialSpeed    = "RadialSpeed:"
	keyAzimuthSpeed   = "AzimuthSpeed:"
	keyElevationSpeed = "ElevationSpeed:"

	keyMessageID  = "MsgId:"
	keyNumSamples = "NumSamples:"
)

type targetSetter func(*radar.Target, float64)

// targetFields maps the value keys of a target group to the field they set.
var targetFields = map[string]targetSetter{
	keyLevel:          func(t *radar.Target, v float64) { t.Level = v },
	keyRange:          func(t *radar.Target, v float64) { t.Range = v },
	keyAzimuth:        func(t *radar.Target, v float64) { t.Azimuth = v },
	keyElevation:      func(t *radar.Target, v float64) { t.Elevation = v },
	keyRadialSpeed:    func(t *radar.Target, v float64) { t.RadialSpeed = v },
	keyAzimuthSpeed:   func(t *radar.Target, v float64) { t.AzimuthSpeed = v },
	keyElevationSpeed: func(t *radar.Target, v float64) { t.ElevationSpeed = v },
}

// Result describes the outcome of decoding one payload on one path.
type Result struct {
	// Found indicates that the marker of this path was present in the payload.
	Found bool
	// Errors counts the values that could not be parsed.
	Errors int
	// Advertised is the value of NumTargets: or NumSamples:. It is not used for sizing.
	Advertised uint64
}

// Message holds everything that was decoded from one payload. Absent records are nil.
type Message struct {
	Tracks *radar.TrackList
	ADC    *radar.AdcFrame
	Errors int
}

// Empty indicates that the payload contained neither a track nor an ADC message.
func (m Message) Empty() bool {
	return m.Tracks == nil && m.ADC == nil
}

// Decode runs the track path and the ADC path independently on the given payload.
func Decode(payload []byte) Message {
	var result Message

	tracks, trackResult := DecodeTracks(payload)
	if trackResult.Found {
		result.Tracks = &tracks
		result.Errors += trackResult.Errors
	}

	frame, adcResult := DecodeADC(payload)
	if adcResult.Found {
		result.ADC = &frame
		result.Errors += adcResult.Errors
	}

	return result
}

// IsTrackMessage indicates if the payload contains the track marker.
func IsTrackMessage(payload []byte) bool {
	return bytes.Contains(payload, []byte(TrackMarker))
}

// IsADCMessage indicates if the payload contains the ADC marker.
func IsADCMessage(payload []byte) bool {
	return bytes.Contains(payload, []byte(ADCMarker))
}

// DecodeTracks decodes the track list contained in the given payload.
// Each TgtId: starts a new target, the target in progress is finalized on the next TgtId:
// or at the end of the payload.
func DecodeTracks(payload []byte) (radar.TrackList, Result) {
	var result Result
	if !IsTrackMessage(payload) {
		return radar.TrackList{}, result
	}
	result.Found = true

	var targets []radar.Target
	var current *radar.Target

	s := newScanner(payload)
	for s.Scan() {
		key, value := s.Key(), s.Value()
		switch key {
		case TrackMarker:
			result.Advertised = s.parseUint(value, 64)
		case keyTargetID:
			if current != nil {
				targets = append(targets, *current)
			}
			current = &radar.Target{ID: uint32(s.parseUint(value, 32))}
		default:
			setter, ok := targetFields[key]
			if !ok {
				s.Unread()
				continue
			}
			v := s.parseFloat(value)
			if current != nil {
				setter(current, v)
			}
		}
	}
	if current != nil {
		targets = append(targets, *current)
	}

	result.Errors = s.errors
	return radar.TrackList{Targets: targets}, result
}

// DecodeADC decodes the ADC frame contained in the given payload.
// SampleCount always reflects the number of decoded samples.
func DecodeADC(payload []byte) (radar.AdcFrame, Result) {
	var result Result
	if !IsADCMessage(payload) {
		return radar.AdcFrame{}, result
	}
	result.Found = true

	var frame radar.AdcFrame

	s := newScanner(payload)
	for s.Scan() {
		key, value := s.Key(), s.Value()
		switch key {
		case keyMessageID:
			frame.FrameNumber = uint32(s.parseUint(value, 32))
		case keyNumSamples:
			result.Advertised = s.parseUint(value, 32)
		case ADCMarker:
			frame.Samples = append(frame.Samples, s.parseFloat(value))
		default:
			s.Unread()
		}
	}
	frame.SampleCount = uint32(len(frame.Samples))

	result.Errors = s.errors
	return frame, result
}

// scanner walks over the whitespace separated tokens of a payload as key/value pairs.
// A key without a following value token ends the scan.
type scanner struct {
	tokens []string
	next   int
	key    string
	value  string
	errors int
}

func newScanner(payload []byte) *scanner {
	return &scanner{tokens: strings.Fields(string(payload))}
}

func (s *scanner) Scan() bool {
	if s.next+1 >= len(s.tokens) {
		return false
	}
	s.key = s.tokens[s.next]
	s.value = s.tokens[s.next+1]
	s.next += 2
	return true
}

// Unread gives the value token back, the current key was not recognized.
func (s *scanner) Unread() {
	s.next--
}

func (s *scanner) Key() string {
	return s.key
}

func (s *scanner) Value() string {
	return s.value
}

func (s *scanner) parseUint(value string, bitSize int) uint64 {
	result, err := strconv.ParseUint(value, 10, bitSize)
	if err != nil {
		s.errors++
		return 0
	}
	return result
}

// parseFloat counts NaN and infinite values as malformed.
func (s *scanner) parseFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		s.errors++
		return 0
	}
	return result
}
