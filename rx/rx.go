// Package rx receives radar payloads from the different transports and hands the decoded
// records to the frame orchestrator.
package rx

import (
	"errors"
	"sync"
	"time"

	"github.com/ftl/radarview/protocol"
	"github.com/ftl/radarview/radar"
)

var ErrClosed = errors.New("receiver closed")

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

var WallClock = ClockFunc(time.Now)

type ManualClock struct {
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	return c.now
}

func (c *ManualClock) Set(now time.Time) {
	c.now = now
}

func (c *ManualClock) Add(d time.Duration) {
	c.now = c.now.Add(d)
}

// PayloadHandler receives one complete payload per call. The handler owns the given slice.
type PayloadHandler interface {
	Payload(data []byte)
}

type PayloadHandlerFunc func([]byte)

func (f PayloadHandlerFunc) Payload(data []byte) {
	f(data)
}

// Records is the latest live state as decoded from the received payloads.
// A zero time stamp means that this kind of record was never received.
type Records struct {
	Tracks        radar.TrackList
	ADC           radar.AdcFrame
	TracksUpdated time.Time
	ADCUpdated    time.Time

	Payloads     uint64
	DecodeErrors uint64
}

func (r Records) HasTracks() bool {
	return !r.TracksUpdated.IsZero()
}

func (r Records) HasADC() bool {
	return !r.ADCUpdated.IsZero()
}

// Mailbox holds the latest Records. Every update replaces the whole value, readers never
// see a partially updated state. It is safe for concurrent use.
type Mailbox struct {
	mutex  sync.RWMutex
	latest Records
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Put merges the given decoded message into the latest records: present records replace
// the previous ones, absent records keep the previous values.
func (m *Mailbox) Put(msg protocol.Message, received time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next := m.latest
	next.Payloads++
	if msg.Errors > 0 {
		next.DecodeErrors += uint64(msg.Errors)
	}
	if msg.Tracks != nil {
		next.Tracks = *msg.Tracks
		next.TracksUpdated = received
	}
	if msg.ADC != nil {
		next.ADC = *msg.ADC
		next.ADCUpdated = received
	}
	m.latest = next
}

// Latest returns the most recent complete Records.
func (m *Mailbox) Latest() Records {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.latest
}

// Reset forgets all received records.
func (m *Mailbox) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.latest = Records{}
}
