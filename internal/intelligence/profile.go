// Package intelligence implements C7: a singleton, event-driven battery
// model that records only significant transitions, maintains a bounded
// per-component depletion-rate buffer, and interpolates 1%-resolution
// estimates with a confidence metric (spec.md 3/4.7).
package intelligence

import (
	"fmt"
	"time"

	"airwatch/internal/address"
)

// Component identifies which of a device's three battery-bearing parts a
// reading, event, or rate sample belongs to.
type Component int

const (
	Left Component = iota
	Right
	Case
)

func (c Component) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	case Case:
		return "case"
	default:
		return "unknown"
	}
}

// components is the fixed iteration order used wherever all three need
// visiting (rate buffer eviction, snapshotting, reading diffs).
var components = [...]Component{Left, Right, Case}

// Components exposes the fixed Left/Right/Case iteration order to callers
// outside the package (e.g. C10, looping over every estimate to dispatch).
var Components = components[:]

// MarshalText renders Component as its lowercase name, so a
// map[Component]... serializes to readable JSON object keys rather than
// bare integers (encoding/json honors TextMarshaler for map keys).
func (c Component) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is MarshalText's inverse.
func (c *Component) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*c = Left
	case "right":
		*c = Right
	case "case":
		*c = Case
	default:
		return fmt.Errorf("intelligence: unknown component %q", text)
	}
	return nil
}

// EventKind distinguishes the three significant transitions spec.md 4.7
// records.
type EventKind int

const (
	Decrement EventKind = iota
	ChargingTransition
	Reconnection
)

func (k EventKind) String() string {
	switch k {
	case Decrement:
		return "decrement"
	case ChargingTransition:
		return "charging_transition"
	case Reconnection:
		return "reconnection"
	default:
		return "unknown"
	}
}

// BatteryEvent is one entry of the bounded event_log, per spec.md 3/4.7.
type BatteryEvent struct {
	Timestamp time.Time
	Component Component
	Kind      EventKind
	FromLevel int
	ToLevel   int
	Charging  bool
}

// DepletionRateSample is one accepted rate-buffer entry, in minutes spent
// draining per 1% of charge.
type DepletionRateSample struct {
	Timestamp         time.Time
	MinutesPerPercent float64
}

// Reading is one fresh Merged Device battery observation, spec.md 4.7's
// "R_new". A nil Levels entry means the component had no reading (e.g. a
// single earbud out of its case).
type Reading struct {
	Ts       time.Time
	Levels   map[Component]*int
	Charging map[Component]bool
}

// Confidence is the estimate API's reliability grade, per spec.md 4.7.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "low"
	}
}

// BatteryEstimate is the estimate API's return value, spec.md 4.7.
type BatteryEstimate struct {
	Component         Component
	EstimatedLevel    *int
	TimeToEmptyMinutes *float64
	Confidence        Confidence
}

// Snapshot is the persistable subset of a Profile: the active device's
// rate buffers and last reading, plus only the most recent 100 events
// (spec.md 4.7's "event log is NOT persisted in full").
type Snapshot struct {
	Address     address.Address
	LastReading *Reading
	RateBuffer  map[Component][]DepletionRateSample
	RecentEvents []BatteryEvent
}

const persistedEventCap = 100

// profile is one device's in-memory intelligence state. Unexported: the
// Engine is the package's only public surface, matching spec.md 4.7's
// "singleton by design."
type profile struct {
	address     address.Address
	lastReading *Reading
	eventLog    *ring
	rateBuffer  map[Component]*rateRing
	lastEventTS map[Component]time.Time
}

func newProfile(addr address.Address) *profile {
	p := &profile{
		address:     addr,
		eventLog:    newRing(eventLogCap),
		rateBuffer:  make(map[Component]*rateRing, len(components)),
		lastEventTS: make(map[Component]time.Time, len(components)),
	}
	for _, c := range components {
		p.rateBuffer[c] = newRateRing(rateBufferCap)
	}
	return p
}

func (p *profile) snapshot() Snapshot {
	buf := make(map[Component][]DepletionRateSample, len(components))
	for _, c := range components {
		buf[c] = p.rateBuffer[c].samples()
	}
	events := p.eventLog.recent(persistedEventCap)
	return Snapshot{
		Address:      p.address,
		LastReading:  p.lastReading,
		RateBuffer:   buf,
		RecentEvents: events,
	}
}
