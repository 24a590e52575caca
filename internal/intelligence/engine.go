package intelligence

import (
	"time"

	"airwatch/internal/address"
	"airwatch/internal/merge"
)

// ReadingFromDevice adapts one Merged Device into the Reading shape
// RecordReading consumes, per spec.md 4.7's "fresh Merged Device battery
// reading."
func ReadingFromDevice(d merge.Device) Reading {
	levels := make(map[Component]*int, len(components))
	charging := make(map[Component]bool, len(components))
	levels[Left], charging[Left] = d.LeftBattery, d.LeftCharging
	levels[Right], charging[Right] = d.RightBattery, d.RightCharging
	levels[Case], charging[Case] = d.CaseBattery, d.CaseCharging
	return Reading{Ts: d.LastSeen, Levels: levels, Charging: charging}
}

// ArchiveFunc is called with the outgoing device's snapshot the moment the
// Engine switches to tracking a different address, so a caller (normally
// C9) can persist it before it is discarded from memory. Per spec.md 4.7
// step 1.
type ArchiveFunc func(snapshot Snapshot)

const (
	// reconnectThreshold is spec.md 4.7's default reconnect_threshold.
	reconnectThreshold = 3 * time.Minute
	// decrementThresholdPercent is spec.md 4.7's "≥ 10" decrement rule.
	decrementThresholdPercent = 10
	// fallbackRateMinPerPercent is spec.md 4.7's built-in constant used
	// when a component's rate buffer is empty.
	fallbackRateMinPerPercent = 4.0
	minPlausibleRate          = 0.1
	maxPlausibleRate          = 120.0
)

// Engine is the singleton Battery Intelligence Engine (spec.md 4.7). It is
// not safe for concurrent use: per spec.md 5's concurrency model, it runs
// synchronously on the Polling Supervisor's task only.
type Engine struct {
	profile   *profile
	onArchive ArchiveFunc
}

// NewEngine builds an empty Engine. onArchive may be nil.
func NewEngine(onArchive ArchiveFunc) *Engine {
	return &Engine{onArchive: onArchive}
}

// LoadSnapshot hydrates the Engine with a previously persisted snapshot,
// making it the active profile. Used by C10 on startup.
func (e *Engine) LoadSnapshot(snap Snapshot) {
	p := newProfile(snap.Address)
	p.lastReading = snap.LastReading
	for _, c := range components {
		for _, s := range snap.RateBuffer[c] {
			p.rateBuffer[c].push(s)
		}
		if snap.LastReading != nil {
			p.lastEventTS[c] = snap.LastReading.Ts
		}
	}
	for _, evt := range snap.RecentEvents {
		p.eventLog.push(evt)
	}
	e.profile = p
}

// Snapshot returns the active profile's persistable snapshot, or the zero
// Snapshot if no device has been recorded yet.
func (e *Engine) Snapshot() (Snapshot, bool) {
	if e.profile == nil {
		return Snapshot{}, false
	}
	return e.profile.snapshot(), true
}

// ActiveAddress reports which device the Engine is currently tracking.
func (e *Engine) ActiveAddress() (address.Address, bool) {
	if e.profile == nil {
		return address.Address{}, false
	}
	return e.profile.address, true
}

// RecordReading feeds one fresh Merged Device battery reading through
// spec.md 4.7's four-step algorithm.
func (e *Engine) RecordReading(addr address.Address, reading Reading) {
	// Step 1: switch or initialize the active profile.
	if e.profile == nil {
		e.profile = newProfile(addr)
		for _, c := range components {
			e.profile.lastEventTS[c] = reading.Ts
		}
	} else if e.profile.address != addr {
		if e.onArchive != nil {
			e.onArchive(e.profile.snapshot())
		}
		e.profile = newProfile(addr)
		for _, c := range components {
			e.profile.lastEventTS[c] = reading.Ts
		}
	}

	prior := e.profile.lastReading

	// Step 2: per-component charging-transition / decrement detection.
	if prior != nil {
		for _, c := range components {
			priorLevel := prior.Levels[c]
			newLevel := reading.Levels[c]
			if priorLevel == nil || newLevel == nil {
				continue
			}
			priorCharging := prior.Charging[c]
			newCharging := reading.Charging[c]

			switch {
			case priorCharging != newCharging:
				e.recordEvent(BatteryEvent{
					Timestamp: reading.Ts,
					Component: c,
					Kind:      ChargingTransition,
					FromLevel: *priorLevel,
					ToLevel:   *newLevel,
					Charging:  newCharging,
				})
			case !priorCharging && (*priorLevel-*newLevel) >= decrementThresholdPercent:
				e.recordDecrement(c, *priorLevel, *newLevel, reading.Ts)
			}
		}
	}

	// Step 3: reconnection-gap detection. A gap this long normally means
	// the device dropped out of the merged view and came back, so the
	// depletion baseline for each component is no longer trustworthy —
	// except where the level held steady across the gap, in which case
	// the reading was simply sparse and the existing baseline still
	// spans real elapsed time.
	if prior != nil && reading.Ts.Sub(prior.Ts) > reconnectThreshold {
		e.profile.eventLog.push(BatteryEvent{
			Timestamp: reading.Ts,
			Kind:      Reconnection,
		})
		for _, c := range components {
			priorLevel := prior.Levels[c]
			newLevel := reading.Levels[c]
			if priorLevel != nil && newLevel != nil && *priorLevel == *newLevel {
				continue
			}
			e.profile.lastEventTS[c] = reading.Ts
		}
	}

	// Step 4.
	r := reading
	e.profile.lastReading = &r
}

func (e *Engine) recordEvent(evt BatteryEvent) {
	e.profile.eventLog.push(evt)
	e.profile.lastEventTS[evt.Component] = evt.Timestamp
}

func (e *Engine) recordDecrement(c Component, priorLevel, newLevel int, ts time.Time) {
	since := e.profile.lastEventTS[c]

	e.recordEvent(BatteryEvent{
		Timestamp: ts,
		Component: c,
		Kind:      Decrement,
		FromLevel: priorLevel,
		ToLevel:   newLevel,
	})

	minutes := ts.Sub(since).Minutes()
	dropped := priorLevel - newLevel
	if dropped <= 0 {
		return
	}
	rate := minutes / float64(dropped)
	if rate < minPlausibleRate || rate > maxPlausibleRate {
		return
	}
	e.profile.rateBuffer[c].push(DepletionRateSample{Timestamp: ts, MinutesPerPercent: rate})
}

// Estimate implements spec.md 4.7's estimation API for one component.
func (e *Engine) Estimate(now time.Time, c Component) BatteryEstimate {
	if e.profile == nil || e.profile.lastReading == nil {
		return BatteryEstimate{Component: c, Confidence: Low}
	}
	r := e.profile.lastReading
	level := r.Levels[c]
	if level == nil {
		return BatteryEstimate{Component: c, Confidence: Low}
	}

	if r.Charging[c] {
		v := *level
		return BatteryEstimate{Component: c, EstimatedLevel: &v, Confidence: High}
	}

	rateBuf := e.profile.rateBuffer[c]
	rate, ok := rateBuf.median()
	if !ok {
		rate = fallbackRateMinPerPercent
	}

	elapsedMinutes := now.Sub(r.Ts).Minutes()
	drop := elapsedMinutes / rate
	estimate := float64(*level) - drop
	if estimate < 0 {
		estimate = 0
	}
	timeToEmpty := estimate * rate

	out := int(estimate)
	return BatteryEstimate{
		Component:          c,
		EstimatedLevel:     &out,
		TimeToEmptyMinutes: &timeToEmpty,
		Confidence:         confidenceFor(rateBuf.len()),
	}
}

func confidenceFor(bufferLen int) Confidence {
	switch {
	case bufferLen >= 30:
		return High
	case bufferLen >= 10:
		return Medium
	default:
		return Low
	}
}
