// Package merge implements C5: joining one scan report's discovered
// devices with one paired-device snapshot into the single authoritative
// device view the rest of the core consumes (spec.md 4.5).
package merge

import (
	"regexp"
	"sort"
	"time"

	"airwatch/internal/address"
	"airwatch/internal/blescan"
	"airwatch/internal/continuity"
	"airwatch/internal/paired"
)

// ConnectionState is a Merged Device's connection state, per spec.md 3.
// The ordering (Stale < Known < Connected) matches the numeric values so
// "sort by connection_state desc" (spec.md 4.5 step 5) is a plain integer
// comparison.
type ConnectionState int

const (
	Stale ConnectionState = iota
	Known
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Known:
		return "Known"
	case Connected:
		return "Connected"
	default:
		return "Stale"
	}
}

// SourceFlags records which inputs contributed to a Merged Device.
type SourceFlags uint8

const (
	SourcePaired SourceFlags = 1 << iota
	SourceScanner
)

// Device is a Merged Device, spec.md 3's "{ address, display_name,
// connection_state, model?, battery?, charging?, ear_state?, last_seen?,
// source_flags }".
type Device struct {
	Address         address.Address
	DisplayName     string
	ConnectionState ConnectionState
	Model           continuity.Model

	LeftBattery, RightBattery, CaseBattery    *int
	LeftCharging, RightCharging, CaseCharging bool
	LeftInEar, RightInEar, LidOpen            bool

	LastSeen    time.Time
	SourceFlags SourceFlags
}

// HasBattery reports whether any of the three battery-level fields is
// present.
func (d Device) HasBattery() bool {
	return d.LeftBattery != nil || d.RightBattery != nil || d.CaseBattery != nil
}

// appleAudioProductName matches paired-device names the OS assigns to
// Apple's audio product line, used by step 4's discard rule for devices
// the Continuity decoder never saw.
var appleAudioProductName = regexp.MustCompile(`(?i)airpods|beats`)

// Merge runs the 5-step join algorithm from spec.md 4.5 and returns the
// sorted Merged Device list. The second return is the count of entries
// discarded by step 4, which callers surface as telemetry per spec.md 4.5
// ("discarded entries must still be counted for telemetry").
func Merge(scan blescan.Report, pairedSnapshot []paired.PairedDevice, now time.Time) ([]Device, int) {
	byAddr := make(map[address.Address]*Device)

	for _, p := range pairedSnapshot {
		state := Known
		if p.Connected {
			state = Connected
		}
		byAddr[p.Address] = &Device{
			Address:         p.Address,
			DisplayName:     p.Name,
			ConnectionState: state,
			SourceFlags:     SourcePaired,
		}
	}

	for _, d := range scan.Devices {
		if d.AirPodsData == nil {
			continue
		}
		addr, err := address.Parse(d.Address)
		if err != nil {
			continue
		}
		dev, ok := byAddr[addr]
		if !ok {
			dev = &Device{Address: addr}
			byAddr[addr] = dev
		}
		dev.SourceFlags |= SourceScanner
		if dev.Model == continuity.Unknown {
			dev.Model = continuity.ParseModelName(d.AirPodsData.Model)
		}
		dev.LeftBattery = d.AirPodsData.LeftBattery
		dev.RightBattery = d.AirPodsData.RightBattery
		dev.CaseBattery = d.AirPodsData.CaseBattery
		dev.LeftCharging = d.AirPodsData.LeftCharging
		dev.RightCharging = d.AirPodsData.RightCharging
		dev.CaseCharging = d.AirPodsData.CaseCharging
		dev.LeftInEar = d.AirPodsData.LeftInEar
		dev.RightInEar = d.AirPodsData.RightInEar
		dev.LidOpen = d.AirPodsData.LidOpen
		dev.ConnectionState = Connected
		dev.LastSeen = now
		// Tie-break for name disagreement (spec.md 4.5): a paired name
		// always wins when present (S3); the scanner's model only supplies
		// a display name when pairing gave none at all.
		if dev.DisplayName == "" {
			dev.DisplayName = dev.Model.String()
		}
	}

	out := make([]Device, 0, len(byAddr))
	discarded := 0
	for _, dev := range byAddr {
		if dev.Model == continuity.Unknown && !appleAudioProductName.MatchString(dev.DisplayName) {
			discarded++
			continue
		}
		out = append(out, *dev)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectionState != out[j].ConnectionState {
			return out[i].ConnectionState > out[j].ConnectionState
		}
		return out[i].DisplayName < out[j].DisplayName
	})

	return out, discarded
}
