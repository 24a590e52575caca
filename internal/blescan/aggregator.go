package blescan

import (
	"sync"
	"time"

	"airwatch/internal/address"
	"airwatch/internal/continuity"
)

// aggregator is the per-scan de-duplication map spec.md 4.2 describes: the
// watcher callback is the only writer, guarded by a mutex, and keeps the
// newest observation seen per address within the scan window.
type aggregator struct {
	mu      sync.Mutex
	devices map[address.Address]DiscoveredDevice
}

func newAggregator() *aggregator {
	return &aggregator{devices: make(map[address.Address]DiscoveredDevice)}
}

// Add records or refreshes one advertisement observation. A later call for
// the same address always replaces the earlier one, even if the earlier
// one carried AirPods data and the later one didn't: the newest
// observation wins, per spec.md 4.2.
func (a *aggregator) Add(addr address.Address, rssi int, manufacturerDataHex string, decoded *continuity.AirPodsData, seenAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.devices[addr] = DiscoveredDevice{
		Address:             addr,
		RSSI:                rssi,
		LastSeen:            seenAt,
		ManufacturerDataHex: manufacturerDataHex,
		AirPods:             decoded,
	}
}

// Snapshot returns every device observed so far, in no particular order.
func (a *aggregator) Snapshot() []DiscoveredDevice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]DiscoveredDevice, 0, len(a.devices))
	for _, d := range a.devices {
		out = append(out, d)
	}
	return out
}

// AirPodsCount reports how many distinct addresses carry decoded Continuity
// battery data.
func (a *aggregator) AirPodsCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, d := range a.devices {
		if d.AirPods != nil {
			n++
		}
	}
	return n
}

// HasAirPods reports whether at least one observed device decoded as a
// Continuity battery frame. RunScan uses this to drive early-exit modes.
func (a *aggregator) HasAirPods() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range a.devices {
		if d.AirPods != nil {
			return true
		}
	}
	return false
}
