package paired

import (
	"context"
	"sync"
)

// MemoryProvider is the in-memory Provider fake spec.md 4.4 calls for
// ("for testing, an in-memory provider is substituted").
type MemoryProvider struct {
	mu      sync.Mutex
	devices []PairedDevice
	err     error
}

// NewMemoryProvider builds a MemoryProvider seeded with devices.
func NewMemoryProvider(devices ...PairedDevice) *MemoryProvider {
	return &MemoryProvider{devices: devices}
}

// SetDevices replaces the fake's device list, for tests that need to
// simulate pairing state changing between polls.
func (p *MemoryProvider) SetDevices(devices []PairedDevice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = devices
}

// SetErr makes the next ListPaired call fail with err.
func (p *MemoryProvider) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *MemoryProvider) ListPaired(_ context.Context) ([]PairedDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	out := make([]PairedDevice, len(p.devices))
	copy(out, p.devices)
	return out, nil
}
