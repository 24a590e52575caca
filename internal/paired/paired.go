// Package paired implements C4: exposing the OS's list of paired Bluetooth
// devices behind a small capability interface (spec.md 4.4, 9), so the
// merge engine never depends on a concrete platform type.
package paired

import (
	"context"

	"airwatch/internal/address"
)

// PairedDevice is one entry from the OS's paired-device list, per
// spec.md 3's "{ address, name, is_connected, model_hint? }".
type PairedDevice struct {
	Address   address.Address
	Name      string
	Connected bool
	// ModelHint is the OS-reported device model string, when available; it
	// is empty when the OS has no model information for this pairing.
	ModelHint string
}

// Provider is the capability interface spec.md 4.4 requires: "a thin
// wrapper over the OS pairing API... considered external; it must be
// mockable via a trait-like capability." The real implementation wraps
// Windows.Devices.Enumeration; tests substitute MemoryProvider.
type Provider interface {
	ListPaired(ctx context.Context) ([]PairedDevice, error)
}
