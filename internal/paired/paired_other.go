//go:build !windows

package paired

import (
	"context"
	"fmt"
)

// NewProvider on non-Windows platforms always fails: paired-device
// enumeration is Windows-only (spec.md 1). This build exists only so the
// rest of the module (and its tests) can be developed and compiled off
// Windows.
func NewProvider() Provider {
	return unsupportedProvider{}
}

type unsupportedProvider struct{}

func (unsupportedProvider) ListPaired(context.Context) ([]PairedDevice, error) {
	return nil, fmt.Errorf("paired: device enumeration is only supported on Windows")
}
