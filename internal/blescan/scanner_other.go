//go:build !windows

package blescan

import "fmt"

// NewWatcher on non-Windows platforms always fails to start: the
// Continuity battery monitor's scanner is Windows-only (spec.md 1), and
// this build exists only so the rest of the module (and its tests) can be
// developed and compiled off Windows.
func NewWatcher() Watcher {
	return unsupportedWatcher{}
}

type unsupportedWatcher struct{}

func (unsupportedWatcher) Start(func(Advertisement), func(error)) error {
	return fmt.Errorf("blescan: BLE advertisement watching is only supported on Windows")
}

func (unsupportedWatcher) Stop() error { return nil }
