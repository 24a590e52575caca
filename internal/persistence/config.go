// Package persistence implements C9: loading and saving Config and the
// active battery Profile, both via atomic tempfile-then-rename writes.
// The package does not debounce: each Save call writes immediately, and
// the callers decide when to save.
package persistence

import "time"

// Config is the user-facing settings set, per SPEC_FULL.md 3's
// supplemented field list.
type Config struct {
	// PollIntervalOverride is a stored cadence preference for the Polling
	// Supervisor. It is saved and loaded but not read by any other code;
	// the cadence in use comes from the airwatch -poll-interval flag.
	PollIntervalOverride time.Duration `json:"poll_interval_override_ms"`
	// MinRSSIFilter is a stored RSSI threshold in dBm (e.g. -90). It is
	// saved and loaded but not applied: no code filters scanner devices
	// by it.
	MinRSSIFilter int `json:"min_rssi_filter"`
	// AutoLaunchOnLogin is a Windows-registry-backed preference; reading
	// and writing the registry key itself is an OS capability the core
	// only records the intent for.
	AutoLaunchOnLogin bool `json:"auto_launch_on_login"`
	// LowBatteryNotifyThreshold is the percent below which the UI
	// collaborator should surface a low-battery notification.
	LowBatteryNotifyThreshold int `json:"low_battery_notify_threshold"`
}

// DefaultConfig is used whenever a key is absent from a loaded file, per
// spec.md 4.9's "missing fields fall back to documented defaults."
func DefaultConfig() Config {
	return Config{
		PollIntervalOverride:      0,
		MinRSSIFilter:             -90,
		AutoLaunchOnLogin:         false,
		LowBatteryNotifyThreshold: 20,
	}
}
