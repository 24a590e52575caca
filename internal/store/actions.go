package store

import (
	"airwatch/internal/address"
	"airwatch/internal/intelligence"
	"airwatch/internal/merge"
	"airwatch/internal/persistence"
)

// Action is the full typed-action set C6/C7/C10 and the (external) UI
// collaborator dispatch against the store, per spec.md 4.8.
type Action interface {
	// Kind names the action for notification coalescing and logging.
	Kind() string
}

// UpdateDevices replaces the device list with a fresh Merge result,
// dispatched by C6 after every successful poll.
type UpdateDevices struct {
	Devices   []merge.Device
	Discarded int
}

func (UpdateDevices) Kind() string { return "UpdateDevices" }

// UpdateBatteryStatus records one component's fresh estimate, dispatched
// by C6 after handing a reading to the Battery Intelligence Engine.
type UpdateBatteryStatus struct {
	Address  address.Address
	Estimate intelligence.BatteryEstimate
}

func (UpdateBatteryStatus) Kind() string { return "UpdateBatteryStatus" }

// SelectDevice marks addr as the UI's focused device.
type SelectDevice struct{ Address address.Address }

func (SelectDevice) Kind() string { return "SelectDevice" }

// RemoveDevice drops addr from the device list (e.g. user-initiated
// forget), independent of whether C6 still reports it.
type RemoveDevice struct{ Address address.Address }

func (RemoveDevice) Kind() string { return "RemoveDevice" }

// UpdateSettings replaces Config wholesale. Nothing saves the config in
// response; Lifecycle writes it to disk only on shutdown.
type UpdateSettings struct{ Config persistence.Config }

func (UpdateSettings) Kind() string { return "UpdateSettings" }

// ShowWindow/HideWindow/ToggleVisibility/ShowSettings/HideSettings only
// flip UiState flags; the external UI collaborator performs the actual
// OS-level visibility change in response to the resulting notification
// (spec.md 4.10).
type ShowWindow struct{}

func (ShowWindow) Kind() string { return "ShowWindow" }

type HideWindow struct{}

func (HideWindow) Kind() string { return "HideWindow" }

type ToggleVisibility struct{}

func (ToggleVisibility) Kind() string { return "ToggleVisibility" }

type ShowSettings struct{}

func (ShowSettings) Kind() string { return "ShowSettings" }

type HideSettings struct{}

func (HideSettings) Kind() string { return "HideSettings" }

// SetError/ClearError surface a user-facing error message.
type SetError struct{ Message string }

func (SetError) Kind() string { return "SetError" }

type ClearError struct{}

func (ClearError) Kind() string { return "ClearError" }

// SavePersistentState/LoadPersistentState mark graceful shutdown and
// startup hydration. Lifecycle performs the actual loads and saves itself
// and dispatches these only as notifications.
type SavePersistentState struct{}

func (SavePersistentState) Kind() string { return "SavePersistentState" }

type LoadPersistentState struct{}

func (LoadPersistentState) Kind() string { return "LoadPersistentState" }

// SystemSleep/SystemWake are dispatched by C10 in response to power.Source
// events.
type SystemSleep struct{}

func (SystemSleep) Kind() string { return "SystemSleep" }

type SystemWake struct{}

func (SystemWake) Kind() string { return "SystemWake" }
