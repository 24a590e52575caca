// Package store implements C8: the single-writer reactive store that
// every other component reads from and dispatches typed actions into
// (spec.md 4.8).
package store

import (
	"sync"
	"time"

	"airwatch/internal/address"
	"airwatch/internal/intelligence"
	"airwatch/internal/merge"
	"airwatch/internal/persistence"
)

// coalesceWindow is spec.md 4.8's "coalesced ... within a 50ms window."
const coalesceWindow = 50 * time.Millisecond

// Snapshot is the store's device-facing read model, spec.md 4.8's
// `get_device_state()`.
type Snapshot struct {
	Devices          []merge.Device
	Discarded        int
	SelectedAddress  *address.Address
	BatteryEstimates map[address.Address]map[intelligence.Component]intelligence.BatteryEstimate
}

// UiSnapshot is spec.md 4.8's `get_ui_state()`.
type UiSnapshot struct {
	WindowVisible   bool
	SettingsVisible bool
	ErrorMessage    string
}

// Notification is delivered to every subscriber after a dispatch whose
// action kind hasn't already notified within the coalesce window.
type Notification struct {
	Kind    string
	Devices Snapshot
	Ui      UiSnapshot
	Config  persistence.Config
}

// Store is the C8 singleton. The zero value is not usable; use New.
type Store struct {
	mu sync.Mutex

	devices          []merge.Device
	discarded        int
	selected         *address.Address
	batteryEstimates map[address.Address]map[intelligence.Component]intelligence.BatteryEstimate

	windowVisible   bool
	settingsVisible bool
	errorMessage    string

	config persistence.Config

	subMu       sync.Mutex
	subscribers []func(Notification)

	notifyMu sync.Mutex
	pending  map[string]*time.Timer
}

// New builds a Store seeded with cfg (normally loaded by C9 at startup).
func New(cfg persistence.Config) *Store {
	return &Store{
		batteryEstimates: make(map[address.Address]map[intelligence.Component]intelligence.BatteryEstimate),
		config:           cfg,
		pending:          make(map[string]*time.Timer),
	}
}

// Subscribe registers cb for every future notification. Matches the
// teacher's "copy callbacks under lock, invoke without the lock held"
// broadcast idiom, generalized from one payload type to Notification.
func (s *Store) Subscribe(cb func(Notification)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, cb)
}

// GetDeviceState is spec.md 4.8's get_device_state(): a copy-on-read
// snapshot, never a reference into store-owned state.
func (s *Store) GetDeviceState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// GetUiState is spec.md 4.8's get_ui_state().
func (s *Store) GetUiState() UiSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uiSnapshotLocked()
}

// GetConfig is spec.md 4.8's get_config().
func (s *Store) GetConfig() persistence.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Dispatch applies action's mutation synchronously, then schedules an
// asynchronous, coalesced notification. Dispatch itself never blocks on
// subscriber work, per spec.md 4.8's "must not block."
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.applyLocked(action)
	s.mu.Unlock()

	s.scheduleNotify(action.Kind())
}

func (s *Store) applyLocked(action Action) {
	switch a := action.(type) {
	case UpdateDevices:
		s.devices = a.Devices
		s.discarded = a.Discarded
	case UpdateBatteryStatus:
		if s.batteryEstimates[a.Address] == nil {
			s.batteryEstimates[a.Address] = make(map[intelligence.Component]intelligence.BatteryEstimate)
		}
		s.batteryEstimates[a.Address][a.Estimate.Component] = a.Estimate
	case SelectDevice:
		addr := a.Address
		s.selected = &addr
	case RemoveDevice:
		s.removeDeviceLocked(a.Address)
	case UpdateSettings:
		s.config = a.Config
	case ShowWindow:
		s.windowVisible = true
	case HideWindow:
		s.windowVisible = false
	case ToggleVisibility:
		s.windowVisible = !s.windowVisible
	case ShowSettings:
		s.settingsVisible = true
	case HideSettings:
		s.settingsVisible = false
	case SetError:
		s.errorMessage = a.Message
	case ClearError:
		s.errorMessage = ""
	case SavePersistentState, LoadPersistentState, SystemSleep, SystemWake:
		// Pure signaling actions: the store holds no state for them and
		// only emits the notification; C10 does the persistence and
		// pause/resume work before dispatching them.
	}
}

func (s *Store) removeDeviceLocked(addr address.Address) {
	out := s.devices[:0:0]
	for _, d := range s.devices {
		if d.Address != addr {
			out = append(out, d)
		}
	}
	s.devices = out
	delete(s.batteryEstimates, addr)
	if s.selected != nil && *s.selected == addr {
		s.selected = nil
	}
}

func (s *Store) snapshotLocked() Snapshot {
	devices := make([]merge.Device, len(s.devices))
	copy(devices, s.devices)

	estimates := make(map[address.Address]map[intelligence.Component]intelligence.BatteryEstimate, len(s.batteryEstimates))
	for addr, byComponent := range s.batteryEstimates {
		inner := make(map[intelligence.Component]intelligence.BatteryEstimate, len(byComponent))
		for c, est := range byComponent {
			inner[c] = est
		}
		estimates[addr] = inner
	}

	var selected *address.Address
	if s.selected != nil {
		addr := *s.selected
		selected = &addr
	}

	return Snapshot{
		Devices:          devices,
		Discarded:        s.discarded,
		SelectedAddress:  selected,
		BatteryEstimates: estimates,
	}
}

func (s *Store) uiSnapshotLocked() UiSnapshot {
	return UiSnapshot{
		WindowVisible:   s.windowVisible,
		SettingsVisible: s.settingsVisible,
		ErrorMessage:    s.errorMessage,
	}
}

// scheduleNotify coalesces repeated dispatches of the same action kind
// within coalesceWindow into a single notification built from the
// freshest state at fire time, per spec.md 4.8.
func (s *Store) scheduleNotify(kind string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if _, pending := s.pending[kind]; pending {
		return
	}
	s.pending[kind] = time.AfterFunc(coalesceWindow, func() {
		s.notifyMu.Lock()
		delete(s.pending, kind)
		s.notifyMu.Unlock()
		s.fireNotification(kind)
	})
}

func (s *Store) fireNotification(kind string) {
	s.mu.Lock()
	n := Notification{
		Kind:    kind,
		Devices: s.snapshotLocked(),
		Ui:      s.uiSnapshotLocked(),
		Config:  s.config,
	}
	s.mu.Unlock()

	s.subMu.Lock()
	subscribers := make([]func(Notification), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.subMu.Unlock()

	for _, cb := range subscribers {
		cb(n)
	}
}
