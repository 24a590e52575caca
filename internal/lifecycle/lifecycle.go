// Package lifecycle implements C10: startup hydration, sleep/wake
// routing, graceful shutdown, and panic-restart supervision for every
// background task the core owns (spec.md 4.10).
package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"airwatch/internal/intelligence"
	"airwatch/internal/merge"
	"airwatch/internal/paired"
	"airwatch/internal/persistence"
	"airwatch/internal/power"
	"airwatch/internal/scannerproc"
	"airwatch/internal/store"
	"airwatch/internal/supervisor"
)

const (
	shutdownDrain        = 2 * time.Second
	restartBackoff       = 1 * time.Second
	maxRestartsPerMinute = 3
	// defaultScanDuration is the scanner's own fixed-mode default, used
	// when Config.ScanDuration is zero.
	defaultScanDuration = 4 * time.Second
)

// Config configures the collaborators Lifecycle wires together. All
// fields are required except ScanArgs/ScanDuration/PollInterval, which
// default to the scanner's and supervisor's own defaults when zero.
type Config struct {
	Transport      *scannerproc.Transport
	Paired         paired.Provider
	Power          power.Source
	Persist        *persistence.Store
	ScanArgs       []string
	ScanDuration   time.Duration
	PollInterval   time.Duration
}

// Lifecycle is the C10 singleton: it owns the Store, the Battery
// Intelligence Engine, and the Polling Supervisor, and wires them
// together the way spec.md 4.10 describes.
type Lifecycle struct {
	store      *store.Store
	engine     *intelligence.Engine
	supervisor *supervisor.Supervisor
	persist    *persistence.Store
	power      power.Source
}

// New constructs a Lifecycle. The returned Store is already seeded with
// DefaultConfig; call Run to hydrate it from disk and start background
// work.
func New(cfg Config) *Lifecycle {
	l := &Lifecycle{
		persist: cfg.Persist,
		power:   cfg.Power,
		store:   store.New(persistence.DefaultConfig()),
	}
	l.engine = intelligence.NewEngine(func(snap intelligence.Snapshot) {
		if err := l.persist.SaveProfile(snap); err != nil {
			log.Printf("[ERROR] lifecycle: archive profile for %s: %v", snap.Address, err)
		}
	})
	scanDuration := cfg.ScanDuration
	if scanDuration <= 0 {
		scanDuration = defaultScanDuration
	}
	l.supervisor = supervisor.New(cfg.Transport, cfg.Paired, l.deliver, l.onPollError, cfg.ScanArgs, scanDuration, cfg.PollInterval)
	return l
}

// Store exposes the C8 singleton for the UI collaborator to read from
// and dispatch into.
func (l *Lifecycle) Store() *store.Store { return l.store }

// Run hydrates persisted state, starts the Polling Supervisor under
// panic-restart supervision, subscribes to power events, and blocks
// until ctx is canceled, at which point it drains background work (up to
// shutdownDrain) and persists final state before returning.
func (l *Lifecycle) Run(ctx context.Context) {
	l.hydrate()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.runSupervised(ctx, "supervisor", l.supervisor.Run)
	}()

	if err := l.power.Subscribe(ctx, l.onPowerEvent); err != nil {
		log.Printf("[WARN] lifecycle: power subscription unavailable: %v", err)
	}

	<-ctx.Done()
	l.shutdown(&wg)
}

func (l *Lifecycle) hydrate() {
	cfg, err := l.persist.LoadConfig()
	if err != nil {
		log.Printf("[WARN] lifecycle: load config failed, using defaults: %v", err)
		cfg = persistence.DefaultConfig()
	}
	l.store.Dispatch(store.UpdateSettings{Config: cfg})
	l.store.Dispatch(store.LoadPersistentState{})
}

func (l *Lifecycle) onPowerEvent(e power.Event) {
	switch e {
	case power.Sleep:
		l.store.Dispatch(store.SystemSleep{})
		l.supervisor.Pause()
	case power.Wake:
		l.store.Dispatch(store.SystemWake{})
		l.supervisor.Resume()
	}
}

func (l *Lifecycle) onPollError(err error) {
	log.Printf("[WARN] lifecycle: poll error: %v", err)
	l.store.Dispatch(store.SetError{Message: err.Error()})
}

// deliver is the Polling Supervisor's Deliver callback: it publishes the
// merged device list to the store and, for the highest-priority device
// carrying battery data, feeds the Battery Intelligence Engine.
func (l *Lifecycle) deliver(snap supervisor.Snapshot) {
	l.store.Dispatch(store.UpdateDevices{Devices: snap.Devices, Discarded: snap.Discarded})

	primary, ok := primaryBatteryDevice(snap.Devices)
	if !ok {
		return
	}
	l.recordBattery(primary)
}

// primaryBatteryDevice picks the first (best-ranked, since Merge already
// sorts by connection state then name) device carrying battery data —
// the Battery Intelligence Engine is a singleton per spec.md 1's "no
// multi-device profile concurrency."
func primaryBatteryDevice(devices []merge.Device) (merge.Device, bool) {
	for _, d := range devices {
		if d.HasBattery() {
			return d, true
		}
	}
	return merge.Device{}, false
}

func (l *Lifecycle) recordBattery(dev merge.Device) {
	if active, ok := l.engine.ActiveAddress(); !ok || active != dev.Address {
		if snap, found, err := l.persist.LoadProfile(dev.Address); err != nil {
			log.Printf("[WARN] lifecycle: load profile for %s: %v", dev.Address, err)
		} else if found {
			l.engine.LoadSnapshot(snap)
		}
	}

	reading := intelligence.ReadingFromDevice(dev)
	l.engine.RecordReading(dev.Address, reading)

	for _, c := range intelligence.Components {
		est := l.engine.Estimate(reading.Ts, c)
		l.store.Dispatch(store.UpdateBatteryStatus{Address: dev.Address, Estimate: est})
	}
}

// runSupervised runs task under recover, restarting it with
// restartBackoff between attempts, up to maxRestartsPerMinute; beyond
// that it logs and gives up, per spec.md 4.10.
func (l *Lifecycle) runSupervised(ctx context.Context, name string, task func(context.Context)) {
	var restarts []time.Time
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[ERROR] lifecycle: task %q panicked: %v", name, r)
					l.store.Dispatch(store.SetError{Message: "internal"})
				}
			}()
			task(ctx)
		}()

		if ctx.Err() != nil {
			return
		}

		now := time.Now()
		restarts = append(restarts, now)
		restarts = pruneOlderThan(restarts, now.Add(-time.Minute))
		if len(restarts) > maxRestartsPerMinute {
			log.Printf("[ERROR] lifecycle: task %q exceeded %d restarts/minute, giving up", name, maxRestartsPerMinute)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}
	}
}

func pruneOlderThan(ts []time.Time, cutoff time.Time) []time.Time {
	out := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// shutdown waits up to shutdownDrain for background work to finish, then
// persists final state regardless, per spec.md 4.10's "wait up to 2s,
// then force-terminate and return."
func (l *Lifecycle) shutdown(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownDrain):
		log.Printf("[WARN] lifecycle: shutdown drain exceeded %s, returning anyway", shutdownDrain)
	}

	l.store.Dispatch(store.SavePersistentState{})
	if snap, ok := l.engine.Snapshot(); ok {
		if err := l.persist.SaveProfile(snap); err != nil {
			log.Printf("[ERROR] lifecycle: save profile on shutdown: %v", err)
		}
	}
	if err := l.persist.SaveConfig(l.store.GetConfig()); err != nil {
		log.Printf("[ERROR] lifecycle: save config on shutdown: %v", err)
	}
}
