package blescan

import (
	"context"
	"log"
	"time"

	"airwatch/internal/address"
	"airwatch/internal/continuity"
)

// ManufacturerEntry is one company-id/data pair from a BLE advertisement's
// manufacturer data sections.
type ManufacturerEntry struct {
	CompanyID uint16
	Data      []byte
}

// Advertisement is the platform-independent shape a Watcher reports for
// every BLE advertisement it receives.
type Advertisement struct {
	Address      address.Address
	RSSI         int
	Manufacturer []ManufacturerEntry
}

// Watcher is the capability interface spec.md 9 calls for: a BLE
// advertisement watcher selected at construction (the real WinRT watcher
// on Windows, a fake in tests), rather than a concrete platform type baked
// into RunScan.
//
// Start subscribes and begins scanning; it returns once the watcher is
// confirmed running, or immediately with an error if it could not start
// at all. onAdvertisement fires for every advertisement received.
// onStopped fires exactly once, whenever the watcher later stops for any
// reason: nil error if Stop caused it, non-nil if it stopped on its own
// (radio dropped, OS-level failure).
type Watcher interface {
	Start(onAdvertisement func(Advertisement), onStopped func(err error)) error
	Stop() error
}

const companyIDApple = 0x004C

// pickApple returns the first Apple (company id 0x004C) manufacturer entry
// in adv, or (0, nil, false) if none is present.
func pickApple(adv Advertisement) (uint16, []byte, bool) {
	for _, m := range adv.Manufacturer {
		if m.CompanyID == companyIDApple {
			return m.CompanyID, m.Data, true
		}
	}
	return 0, nil, false
}

// RunScan drives one scan session against watcher per cfg: it subscribes
// to advertisements, decodes and de-duplicates them, enforces the mode's
// duration/early-exit behavior, and applies the watcher restart policy
// from spec.md 4.2 (stop-before-request ⇒ wait watcherRetryWait, retry
// Start, keep retrying until shutdown or success). It returns a report on
// every path except one: when the watcher could not be started at all, it
// returns a nil report and the start error.
func RunScan(ctx context.Context, watcher Watcher, cfg ScanConfig) (*Report, error) {
	start := time.Now()
	agg := newAggregator()

	scanCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	found := make(chan struct{}, 1)
	onAdvertisement := func(adv Advertisement) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ERROR] blescan: recovered panic handling advertisement from %s: %v", adv.Address, r)
			}
		}()
		companyID, data, ok := pickApple(adv)
		var decoded *continuity.AirPodsData
		hex := ""
		if ok {
			hex = hexString(data)
			decoded, _ = continuity.Decode(companyID, data)
		}
		agg.Add(adv.Address, adv.RSSI, hex, decoded, time.Now())
		if decoded != nil {
			select {
			case found <- struct{}{}:
			default:
			}
		}
	}

	stopped := make(chan error, 1)
	var onStopped func(err error)
	onStopped = func(err error) {
		select {
		case stopped <- err:
		default:
		}
	}

	if err := watcher.Start(onAdvertisement, onStopped); err != nil {
		return nil, err
	}

	var probeCh <-chan time.Time
	if cfg.ProbeInterval > 0 {
		ticker := time.NewTicker(cfg.ProbeInterval)
		defer ticker.Stop()
		probeCh = ticker.C
	}

	shuttingDown := false
scanLoop:
	for {
		select {
		case <-scanCtx.Done():
			break scanLoop
		case err := <-stopped:
			if err == nil || shuttingDown {
				break scanLoop
			}
			log.Printf("[INFO] blescan: watcher stopped unexpectedly, retrying in %s: %v", watcherRetryWait, err)
			for {
				select {
				case <-scanCtx.Done():
					break scanLoop
				case <-time.After(watcherRetryWait):
				}
				if err := watcher.Start(onAdvertisement, onStopped); err != nil {
					log.Printf("[ERROR] blescan: watcher restart failed, retrying in %s: %v", watcherRetryWait, err)
					continue
				}
				break
			}
		case <-probeCh:
			if cfg.EarlyExit && agg.HasAirPods() {
				break scanLoop
			}
		case <-found:
			if cfg.EarlyExit && probeCh == nil {
				break scanLoop
			}
		}
	}

	shuttingDown = true
	if err := watcher.Stop(); err != nil {
		log.Printf("[ERROR] blescan: watcher stop: %v", err)
	}
	select {
	case <-stopped:
	case <-time.After(stopAwait):
		log.Printf("[ERROR] blescan: watcher's stopped callback did not arrive within %s", stopAwait)
	}

	report := BuildReport(agg.Snapshot(), start)
	return &report, nil
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0F]
	}
	return string(out)
}
