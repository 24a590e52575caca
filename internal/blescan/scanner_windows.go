//go:build windows

package blescan

import (
	"fmt"
	"sync"

	"github.com/saltosystems/winrt-go"
	"github.com/saltosystems/winrt-go/windows/devices/bluetooth/advertisement"

	"airwatch/internal/address"
	"airwatch/internal/winrtutil"
)

// winrtWatcher is the Windows implementation of Watcher, built on
// BluetoothLEAdvertisementWatcher, the same WinRT type the Bluetooth
// central scan path in this module's pack is built on.
type winrtWatcher struct {
	mu            sync.Mutex
	watcher       *advertisement.BluetoothLEAdvertisementWatcher
	receivedToken advertisement.EventRegistrationToken
	stoppedToken  advertisement.EventRegistrationToken
}

// NewWatcher constructs the platform Watcher used by cmd/scanner.
func NewWatcher() Watcher {
	return &winrtWatcher{}
}

func (w *winrtWatcher) Start(onAdvertisement func(Advertisement), onStopped func(error)) error {
	if err := winrt.RoInitialize(1); err != nil { // COINIT_APARTMENTTHREADED
		return fmt.Errorf("blescan: winrt init: %w", err)
	}

	watcher, err := advertisement.NewBluetoothLEAdvertisementWatcher()
	if err != nil {
		return fmt.Errorf("blescan: create watcher: %w", err)
	}
	if err := watcher.SetScanningMode(advertisement.BluetoothLEScanningModeActive); err != nil {
		return fmt.Errorf("blescan: set scanning mode: %w", err)
	}

	receivedToken, err := watcher.AddReceived(func(_ *advertisement.BluetoothLEAdvertisementWatcher, args *advertisement.BluetoothLEAdvertisementReceivedEventArgs) {
		adv, convErr := convertAdvertisement(args)
		if convErr != nil {
			return
		}
		onAdvertisement(adv)
	})
	if err != nil {
		return fmt.Errorf("blescan: add received handler: %w", err)
	}

	stoppedToken, err := watcher.AddStopped(func(_ *advertisement.BluetoothLEAdvertisementWatcher, _ *advertisement.BluetoothLEAdvertisementWatcherStoppedEventArgs) {
		onStopped(watcherStopError(watcher))
	})
	if err != nil {
		watcher.RemoveReceived(receivedToken)
		return fmt.Errorf("blescan: add stopped handler: %w", err)
	}

	if err := watcher.Start(); err != nil {
		watcher.RemoveReceived(receivedToken)
		watcher.RemoveStopped(stoppedToken)
		return fmt.Errorf("blescan: start watcher: %w", err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.receivedToken = receivedToken
	w.stoppedToken = stoppedToken
	w.mu.Unlock()
	return nil
}

func (w *winrtWatcher) Stop() error {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return nil
	}
	return watcher.Stop()
}

// watcherStopError inspects the watcher's status after a stop; a status of
// Stopped following an explicit Stop() call is not an error, anything else
// (Aborted, and similar failure statuses) is surfaced to the restart
// policy in run.go.
func watcherStopError(watcher *advertisement.BluetoothLEAdvertisementWatcher) error {
	status, err := watcher.GetStatus()
	if err != nil {
		return fmt.Errorf("blescan: get watcher status: %w", err)
	}
	if status == advertisement.BluetoothLEAdvertisementWatcherStatusStopped {
		return nil
	}
	return fmt.Errorf("blescan: watcher entered status %d unexpectedly", status)
}

func convertAdvertisement(args *advertisement.BluetoothLEAdvertisementReceivedEventArgs) (Advertisement, error) {
	btAddr, err := args.GetBluetoothAddress()
	if err != nil {
		return Advertisement{}, err
	}
	rssi, err := args.GetRssi()
	if err != nil {
		return Advertisement{}, err
	}
	adv, err := args.GetAdvertisement()
	if err != nil {
		return Advertisement{}, err
	}
	sections, err := adv.GetManufacturerData()
	if err != nil {
		return Advertisement{}, err
	}

	var addr address.Address
	for i := 0; i < 6; i++ {
		addr[5-i] = byte(btAddr >> (8 * i))
	}

	size, err := sections.GetSize()
	if err != nil {
		return Advertisement{}, err
	}
	entries := make([]ManufacturerEntry, 0, size)
	for i := uint32(0); i < size; i++ {
		section, err := sections.GetAt(i)
		if err != nil {
			continue
		}
		companyID, err := section.GetCompanyId()
		if err != nil {
			continue
		}
		buf, err := section.GetData()
		if err != nil {
			continue
		}
		data, err := winrtutil.ReadBuffer(buf)
		if err != nil {
			continue
		}
		entries = append(entries, ManufacturerEntry{CompanyID: companyID, Data: data})
	}

	return Advertisement{
		Address:      addr,
		RSSI:         int(rssi),
		Manufacturer: entries,
	}, nil
}
