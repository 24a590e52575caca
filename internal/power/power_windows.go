//go:build windows

package power

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 PowerRegisterSuspendResumeNotification constants and shapes, per
// the documented powrprof.dll API. There is no x/sys/windows wrapper for
// this call, so the DLL entry points are resolved directly, the same way
// this module's other Windows-only code resolves WinRT entry points
// rather than hand-rolling a substitute.
const (
	deviceNotifyCallback = 2

	pbtAPMSuspend        = 0x0004
	pbtAPMResumeSuspend  = 0x0007
	pbtAPMResumeAutomatic = 0x0012
)

var (
	powrprof                                      = windows.NewLazySystemDLL("powrprof.dll")
	procPowerRegisterSuspendResumeNotification    = powrprof.NewProc("PowerRegisterSuspendResumeNotification")
	procPowerUnregisterSuspendResumeNotification  = powrprof.NewProc("PowerUnregisterSuspendResumeNotification")
)

type deviceNotifySubscribeParams struct {
	callback  uintptr
	context   uintptr
}

// windowsSource is the Windows implementation of Source, built on
// PowerRegisterSuspendResumeNotification.
type windowsSource struct{}

// NewSource constructs the platform Source used by the production binary.
func NewSource() Source { return windowsSource{} }

func (windowsSource) Subscribe(ctx context.Context, onEvent func(Event)) error {
	var mu sync.Mutex
	callback := windows.NewCallback(func(context uintptr, eventType uint32, setting uintptr) uintptr {
		mu.Lock()
		defer mu.Unlock()
		switch eventType {
		case pbtAPMSuspend:
			onEvent(Sleep)
		case pbtAPMResumeSuspend, pbtAPMResumeAutomatic:
			onEvent(Wake)
		}
		return 0
	})

	params := deviceNotifySubscribeParams{callback: callback}
	var handle uintptr
	ret, _, err := procPowerRegisterSuspendResumeNotification.Call(
		uintptr(deviceNotifyCallback),
		uintptr(unsafe.Pointer(&params)),
		uintptr(unsafe.Pointer(&handle)),
	)
	if ret != 0 {
		return fmt.Errorf("power: PowerRegisterSuspendResumeNotification: %w", err)
	}

	go func() {
		<-ctx.Done()
		procPowerUnregisterSuspendResumeNotification.Call(handle)
	}()
	return nil
}
