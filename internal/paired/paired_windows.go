//go:build windows

package paired

import (
	"context"
	"fmt"

	"github.com/saltosystems/winrt-go"
	"github.com/saltosystems/winrt-go/windows/devices/enumeration"

	"airwatch/internal/address"
	"airwatch/internal/winrtutil"
)

// bluetoothPairedSelector is the AQS filter Windows.Devices.Enumeration
// documents for enumerating paired Bluetooth (classic + LE) devices.
const bluetoothPairedSelector = "System.Devices.Aep.ProtocolId:=\"{e0cbf06c-cd8b-4647-bb8a-263b43f0f974}\" AND System.Devices.Aep.IsPaired:=System.StructuredQueryType.Boolean#True"

// windowsProvider is the Windows implementation of Provider, built on
// DeviceInformation.FindAllAsync.
type windowsProvider struct{}

// NewProvider constructs the platform Provider used by the production
// binary.
func NewProvider() Provider {
	return windowsProvider{}
}

func (windowsProvider) ListPaired(ctx context.Context) ([]PairedDevice, error) {
	if err := winrt.RoInitialize(1); err != nil {
		return nil, fmt.Errorf("paired: winrt init: %w", err)
	}

	op, err := enumeration.DeviceInformationFindAllAsyncAqsFilter(bluetoothPairedSelector)
	if err != nil {
		return nil, fmt.Errorf("paired: FindAllAsync: %w", err)
	}
	result, err := winrtutil.AwaitOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("paired: await FindAllAsync: %w", err)
	}

	collection := result.(*enumeration.DeviceInformationCollection)
	size, err := collection.GetSize()
	if err != nil {
		return nil, fmt.Errorf("paired: collection size: %w", err)
	}

	out := make([]PairedDevice, 0, size)
	for i := uint32(0); i < size; i++ {
		info, err := collection.GetAt(i)
		if err != nil {
			continue
		}
		device, err := convertDeviceInformation(info)
		if err != nil {
			continue
		}
		out = append(out, device)
	}
	return out, nil
}

// isConnectedProperty is the AQS property name carrying live connection
// state, distinct from pairing state; DeviceInformation surfaces it via
// its generic Properties map rather than a typed getter.
const isConnectedProperty = "System.Devices.Aep.IsConnected"

func convertDeviceInformation(info *enumeration.DeviceInformation) (PairedDevice, error) {
	name, err := info.GetName()
	if err != nil {
		return PairedDevice{}, err
	}
	id, err := info.GetId()
	if err != nil {
		return PairedDevice{}, err
	}

	connected := false
	if props, err := info.GetProperties(); err == nil {
		if v, err := props.Lookup(isConnectedProperty); err == nil {
			if b, ok := v.(bool); ok {
				connected = b
			}
		}
	}

	addr, err := address.Parse(id)
	if err != nil {
		// The AEP device id is not always a bare MAC; fall back to the
		// zero address rather than dropping the device entirely, since
		// name/connection state are still useful to the merge engine.
		addr = address.Address{}
	}

	return PairedDevice{
		Address:   addr,
		Name:      name,
		Connected: connected,
	}, nil
}
