// Package blescan implements the BLE advertisement scanner (spec.md C2):
// subscribing to OS advertisement events, filtering to Apple manufacturer
// frames, de-duplicating per scan window, and producing the JSON scan
// report spec.md 6 defines.
package blescan

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"airwatch/internal/address"
	"airwatch/internal/continuity"
)

// ScannerVersion is reported verbatim in every scan report.
const ScannerVersion = "1.0.0"

// AirPodsJSON is the wire shape of a decoded Continuity battery frame.
type AirPodsJSON struct {
	Model           string `json:"model"`
	ModelID         string `json:"model_id"`
	LeftBattery     *int   `json:"left_battery"`
	RightBattery    *int   `json:"right_battery"`
	CaseBattery     *int   `json:"case_battery"`
	LeftCharging    bool   `json:"left_charging"`
	RightCharging   bool   `json:"right_charging"`
	CaseCharging    bool   `json:"case_charging"`
	LeftInEar       bool   `json:"left_in_ear"`
	RightInEar      bool   `json:"right_in_ear"`
	BothInCase      bool   `json:"both_in_case"`
	LidOpen         bool   `json:"lid_open"`
	BroadcastingEar string `json:"broadcasting_ear"`
}

// DiscoveredDeviceJSON is one entry of the "devices" array.
type DiscoveredDeviceJSON struct {
	DeviceID            string       `json:"device_id"`
	Address             string       `json:"address"`
	RSSI                int          `json:"rssi"`
	ManufacturerDataHex string       `json:"manufacturer_data_hex"`
	AirPodsData         *AirPodsJSON `json:"airpods_data"`
}

// Report is the full stdout JSON document, per spec.md 6.
type Report struct {
	ScannerVersion string                 `json:"scanner_version"`
	ScanTimestamp  int64                  `json:"scan_timestamp"`
	TotalDevices   int                    `json:"total_devices"`
	Devices        []DiscoveredDeviceJSON `json:"devices"`
	AirPodsCount   int                    `json:"airpods_count"`
	Status         string                 `json:"status"`
	Note           string                 `json:"note,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// DiscoveredDevice is the in-process (non-JSON) representation the
// aggregator keeps per spec.md 3 ("Discovered Device").
type DiscoveredDevice struct {
	Address             address.Address
	RSSI                int
	LastSeen            time.Time
	ManufacturerDataHex string
	AirPods             *continuity.AirPodsData // nil iff frame not accepted by the decoder
}

func toAirPodsJSON(d *continuity.AirPodsData) *AirPodsJSON {
	if d == nil {
		return nil
	}
	return &AirPodsJSON{
		Model:           d.Model.String(),
		ModelID:         fmt.Sprintf("0x%04x", modelIDFor(d.Model)),
		LeftBattery:     d.LeftBattery,
		RightBattery:    d.RightBattery,
		CaseBattery:     d.CaseBattery,
		LeftCharging:    d.LeftCharging,
		RightCharging:   d.RightCharging,
		CaseCharging:    d.CaseCharging,
		LeftInEar:       d.LeftInEar,
		RightInEar:      d.RightInEar,
		BothInCase:      d.BothInCase(),
		LidOpen:         d.LidOpen,
		BroadcastingEar: d.BroadcastingEar,
	}
}

func toDiscoveredDeviceJSON(d DiscoveredDevice) DiscoveredDeviceJSON {
	return DiscoveredDeviceJSON{
		DeviceID:            strings.ToLower(strings.ReplaceAll(d.Address.String(), ":", "")),
		Address:             d.Address.String(),
		RSSI:                d.RSSI,
		ManufacturerDataHex: d.ManufacturerDataHex,
		AirPodsData:         toAirPodsJSON(d.AirPods),
	}
}

// BuildReport assembles the success-path JSON report from a scan window's
// discovered devices.
func BuildReport(devices []DiscoveredDevice, scanTimestamp time.Time) Report {
	out := make([]DiscoveredDeviceJSON, 0, len(devices))
	airpodsCount := 0
	for _, d := range devices {
		out = append(out, toDiscoveredDeviceJSON(d))
		if d.AirPods != nil {
			airpodsCount++
		}
	}
	return Report{
		ScannerVersion: ScannerVersion,
		ScanTimestamp:  scanTimestamp.Unix(),
		TotalDevices:   len(out),
		Devices:        out,
		AirPodsCount:   airpodsCount,
		Status:         "success",
	}
}

// ErrorReport builds the failure-path JSON report per spec.md 4.2/6: same
// shape, empty device list, status "error", and a free-form message.
func ErrorReport(scanTimestamp time.Time, err error) Report {
	return Report{
		ScannerVersion: ScannerVersion,
		ScanTimestamp:  scanTimestamp.Unix(),
		TotalDevices:   0,
		Devices:        []DiscoveredDeviceJSON{},
		AirPodsCount:   0,
		Status:         "error",
		Error:          err.Error(),
	}
}

// DecodeManufacturerHex decodes a lower-case hex manufacturer-data string
// back into bytes. Odd-length strings are rejected, matching the C3
// transport contract in spec.md 4.3.
func DecodeManufacturerHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("manufacturer_data_hex: odd-length string %q", s)
	}
	return hex.DecodeString(s)
}

// modelIDFor is the inverse of the model table, used only to render the
// model_id field; Unknown reports 0x0000 since spec.md has no single
// canonical "unknown" id.
func modelIDFor(m continuity.Model) uint16 {
	id, _ := continuity.ModelID(m)
	return id
}
