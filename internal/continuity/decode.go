// Package continuity implements Apple's proprietary Continuity battery
// frame decoder: turning a BLE manufacturer-data payload (company id
// 0x004C) into a typed AirPods battery/status record.
//
// The decoder never errors on malformed input. A byte sequence that is not
// a Continuity battery frame yields an absent result (ok == false), never a
// panic and never an error value — absence and malformed-but-accepted-shape
// are deliberately distinct outcomes, per spec.md 4.1/9.
package continuity

import "fmt"

const (
	// companyIDApple is the BLE SIG company identifier Apple advertises
	// Continuity frames under.
	companyIDApple uint16 = 0x004C

	// frameType is the leading byte of a Continuity battery frame.
	frameType byte = 0x07

	// minFrameLength is the minimum byte length for a candidate frame,
	// per spec.md 3 ("Manufacturer Frame").
	minFrameLength = 8

	batteryUnavailable = 0x0F
)

// AirPodsData is the decoded content of a Continuity battery frame.
type AirPodsData struct {
	Model Model

	LeftBattery  *int // 0-100, nil if unavailable
	RightBattery *int
	CaseBattery  *int

	LeftCharging  bool
	RightCharging bool
	CaseCharging  bool

	LeftInEar  bool
	RightInEar bool
	LidOpen    bool

	// BroadcastingEar is surfaced verbatim, never interpreted: observed
	// frames hard-code "right" and the semantics are not fully specified
	// (spec.md 9).
	BroadcastingEar string
}

// BothInCase is derived, not decoded: true iff neither pod reports in-ear.
func (d *AirPodsData) BothInCase() bool {
	return !d.LeftInEar && !d.RightInEar
}

// Decode parses a manufacturer-data payload delivered under companyID.
// It returns (nil, false) — not an error — when the frame is not a
// Continuity battery frame: wrong company id, too short, or missing the
// 0x07 frame-type prefix. Any other byte pattern of the right shape is
// conservatively decoded; an unrecognized model id surfaces as Unknown
// rather than being dropped.
//
// Offsets assume the company-id prefix has already been stripped by the
// host BLE stack, matching spec.md 4.1 exactly (duplicate offset schemes
// seen elsewhere in prior art are not replicated here).
func Decode(companyID uint16, d []byte) (*AirPodsData, bool) {
	if companyID != companyIDApple {
		return nil, false
	}
	if len(d) < minFrameLength {
		return nil, false
	}
	if d[0] != frameType {
		return nil, false
	}

	modelID := uint16(d[3]) | uint16(d[4])<<8

	out := &AirPodsData{
		Model:           modelFromID(modelID),
		BroadcastingEar: "right",
	}

	out.CaseBattery = decodeBatteryNibble((d[5] & 0xF0) >> 4)
	out.LeftBattery = decodeBatteryNibble((d[6] & 0xF0) >> 4)
	out.RightBattery = decodeBatteryNibble(d[6] & 0x0F)

	out.CaseCharging = d[5]&0x04 != 0
	out.LeftCharging = d[5]&0x02 != 0
	out.RightCharging = d[5]&0x01 != 0

	out.LidOpen = d[7]&0x04 != 0
	out.LeftInEar = d[7]&0x02 != 0
	out.RightInEar = d[7]&0x01 != 0

	return out, true
}

// decodeBatteryNibble turns a 4-bit nibble into a 0-100 percentage in steps
// of 10, or nil for the 0xF "unavailable" sentinel.
func decodeBatteryNibble(nibble byte) *int {
	if nibble == batteryUnavailable {
		return nil
	}
	v := int(nibble) * 10
	return &v
}

func (d *AirPodsData) String() string {
	return fmt.Sprintf("AirPodsData{model=%s left=%s right=%s case=%s}",
		d.Model, batteryString(d.LeftBattery), batteryString(d.RightBattery), batteryString(d.CaseBattery))
}

func batteryString(b *int) string {
	if b == nil {
		return "?"
	}
	return fmt.Sprintf("%d%%", *b)
}
