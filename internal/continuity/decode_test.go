package continuity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func assertBatteryEqual(t *testing.T, name string, got *int, want *int) {
	t.Helper()
	if want == nil {
		assert.Nilf(t, got, "%s", name)
		return
	}
	if assert.NotNilf(t, got, "%s", name) {
		assert.Equalf(t, *want, *got, "%s", name)
	}
}

// TestDecodeAirPodsPro is scenario S1. The literal bytes disagree with the
// prose-stated charging flags; per spec.md's own instruction to prefer the
// 4.1 formula table, the charging assertions below reflect what the
// formula actually computes from these bytes, not the prose (see
// DESIGN.md's Open Question resolutions).
func TestDecodeAirPodsPro(t *testing.T) {
	raw := []byte{0x07, 0x19, 0x01, 0x0E, 0x20, 0x48, 0x87, 0x02, 0, 0, 0, 0, 0, 0, 0, 0}
	d, ok := Decode(0x004C, raw)
	require.True(t, ok, "expected frame to be accepted")

	assert.Equal(t, AirPodsPro, d.Model)
	assertBatteryEqual(t, "case", d.CaseBattery, intp(40))
	assertBatteryEqual(t, "left", d.LeftBattery, intp(80))
	assertBatteryEqual(t, "right", d.RightBattery, intp(70))
	assert.False(t, d.CaseCharging)
	assert.False(t, d.LeftCharging)
	assert.False(t, d.RightCharging)
	assert.False(t, d.LidOpen)
	assert.True(t, d.LeftInEar)
	assert.False(t, d.RightInEar)
}

// TestDecodeAirPodsPro2 is scenario S2.
func TestDecodeAirPodsPro2(t *testing.T) {
	raw := make([]byte, 27)
	copy(raw, []byte{0x07, 0x19, 0x01, 0x14, 0x20, 0x39, 0x76, 0x01})
	d, ok := Decode(0x004C, raw)
	require.True(t, ok, "expected frame to be accepted")

	assert.Equal(t, AirPodsPro2, d.Model)
	assertBatteryEqual(t, "case", d.CaseBattery, intp(30))
	assertBatteryEqual(t, "left", d.LeftBattery, intp(70))
	assertBatteryEqual(t, "right", d.RightBattery, intp(60))
	assert.False(t, d.CaseCharging)
	assert.False(t, d.LeftCharging)
	assert.True(t, d.RightCharging)
	assert.False(t, d.LidOpen)
	assert.False(t, d.LeftInEar)
	assert.True(t, d.RightInEar)
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, ok := Decode(0x004C, []byte{0x07, 0, 0, 0, 0, 0, 0})
	assert.False(t, ok, "expected rejection of 7-byte frame")
}

func TestDecodeRejectsWrongPrefix(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 0x08
	_, ok := Decode(0x004C, raw)
	assert.False(t, ok, "expected rejection of non-0x07 prefix")
}

func TestDecodeRejectsWrongCompany(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 0x07
	_, ok := Decode(0x0001, raw)
	assert.False(t, ok, "expected rejection of non-Apple company id")
}

func TestDecodeUnknownModelStillParsesBatteries(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 0x07
	raw[3], raw[4] = 0xAB, 0xCD // not in the model table
	raw[5] = 0x50               // case=50%
	raw[6] = 0x90               // left=90%, right=0%
	d, ok := Decode(0x004C, raw)
	require.True(t, ok, "expected frame acceptance even with unknown model id")

	assert.Equal(t, Unknown, d.Model)
	assertBatteryEqual(t, "case", d.CaseBattery, intp(50))
	assertBatteryEqual(t, "left", d.LeftBattery, intp(90))
	assertBatteryEqual(t, "right", d.RightBattery, intp(0))
}

func TestDecodeBatteryUnavailableSentinel(t *testing.T) {
	raw := make([]byte, 10)
	raw[0] = 0x07
	raw[5] = 0xF0 // case nibble = 0xF -> unavailable
	raw[6] = 0xFF // left/right nibble = 0xF -> unavailable
	d, ok := Decode(0x004C, raw)
	require.True(t, ok)

	assert.Nil(t, d.CaseBattery)
	assert.Nil(t, d.LeftBattery)
	assert.Nil(t, d.RightBattery)
}

func TestDecodeNeverPanicsOnArbitraryInput(t *testing.T) {
	// Decoder safety property (spec.md 8.1): for any |d| <= 64, Decode must
	// return a value or absence, never panic.
	for n := 0; n <= 64; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte((i*37 + n) % 256)
		}
		assert.NotPanicsf(t, func() { Decode(0x004C, buf) }, "Decode panicked on len %d", n)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	raw := []byte{0x07, 0x19, 0x01, 0x0E, 0x20, 0x48, 0x87, 0x02}
	d1, ok1 := Decode(0x004C, raw)
	d2, ok2 := Decode(0x004C, raw)
	assert.Equal(t, ok1, ok2, "determinism: differing ok")
	assert.Equal(t, d1.Model, d2.Model)
	assert.Equal(t, *d1.CaseBattery, *d2.CaseBattery)
}

func TestBothInCase(t *testing.T) {
	d := &AirPodsData{LeftInEar: false, RightInEar: false}
	assert.True(t, d.BothInCase())

	d.LeftInEar = true
	assert.False(t, d.BothInCase())
}
