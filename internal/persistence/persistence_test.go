package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch/internal/address"
	"airwatch/internal/intelligence"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	cfg, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoadConfigRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())
	cfg := Config{
		PollIntervalOverride:      45 * time.Second,
		MinRSSIFilter:             -70,
		AutoLaunchOnLogin:         true,
		LowBatteryNotifyThreshold: 15,
	}
	require.NoError(t, s.SaveConfig(cfg))
	got, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadProfileMissingReportsNotFoundWithoutError(t *testing.T) {
	s := NewStore(t.TempDir())
	_, ok, err := s.LoadProfile(address.MustParse("AA:BB:CC:DD:EE:01"))
	require.NoError(t, err)
	assert.False(t, ok, "expected ok=false for a missing profile")
}

func TestSaveThenLoadProfileRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())
	addr := address.MustParse("AA:BB:CC:DD:EE:02")
	level := 42
	snap := intelligence.Snapshot{
		Address: addr,
		LastReading: &intelligence.Reading{
			Ts:       time.Unix(1000, 0).UTC(),
			Levels:   map[intelligence.Component]*int{intelligence.Left: &level},
			Charging: map[intelligence.Component]bool{intelligence.Left: false},
		},
		RateBuffer: map[intelligence.Component][]intelligence.DepletionRateSample{
			intelligence.Left: {{Timestamp: time.Unix(900, 0).UTC(), MinutesPerPercent: 1.6}},
		},
		RecentEvents: []intelligence.BatteryEvent{
			{Timestamp: time.Unix(960, 0).UTC(), Component: intelligence.Left, Kind: intelligence.Decrement, FromLevel: 80, ToLevel: 70},
		},
	}

	require.NoError(t, s.SaveProfile(snap))
	got, ok, err := s.LoadProfile(addr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)
}

func TestSaveProfileDoesNotOverwriteDifferentAddress(t *testing.T) {
	s := NewStore(t.TempDir())
	a1 := address.MustParse("AA:BB:CC:DD:EE:01")
	a2 := address.MustParse("AA:BB:CC:DD:EE:02")

	require.NoError(t, s.SaveProfile(intelligence.Snapshot{Address: a1}))
	require.NoError(t, s.SaveProfile(intelligence.Snapshot{Address: a2}))

	_, ok1, _ := s.LoadProfile(a1)
	_, ok2, _ := s.LoadProfile(a2)
	assert.True(t, ok1)
	assert.True(t, ok2)
}
