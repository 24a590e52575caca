package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch/internal/address"
	"airwatch/internal/blescan"
	"airwatch/internal/continuity"
	"airwatch/internal/paired"
)

func intp(v int) *int { return &v }

func deviceJSON(addrStr string, airpods *blescan.AirPodsJSON) blescan.DiscoveredDeviceJSON {
	return blescan.DiscoveredDeviceJSON{
		Address:     addrStr,
		AirPodsData: airpods,
	}
}

// TestMergeScenarioS3 is spec.md 8's S3: two discovered devices (one
// AirPods, one not) joined with two paired devices (one matching, one
// not); only the matching AirPods device should survive, carrying the
// paired name and the scanner's batteries.
func TestMergeScenarioS3(t *testing.T) {
	scan := blescan.Report{
		Devices: []blescan.DiscoveredDeviceJSON{
			deviceJSON("AA:AA:AA:AA:AA:AA", &blescan.AirPodsJSON{
				Model:        "AirPodsPro2",
				LeftBattery:  intp(70),
				RightBattery: intp(70),
				CaseBattery:  intp(0),
			}),
			deviceJSON("BB:BB:BB:BB:BB:BB", nil),
		},
	}
	pairedSnapshot := []paired.PairedDevice{
		{Address: address.MustParse("AA:AA:AA:AA:AA:AA"), Name: "Jay's AirPods", Connected: true},
		{Address: address.MustParse("CC:CC:CC:CC:CC:CC"), Name: "Sony", Connected: true},
	}

	merged, discarded := Merge(scan, pairedSnapshot, time.Now())

	require.Len(t, merged, 1)
	d := merged[0]
	assert.Equal(t, "Jay's AirPods", d.DisplayName)
	assert.Equal(t, continuity.AirPodsPro2, d.Model)
	require.NotNil(t, d.LeftBattery)
	require.NotNil(t, d.RightBattery)
	require.NotNil(t, d.CaseBattery)
	assert.Equal(t, 70, *d.LeftBattery)
	assert.Equal(t, 70, *d.RightBattery)
	assert.Equal(t, 0, *d.CaseBattery)
	assert.Equal(t, Connected, d.ConnectionState)
	assert.NotZero(t, d.SourceFlags&SourcePaired)
	assert.NotZero(t, d.SourceFlags&SourceScanner)
	// "Sony" (unmatched paired, non-Apple name) is discarded by step 4 and
	// counted; the non-AirPods scanner device never enters the join (step 3
	// only merges devices carrying AirPods data), so it is not counted.
	assert.Equal(t, 1, discarded)
}

func TestMergePairedOnlyKnownWhenNotConnected(t *testing.T) {
	pairedSnapshot := []paired.PairedDevice{
		{Address: address.MustParse("AA:AA:AA:AA:AA:AA"), Name: "My AirPods Pro", Connected: false},
	}
	merged, _ := Merge(blescan.Report{}, pairedSnapshot, time.Now())
	require.Len(t, merged, 1)
	assert.Equal(t, Known, merged[0].ConnectionState)
}

func TestMergeSortsByConnectionStateThenName(t *testing.T) {
	pairedSnapshot := []paired.PairedDevice{
		{Address: address.MustParse("AA:AA:AA:AA:AA:01"), Name: "Zeta AirPods", Connected: true},
		{Address: address.MustParse("AA:AA:AA:AA:AA:02"), Name: "Alpha AirPods", Connected: true},
		{Address: address.MustParse("AA:AA:AA:AA:AA:03"), Name: "Beats Known", Connected: false},
	}
	merged, _ := Merge(blescan.Report{}, pairedSnapshot, time.Now())
	require.Len(t, merged, 3)
	want := []string{"Alpha AirPods", "Zeta AirPods", "Beats Known"}
	for i, name := range want {
		assert.Equalf(t, name, merged[i].DisplayName, "position %d", i)
	}
}

func TestMergeScannerOnlyDeviceUsesModelNameWhenUnpaired(t *testing.T) {
	scan := blescan.Report{
		Devices: []blescan.DiscoveredDeviceJSON{
			deviceJSON("AA:AA:AA:AA:AA:AA", &blescan.AirPodsJSON{
				Model:       "AirPodsMax",
				LeftBattery: intp(50),
			}),
		},
	}
	merged, _ := Merge(scan, nil, time.Now())
	require.Len(t, merged, 1)
	assert.Equal(t, "AirPodsMax", merged[0].DisplayName)
}
