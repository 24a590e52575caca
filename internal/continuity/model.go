package continuity

// Model is one of the closed set of Apple audio products the Continuity
// battery frame can identify. Unknown model IDs map to Unknown and are
// still surfaced (not dropped) so upstream can observe coverage gaps.
type Model int

const (
	Unknown Model = iota
	AirPods1
	AirPods2
	AirPods3
	AirPodsPro
	AirPodsPro2
	AirPodsPro2UsbC
	AirPodsMax
	BeatsStudioBuds
	BeatsFitPro
	PowerBeatsPro
	BeatsX
	BeatsSolo3
	BeatsStudio3
	BeatsFlex
	BeatsStudioBudsPlus
	BeatsPowerBeats4
	PowerBeatsPro2
	BeatsSolo4
)

// modelNames mirrors the Model enum for String().
var modelNames = map[Model]string{
	Unknown:             "Unknown",
	AirPods1:            "AirPods1",
	AirPods2:            "AirPods2",
	AirPods3:            "AirPods3",
	AirPodsPro:          "AirPodsPro",
	AirPodsPro2:         "AirPodsPro2",
	AirPodsPro2UsbC:     "AirPodsPro2UsbC",
	AirPodsMax:          "AirPodsMax",
	BeatsStudioBuds:     "BeatsStudioBuds",
	BeatsFitPro:         "BeatsFitPro",
	PowerBeatsPro:       "PowerBeatsPro",
	BeatsX:              "BeatsX",
	BeatsSolo3:          "BeatsSolo3",
	BeatsStudio3:        "BeatsStudio3",
	BeatsFlex:           "BeatsFlex",
	BeatsStudioBudsPlus: "BeatsStudioBudsPlus",
	BeatsPowerBeats4:    "PowerBeats4",
	PowerBeatsPro2:      "PowerBeatsPro2",
	BeatsSolo4:          "BeatsSolo4",
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return "Unknown"
}

// modelByID maps the little-endian 16-bit model id (frame offsets 3-4) to
// the closed Model set. IDs are the ones Apple's Continuity protocol has
// been observed to broadcast; unrecognized ids resolve to Unknown via the
// zero value of a plain map lookup.
var modelByID = map[uint16]Model{
	0x2002: AirPods1,
	0x200F: AirPods2,
	0x2013: AirPods3,
	0x200E: AirPodsPro,
	0x2014: AirPodsPro2,
	0x2024: AirPodsPro2UsbC,
	0x200A: AirPodsMax,
	0x2011: BeatsStudioBuds,
	0x2012: BeatsFitPro,
	0x2003: PowerBeatsPro,
	0x2005: BeatsX,
	0x2006: BeatsSolo3,
	0x2009: BeatsStudio3,
	0x2010: BeatsFlex,
	0x2017: BeatsStudioBudsPlus,
	0x2007: BeatsPowerBeats4,
	0x2027: PowerBeatsPro2,
	0x2025: BeatsSolo4,
}

// modelFromID maps a little-endian 16-bit model id to a Model, returning
// Unknown (not an error) for unrecognized ids, per spec.md 4.1.
func modelFromID(id uint16) Model {
	if m, ok := modelByID[id]; ok {
		return m
	}
	return Unknown
}

// nameToModel is the inverse of modelNames, used to recover a Model from
// its String() form after it has crossed the scanner subprocess's JSON
// boundary (spec.md 4.3), where it travels as plain text.
var nameToModel = func() map[string]Model {
	m := make(map[string]Model, len(modelNames))
	for model, name := range modelNames {
		m[name] = model
	}
	return m
}()

// ParseModelName recovers a Model from its String() form, returning
// Unknown for any name not in the table (including "Unknown" itself).
func ParseModelName(name string) Model {
	if m, ok := nameToModel[name]; ok {
		return m
	}
	return Unknown
}

// idByModel is the inverse of modelByID, built once.
var idByModel = func() map[Model]uint16 {
	m := make(map[Model]uint16, len(modelByID))
	for id, model := range modelByID {
		m[model] = id
	}
	return m
}()

// ModelID returns the canonical little-endian model id for m, or (0,
// false) for Unknown / any model with no single canonical id.
func ModelID(m Model) (uint16, bool) {
	id, ok := idByModel[m]
	return id, ok
}
