package blescan

import (
	"flag"
	"strconv"
	"time"
)

// Mode is one of the five mutually exclusive scan modes spec.md 4.2/6
// defines.
type Mode int

const (
	ModeFixed Mode = iota
	ModeFast
	ModeQuick
	ModeContinuous
	ModeEarlyExit
)

func (m Mode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeQuick:
		return "quick"
	case ModeContinuous:
		return "continuous"
	case ModeEarlyExit:
		return "early-exit"
	default:
		return "fixed"
	}
}

const (
	defaultDuration  = 4 * time.Second
	minDuration      = 1 * time.Second
	maxDuration      = 30 * time.Second
	continuousProbe  = 200 * time.Millisecond
	earlyExitProbe   = 500 * time.Millisecond
	continuousCeil   = 30 * time.Second
	watcherRetryWait = 3 * time.Second
	stopAwait        = 1 * time.Second
)

// ScanConfig is the resolved parameter set for one scan invocation.
type ScanConfig struct {
	Mode Mode
	// Duration bounds the whole scan window.
	Duration time.Duration
	// ProbeInterval, if non-zero, means early-exit is checked on a poll
	// cadence rather than reacted to instantly (continuous/early-exit
	// modes, per spec.md 4.2's mode table).
	ProbeInterval time.Duration
	EarlyExit     bool
}

// ParseFlags resolves the scanner CLI contract from spec.md 6:
//
//	scanner [--duration N] [--fast|-f] [--quick|-q] [--continuous|-c] [--early-exit]
//
// An unparseable --duration value is replaced with the 4s default rather
// than rejected; an in-range-but-out-of-bounds value is clamped to
// [1,30]s, matching spec.md 6's "(clamped to [1,30]; invalid => 4)" rule.
// When more than one mode flag is given, precedence is
// fast > quick > continuous > early-exit > fixed.
func ParseFlags(args []string) (ScanConfig, error) {
	fs := flag.NewFlagSet("scanner", flag.ContinueOnError)
	duration := fs.String("duration", "", "fixed scan duration in seconds")
	fast := fs.Bool("fast", false, "")
	fs.BoolVar(fast, "f", false, "")
	quick := fs.Bool("quick", false, "")
	fs.BoolVar(quick, "q", false, "")
	continuous := fs.Bool("continuous", false, "")
	fs.BoolVar(continuous, "c", false, "")
	earlyExit := fs.Bool("early-exit", false, "")

	if err := fs.Parse(args); err != nil {
		return ScanConfig{}, err
	}

	fixed := clampDuration(*duration)

	switch {
	case *fast:
		return ScanConfig{Mode: ModeFast, Duration: 2 * time.Second, EarlyExit: true}, nil
	case *quick:
		return ScanConfig{Mode: ModeQuick, Duration: 3 * time.Second, EarlyExit: true}, nil
	case *continuous:
		return ScanConfig{Mode: ModeContinuous, Duration: continuousCeil, ProbeInterval: continuousProbe, EarlyExit: true}, nil
	case *earlyExit:
		return ScanConfig{Mode: ModeEarlyExit, Duration: fixed, ProbeInterval: earlyExitProbe, EarlyExit: true}, nil
	default:
		return ScanConfig{Mode: ModeFixed, Duration: fixed}, nil
	}
}

// clampDuration resolves the --duration value: empty or unparseable input
// falls back to the 4s default, in-range values pass through unchanged,
// and out-of-range values clamp to the nearest bound, per spec.md 6's
// "(clamped to [1,30]; invalid => 4)" rule.
func clampDuration(raw string) time.Duration {
	if raw == "" {
		return defaultDuration
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return defaultDuration
	}
	switch {
	case seconds < 1:
		return minDuration
	case seconds > 30:
		return maxDuration
	default:
		return time.Duration(seconds) * time.Second
	}
}
