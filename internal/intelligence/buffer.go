package intelligence

import "sort"

const (
	eventLogCap  = 2048
	rateBufferCap = 100
)

// ring is a fixed-capacity FIFO of BatteryEvent that evicts the oldest
// entry once full, per spec.md 3's "bounded[2048] of BatteryEvent".
type ring struct {
	cap   int
	items []BatteryEvent
}

func newRing(cap int) *ring {
	return &ring{cap: cap, items: make([]BatteryEvent, 0, cap)}
}

func (r *ring) push(e BatteryEvent) {
	if len(r.items) >= r.cap {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, e)
}

// recent returns up to n of the most recently pushed events, oldest
// first, without mutating the ring.
func (r *ring) recent(n int) []BatteryEvent {
	if n > len(r.items) {
		n = len(r.items)
	}
	start := len(r.items) - n
	out := make([]BatteryEvent, n)
	copy(out, r.items[start:])
	return out
}

// rateRing is the per-component bounded[100] DepletionRateSample buffer,
// with an O(n log n) median used only at estimation time (n ≤ 100, so the
// simplicity of sort-then-pick outweighs a running order-statistic
// structure here).
type rateRing struct {
	cap   int
	items []DepletionRateSample
}

func newRateRing(cap int) *rateRing {
	return &rateRing{cap: cap, items: make([]DepletionRateSample, 0, cap)}
}

func (r *rateRing) push(s DepletionRateSample) {
	if len(r.items) >= r.cap {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, s)
}

func (r *rateRing) len() int { return len(r.items) }

func (r *rateRing) samples() []DepletionRateSample {
	out := make([]DepletionRateSample, len(r.items))
	copy(out, r.items)
	return out
}

// median returns the median MinutesPerPercent across the buffer, and
// false if the buffer is empty.
func (r *rateRing) median() (float64, bool) {
	n := len(r.items)
	if n == 0 {
		return 0, false
	}
	values := make([]float64, n)
	for i, s := range r.items {
		values[i] = s.MinutesPerPercent
	}
	sort.Float64s(values)
	mid := n / 2
	if n%2 == 1 {
		return values[mid], true
	}
	return (values[mid-1] + values[mid]) / 2, true
}
