// Package supervisor implements C6: the polling loop that invokes the
// scanner subprocess on a cadence, merges its result with the freshest
// paired-device snapshot, and delivers ordered snapshots to the state
// store (spec.md 4.6).
package supervisor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"airwatch/internal/blescan"
	"airwatch/internal/merge"
	"airwatch/internal/paired"
	"airwatch/internal/scannerproc"
)

const (
	// DefaultPollInterval is spec.md 4.6's "poll_interval (default 30 s)".
	DefaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
	pairedCacheTTL      = 5 * time.Second
	subprocessKillWait  = 1 * time.Second
)

// Snapshot is what the supervisor delivers to the store on every
// successful poll.
type Snapshot struct {
	Devices   []merge.Device
	Discarded int
	Sequence  uint64
}

// Deliver is called once per completed poll, in non-decreasing Sequence
// order; the caller (normally the state store's dispatch) is responsible
// for dropping a late delivery itself is never asked to reorder.
type Deliver func(Snapshot)

// OnError is called for every transient polling error, so the caller can
// turn it into a store action (spec.md 7's SetError) without supervisor
// importing the store package directly.
type OnError func(err error)

// Supervisor owns the cadence loop described above.
type Supervisor struct {
	transport *scannerproc.Transport
	paired    paired.Provider
	deliver   Deliver
	onError   OnError
	breaker   *gobreaker.CircuitBreaker

	pollInterval time.Duration
	scanArgs     []string
	scanDuration time.Duration

	mu            sync.Mutex
	paused        bool
	resume        chan struct{}
	pairedCache   []paired.PairedDevice
	pairedCacheAt time.Time
	sequence      uint64
}

// New builds a Supervisor. scanArgs/scanDuration configure every scan
// invocation (e.g. []string{"--fast"} with a 2s duration); pollInterval
// defaults to DefaultPollInterval when zero.
func New(transport *scannerproc.Transport, pairedProvider paired.Provider, deliver Deliver, onError OnError, scanArgs []string, scanDuration, pollInterval time.Duration) *Supervisor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	s := &Supervisor{
		transport:    transport,
		paired:       pairedProvider,
		deliver:      deliver,
		onError:      onError,
		pollInterval: pollInterval,
		scanArgs:     scanArgs,
		scanDuration: scanDuration,
		resume:       make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scannerproc",
		MaxRequests: 1,
		Timeout:     maxBackoff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[INFO] supervisor: circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return s
}

// Run drives the cadence loop until ctx is canceled. On cancellation, any
// in-flight scan subprocess is killed (via the transport's own context
// cancellation) and Run returns within subprocessKillWait.
func (s *Supervisor) Run(ctx context.Context) {
	backoff := s.pollInterval
	for {
		s.waitWhilePaused(ctx)
		if ctx.Err() != nil {
			return
		}

		seq := s.nextSequence()
		snapshot, err := s.pollOnce(ctx, seq)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[INFO] supervisor: poll failed, backing off %s: %v", backoff, err)
			if s.onError != nil {
				s.onError(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = s.pollInterval
		if s.deliver != nil {
			s.deliver(*snapshot)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
		}
	}
}

// Pause stops new polls from starting until Resume is called; an in-flight
// poll is allowed to finish. Matches spec.md 4.6's "Reacts to SystemSleep
// by pausing."
func (s *Supervisor) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume lifts a Pause immediately, per spec.md 4.6's "SystemWake by
// resuming immediately."
func (s *Supervisor) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	close(s.resume)
	s.resume = make(chan struct{})
}

func (s *Supervisor) waitWhilePaused(ctx context.Context) {
	for {
		s.mu.Lock()
		paused := s.paused
		resume := s.resume
		s.mu.Unlock()
		if !paused {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-resume:
		}
	}
}

func (s *Supervisor) nextSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence
}

func (s *Supervisor) pollOnce(ctx context.Context, seq uint64) (*Snapshot, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.transport.Run(ctx, scannerproc.Request{
			Args:               s.scanArgs,
			ConfiguredDuration: s.scanDuration,
		})
	})
	if err != nil {
		return nil, err
	}
	report := result.(*blescan.Report)

	pairedSnapshot, err := s.pairedSnapshot(ctx)
	if err != nil {
		// A stale paired() provider is non-fatal: fold in what we have
		// cached (possibly empty) rather than discard a good scan.
		log.Printf("[INFO] supervisor: paired-device enumeration failed, using cache: %v", err)
	}

	devices, discarded := merge.Merge(*report, pairedSnapshot, time.Now())
	return &Snapshot{Devices: devices, Discarded: discarded, Sequence: seq}, nil
}

// pairedSnapshot returns a cached paired-device list that is at most
// pairedCacheTTL old, refreshing it on the calling goroutine when stale.
func (s *Supervisor) pairedSnapshot(ctx context.Context) ([]paired.PairedDevice, error) {
	s.mu.Lock()
	fresh := time.Since(s.pairedCacheAt) < pairedCacheTTL
	cached := s.pairedCache
	s.mu.Unlock()
	if fresh {
		return cached, nil
	}

	devices, err := s.paired.ListPaired(ctx)
	if err != nil {
		return cached, err
	}

	s.mu.Lock()
	s.pairedCache = devices
	s.pairedCacheAt = time.Now()
	s.mu.Unlock()
	return devices, nil
}
