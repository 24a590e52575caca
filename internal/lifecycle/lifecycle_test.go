package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch/internal/paired"
	"airwatch/internal/persistence"
	"airwatch/internal/power"
	"airwatch/internal/scannerproc"
)

// TestMain re-executes this binary as a fake scanner subprocess when
// GO_WANT_HELPER_PROCESS is set, the same idiom scannerproc and
// supervisor use for their own subprocess tests.
func TestMain(m *testing.M) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") == "1" {
		fmt.Print(`{"scanner_version":"1.0.0","scan_timestamp":1,"total_devices":0,"devices":[],"airpods_count":0,"status":"success"}`)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func helperTransport(t *testing.T) *scannerproc.Transport {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return scannerproc.NewTransport(self)
}

func newTestLifecycle(t *testing.T) *Lifecycle {
	t.Helper()
	return New(Config{
		Transport:    helperTransport(t),
		Paired:       paired.NewMemoryProvider(),
		Power:        &power.MemorySource{},
		Persist:      persistence.NewStore(t.TempDir()),
		ScanDuration: time.Second,
		PollInterval: 15 * time.Millisecond,
	})
}

func TestRunHydratesConfigIntoStore(t *testing.T) {
	l := newTestLifecycle(t)
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	l.Run(ctx)

	assert.Equal(t, persistence.DefaultConfig(), l.Store().GetConfig())
}

func TestRunReactsToSleepAndWake(t *testing.T) {
	mem := &power.MemorySource{}
	l := New(Config{
		Transport:    helperTransport(t),
		Paired:       paired.NewMemoryProvider(),
		Power:        mem,
		Persist:      persistence.NewStore(t.TempDir()),
		ScanDuration: time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	mem.Fire(power.Sleep)
	time.Sleep(10 * time.Millisecond)
	mem.Fire(power.Wake)

	<-done

	// sleep/wake don't touch UiState directly; absence of a panic is the assertion
	assert.NotNil(t, l.Store().GetUiState())
}

func TestRunSupervisedRestartsAfterPanicWithinLimit(t *testing.T) {
	l := newTestLifecycle(t)

	var mu sync.Mutex
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())

	task := func(ctx context.Context) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			panic("synthetic failure")
		}
		cancel()
		<-ctx.Done()
	}

	done := make(chan struct{})
	go func() {
		l.runSupervised(ctx, "test-task", task)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runSupervised did not return after the task stopped panicking")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls, "expected exactly 3 attempts")
}

func TestRunSupervisedGivesUpBeyondRestartLimit(t *testing.T) {
	l := newTestLifecycle(t)

	var mu sync.Mutex
	calls := 0
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	task := func(context.Context) {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("always fails")
	}

	done := make(chan struct{})
	go func() {
		l.runSupervised(ctx, "always-panics", task)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatal("runSupervised did not give up after exceeding the restart limit")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, maxRestartsPerMinute+1, calls, "expected attempts before giving up")
}
