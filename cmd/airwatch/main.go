// Command airwatch is the core's entry point: it wires the Polling
// Supervisor, the Battery Intelligence Engine, the State Store, and
// Persistence together and runs them until told to stop. It owns no UI
// toolkit — that collaborator is deliberately out of scope (spec.md 1) —
// but logs every store notification so the core is observable standalone.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"airwatch/internal/lifecycle"
	"airwatch/internal/paired"
	"airwatch/internal/persistence"
	"airwatch/internal/power"
	"airwatch/internal/scannerproc"
	"airwatch/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	scannerPath := flag.String("scanner-path", defaultScannerPath(), "path to the scanner subprocess binary")
	scanDuration := flag.Duration("scan-duration", 4*time.Second, "duration passed to each scanner invocation")
	pollInterval := flag.Duration("poll-interval", 0, "supervisor poll cadence (0 = supervisor default)")
	dataDir := flag.String("data-dir", defaultDataDir(), "directory for config.json and device profiles")
	flag.Parse()

	persist := persistence.NewStore(*dataDir)

	l := lifecycle.New(lifecycle.Config{
		Transport:    scannerproc.NewTransport(*scannerPath),
		Paired:       paired.NewProvider(),
		Power:        power.NewSource(),
		Persist:      persist,
		ScanArgs:     []string{"--duration", durationFlagValue(*scanDuration)},
		ScanDuration: *scanDuration,
		PollInterval: *pollInterval,
	})

	l.Store().Subscribe(func(n store.Notification) {
		log.Printf("[INFO] airwatch: %s: %d device(s), window_visible=%v, error=%q",
			n.Kind, len(n.Devices.Devices), n.Ui.WindowVisible, n.Ui.ErrorMessage)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] airwatch: received shutdown signal, stopping")
		cancel()
	}()

	l.Run(ctx)
	return 0
}

func durationFlagValue(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func defaultScannerPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "scanner.exe"
	}
	return filepath.Join(filepath.Dir(exe), "scanner.exe")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "airwatch")
}
