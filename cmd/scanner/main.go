// Command scanner is the out-of-process BLE advertisement scanner C3
// launches: it runs one scan per invocation per spec.md §6 and writes a
// single JSON report document to stdout.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airwatch/internal/blescan"
)

func main() {
	cfg, err := blescan.ParseFlags(os.Args[1:])
	if err != nil {
		emit(blescan.ErrorReport(time.Now(), err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] scanner: received shutdown signal, stopping")
		cancel()
	}()

	report, err := blescan.RunScan(ctx, blescan.NewWatcher(), cfg)
	if err != nil {
		emit(blescan.ErrorReport(time.Now(), err))
		os.Exit(1)
	}

	emit(*report)
	if report.Status != "success" {
		os.Exit(1)
	}
}

func emit(report blescan.Report) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(report); err != nil {
		log.Printf("[ERROR] scanner: failed to write report: %v", err)
	}
}
