// Package winrtutil holds small helpers shared by the Windows-only WinRT
// call sites in this module, so each of them doesn't reimplement async
// polling and buffer conversion.
package winrtutil

import (
	"context"
	"fmt"
	"time"

	"github.com/saltosystems/winrt-go/windows/foundation"
	"github.com/saltosystems/winrt-go/windows/storage/streams"
)

// pollInterval is how often AwaitOperation checks an IAsyncOperation's
// status. WinRT gives no blocking wait primitive for these from Go, so
// polling is the only option; it mirrors the pattern used for Windows
// Bluetooth central connects elsewhere in the ecosystem.
const pollInterval = 10 * time.Millisecond

// AwaitOperation polls a WinRT IAsyncOperation until it completes, fails,
// or ctx is done, returning GetResults() on success.
func AwaitOperation(ctx context.Context, op foundation.IAsyncOperationer) (interface{}, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		status, err := op.GetStatus()
		if err != nil {
			return nil, fmt.Errorf("winrtutil: get status: %w", err)
		}
		switch status {
		case foundation.AsyncStatusCompleted:
			return op.GetResults()
		case foundation.AsyncStatusError:
			return nil, fmt.Errorf("winrtutil: async operation failed")
		case foundation.AsyncStatusCanceled:
			return nil, fmt.Errorf("winrtutil: async operation canceled")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReadBuffer copies the full contents of a WinRT IBuffer into a Go byte
// slice via a DataReader, since IBuffer itself exposes no direct Go-side
// access to its bytes.
func ReadBuffer(buf streams.IBuffer) ([]byte, error) {
	length, err := buf.GetLength()
	if err != nil {
		return nil, fmt.Errorf("winrtutil: buffer length: %w", err)
	}
	if length == 0 {
		return nil, nil
	}
	reader, err := streams.DataReaderFromBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("winrtutil: data reader from buffer: %w", err)
	}
	out := make([]byte, length)
	for i := range out {
		b, err := reader.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("winrtutil: read byte %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
