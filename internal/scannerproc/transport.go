// Package scannerproc implements C3: launching the C2 scanner binary as a
// subprocess, enforcing a supervisory timeout, and parsing its stdout JSON
// into a typed report or a typed error (spec.md 4.3/7).
package scannerproc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"airwatch/internal/blescan"
)

// Request describes one invocation of the scanner subprocess.
type Request struct {
	// Args are the CLI flags forwarded verbatim to the scanner binary,
	// e.g. []string{"--fast"} or []string{"--duration", "10"}.
	Args []string
	// ConfiguredDuration is the scan window the args above imply; the
	// subprocess gets up to 2x this before a Timeout error, per spec.md
	// 4.3.
	ConfiguredDuration time.Duration
}

// Transport spawns and supervises one scanner subprocess per Run call.
type Transport struct {
	// BinaryPath is the scanner executable: an absolute/relative path or a
	// bare name resolved via the OS's PATH lookup.
	BinaryPath string
}

// NewTransport builds a Transport targeting binaryPath.
func NewTransport(binaryPath string) *Transport {
	return &Transport{BinaryPath: binaryPath}
}

// Run executes the scanner once and returns its parsed report. The error
// return, when non-nil, is always a *Error with one of the Kind values
// spec.md 4.3 names.
func (t *Transport) Run(ctx context.Context, req Request) (*blescan.Report, error) {
	path, err := exec.LookPath(t.BinaryPath)
	if err != nil {
		return nil, newNotFound(err)
	}

	deadline := 2 * req.ConfiguredDuration
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, req.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, newTimeout(fmt.Sprintf("scanner did not exit within %s", deadline))
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, newSpawn(runErr)
		}
		// spec.md 4.3's "partial stdout" edge case: a non-zero exit that
		// printed a well-formed status=error report is not itself an
		// error, the caller just sees that report.
		if report, perr := parseReport(stdout.Bytes()); perr == nil && report.Status == "error" {
			return report, nil
		}
		return nil, newNonZeroExit(exitErr.ExitCode(), stderr.String())
	}

	return parseReport(stdout.Bytes())
}

// parseReport decodes and validates one scan report document. Unknown JSON
// fields are ignored for forward compatibility (json.Decoder's default
// behavior, no DisallowUnknownFields call here); odd-length
// manufacturer_data_hex values are rejected as a Json error per spec.md
// 4.3.
func parseReport(raw []byte) (*blescan.Report, error) {
	var report blescan.Report
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&report); err != nil {
		return nil, newJSON(dec.InputOffset(), "malformed scan report", err)
	}
	for _, d := range report.Devices {
		if _, err := blescan.DecodeManufacturerHex(d.ManufacturerDataHex); err != nil {
			return nil, newJSON(dec.InputOffset(), fmt.Sprintf("device %s: manufacturer_data_hex: %v", d.DeviceID, err), err)
		}
	}
	return &report, nil
}
