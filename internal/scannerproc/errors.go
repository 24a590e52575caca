package scannerproc

import "fmt"

// Kind is the closed set of ways invoking the scanner subprocess can fail,
// per spec.md 4.3/7.
type Kind int

const (
	// NotFound means the scanner binary could not be located.
	NotFound Kind = iota
	// Spawn means the OS refused to start the subprocess.
	Spawn
	// Timeout means the subprocess did not exit within 2x the configured
	// scan duration.
	Timeout
	// NonZeroExit means the subprocess exited with a non-zero status and
	// did not print a well-formed error report (spec.md 4.3's "partial
	// stdout" edge case is handled before this kind is ever produced).
	NonZeroExit
	// Json means stdout could not be parsed as the expected report shape,
	// or failed a field-level validation rule (e.g. odd-length hex).
	Json
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case Spawn:
		return "Spawn"
	case Timeout:
		return "Timeout"
	case NonZeroExit:
		return "NonZeroExit"
	case Json:
		return "Json"
	default:
		return "Unknown"
	}
}

// Error is the typed error scannerproc returns, carrying the kind plus the
// kind-specific detail spec.md 4.3 names (exit code / stderr for
// NonZeroExit, offset / detail for Json).
type Error struct {
	Kind   Kind
	Detail string

	// ExitCode and Stderr are set only for Kind == NonZeroExit.
	ExitCode int
	Stderr   string

	// Offset is set only for Kind == Json.
	Offset int64

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case NonZeroExit:
		return fmt.Sprintf("scannerproc: %s: exit code %d: %s", e.Kind, e.ExitCode, e.Stderr)
	case Json:
		return fmt.Sprintf("scannerproc: %s: offset %d: %s", e.Kind, e.Offset, e.Detail)
	default:
		if e.Err != nil {
			return fmt.Sprintf("scannerproc: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("scannerproc: %s: %s", e.Kind, e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func newNotFound(err error) *Error { return &Error{Kind: NotFound, Err: err} }
func newSpawn(err error) *Error    { return &Error{Kind: Spawn, Err: err} }
func newTimeout(detail string) *Error {
	return &Error{Kind: Timeout, Detail: detail}
}
func newNonZeroExit(code int, stderr string) *Error {
	return &Error{Kind: NonZeroExit, ExitCode: code, Stderr: stderr}
}
func newJSON(offset int64, detail string, err error) *Error {
	return &Error{Kind: Json, Offset: offset, Detail: detail, Err: err}
}
