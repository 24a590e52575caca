//go:build !windows

package power

import "context"

// NewSource on non-Windows platforms returns a Source that never fires;
// sleep/wake notification is Windows-only (spec.md 1).
func NewSource() Source { return noopSource{} }

type noopSource struct{}

func (noopSource) Subscribe(ctx context.Context, onEvent func(Event)) error { return nil }
