// Package power implements the OS sleep/wake notification capability
// spec.md 4.6/4.10 requires C6 and C10 to react to, behind a small
// interface so it is mockable the way spec.md 9 requires of every OS
// capability.
package power

import "context"

// Event is one OS power-state transition.
type Event int

const (
	Sleep Event = iota
	Wake
)

func (e Event) String() string {
	if e == Wake {
		return "Wake"
	}
	return "Sleep"
}

// Source is the capability interface for OS suspend/resume notification.
// Subscribe registers onEvent for every future transition until ctx is
// done; the real Windows implementation wraps power-setting notification
// handles, a fake implementation backs tests.
type Source interface {
	Subscribe(ctx context.Context, onEvent func(Event)) error
}
