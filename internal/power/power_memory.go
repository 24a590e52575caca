package power

import "context"

// MemorySource is an in-memory Source fake for tests: Fire delivers an
// event to every currently-subscribed callback.
type MemorySource struct {
	subscribers []func(Event)
}

func (s *MemorySource) Subscribe(ctx context.Context, onEvent func(Event)) error {
	s.subscribers = append(s.subscribers, onEvent)
	return nil
}

// Fire delivers event to every subscriber, synchronously, in subscription
// order.
func (s *MemorySource) Fire(event Event) {
	for _, cb := range s.subscribers {
		cb(event)
	}
}
