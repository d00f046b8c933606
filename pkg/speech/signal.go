package speech

import "sync"

// Signal is a multicast event source. Subscribers connect handler functions
// and receive every value emitted afterwards, in connection order.
//
// Connect and the returned disconnect function are safe for concurrent use,
// including from inside a handler. Emission snapshots the subscriber list
// first, so a handler connected or disconnected during an emission does not
// affect that emission.
type Signal[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Connect registers fn and returns a function that disconnects it.
// Disconnecting more than once is a no-op.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// emit invokes every connected handler with v, in connection order. A no-op
// when nothing is connected.
func (s *Signal[T]) emit(v T) {
	s.mu.Lock()
	snapshot := make([]subscriber[T], len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(v)
	}
}

// hasSubscribers reports whether at least one handler is connected.
func (s *Signal[T]) hasSubscribers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

// clear disconnects all handlers. Used during recognizer teardown.
func (s *Signal[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = nil
}
