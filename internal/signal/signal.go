// Package signal provides the typed multicast primitive backing every
// observable fact in the client core (channel list changed, read state
// changed, mentions changed, ...). One Signal per logical event stream.
//
// Signals are not goroutine-safe: a Signal belongs to the goroutine that
// owns the state it reports on, and Dispatch runs subscribers synchronously
// on that goroutine.
package signal

import "github.com/google/uuid"

// Subscription identifies one attached handler. Zero value is never issued.
type Subscription struct {
	id uuid.UUID
}

type subscriber[T any] struct {
	id uuid.UUID
	fn func(T)
}

// Signal is a multicast event stream. Subscribers are invoked in
// subscription order. The zero value is ready to use.
type Signal[T any] struct {
	subs []subscriber[T]
}

// Subscribe attaches fn and returns a handle for Unsubscribe.
func (s *Signal[T]) Subscribe(fn func(T)) Subscription {
	id := uuid.New()
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return Subscription{id: id}
}

// Unsubscribe detaches exactly the handler behind sub. Idempotent; safe to
// call from inside a handler.
func (s *Signal[T]) Unsubscribe(sub Subscription) {
	for i, cur := range s.subs {
		if cur.id == sub.id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Dispatch invokes all current subscribers in order. Subscriber panics are
// not recovered: a failing observer is a programming error surfaced to
// whoever committed the mutation.
func (s *Signal[T]) Dispatch(v T) {
	// Snapshot so handlers may subscribe/unsubscribe during dispatch
	// without affecting this round.
	subs := s.subs
	for _, cur := range subs {
		cur.fn(v)
	}
}

// Clear detaches every subscriber. Used on account teardown.
func (s *Signal[T]) Clear() {
	s.subs = nil
}

// Void is the payload type for signals that carry no data.
type Void = struct{}
