package chat

import "sync/atomic"

// SubmissionSignal serializes prompt submissions: at most one generation is
// in flight per signal at any time.
type SubmissionSignal interface {
	// TryBegin claims the in-flight slot. It returns false when a
	// submission is already running.
	TryBegin() bool
	// End releases the slot. Safe to call when the slot is free.
	End()
	// InFlight reports whether a submission currently holds the slot.
	InFlight() bool
}

// AtomicSignal is the default SubmissionSignal, one compare-and-swap flag.
type AtomicSignal struct {
	busy atomic.Bool
}

func NewAtomicSignal() *AtomicSignal {
	return &AtomicSignal{}
}

func (s *AtomicSignal) TryBegin() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *AtomicSignal) End() {
	s.busy.Store(false)
}

func (s *AtomicSignal) InFlight() bool {
	return s.busy.Load()
}
