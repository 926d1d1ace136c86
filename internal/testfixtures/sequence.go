package testfixtures

import "sync"

// Sequence produces deterministic monotonic identifiers for tests.
type Sequence struct {
	mu      sync.Mutex
	current int64
}

// NewSequence constructs a sequence starting after the given value.
func NewSequence(start int64) *Sequence {
	return &Sequence{current: start}
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	return s.current
}

// Current returns the last issued identifier without advancing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
