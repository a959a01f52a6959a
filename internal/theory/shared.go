package theory

import (
	"sync"

	"aspd/internal/asp"
)

// Shared is the single handle to an attached theory. The session and the
// event handler of a running search both hold it; the theory is only
// touched with the mutex held.
type Shared struct {
	mu   sync.Mutex
	kind Kind
	t    Theory
}

func NewShared(kind Kind, t Theory) *Shared {
	return &Shared{kind: kind, t: t}
}

func (s *Shared) Kind() Kind {
	return s.kind
}

// Do runs fn with exclusive access to the theory.
func (s *Shared) Do(fn func(Theory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.t)
}

// Register declares the theory with ctl. Engine callbacks go through s.
func (s *Shared) Register(ctl *asp.Control) error {
	return s.Do(func(t Theory) error {
		return t.Register(ctl, s)
	})
}

func (s *Shared) Check(thread uint32, active []*asp.TheoryAtom) ([]*asp.TheoryAtom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.Check(thread, active)
}

func (s *Shared) Close() error {
	return s.Do(Theory.Close)
}
