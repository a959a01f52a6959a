package theory

import (
	"aspd/internal/asp"
)

// Assignment iterates over the symbols of a theory that have a value for
// one thread. Each call to NewAssignment starts from the beginning.
type Assignment struct {
	t      Theory
	thread uint32
	index  uint32
}

func NewAssignment(t Theory, thread uint32) *Assignment {
	return &Assignment{t: t, thread: thread, index: t.AssignmentBegin(thread)}
}

func (a *Assignment) Next() (asp.Symbol, Value, bool) {
	for {
		idx, ok := a.t.AssignmentNext(a.thread, a.index)
		if !ok {
			return asp.Symbol{}, Value{}, false
		}
		a.index = idx
		if a.t.HasValue(a.thread, idx) {
			return a.t.Symbol(idx), a.t.Value(a.thread, idx), true
		}
	}
}
