package theory

import (
	"aspd/internal/asp"
)

// Base keeps the symbol table and the per thread assignment of a theory.
// Symbol indices start at 1.
type Base struct {
	symbols []asp.Symbol
	index   map[string]uint32
	values  map[uint32]map[uint32]Value
}

func NewBase() Base {
	return Base{
		index:  make(map[string]uint32),
		values: make(map[uint32]map[uint32]Value),
	}
}

// Intern returns the index of sym, adding it on first use.
func (b *Base) Intern(sym asp.Symbol) uint32 {
	key := sym.String()
	if idx, ok := b.index[key]; ok {
		return idx
	}
	b.symbols = append(b.symbols, sym)
	idx := uint32(len(b.symbols))
	b.index[key] = idx
	return idx
}

func (b *Base) Size() int {
	return len(b.symbols)
}

func (b *Base) LookupSymbol(sym asp.Symbol) (uint32, bool) {
	idx, ok := b.index[sym.String()]
	return idx, ok
}

func (b *Base) Symbol(index uint32) asp.Symbol {
	if index == 0 || int(index) > len(b.symbols) {
		return asp.Symbol{}
	}
	return b.symbols[index-1]
}

// SetAssignment replaces the values of a thread.
func (b *Base) SetAssignment(thread uint32, values map[uint32]Value) {
	b.values[thread] = values
}

func (b *Base) AssignmentBegin(uint32) uint32 {
	return 0
}

func (b *Base) AssignmentNext(_ uint32, index uint32) (uint32, bool) {
	if int(index) >= len(b.symbols) {
		return 0, false
	}
	return index + 1, true
}

func (b *Base) HasValue(thread, index uint32) bool {
	_, ok := b.values[thread][index]
	return ok
}

func (b *Base) Value(thread, index uint32) Value {
	return b.values[thread][index]
}
