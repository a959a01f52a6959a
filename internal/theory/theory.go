package theory

import (
	"strconv"

	"aspd/internal/asp"
)

// Kind names a theory extension.
type Kind string

const (
	KindDL       Kind = "dl"
	KindClingcon Kind = "clingcon"
)

type ValueType int

const (
	ValueInt ValueType = iota
	ValueFloat
	ValueSymbol
)

// Value is the value a theory assigns to one of its symbols.
type Value struct {
	Type   ValueType
	Int    int64
	Float  float64
	Symbol asp.Symbol
}

func IntValue(v int64) Value {
	return Value{Type: ValueInt, Int: v}
}

func FloatValue(v float64) Value {
	return Value{Type: ValueFloat, Float: v}
}

func SymbolValue(v asp.Symbol) Value {
	return Value{Type: ValueSymbol, Symbol: v}
}

func (v Value) String() string {
	switch v.Type {
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case ValueSymbol:
		return v.Symbol.String()
	}
	return strconv.FormatInt(v.Int, 10)
}

// Theory extends the engine with a propagator for theory atoms and a value
// assignment reported alongside every model. All hooks fail the surrounding
// operation by returning an error.
type Theory interface {
	asp.Propagator

	Name() string
	// Register declares the theory atoms with ctl and installs prop, which
	// routes engine callbacks back to the theory.
	Register(ctl *asp.Control, prop asp.Propagator) error
	RewriteStatement(stmt asp.Statement, b *asp.ProgramBuilder) error
	// Prepare runs after grounding and before any search.
	Prepare(ctl *asp.Control) error
	OnModel(m *asp.Model) error
	OnStatistics(step, accu asp.UserStatistics) error

	LookupSymbol(sym asp.Symbol) (uint32, bool)
	Symbol(index uint32) asp.Symbol
	AssignmentBegin(thread uint32) uint32
	AssignmentNext(thread, index uint32) (uint32, bool)
	HasValue(thread, index uint32) bool
	Value(thread, index uint32) Value

	Close() error
}
