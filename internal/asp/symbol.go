package asp

import (
	"strconv"
	"strings"
)

type SymbolType int

const (
	SymbolNumber SymbolType = iota
	SymbolFunction
	SymbolString
)

func (t SymbolType) String() string {
	switch t {
	case SymbolNumber:
		return "Number"
	case SymbolFunction:
		return "Function"
	case SymbolString:
		return "String"
	}
	return "Unknown"
}

// Symbol is a ground term. Tuples are functions with an empty name.
type Symbol struct {
	typ  SymbolType
	num  int
	name string
	args []Symbol
}

func NewNumber(n int) Symbol {
	return Symbol{typ: SymbolNumber, num: n}
}

func NewString(s string) Symbol {
	return Symbol{typ: SymbolString, name: s}
}

func NewFunction(name string, args ...Symbol) Symbol {
	return Symbol{typ: SymbolFunction, name: name, args: args}
}

func NewTuple(args ...Symbol) Symbol {
	return Symbol{typ: SymbolFunction, args: args}
}

func (s Symbol) Type() SymbolType {
	return s.typ
}

func (s Symbol) Number() int {
	return s.num
}

// Name returns the function name, or the content of a string symbol.
func (s Symbol) Name() string {
	return s.name
}

func (s Symbol) Args() []Symbol {
	return s.args
}

func (s Symbol) Arity() int {
	return len(s.args)
}

func (s Symbol) IsTuple() bool {
	return s.typ == SymbolFunction && s.name == ""
}

func (s Symbol) Equal(o Symbol) bool {
	return s.Compare(o) == 0
}

// Compare orders numbers before functions before strings. Functions are
// ordered by arity, then name, then arguments.
func (s Symbol) Compare(o Symbol) int {
	if s.typ != o.typ {
		if s.typ < o.typ {
			return -1
		}
		return 1
	}
	switch s.typ {
	case SymbolNumber:
		return compareInt(s.num, o.num)
	case SymbolString:
		return strings.Compare(s.name, o.name)
	}
	if c := compareInt(len(s.args), len(o.args)); c != 0 {
		return c
	}
	if c := strings.Compare(s.name, o.name); c != 0 {
		return c
	}
	for i := range s.args {
		if c := s.args[i].Compare(o.args[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s Symbol) String() string {
	var sb strings.Builder
	s.write(&sb)
	return sb.String()
}

func (s Symbol) write(sb *strings.Builder) {
	switch s.typ {
	case SymbolNumber:
		sb.WriteString(strconv.Itoa(s.num))
	case SymbolString:
		sb.WriteByte('"')
		sb.WriteString(quoteReplacer.Replace(s.name))
		sb.WriteByte('"')
	case SymbolFunction:
		sb.WriteString(s.name)
		if len(s.args) == 0 && s.name != "" {
			return
		}
		sb.WriteByte('(')
		for i, a := range s.args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.write(sb)
		}
		if s.name == "" && len(s.args) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	}
}

var quoteReplacer = strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n")

// signature identifies a predicate by name and arity.
type signature struct {
	name  string
	arity int
}

func (s Symbol) signature() signature {
	return signature{name: s.name, arity: len(s.args)}
}
