package asp

import (
	"strings"

	"github.com/pkg/errors"
)

// TheoryTerm is a ground theory term. Terms with an empty Op are symbols,
// all others are operator applications such as x-y or 1..5.
type TheoryTerm struct {
	Op     string
	Args   []TheoryTerm
	Symbol Symbol
}

func (t TheoryTerm) IsSymbol() bool {
	return t.Op == ""
}

func (t TheoryTerm) String() string {
	if t.IsSymbol() {
		return t.Symbol.String()
	}
	if len(t.Args) == 1 {
		return t.Op + t.Args[0].String()
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, t.Op) + ")"
}

// TheoryAtom is a ground theory atom. Its literal is true in a model iff the
// atom has to hold in the theory.
type TheoryAtom struct {
	Literal  Literal
	Name     string
	Elements [][]TheoryTerm
	Guard    string
	Rhs      *TheoryTerm
}

func (a *TheoryAtom) String() string {
	elems := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts := make([]string, len(e))
		for j, t := range e {
			parts[j] = t.String()
		}
		elems[i] = strings.Join(parts, ",")
	}
	s := "&" + a.Name + "{" + strings.Join(elems, ";") + "}"
	if a.Rhs != nil {
		s += a.Guard + a.Rhs.String()
	}
	return s
}

// Propagator checks the theory atoms that are true in a candidate model. A
// non-empty conflict rejects the candidate; the engine then forbids the
// conflicting atoms to hold together.
type Propagator interface {
	Check(thread uint32, active []*TheoryAtom) (conflict []*TheoryAtom, err error)
}

func groundTheoryTerm(t Term, b bindings, consts map[string]Symbol) (TheoryTerm, error) {
	switch t := t.(type) {
	case *SymbolTerm:
		return TheoryTerm{Symbol: t.Symbol}, nil
	case *Variable:
		s, ok := b[t.Name]
		if !ok {
			return TheoryTerm{}, errors.Errorf("variable %s is unbound", t.Name)
		}
		return TheoryTerm{Symbol: s}, nil
	case *FunctionTerm:
		vals, err := evalTerm(t, b, consts)
		if err != nil {
			return TheoryTerm{}, err
		}
		if len(vals) != 1 {
			return TheoryTerm{}, errors.Errorf("theory term %s does not denote a single symbol", t)
		}
		return TheoryTerm{Symbol: vals[0]}, nil
	case *UnaryTerm:
		arg, err := groundTheoryTerm(t.Arg, b, consts)
		if err != nil {
			return TheoryTerm{}, err
		}
		if arg.IsSymbol() && arg.Symbol.typ == SymbolNumber {
			return TheoryTerm{Symbol: NewNumber(-arg.Symbol.num)}, nil
		}
		return TheoryTerm{Op: "-", Args: []TheoryTerm{arg}}, nil
	case *BinaryTerm:
		return groundTheoryOp(t.Op, t.Left, t.Right, b, consts)
	case *IntervalTerm:
		return groundTheoryOp("..", t.Lo, t.Hi, b, consts)
	}
	return TheoryTerm{}, errors.Errorf("unsupported theory term %v", t)
}

func groundTheoryOp(op string, l, r Term, b bindings, consts map[string]Symbol) (TheoryTerm, error) {
	left, err := groundTheoryTerm(l, b, consts)
	if err != nil {
		return TheoryTerm{}, err
	}
	right, err := groundTheoryTerm(r, b, consts)
	if err != nil {
		return TheoryTerm{}, err
	}
	if op != ".." && left.IsSymbol() && right.IsSymbol() &&
		left.Symbol.typ == SymbolNumber && right.Symbol.typ == SymbolNumber {
		if n, ok := arith(op, left.Symbol.num, right.Symbol.num); ok {
			return TheoryTerm{Symbol: NewNumber(n)}, nil
		}
	}
	return TheoryTerm{Op: op, Args: []TheoryTerm{left, right}}, nil
}

func groundTheoryHead(th *TheoryHead, b bindings, consts map[string]Symbol) (*TheoryAtom, error) {
	ta := &TheoryAtom{Name: th.Name, Guard: th.Guard}
	for _, e := range th.Elements {
		elem := make([]TheoryTerm, len(e))
		for i, t := range e {
			gt, err := groundTheoryTerm(t, b, consts)
			if err != nil {
				return nil, err
			}
			elem[i] = gt
		}
		ta.Elements = append(ta.Elements, elem)
	}
	if th.Rhs != nil {
		rhs, err := groundTheoryTerm(th.Rhs, b, consts)
		if err != nil {
			return nil, err
		}
		ta.Rhs = &rhs
	}
	return ta, nil
}
