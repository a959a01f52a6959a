package asp

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// bindings maps variable names to ground symbols. A bindings value is never
// modified once shared; extend returns a copy.
type bindings map[string]Symbol

func (b bindings) extend(name string, s Symbol) bindings {
	nb := make(bindings, len(b)+1)
	for k, v := range b {
		nb[k] = v
	}
	nb[name] = s
	return nb
}

// key renders the bindings of the given variables in a canonical way.
func (b bindings) key(vars []string) string {
	var sb strings.Builder
	for _, v := range vars {
		sb.WriteString(v)
		sb.WriteByte('=')
		if s, ok := b[v]; ok {
			s.write(&sb)
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// evalTerm evaluates t under b. Intervals may yield several symbols and
// undefined arithmetic yields none.
func evalTerm(t Term, b bindings, consts map[string]Symbol) ([]Symbol, error) {
	switch t := t.(type) {
	case *SymbolTerm:
		return []Symbol{t.Symbol}, nil
	case *Variable:
		s, ok := b[t.Name]
		if !ok {
			return nil, errors.Errorf("variable %s is unbound", t.Name)
		}
		return []Symbol{s}, nil
	case *FunctionTerm:
		if t.Name != "" && len(t.Args) == 0 {
			if c, ok := consts[t.Name]; ok {
				return []Symbol{c}, nil
			}
			return []Symbol{NewFunction(t.Name)}, nil
		}
		argSets := make([][]Symbol, len(t.Args))
		for i, a := range t.Args {
			vals, err := evalTerm(a, b, consts)
			if err != nil {
				return nil, err
			}
			if len(vals) == 0 {
				return nil, nil
			}
			argSets[i] = vals
		}
		var out []Symbol
		product(argSets, func(args []Symbol) {
			out = append(out, Symbol{typ: SymbolFunction, name: t.Name, args: append([]Symbol(nil), args...)})
		})
		return out, nil
	case *UnaryTerm:
		vals, err := evalTerm(t.Arg, b, consts)
		if err != nil {
			return nil, err
		}
		var out []Symbol
		for _, v := range vals {
			if v.typ == SymbolNumber {
				out = append(out, NewNumber(-v.num))
			}
		}
		return out, nil
	case *BinaryTerm:
		left, err := evalTerm(t.Left, b, consts)
		if err != nil {
			return nil, err
		}
		right, err := evalTerm(t.Right, b, consts)
		if err != nil {
			return nil, err
		}
		var out []Symbol
		for _, l := range left {
			for _, r := range right {
				if l.typ != SymbolNumber || r.typ != SymbolNumber {
					continue
				}
				if n, ok := arith(t.Op, l.num, r.num); ok {
					out = append(out, NewNumber(n))
				}
			}
		}
		return out, nil
	case *IntervalTerm:
		lo, err := evalTerm(t.Lo, b, consts)
		if err != nil {
			return nil, err
		}
		hi, err := evalTerm(t.Hi, b, consts)
		if err != nil {
			return nil, err
		}
		var out []Symbol
		for _, l := range lo {
			for _, h := range hi {
				if l.typ != SymbolNumber || h.typ != SymbolNumber {
					continue
				}
				for n := l.num; n <= h.num; n++ {
					out = append(out, NewNumber(n))
				}
			}
		}
		return out, nil
	}
	return nil, errors.Errorf("cannot evaluate term %v", t)
}

func arith(op string, a, b int) (int, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "\\":
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case "**":
		if b < 0 {
			return 0, false
		}
		r := 1
		for ; b > 0; b-- {
			r *= a
		}
		return r, true
	}
	return 0, false
}

func product(sets [][]Symbol, fn func([]Symbol)) {
	cur := make([]Symbol, len(sets))
	var rec func(int)
	rec = func(i int) {
		if i == len(sets) {
			fn(cur)
			return
		}
		for _, s := range sets[i] {
			cur[i] = s
			rec(i + 1)
		}
	}
	rec(0)
}

// matchTerm unifies t with the ground symbol s, extending b with bindings for
// variables in binding positions.
func matchTerm(t Term, s Symbol, b bindings, consts map[string]Symbol) (bindings, bool, error) {
	switch t := t.(type) {
	case *SymbolTerm:
		return b, t.Symbol.Equal(s), nil
	case *Variable:
		if v, ok := b[t.Name]; ok {
			return b, v.Equal(s), nil
		}
		return b.extend(t.Name, s), true, nil
	case *FunctionTerm:
		if t.Name != "" && len(t.Args) == 0 {
			if c, ok := consts[t.Name]; ok {
				return b, c.Equal(s), nil
			}
		}
		if s.typ != SymbolFunction || s.name != t.Name || len(s.args) != len(t.Args) {
			return b, false, nil
		}
		for i, a := range t.Args {
			var ok bool
			var err error
			if b, ok, err = matchTerm(a, s.args[i], b, consts); err != nil || !ok {
				return b, false, err
			}
		}
		return b, true, nil
	}
	vals, err := evalTerm(t, b, consts)
	if err != nil {
		return b, false, err
	}
	for _, v := range vals {
		if v.Equal(s) {
			return b, true, nil
		}
	}
	return b, false, nil
}

// collectVars adds the variables of t to out. With bindingOnly set, only
// variables that matching can bind are collected.
func collectVars(t Term, out map[string]bool, bindingOnly bool) {
	switch t := t.(type) {
	case *Variable:
		out[t.Name] = true
	case *FunctionTerm:
		for _, a := range t.Args {
			collectVars(a, out, bindingOnly)
		}
	case *BinaryTerm:
		if !bindingOnly {
			collectVars(t.Left, out, false)
			collectVars(t.Right, out, false)
		}
	case *UnaryTerm:
		if !bindingOnly {
			collectVars(t.Arg, out, false)
		}
	case *IntervalTerm:
		if !bindingOnly {
			collectVars(t.Lo, out, false)
			collectVars(t.Hi, out, false)
		}
	}
}

func termVars(bindingOnly bool, ts ...Term) map[string]bool {
	out := map[string]bool{}
	for _, t := range ts {
		if t != nil {
			collectVars(t, out, bindingOnly)
		}
	}
	return out
}

func sortedVars(vs map[string]bool) []string {
	out := make([]string, 0, len(vs))
	for v := range vs {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func allBound(vs map[string]bool, b map[string]bool) bool {
	for v := range vs {
		if !b[v] {
			return false
		}
	}
	return true
}

func compareHolds(op string, l, r Symbol) bool {
	c := l.Compare(r)
	switch op {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// assignment reports whether c binds a single unbound variable on one side
// from a side whose variables are all bound.
func assignment(c *Comparison, bound map[string]bool) (*Variable, Term, bool) {
	if c.Op != "=" {
		return nil, nil, false
	}
	if v, ok := c.Left.(*Variable); ok && !bound[v.Name] && allBound(termVars(false, c.Right), bound) {
		return v, c.Right, true
	}
	if v, ok := c.Right.(*Variable); ok && !bound[v.Name] && allBound(termVars(false, c.Left), bound) {
		return v, c.Left, true
	}
	return nil, nil, false
}
