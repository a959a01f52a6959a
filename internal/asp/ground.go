package asp

import (
	"fmt"

	"github.com/pkg/errors"
)

type TruthValue int

const (
	TruthFree TruthValue = iota
	TruthTrue
	TruthFalse
	TruthRelease
)

func (t TruthValue) String() string {
	switch t {
	case TruthFree:
		return "Free"
	case TruthTrue:
		return "True"
	case TruthFalse:
		return "False"
	case TruthRelease:
		return "Release"
	}
	return "Unknown"
}

type groundAtom struct {
	sym      Symbol
	theory   *TheoryAtom
	possible bool
	fact     bool
	external bool
	truth    TruthValue
}

type groundBody struct {
	pos []int
	neg []int
}

func (b groundBody) with(id int, negative bool) groundBody {
	nb := groundBody{pos: b.pos, neg: b.neg}
	if negative {
		nb.neg = append(append(make([]int, 0, len(b.neg)+1), b.neg...), id)
	} else {
		nb.pos = append(append(make([]int, 0, len(b.pos)+1), b.pos...), id)
	}
	return nb
}

func (b groundBody) empty() bool {
	return len(b.pos) == 0 && len(b.neg) == 0
}

type ruleKind int

const (
	ruleNormal ruleKind = iota
	ruleChoice
	ruleIntegrity
)

type groundElement struct {
	atom int
	cond groundBody
}

type groundRule struct {
	kind     ruleKind
	head     int
	elems    []groundElement
	lower    int
	upper    int
	hasUpper bool
	body     groundBody
}

// groundProgram holds the atoms and ground rules of all grounding steps.
type groundProgram struct {
	atoms     []*groundAtom
	index     map[string]int
	bySig     map[signature][]int
	rules     []*groundRule
	ruleIndex map[string]int
	theory    []*TheoryAtom
	changed   bool
}

func newGroundProgram() *groundProgram {
	return &groundProgram{
		index:     map[string]int{},
		bySig:     map[signature][]int{},
		ruleIndex: map[string]int{},
	}
}

func (g *groundProgram) atom(sym Symbol) int {
	key := sym.String()
	if id, ok := g.index[key]; ok {
		return id
	}
	id := len(g.atoms)
	g.atoms = append(g.atoms, &groundAtom{sym: sym, truth: TruthFalse})
	g.index[key] = id
	if sym.typ == SymbolFunction {
		sig := sym.signature()
		g.bySig[sig] = append(g.bySig[sig], id)
	}
	return id
}

func (g *groundProgram) theoryAtom(ta *TheoryAtom) int {
	key := ta.String()
	if id, ok := g.index[key]; ok {
		return id
	}
	id := len(g.atoms)
	ta.Literal = Literal(id + 1)
	g.atoms = append(g.atoms, &groundAtom{theory: ta, truth: TruthFalse})
	g.index[key] = id
	g.theory = append(g.theory, ta)
	return id
}

func (g *groundProgram) lookup(sym Symbol) (int, bool) {
	id, ok := g.index[sym.String()]
	return id, ok
}

func (g *groundProgram) markPossible(id int) {
	if a := g.atoms[id]; !a.possible {
		a.possible = true
		g.changed = true
	}
}

func (g *groundProgram) markFact(id int) {
	g.markPossible(id)
	if a := g.atoms[id]; !a.fact {
		a.fact = true
		a.external = false
		g.changed = true
	}
}

func (g *groundProgram) addRule(key string, r *groundRule) {
	if i, ok := g.ruleIndex[key]; ok {
		g.rules[i] = r
		return
	}
	g.ruleIndex[key] = len(g.rules)
	g.rules = append(g.rules, r)
}

type groundTask struct {
	key    string
	stmt   Statement
	consts map[string]Symbol
}

// ground instantiates the tasks until no new atom becomes possible.
func (g *groundProgram) ground(tasks []groundTask, declared map[string]bool) error {
	for {
		g.changed = false
		for _, t := range tasks {
			if err := g.groundStatement(t, declared); err != nil {
				return errors.Wrapf(err, "%s", t.stmt.Location())
			}
		}
		if !g.changed {
			return nil
		}
	}
}

func (g *groundProgram) groundStatement(t groundTask, declared map[string]bool) error {
	switch s := t.stmt.(type) {
	case *ExternalDirective:
		return g.solveBody(s.Body, nil, groundBody{}, t.consts, func(b bindings, _ groundBody) error {
			syms, err := evalAtom(s.Atom, b, t.consts)
			if err != nil {
				return err
			}
			for _, sym := range syms {
				id := g.atom(sym)
				if a := g.atoms[id]; !a.possible && !a.fact {
					a.external = true
					a.truth = TruthFalse
				}
				g.markPossible(id)
			}
			return nil
		})
	case *Rule:
		return g.solveBody(s.Body, nil, groundBody{}, t.consts, func(b bindings, body groundBody) error {
			bkey := t.key + "|" + b.key(sortedVars(boundNames(b)))
			switch {
			case s.Head != nil:
				syms, err := evalAtom(s.Head, b, t.consts)
				if err != nil {
					return err
				}
				for _, sym := range syms {
					id := g.atom(sym)
					g.addRule(bkey+"|"+sym.String(), &groundRule{kind: ruleNormal, head: id, body: body})
					if body.empty() {
						g.markFact(id)
					} else {
						g.markPossible(id)
					}
				}
			case s.Theory != nil:
				if !declared[s.Theory.Name] {
					return errors.Errorf("theory atom &%s is not declared", s.Theory.Name)
				}
				ta, err := groundTheoryHead(s.Theory, b, t.consts)
				if err != nil {
					return err
				}
				id := g.theoryAtom(ta)
				g.addRule(bkey, &groundRule{kind: ruleNormal, head: id, body: body})
				g.markPossible(id)
			case s.Choice != nil:
				r, err := g.groundChoice(s.Choice, b, body, t.consts)
				if err != nil {
					return err
				}
				g.addRule(bkey, r)
			default:
				g.addRule(bkey, &groundRule{kind: ruleIntegrity, body: body})
			}
			return nil
		})
	}
	return nil
}

func (g *groundProgram) groundChoice(c *Choice, b bindings, body groundBody, consts map[string]Symbol) (*groundRule, error) {
	r := &groundRule{kind: ruleChoice, body: body}
	var err error
	if c.Lower != nil {
		if r.lower, err = evalBound(c.Lower, b, consts); err != nil {
			return nil, err
		}
	}
	if c.Upper != nil {
		if r.upper, err = evalBound(c.Upper, b, consts); err != nil {
			return nil, err
		}
		r.hasUpper = true
	}
	seen := map[string]bool{}
	for _, e := range c.Elements {
		err := g.solveBody(e.Condition, b, groundBody{}, consts, func(lb bindings, cond groundBody) error {
			syms, err := evalAtom(e.Atom, lb, consts)
			if err != nil {
				return err
			}
			for _, sym := range syms {
				id := g.atom(sym)
				key := fmt.Sprint(id, cond.pos, cond.neg)
				if seen[key] {
					continue
				}
				seen[key] = true
				r.elems = append(r.elems, groundElement{atom: id, cond: cond})
				g.markPossible(id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func evalBound(t Term, b bindings, consts map[string]Symbol) (int, error) {
	vals, err := evalTerm(t, b, consts)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 || vals[0].typ != SymbolNumber {
		return 0, errors.Errorf("bound %s is not a number", t)
	}
	return vals[0].num, nil
}

func evalAtom(a *Atom, b bindings, consts map[string]Symbol) ([]Symbol, error) {
	return evalTerm(&FunctionTerm{Name: a.Name, Args: a.Args}, b, consts)
}

func boundNames(b bindings) map[string]bool {
	out := make(map[string]bool, len(b))
	for k := range b {
		out[k] = true
	}
	return out
}

// nextLiteral picks the next literal to instantiate: tests on bound
// literals first, then atoms that can bind further variables.
func nextLiteral(lits []BodyLiteral, done []bool, b bindings) (int, error) {
	bound := boundNames(b)
	candidate := -1
	remaining := false
	for i, l := range lits {
		if done[i] {
			continue
		}
		remaining = true
		switch {
		case l.Comparison != nil:
			if allBound(termVars(false, l.Comparison.Left, l.Comparison.Right), bound) {
				return i, nil
			}
			if _, _, ok := assignment(l.Comparison, bound); ok && candidate < 0 {
				candidate = i
			}
		case l.Negated:
			if allBound(termVars(false, l.Atom.Args...), bound) {
				return i, nil
			}
		default:
			all := termVars(false, l.Atom.Args...)
			if allBound(all, bound) {
				return i, nil
			}
			binding := termVars(true, l.Atom.Args...)
			for v := range binding {
				delete(all, v)
			}
			if allBound(all, bound) && candidate < 0 {
				candidate = i
			}
		}
	}
	if candidate < 0 && remaining {
		return -1, errors.New("no literal can be instantiated")
	}
	return candidate, nil
}

// solveBody enumerates the instances of lits extending b and reports each
// with the ground body literals that are not facts.
func (g *groundProgram) solveBody(lits []BodyLiteral, b bindings, body groundBody, consts map[string]Symbol, fn func(bindings, groundBody) error) error {
	return g.solveBodyFrom(lits, make([]bool, len(lits)), b, body, consts, fn)
}

func (g *groundProgram) solveBodyFrom(lits []BodyLiteral, done []bool, b bindings, body groundBody, consts map[string]Symbol, fn func(bindings, groundBody) error) error {
	idx, err := nextLiteral(lits, done, b)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fn(b, body)
	}
	done[idx] = true
	defer func() { done[idx] = false }()
	next := func(nb bindings, nbody groundBody) error {
		return g.solveBodyFrom(lits, done, nb, nbody, consts, fn)
	}

	lit := lits[idx]
	if c := lit.Comparison; c != nil {
		if v, rhs, ok := assignment(c, boundNames(b)); ok {
			vals, err := evalTerm(rhs, b, consts)
			if err != nil {
				return err
			}
			for _, val := range vals {
				if err := next(b.extend(v.Name, val), body); err != nil {
					return err
				}
			}
			return nil
		}
		left, err := evalTerm(c.Left, b, consts)
		if err != nil {
			return err
		}
		right, err := evalTerm(c.Right, b, consts)
		if err != nil {
			return err
		}
		for _, l := range left {
			for _, r := range right {
				if compareHolds(c.Op, l, r) {
					return next(b, body)
				}
			}
		}
		return nil
	}

	if allBound(termVars(false, lit.Atom.Args...), boundNames(b)) {
		syms, err := evalAtom(lit.Atom, b, consts)
		if err != nil {
			return err
		}
		nbody := body
		for _, sym := range syms {
			id, ok := g.lookup(sym)
			if lit.Negated {
				if ok && g.atoms[id].fact {
					return nil
				}
				if !ok {
					id = g.atom(sym)
				}
				nbody = nbody.with(id, true)
				continue
			}
			if !ok || !g.atoms[id].possible {
				return nil
			}
			if !g.atoms[id].fact {
				nbody = nbody.with(id, false)
			}
		}
		return next(b, nbody)
	}

	sig := signature{name: lit.Atom.Name, arity: len(lit.Atom.Args)}
	term := &FunctionTerm{Name: lit.Atom.Name, Args: lit.Atom.Args}
	for _, id := range g.bySig[sig] {
		a := g.atoms[id]
		if !a.possible {
			continue
		}
		nb, ok, err := matchTerm(term, a.sym, b, consts)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		nbody := body
		if !a.fact {
			nbody = body.with(id, false)
		}
		if err := next(nb, nbody); err != nil {
			return err
		}
	}
	return nil
}
