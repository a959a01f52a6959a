package asp

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

type support struct {
	lit z.Lit
	pos []int
}

// encoding is the propositional translation of a ground program: Clark's
// completion on a gini circuit, with loop nogoods added on demand.
type encoding struct {
	gp       *groundProgram
	c        *logic.C
	g        *gini.Gini
	atoms    []z.Lit
	bodies   map[string]z.Lit
	supports [][]support
	roots    []z.Lit
	clauses  int
}

func encode(gp *groundProgram) *encoding {
	e := &encoding{
		gp:       gp,
		c:        logic.NewC(),
		atoms:    make([]z.Lit, len(gp.atoms)),
		bodies:   map[string]z.Lit{},
		supports: make([][]support, len(gp.atoms)),
	}
	for id, a := range gp.atoms {
		switch {
		case a.fact:
			e.atoms[id] = e.c.T
		case !a.possible:
			e.atoms[id] = e.c.F
		default:
			e.atoms[id] = e.c.Lit()
		}
	}
	for _, r := range gp.rules {
		e.rule(r)
	}
	for id, a := range gp.atoms {
		if a.fact || !a.possible || a.external {
			continue
		}
		lits := make([]z.Lit, len(e.supports[id]))
		for i, s := range e.supports[id] {
			lits[i] = s.lit
		}
		e.require(e.c.Implies(e.atoms[id], e.c.Ors(lits...)))
	}

	e.g = gini.New()
	e.c.ToCnf(e.g)
	e.addClause(e.c.T)
	for _, r := range e.roots {
		e.addClause(r)
	}
	return e
}

func (e *encoding) require(m z.Lit) {
	if m != e.c.T {
		e.roots = append(e.roots, m)
	}
}

func (e *encoding) addClause(ms ...z.Lit) {
	for _, m := range ms {
		e.g.Add(m)
	}
	e.g.Add(z.LitNull)
	e.clauses++
}

func (e *encoding) body(b groundBody) z.Lit {
	if b.empty() {
		return e.c.T
	}
	lits := make([]z.Lit, 0, len(b.pos)+len(b.neg))
	for _, id := range b.pos {
		lits = append(lits, e.atoms[id])
	}
	for _, id := range b.neg {
		lits = append(lits, e.atoms[id].Not())
	}
	key := bodyKey(lits)
	if m, ok := e.bodies[key]; ok {
		return m
	}
	m := e.c.Ands(lits...)
	e.bodies[key] = m
	return m
}

func bodyKey(lits []z.Lit) string {
	buf := make([]byte, 0, 4*len(lits))
	for _, m := range lits {
		v := uint32(m)
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return string(buf)
}

func (e *encoding) rule(r *groundRule) {
	body := e.body(r.body)
	switch r.kind {
	case ruleIntegrity:
		e.require(body.Not())
	case ruleNormal:
		e.require(e.c.Implies(body, e.atoms[r.head]))
		e.supports[r.head] = append(e.supports[r.head], support{lit: body, pos: r.body.pos})
	case ruleChoice:
		counted := make([]z.Lit, 0, len(r.elems))
		for _, el := range r.elems {
			cond := e.body(el.cond)
			pos := append(append([]int(nil), r.body.pos...), el.cond.pos...)
			e.supports[el.atom] = append(e.supports[el.atom], support{lit: e.c.And(body, cond), pos: pos})
			counted = append(counted, e.c.And(e.atoms[el.atom], cond))
		}
		if r.lower <= 0 && !r.hasUpper {
			return
		}
		if len(counted) == 0 {
			if r.lower > 0 || r.upper < 0 {
				e.require(body.Not())
			}
			return
		}
		cs := e.c.CardSort(counted)
		if r.lower > 0 {
			e.require(e.c.Implies(body, cs.Geq(r.lower)))
		}
		if r.hasUpper {
			e.require(e.c.Implies(body, cs.Leq(r.upper)))
		}
	}
}

func (e *encoding) lit(l Literal) z.Lit {
	id := int(l)
	if id < 0 {
		return e.atoms[-id-1].Not()
	}
	return e.atoms[id-1]
}

func (e *encoding) isTrue(id int) bool {
	return e.g.Value(e.atoms[id])
}

// unfounded returns the atoms that are true in the current assignment but
// lack a well-founded derivation.
func (e *encoding) unfounded() []int {
	derived := make([]bool, len(e.atoms))
	for id, a := range e.gp.atoms {
		if a.fact || (a.external && e.isTrue(id)) {
			derived[id] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for id := range e.atoms {
			if derived[id] || !e.gp.atoms[id].possible || !e.isTrue(id) {
				continue
			}
			for _, s := range e.supports[id] {
				if e.g.Value(s.lit) && allDerived(s.pos, derived) {
					derived[id] = true
					changed = true
					break
				}
			}
		}
	}
	var out []int
	for id, a := range e.gp.atoms {
		if a.possible && !derived[id] && e.isTrue(id) {
			out = append(out, id)
		}
	}
	return out
}

func allDerived(ids []int, derived []bool) bool {
	for _, id := range ids {
		if !derived[id] {
			return false
		}
	}
	return true
}

// addLoopNogoods forbids the atoms of an unfounded set to be true without
// support from outside the set.
func (e *encoding) addLoopNogoods(set []int) {
	in := make(map[int]bool, len(set))
	for _, id := range set {
		in[id] = true
	}
	var external []z.Lit
	for _, id := range set {
		for _, s := range e.supports[id] {
			inside := false
			for _, p := range s.pos {
				if in[p] {
					inside = true
					break
				}
			}
			if !inside {
				external = append(external, s.lit)
			}
		}
	}
	for _, id := range set {
		e.addClause(append([]z.Lit{e.atoms[id].Not()}, external...)...)
	}
}

// block forbids the current assignment of the program atoms.
func (e *encoding) block() {
	var clause []z.Lit
	for id, a := range e.gp.atoms {
		if a.fact || !a.possible {
			continue
		}
		if e.isTrue(id) {
			clause = append(clause, e.atoms[id].Not())
		} else {
			clause = append(clause, e.atoms[id])
		}
	}
	if len(clause) == 0 {
		clause = append(clause, e.c.F)
	}
	e.addClause(clause...)
}

// assumptions returns the literals fixed by externals and the given
// program literals.
func (e *encoding) assumptions(extra []Literal) []z.Lit {
	var out []z.Lit
	for id, a := range e.gp.atoms {
		if !a.external || a.fact {
			continue
		}
		switch a.truth {
		case TruthTrue:
			out = append(out, e.atoms[id])
		case TruthFalse:
			out = append(out, e.atoms[id].Not())
		}
	}
	for _, l := range extra {
		out = append(out, e.lit(l))
	}
	return out
}
