package asp

import (
	"strings"

	"github.com/pkg/errors"
)

// Part names a program block and the arguments for its parameters.
type Part struct {
	Name string
	Args []Symbol
}

type block struct {
	name   string
	params []string
	stmts  []Statement
}

type program struct {
	blocks    []*block
	consts    map[string]Symbol
	overrides map[string]Symbol
	shown     map[signature]bool
	hideAll   bool
}

func newProgram(overrides map[string]Symbol) *program {
	p := &program{
		consts:    map[string]Symbol{},
		overrides: map[string]Symbol{},
		shown:     map[signature]bool{},
	}
	for k, v := range overrides {
		p.overrides[k] = v
		p.consts[k] = v
	}
	return p
}

func (p *program) block(name string, params []string) *block {
	for _, b := range p.blocks {
		if b.name == name && len(b.params) == len(params) {
			return b
		}
	}
	b := &block{name: name, params: params}
	p.blocks = append(p.blocks, b)
	return b
}

func (p *program) blocksFor(part Part) []*block {
	var out []*block
	for _, b := range p.blocks {
		if b.name == part.Name && len(b.params) == len(part.Args) {
			out = append(out, b)
		}
	}
	return out
}

func (p *program) defineConst(c *ConstDirective) error {
	if _, ok := p.overrides[c.Name]; ok {
		return nil
	}
	vals, err := evalTerm(c.Value, nil, p.consts)
	if err != nil {
		return errors.Wrapf(err, "%s: constant %s", c.Loc, c.Name)
	}
	if len(vals) != 1 {
		return errors.Errorf("%s: constant %s does not denote a single value", c.Loc, c.Name)
	}
	p.consts[c.Name] = vals[0]
	return nil
}

func (p *program) show(d *ShowDirective) {
	if d.Name == "" {
		p.hideAll = true
		return
	}
	p.shown[signature{name: d.Name, arity: d.Arity}] = true
}

func (p *program) isShown(s Symbol) bool {
	if !p.hideAll && len(p.shown) == 0 {
		return true
	}
	return s.typ == SymbolFunction && p.shown[s.signature()]
}

// bodyBound returns the variables bound by the positive literals and
// assignments in lits given the already bound variables.
func bodyBound(lits []BodyLiteral, bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound))
	for k := range bound {
		out[k] = true
	}
	for changed := true; changed; {
		changed = false
		for _, l := range lits {
			switch {
			case l.Comparison != nil:
				if v, _, ok := assignment(l.Comparison, out); ok {
					out[v.Name] = true
					changed = true
				}
			case !l.Negated:
				for v := range termVars(true, l.Atom.Args...) {
					if !out[v] {
						out[v] = true
						changed = true
					}
				}
			}
		}
	}
	return out
}

func literalVars(lits []BodyLiteral, out map[string]bool) {
	for _, l := range lits {
		if l.Comparison != nil {
			collectVars(l.Comparison.Left, out, false)
			collectVars(l.Comparison.Right, out, false)
			continue
		}
		for _, a := range l.Atom.Args {
			collectVars(a, out, false)
		}
	}
}

func unsafeVars(need map[string]bool, bound map[string]bool, out map[string]bool) {
	for v := range need {
		if !bound[v] && !strings.HasPrefix(v, "_") {
			out[v] = true
		} else if !bound[v] {
			out["_"] = true
		}
	}
}

// checkSafety reports variables of a statement that no positive body
// literal binds.
func checkSafety(stmt Statement) error {
	unsafe := map[string]bool{}
	switch s := stmt.(type) {
	case *Rule:
		bound := bodyBound(s.Body, nil)
		need := map[string]bool{}
		literalVars(s.Body, need)
		switch {
		case s.Head != nil:
			for _, a := range s.Head.Args {
				collectVars(a, need, false)
			}
		case s.Theory != nil:
			for _, e := range s.Theory.Elements {
				for _, t := range e {
					collectVars(t, need, false)
				}
			}
			if s.Theory.Rhs != nil {
				collectVars(s.Theory.Rhs, need, false)
			}
		case s.Choice != nil:
			for v := range termVars(false, s.Choice.Lower, s.Choice.Upper) {
				need[v] = true
			}
			for _, e := range s.Choice.Elements {
				local := bodyBound(e.Condition, bound)
				elemNeed := map[string]bool{}
				literalVars(e.Condition, elemNeed)
				for _, a := range e.Atom.Args {
					collectVars(a, elemNeed, false)
				}
				unsafeVars(elemNeed, local, unsafe)
			}
		}
		unsafeVars(need, bound, unsafe)
	case *ExternalDirective:
		bound := bodyBound(s.Body, nil)
		need := map[string]bool{}
		literalVars(s.Body, need)
		for _, a := range s.Atom.Args {
			collectVars(a, need, false)
		}
		unsafeVars(need, bound, unsafe)
	}
	if len(unsafe) > 0 {
		return errors.Errorf("%s: unsafe variables %s in: %s", stmt.Location(), strings.Join(sortedVars(unsafe), ","), stmt)
	}
	return nil
}
