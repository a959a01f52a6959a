package clingcon

import (
	"aspd/internal/asp"
	"aspd/internal/smt"
	"aspd/internal/theory"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var atomNames = []string{"sum", "diff", "dom", "distinct"}

type counters struct {
	checks    int
	conflicts int
	models    int
}

// Theory handles linear integer constraints over named variables:
//
//	&sum{ 2*x; y; -3 } <= 5
//	&diff{ x - y } < 2
//	&dom{ 1..5; 9 } = x
//	&distinct{ x; y; z }
type Theory struct {
	theory.Base
	solver      *smt.Solver
	vars        map[string]uint32
	constraints map[asp.Literal]smt.Constraint
	step        counters
}

func New() (theory.Theory, error) {
	return &Theory{
		Base:        theory.NewBase(),
		solver:      smt.NewSolver(),
		vars:        make(map[string]uint32),
		constraints: make(map[asp.Literal]smt.Constraint),
	}, nil
}

func (t *Theory) Name() string {
	return string(theory.KindClingcon)
}

func (t *Theory) Register(ctl *asp.Control, prop asp.Propagator) error {
	return ctl.RegisterTheory(atomNames, prop)
}

func (t *Theory) RewriteStatement(stmt asp.Statement, b *asp.ProgramBuilder) error {
	if rule, ok := stmt.(*asp.Rule); ok && rule.Theory != nil && rule.Theory.Name == "dom" {
		if rule.Theory.Guard != "=" || rule.Theory.Rhs == nil {
			return errors.Errorf("%s: &dom requires a guard = variable", rule.Loc)
		}
	}
	return b.Add(stmt)
}

// Prepare translates every ground theory atom into a constraint.
func (t *Theory) Prepare(ctl *asp.Control) error {
	t.constraints = make(map[asp.Literal]smt.Constraint)
	for _, ta := range ctl.TheoryAtoms() {
		c, err := t.translate(ta)
		if err != nil {
			return errors.Wrapf(err, "translate %s", ta)
		}
		t.constraints[ta.Literal] = c
	}
	log.WithFields(log.Fields{
		"constraints": len(t.constraints),
		"variables":   len(t.vars),
	}).Debug("linear constraints prepared")
	return nil
}

func (t *Theory) translate(ta *asp.TheoryAtom) (smt.Constraint, error) {
	switch ta.Name {
	case "sum", "diff":
		if ta.Rhs == nil {
			return nil, errors.New("missing guard")
		}
		var lhs []smt.Product
		for _, elem := range ta.Elements {
			ps, err := t.linear(elem[0])
			if err != nil {
				return nil, err
			}
			lhs = append(lhs, ps...)
		}
		rhs, err := t.linear(*ta.Rhs)
		if err != nil {
			return nil, err
		}
		return smt.Single(smt.Linear{Terms: append(lhs, negate(rhs)...), Op: ta.Guard}), nil
	case "dom":
		if ta.Rhs == nil || !ta.Rhs.IsSymbol() || ta.Rhs.Symbol.Type() == asp.SymbolNumber {
			return nil, errors.New("domain of a non-variable")
		}
		x := t.variable(ta.Rhs.Symbol)
		var c smt.Constraint
		for _, elem := range ta.Elements {
			lo, hi, err := bounds(elem[0])
			if err != nil {
				return nil, err
			}
			c = append(c, []smt.Linear{
				{Terms: []smt.Product{{Coef: 1, Var: x}}, Op: ">=", Rhs: lo},
				{Terms: []smt.Product{{Coef: 1, Var: x}}, Op: "<=", Rhs: hi},
			})
		}
		return c, nil
	case "distinct":
		exprs := make([][]smt.Product, len(ta.Elements))
		for i, elem := range ta.Elements {
			ps, err := t.linear(elem[0])
			if err != nil {
				return nil, err
			}
			exprs[i] = ps
		}
		var conj []smt.Linear
		for i := range exprs {
			for j := i + 1; j < len(exprs); j++ {
				terms := append(append([]smt.Product(nil), exprs[i]...), negate(exprs[j])...)
				conj = append(conj, smt.Linear{Terms: terms, Op: "!="})
			}
		}
		return smt.Constraint{conj}, nil
	}
	return nil, errors.Errorf("unknown constraint &%s", ta.Name)
}

func (t *Theory) variable(sym asp.Symbol) string {
	name := sym.String()
	if _, ok := t.vars[name]; !ok {
		t.vars[name] = t.Intern(sym)
	}
	return name
}

// linear flattens a theory term into a sum of products.
func (t *Theory) linear(term asp.TheoryTerm) ([]smt.Product, error) {
	if term.IsSymbol() {
		if term.Symbol.Type() == asp.SymbolNumber {
			return []smt.Product{{Coef: int64(term.Symbol.Number())}}, nil
		}
		return []smt.Product{{Coef: 1, Var: t.variable(term.Symbol)}}, nil
	}
	args := make([][]smt.Product, len(term.Args))
	for i, a := range term.Args {
		ps, err := t.linear(a)
		if err != nil {
			return nil, err
		}
		args[i] = ps
	}
	switch {
	case term.Op == "-" && len(args) == 1:
		return negate(args[0]), nil
	case term.Op == "-" && len(args) == 2:
		return append(args[0], negate(args[1])...), nil
	case term.Op == "+" && len(args) == 2:
		return append(args[0], args[1]...), nil
	case term.Op == "*" && len(args) == 2:
		if k, ok := constant(args[0]); ok {
			return scale(args[1], k), nil
		}
		if k, ok := constant(args[1]); ok {
			return scale(args[0], k), nil
		}
		return nil, errors.Errorf("non-linear term %s", term)
	}
	return nil, errors.Errorf("unsupported term %s", term)
}

func constant(ps []smt.Product) (int64, bool) {
	var k int64
	for _, p := range ps {
		if p.Var != "" {
			return 0, false
		}
		k += p.Coef
	}
	return k, true
}

func scale(ps []smt.Product, k int64) []smt.Product {
	out := make([]smt.Product, len(ps))
	for i, p := range ps {
		out[i] = smt.Product{Coef: p.Coef * k, Var: p.Var}
	}
	return out
}

func negate(ps []smt.Product) []smt.Product {
	return scale(ps, -1)
}

func bounds(term asp.TheoryTerm) (int64, int64, error) {
	if term.IsSymbol() && term.Symbol.Type() == asp.SymbolNumber {
		n := int64(term.Symbol.Number())
		return n, n, nil
	}
	if term.Op == ".." && len(term.Args) == 2 {
		lo, hi := term.Args[0], term.Args[1]
		if lo.IsSymbol() && hi.IsSymbol() &&
			lo.Symbol.Type() == asp.SymbolNumber && hi.Symbol.Type() == asp.SymbolNumber {
			return int64(lo.Symbol.Number()), int64(hi.Symbol.Number()), nil
		}
	}
	return 0, 0, errors.Errorf("invalid domain element %s", term)
}

// Check asserts the constraints of the active atoms. An unsatisfiable set
// is shrunk to a minimal conflict.
func (t *Theory) Check(thread uint32, active []*asp.TheoryAtom) ([]*asp.TheoryAtom, error) {
	t.step.checks++
	atoms := make([]*asp.TheoryAtom, 0, len(active))
	constraints := make([]smt.Constraint, 0, len(active))
	for _, ta := range active {
		c, ok := t.constraints[ta.Literal]
		if !ok {
			continue
		}
		atoms = append(atoms, ta)
		constraints = append(constraints, c)
	}
	res, err := t.solver.Solve(constraints)
	if err != nil {
		return nil, err
	}
	if !res.Sat {
		t.step.conflicts++
		conflict := make([]*asp.TheoryAtom, len(res.Core))
		for i, idx := range res.Core {
			conflict[i] = atoms[idx]
		}
		return conflict, nil
	}
	values := make(map[uint32]theory.Value, len(res.Values))
	for name, v := range res.Values {
		values[t.vars[name]] = theory.IntValue(v)
	}
	t.SetAssignment(thread, values)
	return nil, nil
}

func (t *Theory) OnModel(*asp.Model) error {
	t.step.models++
	return nil
}

func (t *Theory) OnStatistics(step, accu asp.UserStatistics) error {
	if err := step.Set("Clingcon.Constraints", float64(len(t.constraints))); err != nil {
		return err
	}
	if err := step.Set("Clingcon.Variables", float64(len(t.vars))); err != nil {
		return err
	}
	for _, c := range []struct {
		name string
		v    int
	}{
		{"Checks", t.step.checks},
		{"Conflicts", t.step.conflicts},
		{"Models", t.step.models},
	} {
		if err := step.Set("Clingcon."+c.name, float64(c.v)); err != nil {
			return err
		}
		if err := accu.Add("Clingcon."+c.name, float64(c.v)); err != nil {
			return err
		}
	}
	t.step = counters{}
	return nil
}

func (t *Theory) Close() error {
	t.solver.Close()
	return nil
}
