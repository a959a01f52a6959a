package smt

import (
	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
)

// Constraint is a disjunction of conjunctions of linear constraints.
type Constraint [][]Linear

// Single wraps one linear constraint.
func Single(l Linear) Constraint {
	return Constraint{{l}}
}

// Term translates c into a yices term.
func (s *Solver) Term(c Constraint) (yices2.TermT, error) {
	disj := make([]yices2.TermT, 0, len(c))
	for _, conj := range c {
		atoms := make([]yices2.TermT, 0, len(conj))
		if len(conj) == 0 {
			mu.Lock()
			disj = append(disj, yices2.True())
			mu.Unlock()
			continue
		}
		for _, l := range conj {
			t, err := s.Formula(l)
			if err != nil {
				return yices2.NullTerm, err
			}
			atoms = append(atoms, t)
		}
		mu.Lock()
		disj = append(disj, yices2.And(atoms))
		mu.Unlock()
	}
	mu.Lock()
	defer mu.Unlock()
	if len(disj) == 0 {
		return yices2.False(), nil
	}
	return yices2.Or(disj), nil
}

// Result is the outcome of checking a set of constraints.
type Result struct {
	Sat    bool
	Values map[string]int64
	Core   []int
}

// Solve checks the constraints together. When they are satisfiable Values
// holds an assignment of the variables they mention; otherwise Core lists the indices of
// a subset-minimal unsatisfiable subset.
func (s *Solver) Solve(constraints []Constraint) (*Result, error) {
	terms := make([]yices2.TermT, len(constraints))
	for i, c := range constraints {
		t, err := s.Term(c)
		if err != nil {
			return nil, err
		}
		terms[i] = t
	}
	status, model, err := s.Scoped(terms...)
	if err != nil {
		return nil, errors.Wrap(err, "check")
	}
	if status == yices2.StatusSat {
		defer CloseModel(model)
		values, err := s.Values(model, vars(constraints))
		if err != nil {
			return nil, err
		}
		return &Result{Sat: true, Values: values}, nil
	}
	core, err := s.minimize(terms)
	if err != nil {
		return nil, err
	}
	return &Result{Core: core}, nil
}

// minimize removes constraints one at a time while the rest stays
// unsatisfiable.
func (s *Solver) minimize(terms []yices2.TermT) ([]int, error) {
	keep := make([]bool, len(terms))
	for i := range keep {
		keep[i] = true
	}
	for i := range terms {
		keep[i] = false
		subset := make([]yices2.TermT, 0, len(terms))
		for j, t := range terms {
			if keep[j] {
				subset = append(subset, t)
			}
		}
		status, model, err := s.Scoped(subset...)
		if err != nil {
			return nil, errors.Wrap(err, "minimize")
		}
		if status == yices2.StatusSat {
			CloseModel(model)
			keep[i] = true
		}
	}
	var core []int
	for i, k := range keep {
		if k {
			core = append(core, i)
		}
	}
	return core, nil
}
