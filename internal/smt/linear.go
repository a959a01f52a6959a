package smt

import (
	"fmt"
	"strconv"
	"strings"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
)

// Product is a coefficient times a variable. An empty variable makes the
// product a constant.
type Product struct {
	Coef int64
	Var  string
}

// Linear is the constraint sum(Terms) Op Rhs over integers.
type Linear struct {
	Terms []Product
	Op    string
	Rhs   int64
}

func (l Linear) String() string {
	parts := make([]string, 0, len(l.Terms))
	for _, p := range l.Terms {
		switch {
		case p.Var == "":
			parts = append(parts, strconv.FormatInt(p.Coef, 10))
		case p.Coef == 1:
			parts = append(parts, p.Var)
		default:
			parts = append(parts, fmt.Sprintf("%d*%s", p.Coef, p.Var))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, "+") + l.Op + strconv.FormatInt(l.Rhs, 10)
}

// Formula translates l into a yices term.
func (s *Solver) Formula(l Linear) (yices2.TermT, error) {
	sum := make([]yices2.TermT, 0, len(l.Terms))
	for _, p := range l.Terms {
		if p.Var == "" {
			sum = append(sum, s.constant(p.Coef))
			continue
		}
		v := s.IntVar(p.Var)
		mu.Lock()
		sum = append(sum, yices2.Mul(yices2.Int64(p.Coef), v))
		mu.Unlock()
	}
	mu.Lock()
	defer mu.Unlock()
	lhs := yices2.Zero()
	for _, t := range sum {
		lhs = yices2.Add(lhs, t)
	}
	rhs := yices2.Int64(l.Rhs)
	var atom yices2.TermT
	switch l.Op {
	case "<=":
		atom = yices2.ArithLeqAtom(lhs, rhs)
	case "<":
		atom = yices2.ArithLtAtom(lhs, rhs)
	case ">=":
		atom = yices2.ArithGeqAtom(lhs, rhs)
	case ">":
		atom = yices2.ArithGtAtom(lhs, rhs)
	case "=":
		atom = yices2.ArithEqAtom(lhs, rhs)
	case "!=":
		atom = yices2.ArithNeqAtom(lhs, rhs)
	default:
		return yices2.NullTerm, errors.Errorf("unknown relation %s", l.Op)
	}
	if atom == yices2.NullTerm {
		return yices2.NullTerm, errors.Errorf("build %s: %s", l, yices2.ErrorString())
	}
	return atom, nil
}

func (s *Solver) constant(v int64) yices2.TermT {
	mu.Lock()
	defer mu.Unlock()
	return yices2.Int64(v)
}

// Values reads the integer values of the named variables from model.
func (s *Solver) Values(model *yices2.ModelT, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		v, err := s.GetInt64Value(model, s.IntVar(name))
		if err != nil {
			return nil, errors.Wrapf(err, "value of %s", name)
		}
		out[name] = v
	}
	return out, nil
}

// vars lists the variables of constraints in order of occurrence.
func vars(constraints []Constraint) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range constraints {
		for _, conj := range c {
			for _, l := range conj {
				for _, p := range l.Terms {
					if p.Var != "" && !seen[p.Var] {
						seen[p.Var] = true
						names = append(names, p.Var)
					}
				}
			}
		}
	}
	return names
}
