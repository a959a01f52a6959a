package smt

import (
	"testing"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_linearSat(t *testing.T) {
	s := NewSolver()
	defer s.Close()

	res, err := s.Solve([]Constraint{
		Single(Linear{Terms: []Product{{Coef: 1, Var: "x"}, {Coef: 2, Var: "y"}}, Op: "=", Rhs: 7}),
		Single(Linear{Terms: []Product{{Coef: 1, Var: "x"}}, Op: ">=", Rhs: 3}),
		Single(Linear{Terms: []Product{{Coef: 1, Var: "y"}}, Op: ">", Rhs: 0}),
	})
	require.Nil(t, err)
	assert.True(t, res.Sat)
	x, y := res.Values["x"], res.Values["y"]
	assert.Equal(t, int64(7), x+2*y)
	assert.True(t, x >= 3)
	assert.True(t, y > 0)
	assert.Equal(t, []string{"x", "y"}, s.Vars())
}

func Test_linearCore(t *testing.T) {
	s := NewSolver()
	defer s.Close()

	res, err := s.Solve([]Constraint{
		Single(Linear{Terms: []Product{{Coef: 1, Var: "x"}}, Op: "<=", Rhs: 2}),
		Single(Linear{Terms: []Product{{Coef: 1, Var: "y"}}, Op: "!=", Rhs: 0}),
		Single(Linear{Terms: []Product{{Coef: 1, Var: "x"}}, Op: ">", Rhs: 4}),
	})
	require.Nil(t, err)
	assert.False(t, res.Sat)
	assert.Equal(t, []int{0, 2}, res.Core)
}

func Test_disjunction(t *testing.T) {
	s := NewSolver()
	defer s.Close()

	x := func(op string, rhs int64) Linear {
		return Linear{Terms: []Product{{Coef: 1, Var: "x"}}, Op: op, Rhs: rhs}
	}
	res, err := s.Solve([]Constraint{
		{{x(">=", 1), x("<=", 2)}, {x(">=", 5), x("<=", 6)}},
		Single(x(">", 3)),
	})
	require.Nil(t, err)
	require.True(t, res.Sat)
	assert.Contains(t, []int64{5, 6}, res.Values["x"])
}

func Test_scopedCheck(t *testing.T) {
	s := NewSolver()
	defer s.Close()

	x := s.IntVar("x")
	assert.Equal(t, x, s.IntVar("x"))

	ge, err := s.Formula(Linear{Terms: []Product{{Coef: 1, Var: "x"}}, Op: ">=", Rhs: 10})
	require.Nil(t, err)
	status, model, err := s.Check(ge)
	require.Nil(t, err)
	require.Equal(t, yices2.StatusSat, status)
	v, err := s.GetInt64Value(model, x)
	assert.Nil(t, err)
	assert.True(t, v >= 10)
	CloseModel(model)

	le, err := s.Formula(Linear{Terms: []Product{{Coef: 1, Var: "x"}, {Coef: 3}}, Op: "<", Rhs: 5})
	require.Nil(t, err)
	status, _, err = s.Scoped(le)
	assert.Nil(t, err)
	assert.Equal(t, yices2.StatusUnsat, status)

	status, model, err = s.Scoped()
	assert.Nil(t, err)
	assert.Equal(t, yices2.StatusSat, status)
	CloseModel(model)

	_, err = s.Formula(Linear{Op: "~", Rhs: 1})
	assert.NotNil(t, err)
}

func Test_linearString(t *testing.T) {
	l := Linear{Terms: []Product{{Coef: 1, Var: "x"}, {Coef: -2, Var: "y"}, {Coef: 4}}, Op: "<=", Rhs: 3}
	assert.Equal(t, "x+-2*y+4<=3", l.String())
	assert.Equal(t, "0=0", Linear{Op: "=", Rhs: 0}.String())
}
