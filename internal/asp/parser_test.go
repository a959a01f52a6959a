package asp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseTerm(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"a", "a"},
		{"42", "42"},
		{"-7", "-7"},
		{"1+2*3", "7"},
		{"2**3**2", "512"},
		{"7\\3", "1"},
		{`"x\"y"`, `"x\"y"`},
		{`f(1,"x",(a,b))`, `f(1,"x",(a,b))`},
		{"(a,)", "(a,)"},
		{"()", "()"},
		{"queen(3,1)", "queen(3,1)"},
	}
	for _, tt := range tests {
		sym, err := ParseTerm(tt.text)
		assert.Nil(t, err, tt.text)
		assert.Equal(t, tt.want, sym.String(), tt.text)
	}

	_, err := ParseTerm("X")
	assert.NotNil(t, err)
	_, err = ParseTerm("1..3")
	assert.NotNil(t, err)
	_, err = ParseTerm("f(")
	assert.NotNil(t, err)
}

func Test_symbolOrder(t *testing.T) {
	syms := []Symbol{
		NewNumber(-1),
		NewNumber(3),
		NewFunction("b"),
		NewFunction("a", NewNumber(1)),
		NewFunction("b", NewNumber(1)),
		NewString("a"),
	}
	for i := 1; i < len(syms); i++ {
		assert.Equal(t, -1, syms[i-1].Compare(syms[i]), "%s < %s", syms[i-1], syms[i])
		assert.Equal(t, 1, syms[i].Compare(syms[i-1]))
	}
	assert.True(t, NewFunction("f", NewNumber(1)).Equal(NewFunction("f", NewNumber(1))))
	assert.True(t, NewTuple(NewNumber(1)).IsTuple())
}

func Test_parseProgram(t *testing.T) {
	src := `% comment
%* block
comment *%
#program base.
#const n = 3.
p(1..n).
1 { q(X) : p(X) } 2 :- r.
:- q(1), not q(2).
a :- X = 1, X != 2.
#external e(1..2).
#show q/1.
&diff{ x - y } <= 5 :- a.
`
	var stmts []Statement
	err := ParseProgram(src, func(s Statement) error {
		stmts = append(stmts, s)
		return nil
	})
	require.Nil(t, err)
	require.Len(t, stmts, 9)

	assert.IsType(t, &ProgramDirective{}, stmts[0])
	assert.IsType(t, &ConstDirective{}, stmts[1])
	rule, ok := stmts[3].(*Rule)
	require.True(t, ok)
	require.NotNil(t, rule.Choice)
	assert.Len(t, rule.Choice.Elements, 1)
	assert.Equal(t, "1{q(X):p(X)}2:-r.", rule.String())
	assert.Equal(t, 7, rule.Location().Line)

	constraint := stmts[4].(*Rule)
	assert.Nil(t, constraint.Head)
	assert.True(t, constraint.Body[1].Negated)

	theory := stmts[8].(*Rule)
	require.NotNil(t, theory.Theory)
	assert.Equal(t, "diff", theory.Theory.Name)
	assert.Equal(t, "<=", theory.Theory.Guard)
}

func Test_parseErrors(t *testing.T) {
	for _, src := range []string{
		"a :- b",
		"a | b.",
		"p(.",
		"#foo.",
		`p("open).`,
		"a :- not not b.",
		"b :- &diff{x} <= 1.",
	} {
		err := ParseProgram(src, func(Statement) error { return nil })
		assert.NotNil(t, err, src)
	}
}

func Test_negatedComparison(t *testing.T) {
	var rule *Rule
	err := ParseProgram("a :- not 1 < 2.", func(s Statement) error {
		rule = s.(*Rule)
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, ">=", rule.Body[0].Comparison.Op)
}
