package asp

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newControl(t *testing.T, program string, args ...string) *Control {
	ctl, err := NewControl(args)
	require.Nil(t, err)
	require.Nil(t, ctl.Add("base", nil, program))
	require.Nil(t, ctl.Ground([]Part{{Name: "base"}}))
	return ctl
}

func models(t *testing.T, ctl *Control, assumptions ...Literal) []string {
	h, err := ctl.Solve(SolveAsync|SolveYield, assumptions, nil)
	require.Nil(t, err)
	var out []string
	for {
		m, err := h.Model()
		require.Nil(t, err)
		if m == nil {
			break
		}
		syms := make([]string, len(m.Symbols()))
		for i, s := range m.Symbols() {
			syms[i] = s.String()
		}
		sort.Strings(syms)
		out = append(out, strings.Join(syms, " "))
		h.Resume()
	}
	_, err = h.Close()
	require.Nil(t, err)
	sort.Strings(out)
	return out
}

func literalOf(t *testing.T, ctl *Control, text string) Literal {
	sym, err := ParseTerm(text)
	require.Nil(t, err)
	for _, a := range ctl.SymbolicAtoms() {
		if a.Symbol.Equal(sym) {
			return a.Literal
		}
	}
	t.Fatalf("atom %s not found", text)
	return 0
}

func Test_fact(t *testing.T) {
	ctl := newControl(t, "a.", "0")
	assert.Equal(t, []string{"a"}, models(t, ctl))
}

func Test_choiceEnumeration(t *testing.T) {
	ctl := newControl(t, "{a;b}.", "0")
	assert.Equal(t, []string{"", "a", "a b", "b"}, models(t, ctl))
}

func Test_choiceBounds(t *testing.T) {
	ctl := newControl(t, "1 {a;b;c} 1.", "0")
	assert.Equal(t, []string{"a", "b", "c"}, models(t, ctl))

	ctl = newControl(t, "2 {p(1..3)}.", "0")
	assert.Equal(t, []string{"p(1) p(2)", "p(1) p(2) p(3)", "p(1) p(3)", "p(2) p(3)"}, models(t, ctl))
}

func Test_integrityConstraint(t *testing.T) {
	ctl := newControl(t, "{a}. b :- a. :- not b.", "0")
	assert.Equal(t, []string{"a b"}, models(t, ctl))
}

func Test_positiveLoop(t *testing.T) {
	ctl := newControl(t, "{c}. a :- b. b :- a. a :- c.", "0")
	assert.Equal(t, []string{"", "a b c"}, models(t, ctl))
}

func Test_negation(t *testing.T) {
	ctl := newControl(t, "a :- not b. b :- not a.", "0")
	assert.Equal(t, []string{"a", "b"}, models(t, ctl))
}

func Test_unsatisfiable(t *testing.T) {
	ctl := newControl(t, "a. :- a.", "0")
	h, err := ctl.Solve(SolveAsync|SolveYield, nil, nil)
	require.Nil(t, err)
	res, err := h.Get()
	assert.Nil(t, err)
	assert.True(t, res.Unsatisfiable())
	_, err = h.Close()
	assert.Nil(t, err)
}

func Test_variables(t *testing.T) {
	ctl := newControl(t, "p(1..3). q(X) :- p(X), X > 1. r(Y) :- q(X), Y = X*2. #show q/1. #show r/1.", "0")
	assert.Equal(t, []string{"q(2) q(3) r(4) r(6)"}, models(t, ctl))
}

func Test_show(t *testing.T) {
	ctl := newControl(t, "a. b. #show a/0.", "0")
	assert.Equal(t, []string{"a"}, models(t, ctl))

	ctl = newControl(t, "a. b. #show.", "0")
	assert.Equal(t, []string{""}, models(t, ctl))
}

func Test_constants(t *testing.T) {
	ctl := newControl(t, "#const n=2. p(1..n).", "0")
	assert.Equal(t, []string{"p(1) p(2)"}, models(t, ctl))

	ctl = newControl(t, "#const n=2. p(1..n).", "0", "-c", "n=3")
	assert.Equal(t, []string{"p(1) p(2) p(3)"}, models(t, ctl))
}

func Test_modelLimit(t *testing.T) {
	ctl := newControl(t, "{a;b;c}.", "2")
	assert.Len(t, models(t, ctl), 2)

	ctl = newControl(t, "{a;b;c}.", "--models=3")
	assert.Len(t, models(t, ctl), 3)
}

func Test_programParts(t *testing.T) {
	ctl, err := NewControl([]string{"0"})
	require.Nil(t, err)
	require.Nil(t, ctl.Add("base", nil, "b.\n#program step(k).\ns(k)."))
	require.Nil(t, ctl.Ground([]Part{{Name: "base"}, {Name: "step", Args: []Symbol{NewNumber(5)}}}))
	assert.Equal(t, []string{"b s(5)"}, models(t, ctl))
}

func Test_externals(t *testing.T) {
	ctl := newControl(t, "#external e. a :- e.", "0")
	assert.Equal(t, []string{""}, models(t, ctl))

	e := literalOf(t, ctl, "e")
	require.Nil(t, ctl.AssignExternal(e, TruthTrue))
	assert.Equal(t, []string{"a e"}, models(t, ctl))

	require.Nil(t, ctl.AssignExternal(e, TruthFree))
	assert.Equal(t, []string{"", "a e"}, models(t, ctl))

	require.Nil(t, ctl.ReleaseExternal(e))
	assert.Equal(t, []string{""}, models(t, ctl))
}

func Test_assumptions(t *testing.T) {
	ctl := newControl(t, "{a;b}.", "0")
	a := literalOf(t, ctl, "a")
	b := literalOf(t, ctl, "b")
	assert.Equal(t, []string{"a"}, models(t, ctl, a, b.Negate()))
	assert.Equal(t, []string{"a", "a b"}, models(t, ctl, a))
}

func Test_unsafeRule(t *testing.T) {
	ctl, err := NewControl(nil)
	require.Nil(t, err)
	err = ctl.Add("base", nil, "p(X) :- not q(X).")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unsafe")
}

func Test_undeclaredTheoryAtom(t *testing.T) {
	ctl, err := NewControl(nil)
	require.Nil(t, err)
	require.Nil(t, ctl.Add("base", nil, "&diff{ x - y } <= 3."))
	assert.NotNil(t, ctl.Ground([]Part{{Name: "base"}}))
}

type rejectPropagator struct {
	calls int
}

func (p *rejectPropagator) Check(_ uint32, active []*TheoryAtom) ([]*TheoryAtom, error) {
	p.calls++
	if len(active) > 1 {
		return active, nil
	}
	return nil, nil
}

func Test_theoryCheck(t *testing.T) {
	ctl, err := NewControl([]string{"0"})
	require.Nil(t, err)
	prop := &rejectPropagator{}
	require.Nil(t, ctl.RegisterTheory([]string{"diff"}, prop))
	require.Nil(t, ctl.Add("base", nil, "{a;b}. &diff{ x - y } <= 3 :- a. &diff{ y - x } <= -4 :- b."))
	require.Nil(t, ctl.Ground([]Part{{Name: "base"}}))
	assert.Len(t, ctl.TheoryAtoms(), 2)
	assert.Equal(t, []string{"", "a", "b"}, models(t, ctl))
	assert.True(t, prop.calls > 0)
}

func Test_handleLifecycle(t *testing.T) {
	ctl := newControl(t, "{a}.", "0")
	h, err := ctl.Solve(SolveAsync|SolveYield, nil, nil)
	require.Nil(t, err)
	assert.True(t, h.Wait(time.Second))
	m1, err := h.Model()
	require.Nil(t, err)
	m2, err := h.Model()
	require.Nil(t, err)
	assert.Same(t, m1, m2)

	assert.NotNil(t, ctl.Add("base", nil, "b."))

	_, err = h.Close()
	assert.Nil(t, err)
	assert.Nil(t, ctl.Add("base", nil, "b."))
}

func Test_statistics(t *testing.T) {
	ctl := newControl(t, "{a;b}.", "0")
	models(t, ctl)
	stats := ctl.Statistics()
	summary, err := stats.MapAt(stats.Root(), "summary")
	require.Nil(t, err)
	enumerated, err := stats.MapAt(summary, "models")
	require.Nil(t, err)
	enumerated, err = stats.MapAt(enumerated, "enumerated")
	require.Nil(t, err)
	v, err := stats.Value(enumerated)
	assert.Nil(t, err)
	assert.Equal(t, 4.0, v)

	_, err = stats.Value(summary)
	assert.NotNil(t, err)
}

func Test_configuration(t *testing.T) {
	ctl, err := NewControl([]string{"5"})
	require.Nil(t, err)
	conf := ctl.Configuration()
	v, err := conf.lookup("solve.models")
	assert.Nil(t, err)
	assert.Equal(t, "5", v)

	key, err := conf.resolve("solve.models")
	require.Nil(t, err)
	assert.NotNil(t, conf.SetValue(key, "many"))
	assert.Nil(t, conf.SetValue(key, "0"))

	solver, err := conf.MapAt(conf.Root(), "solver")
	require.Nil(t, err)
	typ, err := conf.Type(solver)
	assert.Nil(t, err)
	assert.Equal(t, ConfigurationArray, typ)
	n, err := conf.ArraySize(solver)
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), n)
	_, err = conf.ArrayAt(solver, 1)
	assert.NotNil(t, err)
	n, err = conf.ArraySize(solver)
	assert.Nil(t, err)
	assert.Equal(t, uint32(1), n)
}
