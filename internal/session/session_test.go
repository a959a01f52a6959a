package session

import (
	"testing"
	"time"

	"aspd/internal/asp"
	"aspd/internal/theory"
	"aspd/internal/theory/dl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *Session {
	reg := theory.NewRegistry()
	reg.Add(theory.KindDL, dl.New)
	s := NewSession(reg)
	t.Cleanup(s.Shutdown)
	return s
}

func load(t *testing.T, program string) *Session {
	s := newSession(t)
	require.Nil(t, s.Create([]string{"0"}))
	require.Nil(t, s.Add("base", nil, program))
	require.Nil(t, s.Ground([]asp.Part{{Name: "base"}}))
	return s
}

// poll calls Model until the search reports something other than Running.
func poll(t *testing.T, s *Session) ModelResult {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res, err := s.Model()
		require.Nil(t, err)
		if res.Status != ModelRunning {
			return res
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("search did not produce a result in time")
	return ModelResult{}
}

func models(t *testing.T, s *Session) []string {
	var out []string
	for {
		res := poll(t, s)
		if res.Status == ModelDone {
			return out
		}
		out = append(out, string(res.Payload))
		require.Nil(t, s.Resume())
	}
}

func assertKind(t *testing.T, kind ErrorKind, err error) {
	require.NotNil(t, err)
	assert.Equal(t, kind, KindOf(err), err.Error())
}

func Test_freshSolve(t *testing.T) {
	s := newSession(t)
	err := s.Solve(asp.SolveAsync|asp.SolveYield, nil)
	assertKind(t, SessionStateError, err)
	assert.Equal(t, "solve failed! No control object.", err.Error())
	assert.Equal(t, StateEmpty, s.State())
}

func Test_singleFact(t *testing.T) {
	s := load(t, "a.")
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	assert.Equal(t, StateSearching, s.State())

	res := poll(t, s)
	require.Equal(t, ModelFound, res.Status)
	assert.Equal(t, "a\n", string(res.Payload))

	require.Nil(t, s.Resume())
	assert.Equal(t, ModelDone, poll(t, s).Status)

	require.Nil(t, s.Close())
	assert.Equal(t, StateIdle, s.State())
}

func Test_pollIdempotent(t *testing.T) {
	s := load(t, "{a}.")
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	first := poll(t, s)
	require.Equal(t, ModelFound, first.Status)
	second, err := s.Model()
	require.Nil(t, err)
	assert.Equal(t, first, second)

	rest := models(t, s)
	assert.Len(t, rest, 1)
	assert.NotEqual(t, string(first.Payload), rest[0])
}

func Test_stateErrors(t *testing.T) {
	s := newSession(t)
	for name, op := range map[string]func() error{
		"model":  func() error { _, err := s.Model(); return err },
		"resume": s.Resume,
		"close":  s.Close,
		"add":    func() error { return s.Add("base", nil, "a.") },
	} {
		assertKind(t, SessionStateError, op())
		assert.Equal(t, StateEmpty, s.State(), name)
	}

	require.Nil(t, s.Create(nil))
	_, err := s.Model()
	assert.Equal(t, "model failed! Solving has not yet started.", err.Error())
	assert.Equal(t, "resume failed! Solver has not yet started.", s.Resume().Error())
	assert.Equal(t, "close failed! Solver is not running.", s.Close().Error())
	assert.Equal(t, StateIdle, s.State())

	require.Nil(t, s.Add("base", nil, "{a}."))
	require.Nil(t, s.Ground([]asp.Part{{Name: "base"}}))
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	for name, op := range map[string]func() error{
		"solve":            func() error { return s.Solve(asp.SolveAsync, nil) },
		"add":              func() error { return s.Add("base", nil, "b.") },
		"ground":           func() error { return s.Ground(nil) },
		"assign_external":  func() error { return s.AssignExternal(asp.NewFunction("a"), asp.TruthTrue) },
		"release_external": func() error { return s.ReleaseExternal(asp.NewFunction("a")) },
		"statistics":       func() error { _, err := s.Statistics(); return err },
		"configuration":    func() error { _, err := s.Configuration(); return err },
		"set_configuration": func() error {
			_, err := s.SetConfiguration(Map[string]())
			return err
		},
		"register": func() error { return s.AttachTheory(theory.KindDL) },
		"create":   func() error { return s.Create(nil) },
	} {
		assertKind(t, SessionStateError, op())
		assert.Equal(t, StateSearching, s.State(), name)
	}
	assert.Equal(t, "create failed! Solver still running!", s.Create(nil).Error())
	assert.Equal(t, "add failed! Solver has been already started.", s.Add("base", nil, "b.").Error())
	assert.Equal(t, "solve failed! Solving has already started.", s.Solve(0, nil).Error())

	require.Nil(t, s.Close())
	assert.Equal(t, StateIdle, s.State())
}

func Test_assumptions(t *testing.T) {
	s := load(t, "{a; b}.")
	err := s.SolveWithAssumptions([]Assumption{
		{Symbol: asp.NewFunction("a"), Sign: true},
		{Symbol: asp.NewFunction("c"), Sign: true},
	})
	assertKind(t, LookupError, err)
	assert.Equal(t, StateIdle, s.State())

	require.Nil(t, s.SolveWithAssumptions([]Assumption{
		{Symbol: asp.NewFunction("a"), Sign: true},
		{Symbol: asp.NewFunction("b"), Sign: false},
	}))
	assert.Equal(t, []string{"a\n"}, models(t, s))
	require.Nil(t, s.Close())
}

func Test_externals(t *testing.T) {
	s := load(t, "#external e. p :- e. #show p/0.")
	assertKind(t, LookupError, s.AssignExternal(asp.NewFunction("x"), asp.TruthTrue))
	assertKind(t, LookupError, s.ReleaseExternal(asp.NewFunction("x")))

	require.Nil(t, s.AssignExternal(asp.NewFunction("e"), asp.TruthTrue))
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	assert.Equal(t, []string{"p\n"}, models(t, s))
	require.Nil(t, s.Close())

	require.Nil(t, s.ReleaseExternal(asp.NewFunction("e")))
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	assert.Equal(t, []string{""}, models(t, s))
	require.Nil(t, s.Close())
}

func Test_configurationRoundTrip(t *testing.T) {
	s := newSession(t)
	require.Nil(t, s.Create(nil))
	conf, err := s.Configuration()
	require.Nil(t, err)
	out, err := s.SetConfiguration(conf)
	require.Nil(t, err)
	assert.Equal(t, conf, out)

	out, err = s.SetConfiguration(Map(Entry[string]{Name: "solve", Tree: Map(Entry[string]{Name: "models", Tree: Leaf("1")})}))
	require.Nil(t, err)
	models, ok := out.Get("solve", "models")
	require.True(t, ok)
	assert.Equal(t, "1", models.Value)

	_, err = s.SetConfiguration(Map(Entry[string]{Name: "solve", Tree: Map(Entry[string]{Name: "models", Tree: Leaf("many")})}))
	assertKind(t, EngineError, err)
	_, err = s.SetConfiguration(Map(Entry[string]{Name: "nope", Tree: Leaf("1")}))
	assertKind(t, EngineError, err)
}

func Test_setConfigurationFixedShape(t *testing.T) {
	s := newSession(t)
	require.Nil(t, s.Create(nil))
	conf, err := s.Configuration()
	require.Nil(t, err)

	solvers := Array(
		Map(Entry[string]{Name: "seed", Tree: Leaf("3")}),
		Map(Entry[string]{Name: "seed", Tree: Leaf("4")}),
	)
	_, err = s.SetConfiguration(Map(Entry[string]{Name: "solver", Tree: solvers}))
	assertKind(t, EngineError, err)

	after, err := s.Configuration()
	require.Nil(t, err)
	assert.Equal(t, conf, after)
	solver, ok := after.Get("solver")
	require.True(t, ok)
	assert.Len(t, solver.Items, 1)
}

func Test_theoryAddParseError(t *testing.T) {
	s := newSession(t)
	require.Nil(t, s.Create([]string{"0"}))
	require.Nil(t, s.AttachTheory(theory.KindDL))
	assertKind(t, EngineError, s.Add("base", nil, "a. b :- "))
	assert.Equal(t, StateIdle, s.State())

	require.Nil(t, s.Add("base", nil, "c."))
	require.Nil(t, s.Ground([]asp.Part{{Name: "base"}}))
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	assert.Equal(t, []string{"a\nc\n"}, models(t, s))
	require.Nil(t, s.Close())
}

func Test_statistics(t *testing.T) {
	s := load(t, "{a}.")
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))
	assert.Len(t, models(t, s), 2)
	require.Nil(t, s.Close())

	stats, err := s.Statistics()
	require.Nil(t, err)
	enumerated, ok := stats.Get("summary", "models", "enumerated")
	require.True(t, ok)
	assert.Equal(t, 2.0, enumerated.Value)
	_, ok = stats.Get("user_step")
	assert.True(t, ok)
}

func Test_theory(t *testing.T) {
	s := newSession(t)
	require.Nil(t, s.Create([]string{"0"}))
	assertKind(t, LookupError, s.AttachTheory(theory.KindClingcon))
	require.Nil(t, s.AttachTheory(theory.KindDL))
	require.Nil(t, s.AttachTheory(theory.KindDL))
	require.Nil(t, s.Add("base", nil, "&diff{ x - 0 } = 5. &diff{ y - x } >= 2."))
	require.Nil(t, s.Ground([]asp.Part{{Name: "base"}}))
	require.Nil(t, s.Solve(asp.SolveAsync|asp.SolveYield, nil))

	res := poll(t, s)
	require.Equal(t, ModelFound, res.Status)
	assert.Contains(t, string(res.Payload), "x=5\n")
	assert.NotContains(t, string(res.Payload), "0=")
	require.Nil(t, s.Close())

	stats, err := s.Statistics()
	require.Nil(t, err)
	_, ok := stats.Get("user_accu", "DifferenceLogic", "Models")
	assert.True(t, ok)
}

func Test_poisonedLock(t *testing.T) {
	l := NewLocked(newSession(t))
	err := l.Do(func(*Session) error { panic("boom") })
	assertKind(t, InternalError, err)
	err = l.Do(func(s *Session) error { return s.Create(nil) })
	assertKind(t, InternalError, err)
}
