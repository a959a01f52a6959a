package session

import (
	"fmt"

	"aspd/internal/asp"
	"aspd/internal/theory"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateEmpty State = iota
	StateIdle
	StateSearching
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateIdle:
		return "Idle"
	case StateSearching:
		return "Searching"
	}
	return "Unknown"
}

type variant interface {
	state() State
}

type empty struct{}

type idle struct {
	ctl    *asp.Control
	theory *theory.Shared
}

type searching struct {
	handle *asp.SolveHandle
	theory *theory.Shared
}

func (empty) state() State      { return StateEmpty }
func (*idle) state() State      { return StateIdle }
func (*searching) state() State { return StateSearching }

// Assumption fixes the truth of an atom for one solve call. A false sign
// assumes the atom false.
type Assumption struct {
	Symbol asp.Symbol
	Sign   bool
}

// Session owns at most one engine, either idle or searching. Session is not
// safe for concurrent use; wrap it in a Locked.
type Session struct {
	v        variant
	registry *theory.Registry
}

func NewSession(registry *theory.Registry) *Session {
	return &Session{v: empty{}, registry: registry}
}

func (s *Session) State() State {
	return s.v.state()
}

func (s *Session) take() variant {
	v := s.v
	s.v = empty{}
	return v
}

// replace installs next in place of prev, which was taken before.
func (s *Session) replace(prev, next variant) {
	s.v = next
	if from, to := prev.state(), next.state(); from != to {
		log.Infof("session state %s -> %s", from, to)
	}
}

func (s *Session) idle(op string) (*idle, error) {
	switch v := s.v.(type) {
	case *idle:
		return v, nil
	case *searching:
		switch op {
		case "add", "ground", "register_dl_theory", "register_con_theory", "register_theory":
			return nil, failed(SessionStateError, op, "Solver has been already started.")
		}
		return nil, failed(SessionStateError, op, "Solving has already started.")
	}
	return nil, failed(SessionStateError, op, "No control object.")
}

func (s *Session) searching(op, fromIdle, fromEmpty string) (*searching, error) {
	switch v := s.v.(type) {
	case *searching:
		return v, nil
	case *idle:
		return nil, failed(SessionStateError, op, fromIdle)
	}
	return nil, failed(SessionStateError, op, fromEmpty)
}

func closeTheory(shared *theory.Shared) {
	if err := shared.Close(); err != nil {
		log.Errorf("close theory %s: %v", shared.Kind(), err)
	}
}

// Create installs a fresh engine configured by args. An attached theory is
// dropped.
func (s *Session) Create(args []string) error {
	if _, ok := s.v.(*searching); ok {
		return failed(SessionStateError, "create", "Solver still running!")
	}
	ctl, err := asp.NewControl(args)
	if err != nil {
		return engineFailure("create", err)
	}
	prev := s.take()
	if st, ok := prev.(*idle); ok && st.theory != nil {
		closeTheory(st.theory)
	}
	s.replace(prev, &idle{ctl: ctl})
	return nil
}

func registerOp(kind theory.Kind) string {
	switch kind {
	case theory.KindDL:
		return "register_dl_theory"
	case theory.KindClingcon:
		return "register_con_theory"
	}
	return "register_theory"
}

// AttachTheory creates a theory of the given kind and registers it with the
// engine. A theory attached earlier is replaced.
func (s *Session) AttachTheory(kind theory.Kind) error {
	op := registerOp(kind)
	st, err := s.idle(op)
	if err != nil {
		return err
	}
	if !s.registry.Has(kind) {
		return failed(LookupError, op, fmt.Sprintf("unknown theory %q", kind))
	}
	t, err := s.registry.Create(kind)
	if err != nil {
		return engineFailure(op, err)
	}
	shared := theory.NewShared(kind, t)
	if err := shared.Register(st.ctl); err != nil {
		closeTheory(shared)
		return engineFailure(op, err)
	}
	if st.theory != nil {
		log.Infof("replacing theory %s with %s", st.theory.Kind(), kind)
		closeTheory(st.theory)
	}
	st.theory = shared
	return nil
}

// Add adds program text to the block name with parameters params. With a
// theory attached every statement passes through the theory's rewrite.
func (s *Session) Add(name string, params []string, text string) error {
	st, err := s.idle("add")
	if err != nil {
		return err
	}
	if st.theory == nil {
		if err := st.ctl.Add(name, params, text); err != nil {
			return engineFailure("add", err)
		}
		return nil
	}
	b, err := st.ctl.Builder(name, params)
	if err != nil {
		return engineFailure("add", err)
	}
	err = asp.ParseProgram(text, func(stmt asp.Statement) error {
		return st.theory.Do(func(t theory.Theory) error {
			return t.RewriteStatement(stmt, b)
		})
	})
	if endErr := b.End(); err == nil {
		err = endErr
	}
	if err != nil {
		return engineFailure("add", err)
	}
	return nil
}

func (s *Session) Ground(parts []asp.Part) error {
	st, err := s.idle("ground")
	if err != nil {
		return err
	}
	if err := st.ctl.Ground(parts); err != nil {
		return engineFailure("ground", err)
	}
	if st.theory == nil {
		return nil
	}
	err = st.theory.Do(func(t theory.Theory) error {
		return t.Prepare(st.ctl)
	})
	if err != nil {
		return engineFailure("ground", err)
	}
	return nil
}

// lookup returns the literal of the first atom equal to sym.
func lookup(ctl *asp.Control, sym asp.Symbol) (asp.Literal, bool) {
	for _, a := range ctl.SymbolicAtoms() {
		if a.Symbol.Equal(sym) {
			return a.Literal, true
		}
	}
	return 0, false
}

func (s *Session) AssignExternal(sym asp.Symbol, truth asp.TruthValue) error {
	st, err := s.idle("assign_external")
	if err != nil {
		return err
	}
	lit, ok := lookup(st.ctl, sym)
	if !ok {
		return failed(LookupError, "assign_external", "external symbol not found")
	}
	if err := st.ctl.AssignExternal(lit, truth); err != nil {
		return engineFailure("assign_external", err)
	}
	return nil
}

func (s *Session) ReleaseExternal(sym asp.Symbol) error {
	st, err := s.idle("release_external")
	if err != nil {
		return err
	}
	lit, ok := lookup(st.ctl, sym)
	if !ok {
		return failed(LookupError, "release_external", "external symbol not found")
	}
	if err := st.ctl.ReleaseExternal(lit); err != nil {
		return engineFailure("release_external", err)
	}
	return nil
}

// eventHandler forwards search events to the attached theory.
type eventHandler struct {
	theory *theory.Shared
}

func (h eventHandler) OnSolveEvent(ev asp.SolveEvent) (bool, error) {
	switch ev.Type {
	case asp.SolveEventModel:
		return true, h.theory.Do(func(t theory.Theory) error {
			return t.OnModel(ev.Model)
		})
	case asp.SolveEventStatistics:
		return true, h.theory.Do(func(t theory.Theory) error {
			return t.OnStatistics(ev.Step, ev.Accumulated)
		})
	}
	return true, nil
}

// Solve starts a search. The session is Searching until Close.
func (s *Session) Solve(mode asp.SolveMode, assumptions []asp.Literal) error {
	return s.solve("solve", mode, assumptions)
}

func (s *Session) solve(op string, mode asp.SolveMode, assumptions []asp.Literal) error {
	st, err := s.idle(op)
	if err != nil {
		return err
	}
	var handler asp.SolveEventHandler
	if st.theory != nil {
		handler = eventHandler{theory: st.theory}
	}
	h, err := st.ctl.Solve(mode, assumptions, handler)
	if err != nil {
		if h != nil {
			h.Close()
		}
		return engineFailure(op, err)
	}
	s.replace(s.take(), &searching{handle: h, theory: st.theory})
	return nil
}

// SolveWithAssumptions resolves every assumption before the search starts.
// If one symbol is unknown nothing is solved.
func (s *Session) SolveWithAssumptions(assumptions []Assumption) error {
	const op = "solve_with_assumptions"
	st, err := s.idle(op)
	if err != nil {
		return err
	}
	lits := make([]asp.Literal, 0, len(assumptions))
	for _, a := range assumptions {
		lit, ok := lookup(st.ctl, a.Symbol)
		if !ok {
			return failed(LookupError, op, "The assumptions contain a literal that is not defined in the logic program.")
		}
		if !a.Sign {
			lit = lit.Negate()
		}
		lits = append(lits, lit)
	}
	return s.solve(op, asp.SolveAsync|asp.SolveYield, lits)
}

// Model polls the running search without blocking.
func (s *Session) Model() (ModelResult, error) {
	st, err := s.searching("model", "Solving has not yet started.", "No SolveHandle.")
	if err != nil {
		return ModelResult{}, err
	}
	if !st.handle.Wait(0) {
		return ModelResult{Status: ModelRunning}, nil
	}
	m, err := st.handle.Model()
	if err != nil {
		return ModelResult{}, engineFailure("model", err)
	}
	if m == nil {
		return ModelResult{Status: ModelDone}, nil
	}
	payload, err := modelPayload(m, st.theory)
	if err != nil {
		return ModelResult{}, engineFailure("model", err)
	}
	return ModelResult{Status: ModelFound, Payload: payload}, nil
}

func (s *Session) Resume() error {
	st, err := s.searching("resume", "Solver has not yet started.", "No SolveHandle.")
	if err != nil {
		return err
	}
	st.handle.Resume()
	return nil
}

// Close stops the search and makes the engine available again. The
// attached theory is kept.
func (s *Session) Close() error {
	if _, err := s.searching("close", "Solver is not running.", "Solver is not running."); err != nil {
		return err
	}
	prev := s.take()
	st := prev.(*searching)
	ctl, err := st.handle.Close()
	if err != nil {
		log.Errorf("search finished with error: %v", err)
	}
	s.replace(prev, &idle{ctl: ctl, theory: st.theory})
	return nil
}

func (s *Session) Statistics() (StatisticsTree, error) {
	st, err := s.idle("statistics")
	if err != nil {
		return StatisticsTree{}, err
	}
	tree, err := readStatistics(st.ctl.Statistics())
	if err != nil {
		return StatisticsTree{}, engineFailure("statistics", err)
	}
	return tree, nil
}

func (s *Session) Configuration() (ConfigurationTree, error) {
	st, err := s.idle("configuration")
	if err != nil {
		return ConfigurationTree{}, err
	}
	tree, err := readConfiguration(st.ctl.Configuration())
	if err != nil {
		return ConfigurationTree{}, engineFailure("configuration", err)
	}
	return tree, nil
}

// SetConfiguration writes tree into the engine configuration and returns
// the configuration as read back afterwards.
func (s *Session) SetConfiguration(tree ConfigurationTree) (ConfigurationTree, error) {
	st, err := s.idle("set_configuration")
	if err != nil {
		return ConfigurationTree{}, err
	}
	conf := st.ctl.Configuration()
	if err := writeConfiguration(conf, tree); err != nil {
		return ConfigurationTree{}, engineFailure("set_configuration", err)
	}
	out, err := readConfiguration(conf)
	if err != nil {
		return ConfigurationTree{}, engineFailure("set_configuration", err)
	}
	return out, nil
}

// Shutdown stops a running search and releases the attached theory.
func (s *Session) Shutdown() {
	var shared *theory.Shared
	prev := s.take()
	switch v := prev.(type) {
	case *idle:
		shared = v.theory
	case *searching:
		if _, err := v.handle.Close(); err != nil {
			log.Errorf("search finished with error: %v", err)
		}
		shared = v.theory
	}
	if shared != nil {
		closeTheory(shared)
	}
	s.replace(prev, empty{})
}
