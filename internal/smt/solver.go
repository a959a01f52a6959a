package smt

import (
	"fmt"
	"sync"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
)

var (
	initOnce sync.Once
	mu       sync.Mutex
)

// Init sets up the global yices state. It is safe to call more than once.
func Init() {
	initOnce.Do(yices2.Init)
}

// Exit releases the global yices state. No solver may be used afterwards.
func Exit() {
	mu.Lock()
	defer mu.Unlock()
	yices2.Exit()
}

// Solver wraps a yices context over integer variables. Yices keeps global
// state, so all solvers serialize on one lock.
type Solver struct {
	ctx   yices2.ContextT
	vars  map[string]yices2.TermT
	names []string
}

func NewSolver() *Solver {
	Init()
	mu.Lock()
	defer mu.Unlock()
	s := &Solver{
		ctx:  yices2.ContextT{},
		vars: make(map[string]yices2.TermT),
	}
	yices2.InitContext(yices2.ConfigT{}, &s.ctx)
	return s
}

func (s *Solver) Close() {
	mu.Lock()
	defer mu.Unlock()
	yices2.CloseContext(&s.ctx)
}

// IntVar returns the integer variable with the given name, creating it on
// first use.
func (s *Solver) IntVar(name string) yices2.TermT {
	mu.Lock()
	defer mu.Unlock()
	if t, ok := s.vars[name]; ok {
		return t
	}
	t := yices2.NewUninterpretedTerm(yices2.IntType())
	yices2.SetTermName(t, name)
	s.vars[name] = t
	s.names = append(s.names, name)
	return t
}

// Vars returns the variable names in creation order.
func (s *Solver) Vars() []string {
	return s.names
}

// Check asserts terms permanently and checks the context.
func (s *Solver) Check(terms ...yices2.TermT) (yices2.SmtStatusT, *yices2.ModelT, error) {
	mu.Lock()
	defer mu.Unlock()
	errorcode := yices2.AssertFormulas(s.ctx, terms)
	if errorcode < 0 {
		return yices2.StatusError, nil, fmt.Errorf("%s", yices2.ErrorString())
	}
	return s.check()
}

func (s *Solver) check() (yices2.SmtStatusT, *yices2.ModelT, error) {
	status := yices2.CheckContext(s.ctx, yices2.ParamT{})
	switch status {
	case yices2.StatusSat:
		return status, yices2.GetModel(s.ctx, 1), nil
	case yices2.StatusUnsat:
		return status, nil, nil
	case yices2.StatusError:
		return status, nil, fmt.Errorf("%s", yices2.ErrorString())
	}
	return status, nil, fmt.Errorf("unexpected solver status %d", status)
}

// Scoped checks terms in a pushed scope that is popped afterwards. The
// model, if any, must be released with CloseModel.
func (s *Solver) Scoped(terms ...yices2.TermT) (yices2.SmtStatusT, *yices2.ModelT, error) {
	mu.Lock()
	defer mu.Unlock()
	yices2.Push(s.ctx)
	defer yices2.Pop(s.ctx)
	if len(terms) > 0 {
		if errorcode := yices2.AssertFormulas(s.ctx, terms); errorcode < 0 {
			return yices2.StatusError, nil, fmt.Errorf("%s", yices2.ErrorString())
		}
	}
	return s.check()
}

func (s *Solver) GetContext() yices2.ContextT {
	return s.ctx
}

func (s *Solver) GetInt64Value(model *yices2.ModelT, term yices2.TermT) (int64, error) {
	mu.Lock()
	defer mu.Unlock()
	var val int64
	errcode := yices2.GetInt64Value(*model, term, &val)
	if errcode != 0 {
		return 0, fmt.Errorf("%s", yices2.ErrorString())
	}
	return val, nil
}

func CloseModel(model *yices2.ModelT) {
	if model == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	yices2.CloseModel(model)
}
