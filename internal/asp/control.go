package asp

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Literal is a solver literal. Positive values stand for atoms, negative
// values for their negation.
type Literal int32

func (l Literal) Negate() Literal {
	return -l
}

// SymbolicAtom is an atom of the ground program.
type SymbolicAtom struct {
	Symbol   Symbol
	Literal  Literal
	External bool
	Fact     bool
}

// Control grounds and solves logic programs.
type Control struct {
	prog       *program
	gp         *groundProgram
	conf       *Configuration
	stats      *Statistics
	declared   map[string]bool
	propagator Propagator
	userStep   uint64
	userAccu   uint64
	steps      int
	solving    bool
}

// NewControl creates a control object configured by solver command line
// arguments.
func NewControl(args []string) (*Control, error) {
	opts, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	ctl := &Control{
		prog:     newProgram(opts.consts),
		gp:       newGroundProgram(),
		conf:     newConfiguration(),
		stats:    NewStatistics(),
		declared: map[string]bool{},
	}
	if opts.models != "" {
		if err := ctl.setConf("solve.models", opts.models); err != nil {
			return nil, err
		}
	}
	if opts.seed != "" {
		if err := ctl.setConf("solver.0.seed", opts.seed); err != nil {
			return nil, err
		}
	}
	ctl.initStatistics()
	return ctl, nil
}

func (ctl *Control) setConf(path, value string) error {
	key, err := ctl.conf.resolve(path)
	if err != nil {
		return err
	}
	return ctl.conf.SetValue(key, value)
}

func (ctl *Control) checkIdle(op string) error {
	if ctl.solving {
		return errors.Errorf("%s: control is busy solving", op)
	}
	return nil
}

// Add parses program text into the block with the given name and
// parameters.
func (ctl *Control) Add(name string, params []string, text string) error {
	if err := ctl.checkIdle("add"); err != nil {
		return err
	}
	b, err := ctl.Builder(name, params)
	if err != nil {
		return err
	}
	defer b.End()
	return ParseProgram(text, b.Add)
}

// Builder returns a builder that adds statements to the block with the
// given name and parameters.
func (ctl *Control) Builder(name string, params []string) (*ProgramBuilder, error) {
	if err := ctl.checkIdle("builder"); err != nil {
		return nil, err
	}
	return &ProgramBuilder{ctl: ctl, cur: ctl.prog.block(name, params)}, nil
}

// RegisterTheory declares the theory atom names handled by p. A previously
// registered propagator is replaced.
func (ctl *Control) RegisterTheory(names []string, p Propagator) error {
	if err := ctl.checkIdle("register theory"); err != nil {
		return err
	}
	ctl.declared = map[string]bool{}
	for _, n := range names {
		ctl.declared[n] = true
	}
	ctl.propagator = p
	return nil
}

// Ground instantiates the given parts.
func (ctl *Control) Ground(parts []Part) error {
	if err := ctl.checkIdle("ground"); err != nil {
		return err
	}
	ctl.steps++
	var tasks []groundTask
	for _, part := range parts {
		for bi, b := range ctl.prog.blocksFor(part) {
			consts := make(map[string]Symbol, len(ctl.prog.consts)+len(b.params))
			for k, v := range ctl.prog.consts {
				consts[k] = v
			}
			for i, p := range b.params {
				consts[p] = part.Args[i]
			}
			for si, stmt := range b.stmts {
				tasks = append(tasks, groundTask{
					key:    fmt.Sprintf("%d/%s/%d/%d", ctl.steps, part.Name, bi, si),
					stmt:   stmt,
					consts: consts,
				})
			}
		}
	}
	start := time.Now()
	if err := ctl.gp.ground(tasks, ctl.declared); err != nil {
		return errors.Wrap(err, "grounding")
	}
	log.WithFields(log.Fields{
		"parts": len(parts),
		"atoms": len(ctl.gp.atoms),
		"rules": len(ctl.gp.rules),
		"took":  time.Since(start),
	}).Debug("program grounded")
	return nil
}

// SymbolicAtoms lists the atoms of the ground program in creation order.
func (ctl *Control) SymbolicAtoms() []SymbolicAtom {
	out := make([]SymbolicAtom, 0, len(ctl.gp.atoms))
	for id, a := range ctl.gp.atoms {
		if a.theory != nil || !a.possible {
			continue
		}
		out = append(out, SymbolicAtom{
			Symbol:   a.sym,
			Literal:  Literal(id + 1),
			External: a.external,
			Fact:     a.fact,
		})
	}
	return out
}

// TheoryAtoms lists the ground theory atoms.
func (ctl *Control) TheoryAtoms() []*TheoryAtom {
	return ctl.gp.theory
}

func (ctl *Control) atomOf(lit Literal) (*groundAtom, error) {
	id := int(lit)
	if id < 0 {
		id = -id
	}
	if id == 0 || id > len(ctl.gp.atoms) {
		return nil, errors.Errorf("invalid literal %d", lit)
	}
	return ctl.gp.atoms[id-1], nil
}

// AssignExternal sets the truth value of an external atom. Literals of
// atoms that are not external are ignored.
func (ctl *Control) AssignExternal(lit Literal, tv TruthValue) error {
	if err := ctl.checkIdle("assign external"); err != nil {
		return err
	}
	if tv == TruthRelease {
		return ctl.ReleaseExternal(lit)
	}
	a, err := ctl.atomOf(lit)
	if err != nil {
		return err
	}
	if !a.external {
		return nil
	}
	if lit < 0 {
		switch tv {
		case TruthTrue:
			tv = TruthFalse
		case TruthFalse:
			tv = TruthTrue
		}
	}
	a.truth = tv
	return nil
}

// ReleaseExternal turns an external atom into a regular one, which is false
// unless derived by rules.
func (ctl *Control) ReleaseExternal(lit Literal) error {
	if err := ctl.checkIdle("release external"); err != nil {
		return err
	}
	a, err := ctl.atomOf(lit)
	if err != nil {
		return err
	}
	a.external = false
	a.truth = TruthFalse
	return nil
}

func (ctl *Control) Statistics() *Statistics {
	return ctl.stats
}

func (ctl *Control) Configuration() *Configuration {
	return ctl.conf
}

// Solve starts a search for models under the given assumptions.
func (ctl *Control) Solve(mode SolveMode, assumptions []Literal, handler SolveEventHandler) (*SolveHandle, error) {
	if err := ctl.checkIdle("solve"); err != nil {
		return nil, err
	}
	for _, l := range assumptions {
		if _, err := ctl.atomOf(l); err != nil {
			return nil, err
		}
	}
	limitText, err := ctl.conf.lookup("solve.models")
	if err != nil {
		return nil, err
	}
	limit, err := strconv.ParseUint(limitText, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "solve.models")
	}

	h := &SolveHandle{
		ctl:     ctl,
		yield:   mode&SolveYield != 0,
		changed: make(chan struct{}),
		resume:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	s := &search{
		ctl:         ctl,
		h:           h,
		enc:         encode(ctl.gp),
		assumptions: append([]Literal(nil), assumptions...),
		handler:     handler,
		limit:       limit,
	}
	ctl.solving = true
	ctl.stats.clearMap(ctl.userStep)
	go s.run()
	if mode&SolveAsync == 0 {
		if _, err := h.Get(); err != nil {
			return h, err
		}
	}
	return h, nil
}

func (ctl *Control) buildModel(enc *encoding, number uint64) *Model {
	m := &Model{number: number, lits: map[Literal]bool{}}
	for id, a := range ctl.gp.atoms {
		if !enc.isTrue(id) {
			continue
		}
		m.lits[Literal(id+1)] = true
		if a.theory != nil {
			continue
		}
		m.atoms = append(m.atoms, a.sym)
		if ctl.prog.isShown(a.sym) {
			m.shown = append(m.shown, a.sym)
		}
	}
	return m
}
