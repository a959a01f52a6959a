package dl

import (
	"aspd/internal/asp"
	"aspd/internal/theory"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const atomName = "diff"

var zeroNode = asp.NewNumber(0)

// edge stands for the constraint u - v <= weight, which bounds the
// potential of u by the potential of v.
type edge struct {
	from   uint32
	to     uint32
	weight int64
	atom   *asp.TheoryAtom
}

type counters struct {
	checks    int
	conflicts int
	models    int
}

// Theory handles difference constraints &diff{ u - v } <= k.
type Theory struct {
	theory.Base
	edges map[asp.Literal][]edge
	step  counters
}

func New() (theory.Theory, error) {
	return &Theory{
		Base:  theory.NewBase(),
		edges: make(map[asp.Literal][]edge),
	}, nil
}

func (t *Theory) Name() string {
	return string(theory.KindDL)
}

func (t *Theory) Register(ctl *asp.Control, prop asp.Propagator) error {
	return ctl.RegisterTheory([]string{atomName}, prop)
}

// RewriteStatement normalizes the guard of difference constraints to <=.
// Equalities become two constraints.
func (t *Theory) RewriteStatement(stmt asp.Statement, b *asp.ProgramBuilder) error {
	rule, ok := stmt.(*asp.Rule)
	if !ok || rule.Theory == nil || rule.Theory.Name != atomName {
		return b.Add(stmt)
	}
	heads, err := normalize(rule.Theory)
	if err != nil {
		return errors.Wrapf(err, "%s", rule.Loc)
	}
	for _, h := range heads {
		if err := b.Add(&asp.Rule{Loc: rule.Loc, Theory: h, Body: rule.Body}); err != nil {
			return err
		}
	}
	return nil
}

func normalize(th *asp.TheoryHead) ([]*asp.TheoryHead, error) {
	if len(th.Elements) != 1 || len(th.Elements[0]) != 1 {
		return nil, errors.Errorf("&%s expects exactly one element", atomName)
	}
	if th.Rhs == nil {
		return nil, errors.Errorf("&%s requires a guard", atomName)
	}
	u, v := split(th.Elements[0][0])
	one := &asp.SymbolTerm{Symbol: asp.NewNumber(1)}
	leq := func(u, v, k asp.Term) *asp.TheoryHead {
		return &asp.TheoryHead{
			Name:     atomName,
			Elements: [][]asp.Term{{&asp.BinaryTerm{Op: "-", Left: u, Right: v}}},
			Guard:    "<=",
			Rhs:      k,
		}
	}
	neg := &asp.UnaryTerm{Arg: th.Rhs}
	switch th.Guard {
	case "<=":
		return []*asp.TheoryHead{leq(u, v, th.Rhs)}, nil
	case "<":
		return []*asp.TheoryHead{leq(u, v, &asp.BinaryTerm{Op: "-", Left: th.Rhs, Right: one})}, nil
	case ">=":
		return []*asp.TheoryHead{leq(v, u, neg)}, nil
	case ">":
		return []*asp.TheoryHead{leq(v, u, &asp.BinaryTerm{Op: "-", Left: neg, Right: one})}, nil
	case "=":
		return []*asp.TheoryHead{leq(u, v, th.Rhs), leq(v, u, neg)}, nil
	}
	return nil, errors.Errorf("&%s does not support guard %s", atomName, th.Guard)
}

// split reads u - v. A single node u stands for u - 0.
func split(t asp.Term) (asp.Term, asp.Term) {
	if bin, ok := t.(*asp.BinaryTerm); ok && bin.Op == "-" {
		return bin.Left, bin.Right
	}
	return t, &asp.SymbolTerm{Symbol: zeroNode}
}

// Prepare collects the edges of all ground difference constraints.
func (t *Theory) Prepare(ctl *asp.Control) error {
	t.edges = make(map[asp.Literal][]edge)
	n := 0
	for _, ta := range ctl.TheoryAtoms() {
		if ta.Name != atomName {
			continue
		}
		e, err := t.edgeOf(ta)
		if err != nil {
			return err
		}
		t.edges[ta.Literal] = append(t.edges[ta.Literal], e)
		n++
	}
	log.WithFields(log.Fields{"edges": n, "nodes": t.Size()}).Debug("difference constraints prepared")
	return nil
}

func (t *Theory) edgeOf(ta *asp.TheoryAtom) (edge, error) {
	if len(ta.Elements) != 1 || len(ta.Elements[0]) != 1 || ta.Rhs == nil || ta.Guard != "<=" {
		return edge{}, errors.Errorf("malformed difference constraint %s", ta)
	}
	if !ta.Rhs.IsSymbol() || ta.Rhs.Symbol.Type() != asp.SymbolNumber {
		return edge{}, errors.Errorf("%s: bound must be an integer", ta)
	}
	elem := ta.Elements[0][0]
	var u, v asp.TheoryTerm
	switch {
	case elem.IsSymbol():
		u, v = elem, asp.TheoryTerm{Symbol: zeroNode}
	case elem.Op == "-" && len(elem.Args) == 2:
		u, v = elem.Args[0], elem.Args[1]
	default:
		return edge{}, errors.Errorf("%s: expected a difference of two nodes", ta)
	}
	if !u.IsSymbol() || !v.IsSymbol() {
		return edge{}, errors.Errorf("%s: nodes must be symbols", ta)
	}
	return edge{
		from:   t.Intern(v.Symbol),
		to:     t.Intern(u.Symbol),
		weight: int64(ta.Rhs.Symbol.Number()),
		atom:   ta,
	}, nil
}

// Check runs Bellman-Ford over the edges of the active atoms. A negative
// cycle is reported as conflict; otherwise the potentials become the
// assignment of the thread.
func (t *Theory) Check(thread uint32, active []*asp.TheoryAtom) ([]*asp.TheoryAtom, error) {
	t.step.checks++
	var edges []edge
	for _, ta := range active {
		edges = append(edges, t.edges[ta.Literal]...)
	}
	dist := make(map[uint32]int64)
	pred := make(map[uint32]int)
	for _, e := range edges {
		dist[e.from], dist[e.to] = 0, 0
	}
	relaxed := -1
	for i := 0; i <= len(dist); i++ {
		relaxed = -1
		for j, e := range edges {
			if d := dist[e.from] + e.weight; d < dist[e.to] {
				dist[e.to] = d
				pred[e.to] = j
				relaxed = j
			}
		}
		if relaxed < 0 {
			break
		}
	}
	if relaxed >= 0 {
		t.step.conflicts++
		if c := cycle(edges, pred, edges[relaxed].to, len(dist)); c != nil {
			return c, nil
		}
		return active, nil
	}

	values := make(map[uint32]theory.Value, len(dist))
	var shift int64
	zero, hasZero := t.LookupSymbol(zeroNode)
	if hasZero {
		shift = dist[zero]
	}
	for node, d := range dist {
		if hasZero && node == zero {
			continue
		}
		values[node] = theory.IntValue(d - shift)
	}
	t.SetAssignment(thread, values)
	return nil, nil
}

// cycle walks back from a node relaxed in the last round. After n steps the
// walk is inside the negative cycle.
func cycle(edges []edge, pred map[uint32]int, node uint32, n int) []*asp.TheoryAtom {
	for i := 0; i < n; i++ {
		j, ok := pred[node]
		if !ok {
			return nil
		}
		node = edges[j].from
	}
	var atoms []*asp.TheoryAtom
	seen := make(map[*asp.TheoryAtom]bool)
	cur := node
	for i := 0; i <= len(edges); i++ {
		j, ok := pred[cur]
		if !ok {
			return nil
		}
		e := edges[j]
		if !seen[e.atom] {
			seen[e.atom] = true
			atoms = append(atoms, e.atom)
		}
		cur = e.from
		if cur == node {
			return atoms
		}
	}
	return nil
}

func (t *Theory) OnModel(*asp.Model) error {
	t.step.models++
	return nil
}

func (t *Theory) OnStatistics(step, accu asp.UserStatistics) error {
	edges := 0
	for _, es := range t.edges {
		edges += len(es)
	}
	if err := step.Set("DifferenceLogic.Edges", float64(edges)); err != nil {
		return err
	}
	if err := step.Set("DifferenceLogic.Nodes", float64(t.Size())); err != nil {
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
		if err := step.Set("DifferenceLogic."+c.name, float64(c.v)); err != nil {
			return err
		}
		if err := accu.Add("DifferenceLogic."+c.name, float64(c.v)); err != nil {
			return err
		}
	}
	t.step = counters{}
	return nil
}

func (t *Theory) Close() error {
	return nil
}
