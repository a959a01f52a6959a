package asp

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

type StatisticsType int

const (
	StatisticsEmpty StatisticsType = iota
	StatisticsValue
	StatisticsArray
	StatisticsMap
)

func (t StatisticsType) String() string {
	switch t {
	case StatisticsEmpty:
		return "Empty"
	case StatisticsValue:
		return "Value"
	case StatisticsArray:
		return "Array"
	case StatisticsMap:
		return "Map"
	}
	return "Unknown"
}

type statsEntry struct {
	typ   StatisticsType
	value float64
	items []uint64
	names []string
}

// Statistics is a tree of values addressed by integer keys. Map entries
// keep their insertion order.
type Statistics struct {
	entries []*statsEntry
}

func NewStatistics() *Statistics {
	return &Statistics{entries: []*statsEntry{{typ: StatisticsMap}}}
}

func (s *Statistics) Root() uint64 {
	return 0
}

func (s *Statistics) entry(key uint64, want StatisticsType) (*statsEntry, error) {
	if key >= uint64(len(s.entries)) {
		return nil, errors.Errorf("invalid statistics key %d", key)
	}
	e := s.entries[key]
	if e.typ != want {
		return nil, errors.Errorf("statistics key %d is of type %s, not %s", key, e.typ, want)
	}
	return e, nil
}

func (s *Statistics) Type(key uint64) (StatisticsType, error) {
	if key >= uint64(len(s.entries)) {
		return StatisticsEmpty, errors.Errorf("invalid statistics key %d", key)
	}
	return s.entries[key].typ, nil
}

func (s *Statistics) ArraySize(key uint64) (uint64, error) {
	e, err := s.entry(key, StatisticsArray)
	if err != nil {
		return 0, err
	}
	return uint64(len(e.items)), nil
}

func (s *Statistics) ArrayAt(key, offset uint64) (uint64, error) {
	e, err := s.entry(key, StatisticsArray)
	if err != nil {
		return 0, err
	}
	if offset >= uint64(len(e.items)) {
		return 0, errors.Errorf("statistics array index %d out of range", offset)
	}
	return e.items[offset], nil
}

// ArrayPush appends a new entry of the given type to an array.
func (s *Statistics) ArrayPush(key uint64, typ StatisticsType) (uint64, error) {
	e, err := s.entry(key, StatisticsArray)
	if err != nil {
		return 0, err
	}
	sub := s.newEntry(typ)
	e.items = append(e.items, sub)
	return sub, nil
}

func (s *Statistics) MapSize(key uint64) (uint64, error) {
	e, err := s.entry(key, StatisticsMap)
	if err != nil {
		return 0, err
	}
	return uint64(len(e.names)), nil
}

func (s *Statistics) MapSubkeyName(key, offset uint64) (string, error) {
	e, err := s.entry(key, StatisticsMap)
	if err != nil {
		return "", err
	}
	if offset >= uint64(len(e.names)) {
		return "", errors.Errorf("statistics map index %d out of range", offset)
	}
	return e.names[offset], nil
}

func (s *Statistics) MapHasSubkey(key uint64, name string) (bool, error) {
	e, err := s.entry(key, StatisticsMap)
	if err != nil {
		return false, err
	}
	for _, n := range e.names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *Statistics) MapAt(key uint64, name string) (uint64, error) {
	e, err := s.entry(key, StatisticsMap)
	if err != nil {
		return 0, err
	}
	for i, n := range e.names {
		if n == name {
			return e.items[i], nil
		}
	}
	return 0, errors.Errorf("statistics map has no key %q", name)
}

// MapAddSubkey adds an entry to a map. An existing entry of the same type
// is returned unchanged.
func (s *Statistics) MapAddSubkey(key uint64, name string, typ StatisticsType) (uint64, error) {
	e, err := s.entry(key, StatisticsMap)
	if err != nil {
		return 0, err
	}
	for i, n := range e.names {
		if n == name {
			sub := e.items[i]
			if s.entries[sub].typ != typ {
				return 0, errors.Errorf("statistics key %q exists with type %s", name, s.entries[sub].typ)
			}
			return sub, nil
		}
	}
	sub := s.newEntry(typ)
	e.names = append(e.names, name)
	e.items = append(e.items, sub)
	return sub, nil
}

func (s *Statistics) Value(key uint64) (float64, error) {
	e, err := s.entry(key, StatisticsValue)
	if err != nil {
		return 0, err
	}
	return e.value, nil
}

func (s *Statistics) SetValue(key uint64, v float64) error {
	e, err := s.entry(key, StatisticsValue)
	if err != nil {
		return err
	}
	e.value = v
	return nil
}

func (s *Statistics) newEntry(typ StatisticsType) uint64 {
	s.entries = append(s.entries, &statsEntry{typ: typ})
	return uint64(len(s.entries) - 1)
}

// set stores v under a dotted path below the root, creating maps on the
// way.
func (s *Statistics) set(path string, v float64) {
	key := s.Root()
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		key, _ = s.MapAddSubkey(key, p, StatisticsMap)
	}
	leaf, err := s.MapAddSubkey(key, parts[len(parts)-1], StatisticsValue)
	if err == nil {
		_ = s.SetValue(leaf, v)
	}
}

func (s *Statistics) get(path string) float64 {
	key := s.Root()
	for _, p := range strings.Split(path, ".") {
		var err error
		if key, err = s.MapAt(key, p); err != nil {
			return 0
		}
	}
	v, _ := s.Value(key)
	return v
}

// clearMap drops all entries of a map. The orphaned entries stay allocated
// so keys handed out earlier remain valid.
func (s *Statistics) clearMap(key uint64) {
	if e, err := s.entry(key, StatisticsMap); err == nil {
		e.names, e.items = nil, nil
	}
}

// UserStatistics is a map in the statistics tree that theories may extend.
type UserStatistics struct {
	stats *Statistics
	key   uint64
}

func (u UserStatistics) Statistics() *Statistics {
	return u.stats
}

func (u UserStatistics) Key() uint64 {
	return u.key
}

func (u UserStatistics) resolve(path string) (uint64, error) {
	key := u.key
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		var err error
		if key, err = u.stats.MapAddSubkey(key, p, StatisticsMap); err != nil {
			return 0, err
		}
	}
	return u.stats.MapAddSubkey(key, parts[len(parts)-1], StatisticsValue)
}

// Set stores v under a dotted path, creating intermediate maps.
func (u UserStatistics) Set(path string, v float64) error {
	leaf, err := u.resolve(path)
	if err != nil {
		return err
	}
	return u.stats.SetValue(leaf, v)
}

// Add increments the value under a dotted path.
func (u UserStatistics) Add(path string, v float64) error {
	leaf, err := u.resolve(path)
	if err != nil {
		return err
	}
	cur, err := u.stats.Value(leaf)
	if err != nil {
		return err
	}
	return u.stats.SetValue(leaf, cur+v)
}

func (ctl *Control) initStatistics() {
	s := ctl.stats
	for _, path := range []string{
		"summary.call",
		"summary.result",
		"summary.models.enumerated",
		"summary.times.total",
		"summary.times.solve",
		"problem.lp.atoms",
		"problem.lp.rules",
		"problem.lp.bodies",
		"problem.generator.vars",
		"problem.generator.constraints",
		"solving.solvers.calls",
		"solving.solvers.loop_nogoods",
		"solving.solvers.theory_conflicts",
	} {
		s.set(path, 0)
	}
	ctl.userStep, _ = s.MapAddSubkey(s.Root(), "user_step", StatisticsMap)
	ctl.userAccu, _ = s.MapAddSubkey(s.Root(), "user_accu", StatisticsMap)
}

func (ctl *Control) userStatistics() (UserStatistics, UserStatistics) {
	return UserStatistics{stats: ctl.stats, key: ctl.userStep}, UserStatistics{stats: ctl.stats, key: ctl.userAccu}
}

func (ctl *Control) recordStatistics(s *search, result SolveResult, took time.Duration) {
	st := ctl.stats
	st.set("summary.call", st.get("summary.call")+1)
	switch {
	case result.Satisfiable():
		st.set("summary.result", 1)
	case result.Unsatisfiable():
		st.set("summary.result", 2)
	default:
		st.set("summary.result", 0)
	}
	st.set("summary.models.enumerated", float64(s.models))
	st.set("summary.times.solve", took.Seconds())
	st.set("summary.times.total", st.get("summary.times.total")+took.Seconds())
	st.set("problem.lp.atoms", float64(len(ctl.gp.atoms)))
	st.set("problem.lp.rules", float64(len(ctl.gp.rules)))
	st.set("problem.lp.bodies", float64(len(s.enc.bodies)))
	st.set("problem.generator.vars", float64(s.enc.c.Len()))
	st.set("problem.generator.constraints", float64(s.enc.clauses))
	st.set("solving.solvers.calls", float64(s.calls))
	st.set("solving.solvers.loop_nogoods", float64(s.loops))
	st.set("solving.solvers.theory_conflicts", float64(s.conflicts))
}
