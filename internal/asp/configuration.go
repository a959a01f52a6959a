package asp

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type ConfigurationType uint

const (
	ConfigurationValue ConfigurationType = 1 << iota
	ConfigurationArray
	ConfigurationMap
)

func (t ConfigurationType) String() string {
	var parts []string
	if t&ConfigurationValue != 0 {
		parts = append(parts, "Value")
	}
	if t&ConfigurationArray != 0 {
		parts = append(parts, "Array")
	}
	if t&ConfigurationMap != 0 {
		parts = append(parts, "Map")
	}
	return strings.Join(parts, "|")
}

type configEntry struct {
	typ      ConfigurationType
	value    string
	desc     string
	check    func(string) error
	items    []uint32
	names    []string
	template func(c *Configuration) uint32
}

// Configuration is the tree of solver options addressed by integer keys.
type Configuration struct {
	entries []*configEntry
}

func (c *Configuration) Root() uint32 {
	return 0
}

func (c *Configuration) get(key uint32) (*configEntry, error) {
	if key >= uint32(len(c.entries)) {
		return nil, errors.Errorf("invalid configuration key %d", key)
	}
	return c.entries[key], nil
}

func (c *Configuration) entryOf(key uint32, want ConfigurationType) (*configEntry, error) {
	e, err := c.get(key)
	if err != nil {
		return nil, err
	}
	if e.typ&want == 0 {
		return nil, errors.Errorf("configuration key %d is not of type %s", key, want)
	}
	return e, nil
}

func (c *Configuration) Type(key uint32) (ConfigurationType, error) {
	e, err := c.get(key)
	if err != nil {
		return 0, err
	}
	return e.typ, nil
}

func (c *Configuration) Description(key uint32) (string, error) {
	e, err := c.get(key)
	if err != nil {
		return "", err
	}
	return e.desc, nil
}

func (c *Configuration) ArraySize(key uint32) (uint32, error) {
	e, err := c.entryOf(key, ConfigurationArray)
	if err != nil {
		return 0, err
	}
	return uint32(len(e.items)), nil
}

// ArrayAt returns the entry at offset. The array never grows.
func (c *Configuration) ArrayAt(key, offset uint32) (uint32, error) {
	return c.arrayAt(key, offset, false)
}

// arrayAt grows an array with a template by one entry when grow is set and
// offset is the first offset past its end.
func (c *Configuration) arrayAt(key, offset uint32, grow bool) (uint32, error) {
	e, err := c.entryOf(key, ConfigurationArray)
	if err != nil {
		return 0, err
	}
	if grow && offset == uint32(len(e.items)) && e.template != nil {
		e.items = append(e.items, e.template(c))
	}
	if offset >= uint32(len(e.items)) {
		return 0, errors.Errorf("configuration array index %d out of range", offset)
	}
	return e.items[offset], nil
}

func (c *Configuration) MapSize(key uint32) (uint32, error) {
	e, err := c.entryOf(key, ConfigurationMap)
	if err != nil {
		return 0, err
	}
	return uint32(len(e.names)), nil
}

func (c *Configuration) MapSubkeyName(key, offset uint32) (string, error) {
	e, err := c.entryOf(key, ConfigurationMap)
	if err != nil {
		return "", err
	}
	if offset >= uint32(len(e.names)) {
		return "", errors.Errorf("configuration map index %d out of range", offset)
	}
	return e.names[offset], nil
}

func (c *Configuration) MapAt(key uint32, name string) (uint32, error) {
	e, err := c.entryOf(key, ConfigurationMap)
	if err != nil {
		return 0, err
	}
	for i, n := range e.names {
		if n == name {
			return e.items[i], nil
		}
	}
	return 0, errors.Errorf("unknown configuration key %q", name)
}

func (c *Configuration) Value(key uint32) (string, error) {
	e, err := c.entryOf(key, ConfigurationValue)
	if err != nil {
		return "", err
	}
	return e.value, nil
}

func (c *Configuration) SetValue(key uint32, value string) error {
	e, err := c.entryOf(key, ConfigurationValue)
	if err != nil {
		return err
	}
	if e.check != nil {
		if err := e.check(value); err != nil {
			return errors.Wrapf(err, "invalid configuration value %q", value)
		}
	}
	e.value = value
	return nil
}

// resolve follows a dotted path of map names and array indices.
func (c *Configuration) resolve(path string) (uint32, error) {
	key := c.Root()
	for _, p := range strings.Split(path, ".") {
		e, err := c.get(key)
		if err != nil {
			return 0, err
		}
		if e.typ&ConfigurationArray != 0 {
			i, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				return 0, errors.Wrapf(err, "configuration path %s", path)
			}
			if key, err = c.arrayAt(key, uint32(i), true); err != nil {
				return 0, err
			}
			continue
		}
		if key, err = c.MapAt(key, p); err != nil {
			return 0, err
		}
	}
	return key, nil
}

func (c *Configuration) lookup(path string) (string, error) {
	key, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	return c.Value(key)
}

func (c *Configuration) add(e *configEntry) uint32 {
	c.entries = append(c.entries, e)
	return uint32(len(c.entries) - 1)
}

func (c *Configuration) child(parent uint32, name string, e *configEntry) uint32 {
	key := c.add(e)
	p := c.entries[parent]
	p.names = append(p.names, name)
	p.items = append(p.items, key)
	return key
}

func (c *Configuration) value(parent uint32, name, def, desc string, check func(string) error) {
	c.child(parent, name, &configEntry{typ: ConfigurationValue, value: def, desc: desc, check: check})
}

func checkUint(v string) error {
	_, err := strconv.ParseUint(v, 10, 32)
	return err
}

func checkInt(v string) error {
	_, err := strconv.Atoi(v)
	return err
}

func checkBool(v string) error {
	switch v {
	case "0", "1", "yes", "no", "true", "false", "on", "off":
		return nil
	}
	return errors.New("expected a boolean")
}

func checkOneOf(vals ...string) func(string) error {
	return func(v string) error {
		head := strings.SplitN(v, ",", 2)[0]
		for _, o := range vals {
			if head == o {
				return nil
			}
		}
		return errors.Errorf("expected one of %s", strings.Join(vals, ", "))
	}
}

func checkParallel(v string) error {
	n := strings.SplitN(v, ",", 2)[0]
	i, err := strconv.Atoi(n)
	if err != nil {
		return err
	}
	if i < 1 {
		return errors.New("expected at least one thread")
	}
	return nil
}

func nonEmpty(v string) error {
	if v == "" {
		return errors.New("empty value")
	}
	return nil
}

// solverOptions fills the per solver option map.
func (c *Configuration) solverOptions(key uint32) {
	c.value(key, "configuration", "auto", "initial configuration", nonEmpty)
	c.value(key, "share", "auto", "physical sharing of problem constraints", checkOneOf("auto", "all", "none", "problem", "learnt"))
	c.value(key, "learn_explicit", "0", "do not use short clauses", checkBool)
	c.value(key, "sat_prepro", "no", "SatELite-like preprocessing", checkOneOf("no", "yes", "0", "1", "2", "3"))
	c.value(key, "seed", "1", "seed of the random number generator", checkInt)
	c.value(key, "heuristic", "auto", "decision heuristic", checkOneOf("auto", "berkmin", "vmtf", "vsids", "domain", "unit", "none"))
}

func newConfiguration() *Configuration {
	c := &Configuration{}
	root := c.add(&configEntry{typ: ConfigurationMap, desc: "options"})
	solverTemplate := func(c *Configuration) uint32 {
		k := c.add(&configEntry{typ: ConfigurationMap, desc: "solver options"})
		c.solverOptions(k)
		return k
	}

	tester := c.child(root, "tester", &configEntry{typ: ConfigurationMap, desc: "tester options"})
	c.child(tester, "solver", &configEntry{typ: ConfigurationArray, desc: "tester solver options", template: solverTemplate})
	c.value(tester, "configuration", "auto", "initial configuration", nonEmpty)
	c.value(tester, "share", "auto", "physical sharing of problem constraints", checkOneOf("auto", "all", "none", "problem", "learnt"))
	c.value(tester, "learn_explicit", "0", "do not use short clauses", checkBool)
	c.value(tester, "sat_prepro", "no", "SatELite-like preprocessing", checkOneOf("no", "yes", "0", "1", "2", "3"))

	solve := c.child(root, "solve", &configEntry{typ: ConfigurationMap, desc: "solve options"})
	c.value(solve, "solve_limit", "umax,umax", "stop search after the given number of conflicts and restarts", nonEmpty)
	c.value(solve, "parallel_mode", "1,compete", "number of threads and parallel mode", checkParallel)
	c.value(solve, "global_restarts", "no", "global restart policy", nonEmpty)
	c.value(solve, "distribute", "conflict,global,4,4194303", "nogood distribution", nonEmpty)
	c.value(solve, "integrate", "gp,1024,all", "nogood integration", nonEmpty)
	c.value(solve, "enum_mode", "auto", "enumeration mode", checkOneOf("auto", "bt", "record", "domRec", "brave", "cautious", "query", "user"))
	c.value(solve, "project", "no", "enable projective enumeration", checkOneOf("no", "auto", "show", "project"))
	c.value(solve, "models", "0", "number of models to compute, 0 for all", checkUint)
	c.value(solve, "opt_mode", "opt", "optimization mode", checkOneOf("opt", "enum", "optN", "ignore"))

	asp := c.child(root, "asp", &configEntry{typ: ConfigurationMap, desc: "asp options"})
	c.value(asp, "trans_ext", "dynamic", "extended rule translation", checkOneOf("all", "choice", "card", "weight", "scc", "integ", "dynamic", "no"))
	c.value(asp, "eq", "3", "equivalence preprocessing iterations", checkUint)
	c.value(asp, "backprop", "0", "backpropagation in equivalence preprocessing", checkBool)
	c.value(asp, "supp_models", "0", "compute supported models", checkBool)
	c.value(asp, "no_ufs_check", "0", "disable unfounded set check", checkBool)
	c.value(asp, "no_gamma", "0", "do not add gamma rules", checkBool)
	c.value(asp, "eq_dfs", "0", "depth-first equivalence preprocessing", checkBool)
	c.value(asp, "dlp_old_map", "0", "old mapping for disjunctive programs", checkBool)

	solver := c.child(root, "solver", &configEntry{typ: ConfigurationArray, desc: "solver options", template: solverTemplate})
	c.entries[solver].items = append(c.entries[solver].items, solverTemplate(c))

	c.value(root, "configuration", "auto", "initial configuration", nonEmpty)
	c.value(root, "share", "auto", "physical sharing of problem constraints", checkOneOf("auto", "all", "none", "problem", "learnt"))
	c.value(root, "learn_explicit", "0", "do not use short clauses", checkBool)
	c.value(root, "sat_prepro", "no", "SatELite-like preprocessing", checkOneOf("no", "yes", "0", "1", "2", "3"))
	c.value(root, "stats", "0", "statistics level", checkOneOf("0", "1", "2"))
	c.value(root, "parse_ext", "false", "parse extended input", checkBool)
	c.value(root, "parse_maxsat", "false", "parse maxsat input", checkBool)
	return c
}
