package asp

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

type options struct {
	models string
	consts map[string]Symbol
	seed   string
}

// parseArgs understands a subset of the usual solver command line: an
// optional positional model count, -n/--models, -c/--const and --seed.
func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("control", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	models := fs.StringP("models", "n", "", "compute at most n models (0 for all)")
	consts := fs.StringArrayP("const", "c", nil, "replace constant name by value (name=value)")
	seed := fs.String("seed", "", "seed for the random number generator")
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "invalid arguments")
	}

	opts := &options{models: *models, seed: *seed, consts: map[string]Symbol{}}
	for _, arg := range fs.Args() {
		if _, err := strconv.ParseUint(arg, 10, 32); err != nil || opts.models != "" {
			return nil, errors.Errorf("invalid argument %q", arg)
		}
		opts.models = arg
	}
	if opts.models != "" {
		if _, err := strconv.ParseUint(opts.models, 10, 32); err != nil {
			return nil, errors.Wrapf(err, "invalid number of models %q", opts.models)
		}
	}
	for _, c := range *consts {
		name, value, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("invalid constant definition %q", c)
		}
		sym, err := ParseTerm(value)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", name)
		}
		opts.consts[name] = sym
	}
	return opts, nil
}
