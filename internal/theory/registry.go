package theory

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Factory creates a fresh theory instance.
type Factory func() (Theory, error)

// Registry maps theory kinds to their factories.
type Registry struct {
	factories map[Kind]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
	}
}

func (r *Registry) Add(kind Kind, f Factory) {
	r.factories[kind] = f
}

func (r *Registry) Has(kind Kind) bool {
	_, ok := r.factories[kind]
	return ok
}

func (r *Registry) Create(kind Kind) (Theory, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, errors.Errorf("unknown theory %q", kind)
	}
	t, err := f()
	if err != nil {
		return nil, errors.Wrapf(err, "create theory %s", kind)
	}
	log.WithField("theory", kind).Debug("theory created")
	return t, nil
}

func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
