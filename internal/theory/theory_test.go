package theory

import (
	"sync"
	"testing"

	"aspd/internal/asp"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fake struct {
	Base
	checks int
}

func (f *fake) Name() string { return "fake" }

func (f *fake) Register(ctl *asp.Control, prop asp.Propagator) error {
	return ctl.RegisterTheory([]string{"fake"}, prop)
}

func (f *fake) RewriteStatement(stmt asp.Statement, b *asp.ProgramBuilder) error {
	return b.Add(stmt)
}

func (f *fake) Prepare(*asp.Control) error { return nil }
func (f *fake) OnModel(*asp.Model) error { return nil }
func (f *fake) OnStatistics(_, _ asp.UserStatistics) error { return nil }
func (f *fake) Close() error { return nil }

func (f *fake) Check(uint32, []*asp.TheoryAtom) ([]*asp.TheoryAtom, error) {
	f.checks++
	return nil, nil
}

func newFake() *fake {
	return &fake{Base: NewBase()}
}

func Test_registry(t *testing.T) {
	r := NewRegistry()
	r.Add(KindDL, func() (Theory, error) { return newFake(), nil })
	r.Add(KindClingcon, func() (Theory, error) { return nil, errors.New("no library") })
	assert.Equal(t, []Kind{KindClingcon, KindDL}, r.Kinds())

	th, err := r.Create(KindDL)
	require.Nil(t, err)
	assert.Equal(t, "fake", th.Name())

	_, err = r.Create(KindClingcon)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "no library")

	_, err = r.Create("lp")
	assert.NotNil(t, err)
}

func Test_assignment(t *testing.T) {
	f := newFake()
	a := f.Intern(asp.NewFunction("a"))
	b := f.Intern(asp.NewFunction("b"))
	c := f.Intern(asp.NewFunction("c"))
	assert.Equal(t, a, f.Intern(asp.NewFunction("a")))
	f.SetAssignment(0, map[uint32]Value{
		a: IntValue(3),
		c: SymbolValue(asp.NewString("x")),
	})
	f.SetAssignment(1, map[uint32]Value{b: FloatValue(1.5)})

	collect := func(thread uint32) []string {
		var out []string
		it := NewAssignment(f, thread)
		for {
			sym, val, ok := it.Next()
			if !ok {
				return out
			}
			out = append(out, sym.String()+"="+val.String())
		}
	}
	assert.Equal(t, []string{"a=3", `c="x"`}, collect(0))
	assert.Equal(t, collect(0), collect(0))
	assert.Equal(t, []string{"b=1.5"}, collect(1))
	assert.Empty(t, collect(2))

	idx, ok := f.LookupSymbol(asp.NewFunction("b"))
	assert.True(t, ok)
	assert.Equal(t, b, idx)
	_, ok = f.LookupSymbol(asp.NewFunction("d"))
	assert.False(t, ok)
	assert.True(t, f.HasValue(0, c))
	assert.False(t, f.HasValue(0, b))
}

func Test_sharedHandle(t *testing.T) {
	f := newFake()
	s := NewShared(KindDL, f)
	assert.Equal(t, KindDL, s.Kind())

	ctl, err := asp.NewControl(nil)
	require.Nil(t, err)
	require.Nil(t, s.Register(ctl))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Check(0, nil)
			_ = s.Do(func(th Theory) error {
				th.(*fake).Intern(asp.NewNumber(1))
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, f.checks)
	assert.Equal(t, 1, f.Size())
	assert.Nil(t, s.Close())
}
