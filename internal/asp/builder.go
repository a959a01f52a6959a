package asp

import (
	"github.com/pkg/errors"
)

// ProgramBuilder adds parsed statements to a control object. Statements go
// to the current block, which #program directives switch.
type ProgramBuilder struct {
	ctl   *Control
	cur   *block
	added int
	ended bool
}

func (b *ProgramBuilder) Add(stmt Statement) error {
	if b.ended {
		return errors.New("program builder already ended")
	}
	switch s := stmt.(type) {
	case *ProgramDirective:
		b.cur = b.ctl.prog.block(s.Name, s.Params)
		return nil
	case *ConstDirective:
		return b.ctl.prog.defineConst(s)
	case *ShowDirective:
		b.ctl.prog.show(s)
		return nil
	}
	if err := checkSafety(stmt); err != nil {
		return err
	}
	b.cur.stmts = append(b.cur.stmts, stmt)
	b.added++
	return nil
}

// End finishes the builder. It is safe to call End more than once.
func (b *ProgramBuilder) End() error {
	b.ended = true
	return nil
}

// Added returns the number of rules and externals added so far.
func (b *ProgramBuilder) Added() int {
	return b.added
}
