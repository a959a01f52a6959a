package asp

import (
	"fmt"
	"strconv"
	"strings"
)

type Location struct {
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Term is a non-ground term of the input language.
type Term interface {
	String() string
	isTerm()
}

type SymbolTerm struct {
	Symbol Symbol
}

type Variable struct {
	Name string
}

// FunctionTerm is a function or, with an empty name, a tuple.
type FunctionTerm struct {
	Name string
	Args []Term
}

type BinaryTerm struct {
	Op    string
	Left  Term
	Right Term
}

type UnaryTerm struct {
	Arg Term
}

type IntervalTerm struct {
	Lo Term
	Hi Term
}

func (*SymbolTerm) isTerm()   {}
func (*Variable) isTerm()     {}
func (*FunctionTerm) isTerm() {}
func (*BinaryTerm) isTerm()   {}
func (*UnaryTerm) isTerm()    {}
func (*IntervalTerm) isTerm() {}

func (t *SymbolTerm) String() string { return t.Symbol.String() }
func (t *Variable) String() string   { return t.Name }

func (t *FunctionTerm) String() string {
	if t.Name != "" && len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "(" + joinTerms(t.Args, ",")
	if t.Name == "" && len(t.Args) == 1 {
		s += ","
	}
	return s + ")"
}

func (t *BinaryTerm) String() string {
	return "(" + t.Left.String() + t.Op + t.Right.String() + ")"
}

func (t *UnaryTerm) String() string { return "-" + t.Arg.String() }

func (t *IntervalTerm) String() string {
	return "(" + t.Lo.String() + ".." + t.Hi.String() + ")"
}

func joinTerms(ts []Term, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

type Atom struct {
	Name string
	Args []Term
}

func (a *Atom) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Name + "(" + joinTerms(a.Args, ",") + ")"
}

type Comparison struct {
	Op    string
	Left  Term
	Right Term
}

func (c *Comparison) String() string {
	return c.Left.String() + c.Op + c.Right.String()
}

// BodyLiteral is a body literal: a possibly negated atom or a comparison.
type BodyLiteral struct {
	Negated    bool
	Atom       *Atom
	Comparison *Comparison
}

func (l BodyLiteral) String() string {
	if l.Comparison != nil {
		return l.Comparison.String()
	}
	if l.Negated {
		return "not " + l.Atom.String()
	}
	return l.Atom.String()
}

func joinLiterals(ls []BodyLiteral) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

type ChoiceElement struct {
	Atom      *Atom
	Condition []BodyLiteral
}

type Choice struct {
	Lower    Term
	Upper    Term
	Elements []ChoiceElement
}

func (c *Choice) String() string {
	var sb strings.Builder
	if c.Lower != nil {
		sb.WriteString(c.Lower.String())
	}
	sb.WriteByte('{')
	for i, e := range c.Elements {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(e.Atom.String())
		if len(e.Condition) > 0 {
			sb.WriteByte(':')
			sb.WriteString(joinLiterals(e.Condition))
		}
	}
	sb.WriteByte('}')
	if c.Upper != nil {
		sb.WriteString(c.Upper.String())
	}
	return sb.String()
}

// TheoryHead is a theory atom occurring in a rule head, e.g.
// &diff{ x - y } <= 5.
type TheoryHead struct {
	Name     string
	Elements [][]Term
	Guard    string
	Rhs      Term
}

func (t *TheoryHead) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = joinTerms(e, ",")
	}
	s := "&" + t.Name + "{" + strings.Join(elems, ";") + "}"
	if t.Guard != "" {
		s += t.Guard + t.Rhs.String()
	}
	return s
}

// Statement is one element of a parsed program.
type Statement interface {
	Location() Location
	String() string
}

// Rule has at most one of Head, Choice and Theory set. A rule without head
// is an integrity constraint.
type Rule struct {
	Loc    Location
	Head   *Atom
	Choice *Choice
	Theory *TheoryHead
	Body   []BodyLiteral
}

func (r *Rule) Location() Location { return r.Loc }

func (r *Rule) String() string {
	var head string
	switch {
	case r.Head != nil:
		head = r.Head.String()
	case r.Choice != nil:
		head = r.Choice.String()
	case r.Theory != nil:
		head = r.Theory.String()
	}
	if len(r.Body) == 0 {
		return head + "."
	}
	if head == "" {
		return ":-" + joinLiterals(r.Body) + "."
	}
	return head + ":-" + joinLiterals(r.Body) + "."
}

type ProgramDirective struct {
	Loc    Location
	Name   string
	Params []string
}

func (p *ProgramDirective) Location() Location { return p.Loc }

func (p *ProgramDirective) String() string {
	if len(p.Params) == 0 {
		return "#program " + p.Name + "."
	}
	return "#program " + p.Name + "(" + strings.Join(p.Params, ",") + ")."
}

type ConstDirective struct {
	Loc   Location
	Name  string
	Value Term
}

func (c *ConstDirective) Location() Location { return c.Loc }

func (c *ConstDirective) String() string {
	return "#const " + c.Name + "=" + c.Value.String() + "."
}

type ExternalDirective struct {
	Loc  Location
	Atom *Atom
	Body []BodyLiteral
}

func (e *ExternalDirective) Location() Location { return e.Loc }

func (e *ExternalDirective) String() string {
	if len(e.Body) == 0 {
		return "#external " + e.Atom.String() + "."
	}
	return "#external " + e.Atom.String() + ":" + joinLiterals(e.Body) + "."
}

// ShowDirective with an empty name hides all atoms not shown explicitly.
type ShowDirective struct {
	Loc   Location
	Name  string
	Arity int
}

func (s *ShowDirective) Location() Location { return s.Loc }

func (s *ShowDirective) String() string {
	if s.Name == "" {
		return "#show."
	}
	return "#show " + s.Name + "/" + strconv.Itoa(s.Arity) + "."
}
