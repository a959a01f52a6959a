package asp

import (
	"fmt"

	"github.com/pkg/errors"
)

type parser struct {
	toks []token
	pos  int
	anon int
}

// ParseProgram parses program text and hands every statement to fn in
// order. Parsing stops at the first error returned by fn.
func ParseProgram(text string, fn func(Statement) error) error {
	toks, err := tokenize(text)
	if err != nil {
		return err
	}
	p := &parser{toks: toks}
	for p.cur().kind != tokEOF {
		stmt, err := p.statement()
		if err != nil {
			return err
		}
		if err := fn(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ParseTerm parses the textual representation of a ground term.
func ParseTerm(text string) (Symbol, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Symbol{}, err
	}
	p := &parser{toks: toks}
	t, err := p.term()
	if err != nil {
		return Symbol{}, err
	}
	if tok := p.cur(); tok.kind != tokEOF {
		return Symbol{}, errors.Errorf("%s: unexpected %s after term", tok.loc, tok)
	}
	syms, err := evalTerm(t, nil, nil)
	if err != nil {
		return Symbol{}, err
	}
	if len(syms) != 1 {
		return Symbol{}, errors.Errorf("term %s does not denote a single symbol", t)
	}
	return syms[0], nil
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) lookahead(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) bump() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(text string) bool {
	if p.cur().is(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		tok := p.cur()
		return errors.Errorf("%s: expected '%s' but got %s", tok.loc, text, tok)
	}
	return nil
}

func (p *parser) unexpected() error {
	tok := p.cur()
	return errors.Errorf("%s: unexpected %s", tok.loc, tok)
}

func (p *parser) statement() (Statement, error) {
	tok := p.cur()
	if tok.kind == tokDirective {
		return p.directive()
	}
	rule := &Rule{Loc: tok.loc}
	if p.accept(":-") {
		body, err := p.body()
		if err != nil {
			return nil, err
		}
		rule.Body = body
		return rule, p.expect(".")
	}
	if err := p.head(rule); err != nil {
		return nil, err
	}
	if p.accept(";") || p.accept("|") {
		return nil, errors.Errorf("%s: disjunctive heads are not supported", tok.loc)
	}
	if p.accept(":-") && !p.cur().is(".") {
		body, err := p.body()
		if err != nil {
			return nil, err
		}
		rule.Body = body
	}
	return rule, p.expect(".")
}

func (p *parser) directive() (Statement, error) {
	tok := p.bump()
	switch tok.text {
	case "#program":
		name := p.bump()
		if name.kind != tokIdent {
			return nil, errors.Errorf("%s: expected program name", name.loc)
		}
		d := &ProgramDirective{Loc: tok.loc, Name: name.text}
		if p.accept("(") {
			for !p.accept(")") {
				param := p.bump()
				if param.kind != tokIdent {
					return nil, errors.Errorf("%s: expected program parameter", param.loc)
				}
				d.Params = append(d.Params, param.text)
				if !p.cur().is(")") {
					if err := p.expect(","); err != nil {
						return nil, err
					}
				}
			}
		}
		return d, p.expect(".")
	case "#const":
		name := p.bump()
		if name.kind != tokIdent {
			return nil, errors.Errorf("%s: expected constant name", name.loc)
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		val, err := p.term()
		if err != nil {
			return nil, err
		}
		return &ConstDirective{Loc: tok.loc, Name: name.text, Value: val}, p.expect(".")
	case "#external":
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		d := &ExternalDirective{Loc: tok.loc, Atom: atom}
		if p.accept(":") && !p.cur().is(".") {
			if d.Body, err = p.body(); err != nil {
				return nil, err
			}
		}
		return d, p.expect(".")
	case "#show":
		d := &ShowDirective{Loc: tok.loc}
		if p.accept(".") {
			return d, nil
		}
		name := p.bump()
		if name.kind != tokIdent {
			return nil, errors.Errorf("%s: only signatures can be shown", name.loc)
		}
		if err := p.expect("/"); err != nil {
			return nil, err
		}
		arity := p.bump()
		if arity.kind != tokNumber {
			return nil, errors.Errorf("%s: expected arity", arity.loc)
		}
		d.Name, d.Arity = name.text, arity.num
		return d, p.expect(".")
	}
	return nil, errors.Errorf("%s: unsupported directive %s", tok.loc, tok.text)
}

func (p *parser) head(rule *Rule) error {
	if p.cur().is("&") {
		th, err := p.theoryHead()
		if err != nil {
			return err
		}
		rule.Theory = th
		return nil
	}
	if p.cur().is("{") {
		c, err := p.choice(nil)
		rule.Choice = c
		return err
	}
	if p.cur().kind == tokIdent && !p.lookahead(1).is("{") {
		atom, err := p.atom()
		rule.Head = atom
		return err
	}
	lower, err := p.additive()
	if err != nil {
		return err
	}
	if !p.cur().is("{") {
		return p.unexpected()
	}
	c, err := p.choice(lower)
	rule.Choice = c
	return err
}

func (p *parser) choice(lower Term) (*Choice, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	c := &Choice{Lower: lower}
	for !p.accept("}") {
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		elem := ChoiceElement{Atom: atom}
		if p.accept(":") {
			for {
				lit, err := p.literal()
				if err != nil {
					return nil, err
				}
				elem.Condition = append(elem.Condition, lit)
				if !p.accept(",") {
					break
				}
			}
		}
		c.Elements = append(c.Elements, elem)
		if !p.cur().is("}") {
			if err := p.expect(";"); err != nil {
				return nil, err
			}
		}
	}
	switch tok := p.cur(); {
	case tok.kind == tokNumber, tok.kind == tokVariable, tok.kind == tokIdent, tok.is("("):
		upper, err := p.additive()
		if err != nil {
			return nil, err
		}
		c.Upper = upper
	}
	return c, nil
}

func (p *parser) theoryHead() (*TheoryHead, error) {
	if err := p.expect("&"); err != nil {
		return nil, err
	}
	name := p.bump()
	if name.kind != tokIdent {
		return nil, errors.Errorf("%s: expected theory atom name", name.loc)
	}
	th := &TheoryHead{Name: name.text}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for !p.accept("}") {
		var elem []Term
		for {
			t, err := p.term()
			if err != nil {
				return nil, err
			}
			elem = append(elem, t)
			if !p.accept(",") {
				break
			}
		}
		if p.cur().is(":") {
			return nil, errors.Errorf("%s: conditional theory elements are not supported", p.cur().loc)
		}
		th.Elements = append(th.Elements, elem)
		if !p.cur().is("}") {
			if err := p.expect(";"); err != nil {
				return nil, err
			}
		}
	}
	if op, ok := p.compareOp(); ok {
		rhs, err := p.term()
		if err != nil {
			return nil, err
		}
		th.Guard, th.Rhs = op, rhs
	}
	return th, nil
}

func (p *parser) body() ([]BodyLiteral, error) {
	var lits []BodyLiteral
	for {
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
		if !p.accept(",") && !p.accept(";") {
			return lits, nil
		}
	}
}

func (p *parser) literal() (BodyLiteral, error) {
	negated := false
	if p.cur().kind == tokNot {
		p.bump()
		negated = true
		if p.cur().kind == tokNot {
			return BodyLiteral{}, errors.Errorf("%s: double negation is not supported", p.cur().loc)
		}
	}
	if p.cur().is("&") {
		return BodyLiteral{}, errors.Errorf("%s: theory atoms are only supported in rule heads", p.cur().loc)
	}
	tok := p.cur()
	left, err := p.term()
	if err != nil {
		return BodyLiteral{}, err
	}
	if op, ok := p.compareOp(); ok {
		right, err := p.term()
		if err != nil {
			return BodyLiteral{}, err
		}
		if negated {
			op = negateCompare(op)
		}
		return BodyLiteral{Comparison: &Comparison{Op: op, Left: left, Right: right}}, nil
	}
	atom, err := termToAtom(left)
	if err != nil {
		return BodyLiteral{}, errors.Wrapf(err, "%s", tok.loc)
	}
	return BodyLiteral{Negated: negated, Atom: atom}, nil
}

func (p *parser) compareOp() (string, bool) {
	tok := p.cur()
	if tok.kind != tokPunct {
		return "", false
	}
	switch tok.text {
	case "=", "==":
		p.bump()
		return "=", true
	case "!=", "<>":
		p.bump()
		return "!=", true
	case "<", "<=", ">", ">=":
		p.bump()
		return tok.text, true
	}
	return "", false
}

func negateCompare(op string) string {
	switch op {
	case "=":
		return "!="
	case "!=":
		return "="
	case "<":
		return ">="
	case "<=":
		return ">"
	case ">":
		return "<="
	}
	return "<"
}

func termToAtom(t Term) (*Atom, error) {
	if f, ok := t.(*FunctionTerm); ok && f.Name != "" {
		return &Atom{Name: f.Name, Args: f.Args}, nil
	}
	return nil, fmt.Errorf("%s is not an atom", t)
}

func (p *parser) atom() (*Atom, error) {
	tok := p.cur()
	if tok.kind != tokIdent {
		return nil, errors.Errorf("%s: expected atom but got %s", tok.loc, tok)
	}
	t, err := p.primary()
	if err != nil {
		return nil, err
	}
	return termToAtom(t)
}

func (p *parser) term() (Term, error) {
	lo, err := p.additive()
	if err != nil {
		return nil, err
	}
	if p.accept("..") {
		hi, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &IntervalTerm{Lo: lo, Hi: hi}, nil
	}
	return lo, nil
}

func (p *parser) additive() (Term, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().is("+") || p.cur().is("-") {
		op := p.bump().text
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryTerm{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) multiplicative() (Term, error) {
	left, err := p.power()
	if err != nil {
		return nil, err
	}
	for p.cur().is("*") || p.cur().is("/") || p.cur().is("\\") {
		op := p.bump().text
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		left = &BinaryTerm{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) power() (Term, error) {
	base, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.accept("**") {
		exp, err := p.power()
		if err != nil {
			return nil, err
		}
		return &BinaryTerm{Op: "**", Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) unary() (Term, error) {
	if p.accept("-") {
		arg, err := p.unary()
		if err != nil {
			return nil, err
		}
		if s, ok := arg.(*SymbolTerm); ok && s.Symbol.Type() == SymbolNumber {
			return &SymbolTerm{Symbol: NewNumber(-s.Symbol.Number())}, nil
		}
		return &UnaryTerm{Arg: arg}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Term, error) {
	tok := p.bump()
	switch tok.kind {
	case tokNumber:
		return &SymbolTerm{Symbol: NewNumber(tok.num)}, nil
	case tokString:
		return &SymbolTerm{Symbol: NewString(tok.text)}, nil
	case tokVariable:
		if tok.text == "_" {
			p.anon++
			return &Variable{Name: fmt.Sprintf("_%d", p.anon)}, nil
		}
		return &Variable{Name: tok.text}, nil
	case tokIdent:
		f := &FunctionTerm{Name: tok.text}
		if p.accept("(") {
			args, err := p.termList(")")
			if err != nil {
				return nil, err
			}
			f.Args = args
		}
		return f, nil
	case tokPunct:
		if tok.text == "(" {
			if p.accept(")") {
				return &FunctionTerm{}, nil
			}
			first, err := p.term()
			if err != nil {
				return nil, err
			}
			if p.accept(")") {
				return first, nil
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
			args := []Term{first}
			if !p.accept(")") {
				rest, err := p.termList(")")
				if err != nil {
					return nil, err
				}
				args = append(args, rest...)
			}
			return &FunctionTerm{Args: args}, nil
		}
	}
	return nil, errors.Errorf("%s: unexpected %s in term", tok.loc, tok)
}

// termList parses comma separated terms up to and including the closing
// token.
func (p *parser) termList(closing string) ([]Term, error) {
	var ts []Term
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
		if p.accept(closing) {
			return ts, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
