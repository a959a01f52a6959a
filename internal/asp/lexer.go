package asp

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokVariable
	tokNumber
	tokString
	tokNot
	tokDirective
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  int
	loc  Location
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "<EOF>"
	case tokString:
		return strconv.Quote(t.text)
	}
	return "'" + t.text + "'"
}

func (t token) is(text string) bool {
	return (t.kind == tokPunct || t.kind == tokDirective) && t.text == text
}

// punctuation, longest first
var puncts = []string{
	":-", "..", "**", "!=", "<>", "<=", ">=", "==",
	"(", ")", "{", "}", "[", "]", ",", ";", ".", ":", "+", "-", "*", "/", "\\",
	"=", "<", ">", "&", "|",
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: []rune(src), line: 1, col: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) peek(off int) rune {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipSpace() error {
	for lx.pos < len(lx.src) {
		r := lx.peek(0)
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == '%' && lx.peek(1) == '*':
			loc := Location{Line: lx.line, Column: lx.col}
			lx.advance()
			lx.advance()
			for {
				if lx.pos >= len(lx.src) {
					return errors.Errorf("%s: unterminated block comment", loc)
				}
				if lx.peek(0) == '*' && lx.peek(1) == '%' {
					lx.advance()
					lx.advance()
					break
				}
				lx.advance()
			}
		case r == '%':
			for lx.pos < len(lx.src) && lx.peek(0) != '\n' {
				lx.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (lx *lexer) next() (token, error) {
	if err := lx.skipSpace(); err != nil {
		return token{}, err
	}
	loc := Location{Line: lx.line, Column: lx.col}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, loc: loc}, nil
	}
	r := lx.peek(0)
	switch {
	case unicode.IsDigit(r):
		start := lx.pos
		for lx.pos < len(lx.src) && unicode.IsDigit(lx.peek(0)) {
			lx.advance()
		}
		text := string(lx.src[start:lx.pos])
		n, err := strconv.Atoi(text)
		if err != nil {
			return token{}, errors.Wrapf(err, "%s: number", loc)
		}
		return token{kind: tokNumber, text: text, num: n, loc: loc}, nil
	case r == '_' || unicode.IsLetter(r):
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentRune(lx.peek(0)) {
			lx.advance()
		}
		text := string(lx.src[start:lx.pos])
		first := strings.TrimLeft(text, "_")
		switch {
		case text == "not":
			return token{kind: tokNot, text: text, loc: loc}, nil
		case first == "" || unicode.IsUpper([]rune(first)[0]):
			return token{kind: tokVariable, text: text, loc: loc}, nil
		}
		return token{kind: tokIdent, text: text, loc: loc}, nil
	case r == '"':
		return lx.lexString(loc)
	case r == '#':
		lx.advance()
		start := lx.pos
		for lx.pos < len(lx.src) && unicode.IsLetter(lx.peek(0)) {
			lx.advance()
		}
		return token{kind: tokDirective, text: "#" + string(lx.src[start:lx.pos]), loc: loc}, nil
	}
	for _, p := range puncts {
		if lx.hasPrefix(p) {
			for range p {
				lx.advance()
			}
			return token{kind: tokPunct, text: p, loc: loc}, nil
		}
	}
	return token{}, errors.Errorf("%s: unexpected character %q", loc, r)
}

func (lx *lexer) hasPrefix(p string) bool {
	i := 0
	for _, r := range p {
		if lx.peek(i) != r {
			return false
		}
		i++
	}
	return true
}

func (lx *lexer) lexString(loc Location) (token, error) {
	lx.advance()
	var sb strings.Builder
	for {
		if lx.pos >= len(lx.src) || lx.peek(0) == '\n' {
			return token{}, errors.Errorf("%s: unterminated string", loc)
		}
		r := lx.advance()
		switch r {
		case '"':
			return token{kind: tokString, text: sb.String(), loc: loc}, nil
		case '\\':
			if lx.pos >= len(lx.src) {
				return token{}, errors.Errorf("%s: unterminated string", loc)
			}
			switch e := lx.advance(); e {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(e)
			}
		default:
			sb.WriteRune(r)
		}
	}
}
