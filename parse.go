package curvesketch

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Parser: infix text to Expr
// ============================================================

// ErrParse is the sentinel every *ParseError unwraps to.
var ErrParse = errors.New("invalid expression")

// ParseError reports why and where the input text was rejected.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s at offset %d", e.Input, e.Msg, e.Pos)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// parseFuncs maps accepted function names to their constructors.
var parseFuncs = map[string]func(Expr) Expr{
	"sin":    SinOf,
	"cos":    CosOf,
	"tan":    TanOf,
	"exp":    ExpOf,
	"ln":     LnOf,
	"log":    LnOf,
	"sqrt":   SqrtOf,
	"abs":    AbsOf,
	"asin":   AsinOf,
	"arcsin": AsinOf,
	"acos":   AcosOf,
	"arccos": AcosOf,
	"atan":   AtanOf,
	"arctan": AtanOf,
	"sinh":   SinhOf,
	"cosh":   CoshOf,
	"tanh":   TanhOf,
	"sign":   SignOf,
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// Parse converts infix text in the variable x into a simplified Expr.
//
// Accepted: numbers (decimal, scientific), x, pi, e, + - * / ^ (or **),
// parentheses and calls such as sin(x) or log(x). Any other symbol,
// implicit multiplication ("2x") and empty input are rejected with a
// *ParseError.
func Parse(text string) (Expr, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{input: text, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(0, "empty expression")
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		switch t.kind {
		case tokNumber, tokIdent, tokLParen:
			return nil, p.errorf(t.pos, "implicit multiplication is not supported before %s (use *)", t.describe())
		case tokRParen:
			return nil, p.errorf(t.pos, "unbalanced %q", ")")
		}
		return nil, p.errorf(t.pos, "unexpected %s", t.describe())
	}
	return e.Simplify(), nil
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	// byte offsets for error reporting
	offsets := make([]int, len(runes)+1)
	off := 0
	for i, r := range runes {
		offsets[i] = off
		off += len(string(r))
	}
	offsets[len(runes)] = off

	for i := 0; i < len(runes); {
		r := runes[i]
		start := offsets[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			if j < len(runes) && runes[j] == '.' {
				j++
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
			}
			if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
				k := j + 1
				if k < len(runes) && (runes[k] == '+' || runes[k] == '-') {
					k++
				}
				if k < len(runes) && unicode.IsDigit(runes[k]) {
					for k < len(runes) && unicode.IsDigit(runes[k]) {
						k++
					}
					j = k
				}
			}
			text := string(runes[i:j])
			if text == "." {
				return nil, &ParseError{Input: input, Pos: start, Msg: "malformed number \".\""}
			}
			toks = append(toks, token{kind: tokNumber, text: text, pos: start})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j]), pos: start})
			i = j
		default:
			kind, width := tokEOF, 1
			switch r {
			case '+':
				kind = tokPlus
			case '-':
				kind = tokMinus
			case '*':
				kind = tokStar
				if i+1 < len(runes) && runes[i+1] == '*' {
					kind, width = tokCaret, 2
				}
			case '/':
				kind = tokSlash
			case '^':
				kind = tokCaret
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			default:
				return nil, &ParseError{Input: input, Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{kind: kind, text: string(runes[i : i+width]), pos: start})
			i += width
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

type parser struct {
	input string
	toks  []token
	i     int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) match(kinds ...tokenKind) (token, bool) {
	t := p.peek()
	for _, k := range kinds {
		if t.kind == k {
			p.next()
			return t, true
		}
	}
	return t, false
}

func (p *parser) need(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.errorf(t.pos, "expected %s, found %s", what, t.describe())
	}
	return p.next(), nil
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Input: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// expr := term { ('+' | '-') term }
func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokPlus, tokMinus)
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op.kind == tokMinus {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
}

// term := unary { ('*' | '/') unary }
func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(tokStar, tokSlash)
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op.kind == tokSlash {
			right = PowOf(right, N(-1))
		}
		left = MulOf(left, right)
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) unary() (Expr, error) {
	if op, ok := p.match(tokPlus, tokMinus); ok {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op.kind == tokMinus {
			return MulOf(N(-1), operand), nil
		}
		return operand, nil
	}
	return p.power()
}

// power := primary [ '^' unary ]   (right-associative)
func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(tokCaret); !ok {
		return base, nil
	}
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

// primary := NUMBER | IDENT | IDENT '(' expr ')' | '(' expr ')'
func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.errorf(t.pos, "malformed number %q", t.text)
		}
		return NRat(r), nil
	case tokIdent:
		p.next()
		return p.identifier(t)
	case tokLParen:
		p.next()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	case tokEOF:
		return nil, p.errorf(t.pos, "unexpected end of input")
	}
	return nil, p.errorf(t.pos, "unexpected %s", t.describe())
}

func (p *parser) identifier(t token) (Expr, error) {
	name := t.text
	if ctor, ok := parseFuncs[name]; ok {
		if _, err := p.need(tokLParen, fmt.Sprintf("\"(\" after %s", name)); err != nil {
			return nil, err
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return ctor(arg), nil
	}
	if p.peek().kind == tokLParen {
		return nil, p.errorf(t.pos, "unknown function %q", name)
	}
	if name == Var {
		return S(Var), nil
	}
	if c, ok := constByName(name); ok {
		return c, nil
	}
	return nil, p.errorf(t.pos, "unknown symbol %q (only %s, pi and e are allowed)", name, Var)
}

// FormatParseError renders a caret under the failing offset, for CLI output.
func FormatParseError(err error) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	caret := strings.Repeat(" ", pe.Pos) + "^"
	return fmt.Sprintf("%s\n  %s\n  %s", pe.Msg, pe.Input, caret)
}
