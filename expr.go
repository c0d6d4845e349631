// Package curvesketch provides a deterministic symbolic kernel for analysing
// real functions of one variable.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat), with inexact values tagged
//   - Deterministic simplification and stable output
//   - Text parsing, exact differentiation and real-root solving for f(x)
//   - JSON and LaTeX forms for tool and agent backends
//
// The analysis pipeline built on top of this kernel lives in the analysis
// package.
package curvesketch

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Var is the independent variable every parsed expression is written in.
const Var = "x"

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable symbolic expression. Constructors return simplified
// trees; operations return new trees.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: rational number, optionally tagged inexact
// ============================================================

// Num is a rational number. Values that passed through floating point
// (transcendental folding, numeric roots) are tagged inexact so callers can
// apply a tolerance when comparing them with zero.
type Num struct {
	val     *big.Rat
	inexact bool
}

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("curvesketch: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat returns an inexact Num holding f. It panics on NaN or ±Inf.
func NFloat(f float64) *Num {
	n, ok := numFromFloat(f, true)
	if !ok {
		panic("curvesketch: non-finite float")
	}
	return n
}

// NRat returns an exact Num holding a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func numFromFloat(f float64, inexact bool) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(f), inexact: inexact}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Sign() int             { return n.val.Sign() }

// Inexact reports whether the value came from floating point.
func (n *Num) Inexact() bool { return n.inexact }

func (n *Num) String() string {
	if n.inexact {
		return strconv.FormatFloat(n.Float64(), 'g', 10, 64)
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.inexact || n.val.IsInt() {
		return n.String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "num", "value": n.String()}
	if n.inexact {
		m["value"] = strconv.FormatFloat(n.Float64(), 'g', -1, 64)
		m["inexact"] = true
	}
	return m
}

func numAdd(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Add(a.val, b.val), inexact: a.inexact || b.inexact}
}
func numSub(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Sub(a.val, b.val), inexact: a.inexact || b.inexact}
}
func numMul(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Mul(a.val, b.val), inexact: a.inexact || b.inexact}
}
func numNeg(a *Num) *Num { return &Num{val: new(big.Rat).Neg(a.val), inexact: a.inexact} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("curvesketch: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val), inexact: a.inexact}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num {
	r := new(big.Rat).Set(a.val)
	if r.Sign() < 0 {
		r.Neg(r)
	}
	return &Num{val: r, inexact: a.inexact}
}

// numPowInt raises b to an integer power by repeated squaring. b must be
// non-zero when e is negative.
func numPowInt(b *Num, e int64) *Num {
	if e < 0 {
		return numRecip(numPowInt(b, -e))
	}
	result := N(1)
	result.inexact = b.inexact
	base := b
	for e > 0 {
		if e&1 == 1 {
			result = numMul(result, base)
		}
		base = numMul(base, base)
		e >>= 1
	}
	return result
}

// ratSqrt returns the exact square root of a non-negative rational when both
// numerator and denominator are perfect squares.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	if r.Sign() < 0 {
		return nil, false
	}
	num, den := r.Num(), r.Denom()
	sn, sd := new(big.Int).Sqrt(num), new(big.Int).Sqrt(den)
	if new(big.Int).Mul(sn, sn).Cmp(num) != 0 || new(big.Int).Mul(sd, sd).Cmp(den) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(sn, sd), true
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string  { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Const: named transcendental constant
// ============================================================

// Const is a named real constant kept symbolic until evaluation.
type Const struct {
	name  string
	value float64
}

var (
	Pi = &Const{name: "pi", value: math.Pi}
	E  = &Const{name: "e", value: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return NFloat(c.value), true }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Name() string          { return c.name }
func (c *Const) Value() float64        { return c.value }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}
func (c *Const) LaTeX() string {
	if c.name == "pi" {
		return "\\pi"
	}
	return c.name
}

func constByName(name string) (*Const, bool) {
	switch name {
	case "pi":
		return Pi, true
	case "e":
		return E, true
	}
	return nil, false
}
