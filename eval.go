package curvesketch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// ============================================================
// Point evaluation
// ============================================================

// ErrUndefined reports that an expression has no real value at a point:
// division by zero, logarithm of a non-positive number, an even root of a
// negative number, or an inverse trig argument out of range. A value that
// only overflows float64 is not undefined; see Value.Overflow.
var ErrUndefined = errors.New("undefined")

// compactDigits bounds the exact form Compact prints before switching to
// 10 significant digits.
const compactDigits = 16

// Value is the result of evaluating an expression at a point.
type Value struct {
	num *Num
	// inf is ±1 when the value is real but beyond float64 range and had no
	// exact form (exp(1000)). num is nil then.
	inf int
}

// Num returns the numeric value, or nil when the value overflowed.
func (v Value) Num() *Num { return v.num }

func (v Value) Float64() float64 {
	if v.inf != 0 {
		return math.Inf(v.inf)
	}
	return v.num.Float64()
}

func (v Value) String() string {
	switch v.inf {
	case 1:
		return "∞"
	case -1:
		return "-∞"
	}
	return v.num.String()
}

func (v Value) LaTeX() string {
	switch v.inf {
	case 1:
		return `\infty`
	case -1:
		return `-\infty`
	}
	return v.num.LaTeX()
}

// Compact is String for short values. Long exact rationals (the binary
// expansion of a float test point, 10^400) print with 10 significant digits.
func (v Value) Compact() string {
	s := v.String()
	if v.inf != 0 || v.num.inexact || len(s) <= compactDigits {
		return s
	}
	if f := v.num.Float64(); !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', 10, 64)
	}
	return new(big.Float).SetRat(v.num.val).Text('g', 10)
}

// Overflow reports whether the value is real but too large for float64 and
// was not computed exactly. An exact 10^400 is not an overflow, although its
// Float64 is +Inf.
func (v Value) Overflow() bool { return v.inf != 0 }

// MarshalJSON writes values beyond float64 range, exact or not, as "inf"
// or "-inf".
func (v Value) MarshalJSON() ([]byte, error) {
	fl := v.Float64()
	var f interface{} = fl
	switch {
	case math.IsInf(fl, 1):
		f = "inf"
	case math.IsInf(fl, -1):
		f = "-inf"
	}
	return json.Marshal(struct {
		Expr  string      `json:"expr"`
		Value interface{} `json:"value"`
		Exact bool        `json:"exact"`
	}{v.String(), f, v.Exact()})
}

// Exact reports whether the value was computed with rational arithmetic only.
func (v Value) Exact() bool { return v.inf == 0 && !v.num.inexact }

// Sign returns -1, 0 or +1. Exact values use their exact sign; inexact values
// within tol of zero count as zero.
func (v Value) Sign(tol float64) int {
	if v.inf != 0 {
		return v.inf
	}
	if v.num.inexact && math.Abs(v.Float64()) <= tol {
		return 0
	}
	return v.num.Sign()
}

// Evaluate substitutes x (taken as the exact binary value of the float) and
// reduces e to a number.
func Evaluate(e Expr, x float64) (Value, error) {
	xn, ok := numFromFloat(x, false)
	if !ok {
		return Value{}, fmt.Errorf("evaluate %s at x = %g: %w", e, x, ErrUndefined)
	}
	return EvaluateAt(e, xn)
}

// EvaluateAt substitutes the expression at for x and reduces the result. The
// value is exact when at is exact and only rational operations occur.
func EvaluateAt(e Expr, at Expr) (Value, error) {
	r := Sub(e, Var, at)
	if n, ok := r.(*Num); ok {
		return Value{num: n}, nil
	}
	if n, ok := r.Eval(); ok {
		return Value{num: n}, nil
	}
	if len(FreeSymbols(r)) == 0 && !outsideDomain(r) {
		if f := compile(r)(0); math.IsInf(f, 0) {
			return Value{inf: int(math.Copysign(1, f))}, nil
		}
	}
	return Value{}, fmt.Errorf("evaluate %s at x = %s: %w", e, at, ErrUndefined)
}

// outsideDomain reports whether a constant expression has a subterm with no
// real value: a zero base under a negative power, a fractional power of a
// negative number, ln of a non-positive number, or asin/acos beyond [-1, 1].
// Float overflow of a subterm does not count.
func outsideDomain(e Expr) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if outsideDomain(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if outsideDomain(f) {
				return true
			}
		}
	case *Pow:
		if outsideDomain(v.base) || outsideDomain(v.exp) {
			return true
		}
		bs, ok := constSign(v.base)
		if !ok {
			return false
		}
		if bs == 0 {
			es, ok := constSign(v.exp)
			return ok && es < 0
		}
		if bs < 0 {
			en, isNum := v.exp.(*Num)
			return isNum && !en.IsInteger()
		}
	case *Func:
		if outsideDomain(v.arg) {
			return true
		}
		switch v.name {
		case "ln":
			s, ok := constSign(v.arg)
			return ok && s <= 0
		case "asin", "acos":
			return math.Abs(compile(v.arg)(0)) > 1
		}
	}
	return false
}

// constSign is the sign of a constant expression. It reports false when the
// sign cannot be told from float arithmetic (underflow to zero, NaN).
func constSign(e Expr) (int, bool) {
	if n, ok := e.Eval(); ok {
		if n.inexact && n.IsZero() {
			return 0, false
		}
		return n.Sign(), true
	}
	f := compile(e)(0)
	switch {
	case math.IsNaN(f) || f == 0:
		return 0, false
	case f > 0:
		return 1, true
	}
	return -1, true
}
