package curvesketch

import "math"

// ============================================================
// Compiled float evaluation
// ============================================================

// Compile turns e into a float64 function of x. The function returns NaN
// wherever e is undefined or overflows; it never panics.
//
// Compile is for sampling (plots, numeric root scans). Use Evaluate when the
// exact value or an explicit ErrUndefined is needed.
func Compile(e Expr) func(float64) float64 {
	f := compile(e)
	return func(x float64) float64 {
		y := f(x)
		if math.IsInf(y, 0) {
			return math.NaN()
		}
		return y
	}
}

func compile(e Expr) func(float64) float64 {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(float64) float64 { return c }
	case *Const:
		c := v.value
		return func(float64) float64 { return c }
	case *Sym:
		if v.name == Var {
			return func(x float64) float64 { return x }
		}
		return func(float64) float64 { return math.NaN() }
	case *Add:
		terms := make([]func(float64) float64, len(v.terms))
		for i, t := range v.terms {
			terms[i] = compile(t)
		}
		return func(x float64) float64 {
			s := 0.0
			for _, t := range terms {
				s += t(x)
			}
			return s
		}
	case *Mul:
		factors := make([]func(float64) float64, len(v.factors))
		for i, f := range v.factors {
			factors[i] = compile(f)
		}
		return func(x float64) float64 {
			p := 1.0
			for _, f := range factors {
				p *= f(x)
			}
			return p
		}
	case *Pow:
		base := compile(v.base)
		if en, ok := v.exp.(*Num); ok {
			k := en.Float64()
			if en.IsInteger() {
				return func(x float64) float64 {
					b := base(x)
					if b == 0 && k < 0 {
						return math.NaN()
					}
					return math.Pow(b, k)
				}
			}
			if en.val.Cmp(bigHalf) == 0 {
				return func(x float64) float64 { return math.Sqrt(base(x)) }
			}
		}
		exp := compile(v.exp)
		return func(x float64) float64 { return powFloat(base(x), exp(x)) }
	case *Func:
		arg := compile(v.arg)
		impl, ok := realFuncs[v.name]
		if !ok {
			return func(float64) float64 { return math.NaN() }
		}
		return func(x float64) float64 { return impl(arg(x)) }
	}
	return func(float64) float64 { return math.NaN() }
}
