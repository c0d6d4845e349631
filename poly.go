package curvesketch

import (
	"math"
	"math/big"
)

// ============================================================
// Dense univariate polynomials over the rationals
// ============================================================

// poly holds coefficients by ascending degree; a trimmed poly has a non-zero
// leading coefficient, and the zero polynomial is empty.
type poly []*big.Rat

// maxPolyPower bounds the exponents expanded while converting to poly.
const maxPolyPower = 64

// toPoly converts e into a polynomial in varName. Subexpressions free of
// varName that reduce to a number become coefficients; inexact reports
// whether any coefficient passed through floating point.
func toPoly(e Expr, varName string) (p poly, inexact bool, ok bool) {
	if !dependsOn(e, varName) {
		n, ok := e.(*Num)
		if !ok {
			if n, ok = e.Eval(); !ok {
				return nil, false, false
			}
		}
		return poly{new(big.Rat).Set(n.val)}.trim(), n.inexact, true
	}
	switch v := e.(type) {
	case *Sym:
		return poly{new(big.Rat), big.NewRat(1, 1)}, false, true
	case *Add:
		acc := poly{}
		for _, t := range v.terms {
			tp, tin, ok := toPoly(t, varName)
			if !ok {
				return nil, false, false
			}
			acc = acc.add(tp)
			inexact = inexact || tin
		}
		return acc, inexact, true
	case *Mul:
		acc := poly{big.NewRat(1, 1)}
		for _, f := range v.factors {
			fp, fin, ok := toPoly(f, varName)
			if !ok {
				return nil, false, false
			}
			acc = acc.mul(fp)
			inexact = inexact || fin
		}
		return acc, inexact, true
	case *Pow:
		en, isNum := v.exp.(*Num)
		if !isNum || !en.IsInteger() || en.IsNegative() {
			return nil, false, false
		}
		k := en.val.Num()
		if !k.IsInt64() || k.Int64() > maxPolyPower {
			return nil, false, false
		}
		bp, bin, ok := toPoly(v.base, varName)
		if !ok {
			return nil, false, false
		}
		acc := poly{big.NewRat(1, 1)}
		for i := int64(0); i < k.Int64(); i++ {
			acc = acc.mul(bp)
		}
		return acc, bin, true
	}
	return nil, false, false
}

// Degree returns the polynomial degree of e in x. It reports false when e is
// not a polynomial; the zero polynomial has degree -1.
func Degree(e Expr) (int, bool) {
	p, _, ok := toPoly(e.Simplify(), Var)
	if !ok {
		return 0, false
	}
	return p.degree(), true
}

func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

func (p poly) degree() int { return len(p.trim()) - 1 }

func (p poly) isZero() bool { return len(p.trim()) == 0 }

func (p poly) lead() *big.Rat { return p[len(p)-1] }

func (p poly) add(q poly) poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(poly, n)
	for i := range out {
		out[i] = new(big.Rat)
		if i < len(p) {
			out[i].Add(out[i], p[i])
		}
		if i < len(q) {
			out[i].Add(out[i], q[i])
		}
	}
	return out.trim()
}

func (p poly) scale(c *big.Rat) poly {
	out := make(poly, len(p))
	for i, a := range p {
		out[i] = new(big.Rat).Mul(a, c)
	}
	return out.trim()
}

func (p poly) mul(q poly) poly {
	if len(p) == 0 || len(q) == 0 {
		return poly{}
	}
	out := make(poly, len(p)+len(q)-1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	tmp := new(big.Rat)
	for i, a := range p {
		for j, b := range q {
			out[i+j].Add(out[i+j], tmp.Mul(a, b))
		}
	}
	return out.trim()
}

func (p poly) derivative() poly {
	if len(p) <= 1 {
		return poly{}
	}
	out := make(poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = new(big.Rat).Mul(p[i], big.NewRat(int64(i), 1))
	}
	return out.trim()
}

// divmod divides p by a non-zero q.
func (p poly) divmod(q poly) (quo, rem poly) {
	q = q.trim()
	rem = append(poly{}, p.trim()...)
	for i := range rem {
		rem[i] = new(big.Rat).Set(rem[i])
	}
	if len(rem) < len(q) {
		return poly{}, rem
	}
	quo = make(poly, len(rem)-len(q)+1)
	for i := range quo {
		quo[i] = new(big.Rat)
	}
	lead := q.lead()
	tmp := new(big.Rat)
	for len(rem) >= len(q) && len(rem) > 0 {
		shift := len(rem) - len(q)
		c := new(big.Rat).Quo(rem.lead(), lead)
		quo[shift] = c
		for i, b := range q {
			rem[shift+i].Sub(rem[shift+i], tmp.Mul(c, b))
		}
		rem = rem[:len(rem)-1].trim()
	}
	return quo.trim(), rem
}

// monic scales p so its leading coefficient is 1.
func (p poly) monic() poly {
	p = p.trim()
	if len(p) == 0 {
		return p
	}
	return p.scale(new(big.Rat).Inv(p.lead()))
}

func polyGCD(a, b poly) poly {
	a, b = a.trim(), b.trim()
	for len(b) > 0 {
		_, r := a.divmod(b)
		a, b = b, r
	}
	return a.monic()
}

// squareFree returns p / gcd(p, p'), which has the same distinct roots as p,
// each simple.
func (p poly) squareFree() poly {
	g := polyGCD(p, p.derivative())
	if g.degree() <= 0 {
		return p.trim()
	}
	q, _ := p.divmod(g)
	return q
}

func (p poly) evalRat(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

func (p poly) evalFloat(x float64) float64 {
	acc := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		c, _ := p[i].Float64()
		acc = acc*x + c
	}
	return acc
}

// cauchyBound returns B such that every real root lies in [-B, B].
func (p poly) cauchyBound() float64 {
	p = p.trim()
	lead, _ := new(big.Rat).Abs(p.lead()).Float64()
	m := 0.0
	for _, c := range p[:len(p)-1] {
		f, _ := new(big.Rat).Abs(c).Float64()
		m = math.Max(m, f/lead)
	}
	return 1 + m
}

// integerCoeffs scales p by the lcm of its denominators.
func (p poly) integerCoeffs() []*big.Int {
	l := big.NewInt(1)
	for _, c := range p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, l, d)
		l.Mul(l, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(p))
	lr := new(big.Rat).SetInt(l)
	for i, c := range p {
		out[i] = new(big.Rat).Mul(c, lr).Num()
	}
	return out
}

// sturm returns the Sturm chain of a square-free p.
func (p poly) sturm() []poly {
	chain := []poly{p.trim(), p.derivative()}
	for {
		a, b := chain[len(chain)-2], chain[len(chain)-1]
		if b.isZero() {
			return chain[:len(chain)-1]
		}
		_, r := a.divmod(b)
		if r.isZero() {
			return chain
		}
		chain = append(chain, r.scale(big.NewRat(-1, 1)))
	}
}

// signChanges counts sign variations of the chain at x.
func signChanges(chain []poly, x *big.Rat) int {
	count, prev := 0, 0
	for _, q := range chain {
		s := q.evalRat(x).Sign()
		if s == 0 {
			continue
		}
		if prev != 0 && s != prev {
			count++
		}
		prev = s
	}
	return count
}
