package curvesketch

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numbers and collects like terms by
// their non-numeric part. Terms are ordered by descending degree, then text.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		coeff, rest := extractCoefficient(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}
	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		coeff := coeffs[key]
		if coeff.IsZero() {
			continue
		}
		if coeff.IsOne() {
			result = append(result, rests[key])
		} else {
			result = append(result, MulOf(coeff, rests[key]))
		}
	}
	sortTerms(result)
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return numAccum
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func sortTerms(terms []Expr) {
	type keyed struct {
		e   Expr
		deg int
		key string
	}
	ks := make([]keyed, len(terms))
	for i, t := range terms {
		_, rest := extractCoefficient(t)
		ks[i] = keyed{e: t, deg: termDegree(rest), key: rest.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		terms[i] = ks[i].e
	}
}

// termDegree is the total integer degree of a monomial-like term; anything
// that is not a product of symbol powers counts as degree 0.
func termDegree(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := v.base.(*Sym); ok {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && n.val.Num().IsInt64() {
				return int(n.val.Num().Int64())
			}
		}
	case *Mul:
		total := 0
		for _, f := range v.factors {
			total += termDegree(f)
		}
		return total
	}
	return 0
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range a.terms {
		s := t.String()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.terms {
		s := t.LaTeX()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Simplify flattens nested products, folds the numeric coefficient to the
// front and merges factors sharing a base by adding exponents.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type group struct {
		base Expr
		exp  Expr
	}
	coeff := N(1)
	groups := []*group{}
	index := map[string]*group{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := splitPower(f)
		key := base.String()
		if g, ok := index[key]; ok {
			g.exp = AddOf(g.exp, exp)
			continue
		}
		g := &group{base: base, exp: exp}
		index[key] = g
		groups = append(groups, g)
	}
	if coeff.IsZero() {
		return zeroProduct(flat)
	}

	others := make([]Expr, 0, len(groups))
	for _, g := range groups {
		switch v := PowOf(g.base, g.exp).(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			for _, f := range v.factors {
				if n, ok := f.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, f)
				}
			}
		default:
			others = append(others, v)
		}
	}
	if coeff.IsZero() {
		return zeroProduct(flat)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sortedOthers := make([]Expr, len(ks))
	for i := range ks {
		sortedOthers[i] = ks[i].e
	}
	others = sortedOthers

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// zeroProduct is the value of a product with a zero coefficient: 0, unless a
// factor is a constant with no real value (0^-1, ln(0)), which keeps the
// whole product undefined. A constant that only overflows float64
// (exp(800)) is real and absorbed.
func zeroProduct(factors []Expr) Expr {
	for _, f := range factors {
		if _, isNum := f.(*Num); isNum || len(FreeSymbols(f)) > 0 {
			continue
		}
		if outsideDomain(f) {
			return &Mul{factors: []Expr{N(0), f}}
		}
	}
	return N(0)
}

func splitPower(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

// fraction splits a product into numerator and denominator factors, moving
// powers with negative numeric exponents below the line.
func (m *Mul) fraction() (coeff *Num, num, den []Expr) {
	coeff = N(1)
	for _, f := range m.factors {
		if n, ok := f.(*Num); ok {
			coeff = n
			continue
		}
		if p, ok := f.(*Pow); ok {
			if en, ok2 := p.exp.(*Num); ok2 && en.IsNegative() {
				den = append(den, PowOf(p.base, numNeg(en)))
				continue
			}
		}
		num = append(num, f)
	}
	return coeff, num, den
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	coeff, num, den := m.fraction()
	prefix := ""
	parts := []string{}
	var denParts []string
	if coeff.inexact {
		parts = append(parts, coeff.String())
	} else {
		// exact rational coefficients print as n*rest/d
		if coeff.IsNegative() {
			prefix = "-"
		}
		if n := new(big.Int).Abs(coeff.val.Num()); n.Cmp(big.NewInt(1)) != 0 {
			parts = append(parts, n.String())
		}
		if !coeff.val.IsInt() {
			denParts = append(denParts, coeff.val.Denom().String())
		}
	}
	for _, f := range num {
		parts = append(parts, wrapFactor(f))
	}
	numStr := "1"
	if len(parts) > 0 {
		numStr = strings.Join(parts, "*")
	}
	for _, f := range den {
		denParts = append(denParts, wrapFactor(f))
	}
	if len(denParts) == 0 {
		return prefix + numStr
	}
	denStr := strings.Join(denParts, "*")
	if len(denParts) > 1 {
		denStr = "(" + denStr + ")"
	}
	return prefix + numStr + "/" + denStr
}

func wrapFactor(f Expr) string {
	switch f.(type) {
	case *Add, *Mul:
		return "(" + f.String() + ")"
	}
	return f.String()
}

func (m *Mul) LaTeX() string {
	coeff, num, den := m.fraction()
	prefix := ""
	parts := []string{}
	denParts := []string{}
	if coeff.inexact {
		parts = append(parts, coeff.LaTeX())
	} else {
		if coeff.IsNegative() {
			prefix = "-"
		}
		if n := new(big.Int).Abs(coeff.val.Num()); n.Cmp(big.NewInt(1)) != 0 {
			parts = append(parts, n.String())
		}
		if !coeff.val.IsInt() {
			denParts = append(denParts, coeff.val.Denom().String())
		}
	}
	for _, f := range num {
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			parts = append(parts, f.LaTeX())
		}
	}
	numStr := "1"
	if len(parts) > 0 {
		numStr = strings.Join(parts, " ")
	}
	for _, f := range den {
		denParts = append(denParts, f.LaTeX())
	}
	if len(denParts) == 0 {
		return prefix + numStr
	}
	return prefix + "\\frac{" + numStr + "}{" + strings.Join(denParts, " ") + "}"
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		if len(others) == 0 {
			terms[i] = dfi
		} else {
			terms[i] = MulOf(append([]Expr{dfi}, others...)...)
		}
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// maxExactPower bounds the integer exponents folded with exact arithmetic.
const maxExactPower = 64

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	bn, baseIsNum := base.(*Num)
	if baseIsNum && bn.IsZero() {
		// 0^0 is indeterminate; 0^negative is division by zero.
		if expIsNum && (en.IsZero() || en.IsNegative()) {
			return &Pow{base: base, exp: exp}
		}
		if expIsNum {
			return N(0)
		}
	}
	if baseIsNum && bn.IsOne() && !bn.inexact {
		return N(1)
	}
	if baseIsNum && expIsNum && en.IsInteger() {
		if e := en.val.Num(); e.IsInt64() && e.Int64() >= -maxExactPower && e.Int64() <= maxExactPower {
			return numPowInt(bn, e.Int64())
		}
	}
	// Exact square roots: 4^(1/2) = 2, (9/4)^(3/2) = 27/8.
	if baseIsNum && expIsNum && !bn.inexact && en.val.Denom().Cmp(bigTwo) == 0 {
		if root, ok := ratSqrt(bn.val); ok && root.Sign() != 0 {
			k := en.val.Num()
			if k.IsInt64() && k.Int64() >= -maxExactPower && k.Int64() <= maxExactPower {
				return numPowInt(NRat(root), k.Int64())
			}
		}
	}
	// (a*b)^n = a^n * b^n for integer n.
	if m, ok := base.(*Mul); ok && expIsNum && en.IsInteger() {
		fs := make([]Expr, len(m.factors))
		for i, f := range m.factors {
			fs[i] = PowOf(f, exp)
		}
		return MulOf(fs...)
	}
	// (b^a)^n = b^(a*n) only for integer n.
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) isSqrt() bool {
	en, ok := p.exp.(*Num)
	return ok && !en.inexact && en.val.Cmp(bigHalf) == 0
}

func (p *Pow) String() string {
	if p.isSqrt() {
		return "sqrt(" + p.base.String() + ")"
	}
	if en, ok := p.exp.(*Num); ok && en.IsNegative() {
		return "1/" + wrapFactor(PowOf(p.base, numNeg(en)))
	}
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if b.IsNegative() || !b.IsInteger() {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym, *Const:
	case *Num:
		if !e.IsInteger() || e.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if p.isSqrt() {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	if en, ok := p.exp.(*Num); ok && en.IsNegative() {
		return "\\frac{1}{" + PowOf(p.base, numNeg(en)).LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if !dependsOn(p.exp, varName) {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if !dependsOn(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if e.IsInteger() && !e.inexact {
		if k := e.val.Num(); k.IsInt64() && k.Int64() >= -maxExactPower && k.Int64() <= maxExactPower {
			if b.IsZero() && k.Sign() < 0 {
				return nil, false
			}
			return numPowInt(b, k.Int64()), true
		}
	}
	return numFromFloat(powFloat(b.Float64(), e.Float64()), true)
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
