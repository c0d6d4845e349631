package curvesketch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"
)

// ============================================================
// Real-root solver
// ============================================================

// SolveStatus describes how a SolveResult was obtained.
type SolveStatus string

const (
	// SolveExact: e is a polynomial and every real root was found.
	SolveExact SolveStatus = "exact"
	// SolveWindowed: e is not a polynomial; roots were searched for inside
	// the configured window only.
	SolveWindowed SolveStatus = "windowed"
	// SolveIdentity: e is identically zero, so every x is a root.
	SolveIdentity SolveStatus = "identity"
	// SolveNoRoots: e is a non-zero constant.
	SolveNoRoots SolveStatus = "no-roots"
	// SolveTimedOut: the context expired before the search finished.
	SolveTimedOut SolveStatus = "timed-out"
	// SolveFailed: e cannot be searched (foreign symbols, undefined
	// everywhere in the window).
	SolveFailed SolveStatus = "failed"
)

// ErrUnsolvable is wrapped by SolveResult.Err for SolveFailed.
var ErrUnsolvable = errors.New("unsolvable")

const (
	// poleTolerance rejects bisected sign changes where |f| stays large.
	poleTolerance = 1e-6
	// tangentTolerance accepts local minima of |f| as double roots.
	tangentTolerance = 1e-10
	// identityTolerance: every sample within it means f is identically zero.
	identityTolerance = 1e-12
	snapTolerance     = 1e-9
	maxSnapDenom      = 12
	// maxRationalCandidate bounds the coefficients searched for rational
	// roots; larger ones fall through to numeric isolation.
	maxRationalCandidate = 1_000_000_000
	maxIsolationDepth    = 200
)

// SolveOptions bounds the search for roots of non-polynomial expressions.
// Zero fields take their DefaultSolveOptions value, except Timeout: zero means
// the search is bounded by ctx alone.
type SolveOptions struct {
	WindowMin float64
	WindowMax float64
	Samples   int
	MaxRoots  int
	Timeout   time.Duration
}

func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		WindowMin: -10,
		WindowMax: 10,
		Samples:   2000,
		MaxRoots:  64,
		Timeout:   5 * time.Second,
	}
}

// WithDefaults fills the zero fields from DefaultSolveOptions.
func (o SolveOptions) WithDefaults() SolveOptions {
	d := DefaultSolveOptions()
	if o.WindowMin == 0 && o.WindowMax == 0 {
		o.WindowMin, o.WindowMax = d.WindowMin, d.WindowMax
	}
	if o.Samples <= 0 {
		o.Samples = d.Samples
	}
	if o.MaxRoots <= 0 {
		o.MaxRoots = d.MaxRoots
	}
	return o
}

// RealRoot is one real solution of e = 0.
type RealRoot struct {
	// Expr is the root itself: an exact Num, a quadratic surd, a rational
	// multiple of pi, or an inexact Num.
	Expr Expr
	// Approx is Expr as a float64.
	Approx float64
	// Exact reports whether Expr was checked to be a root with exact
	// arithmetic.
	Exact bool
}

func (r RealRoot) String() string { return r.Expr.String() }

func (r RealRoot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Expr  string  `json:"expr"`
		Value float64 `json:"value"`
		Exact bool    `json:"exact"`
	}{r.Expr.String(), r.Approx, r.Exact})
}

// SolveResult is the outcome of SolveRealRoots. Roots is sorted ascending
// and holds no duplicates.
type SolveResult struct {
	Roots     []RealRoot  `json:"roots"`
	Status    SolveStatus `json:"status"`
	Truncated bool        `json:"truncated,omitempty"`
	Err       error       `json:"-"`
}

// Approx returns the float values of the roots.
func (s SolveResult) Approx() []float64 {
	out := make([]float64, len(s.Roots))
	for i, r := range s.Roots {
		out[i] = r.Approx
	}
	return out
}

// SolveRealRoots finds the real x with e(x) = 0.
//
// Polynomials are solved completely: rational roots and quadratic factors in
// closed form, higher-degree remainders isolated with Sturm sequences.
// Anything else is scanned over [WindowMin, WindowMax] and at most MaxRoots
// roots are kept. The search stops when ctx is done or Timeout elapses, in
// which case no roots are reported.
func SolveRealRoots(ctx context.Context, e Expr, opts SolveOptions) SolveResult {
	opts = opts.WithDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	e = e.Simplify()
	if err := ctx.Err(); err != nil {
		return timedOut(e, err)
	}
	for name := range FreeSymbols(e) {
		if name != Var {
			return SolveResult{Status: SolveFailed, Err: fmt.Errorf("solve %s: free symbol %q: %w", e, name, ErrUnsolvable)}
		}
	}
	if n, ok := e.(*Num); ok {
		if n.IsZero() {
			return SolveResult{Status: SolveIdentity}
		}
		return SolveResult{Status: SolveNoRoots}
	}
	if p, inexact, ok := toPoly(e, Var); ok {
		if p.isZero() {
			return SolveResult{Status: SolveIdentity}
		}
		if p.degree() == 0 {
			return SolveResult{Status: SolveNoRoots}
		}
		var roots []RealRoot
		var err error
		if inexact {
			roots, err = solveInexactPoly(ctx, p, opts)
		} else {
			roots, err = solveExactPoly(ctx, p)
		}
		if err != nil {
			return timedOut(e, err)
		}
		return SolveResult{Roots: normalizeRoots(roots), Status: SolveExact}
	}
	return solveWindowed(ctx, e, opts)
}

func timedOut(e Expr, err error) SolveResult {
	return SolveResult{Status: SolveTimedOut, Err: fmt.Errorf("solve %s: %w", e, err)}
}

func exactRoot(r *big.Rat) RealRoot {
	f, _ := r.Float64()
	return RealRoot{Expr: NRat(r), Approx: f, Exact: true}
}

func numericRoot(x float64) RealRoot {
	if x == 0 {
		return RealRoot{Expr: N(0), Approx: 0, Exact: false}
	}
	return RealRoot{Expr: NFloat(x), Approx: x, Exact: false}
}

// normalizeRoots sorts roots ascending and merges near-duplicates, keeping
// the exact representative.
func normalizeRoots(roots []RealRoot) []RealRoot {
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].Approx < roots[j].Approx })
	out := roots[:0]
	for _, r := range roots {
		if n := len(out); n > 0 && closeTo(out[n-1].Approx, r.Approx, 1e-8) {
			if r.Exact && !out[n-1].Exact {
				out[n-1] = r
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// ------------------------------------------------------------
// Polynomials with exact coefficients
// ------------------------------------------------------------

func solveExactPoly(ctx context.Context, p poly) ([]RealRoot, error) {
	var roots []RealRoot
	k := 0
	for k < len(p) && p[k].Sign() == 0 {
		k++
	}
	if k > 0 {
		roots = append(roots, exactRoot(new(big.Rat)))
		p = p[k:]
	}
	if p.degree() <= 0 {
		return roots, nil
	}
	p = p.squareFree()

	rational, rest := p.rationalRoots()
	for _, r := range rational {
		roots = append(roots, exactRoot(r))
	}
	switch rest.degree() {
	case -1, 0:
	case 1:
		roots = append(roots, exactRoot(new(big.Rat).Neg(new(big.Rat).Quo(rest[0], rest[1]))))
	case 2:
		roots = append(roots, quadraticRoots(rest)...)
	default:
		isolated, err := isolateRoots(ctx, rest)
		if err != nil {
			return nil, err
		}
		roots = append(roots, isolated...)
	}
	return roots, nil
}

// rationalRoots finds the roots p/q with p | a0 and q | an, deflating the
// polynomial by each one found.
func (p poly) rationalRoots() ([]*big.Rat, poly) {
	ic := p.integerCoeffs()
	a0, an := new(big.Int).Abs(ic[0]), new(big.Int).Abs(ic[len(ic)-1])
	limit := big.NewInt(maxRationalCandidate)
	if a0.Sign() == 0 || a0.Cmp(limit) > 0 || an.Cmp(limit) > 0 {
		return nil, p
	}
	nums, dens := divisors(a0.Int64()), divisors(an.Int64())
	var found []*big.Rat
	seen := map[string]bool{}
	rest := p
	for _, q := range dens {
		for _, n := range nums {
			for _, sign := range []int64{1, -1} {
				if rest.degree() < 1 {
					return found, rest
				}
				r := big.NewRat(sign*n, q)
				key := r.RatString()
				if seen[key] {
					continue
				}
				seen[key] = true
				if rest.evalRat(r).Sign() == 0 {
					found = append(found, r)
					rest, _ = rest.divmod(poly{new(big.Rat).Neg(r), big.NewRat(1, 1)})
				}
			}
		}
	}
	return found, rest
}

func divisors(n int64) []int64 {
	var small, large []int64
	for i := int64(1); i*i <= n; i++ {
		if n%i == 0 {
			small = append(small, i)
			if i != n/i {
				large = append(large, n/i)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

// quadraticRoots solves c2*x^2 + c1*x + c0 = 0 in closed form, writing
// irrational roots as center ± s*sqrt(t) with t square-free.
func quadraticRoots(p poly) []RealRoot {
	a, b, c := p[2], p[1], p[0]
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	center := new(big.Rat).Neg(new(big.Rat).Quo(b, twoA))
	switch disc.Sign() {
	case -1:
		return nil
	case 0:
		return []RealRoot{exactRoot(center)}
	}
	if s, ok := ratSqrt(disc); ok {
		off := new(big.Rat).Quo(s, twoA)
		return []RealRoot{
			exactRoot(new(big.Rat).Add(center, off)),
			exactRoot(new(big.Rat).Sub(center, off)),
		}
	}
	// sqrt(n/d) = sqrt(n*d)/d
	d := disc.Denom()
	s, t := squarePart(new(big.Int).Mul(disc.Num(), d))
	coeff := new(big.Rat).Quo(new(big.Rat).SetInt(s), new(big.Rat).Mul(new(big.Rat).SetInt(d), twoA))
	radical := SqrtOf(NRat(new(big.Rat).SetInt(t)))
	tf, _ := new(big.Rat).SetInt(t).Float64()
	cf, _ := center.Float64()
	kf, _ := coeff.Float64()
	roots := make([]RealRoot, 0, 2)
	for _, sign := range []int64{1, -1} {
		k := new(big.Rat).Mul(coeff, big.NewRat(sign, 1))
		roots = append(roots, RealRoot{
			Expr:   AddOf(NRat(center), MulOf(NRat(k), radical)),
			Approx: cf + float64(sign)*kf*math.Sqrt(tf),
			Exact:  true,
		})
	}
	return roots
}

// squarePart writes m = s^2 * t, pulling out square factors found by trial
// division.
func squarePart(m *big.Int) (s, t *big.Int) {
	s, t = big.NewInt(1), new(big.Int).Set(m)
	sq, rem := new(big.Int), new(big.Int)
	for i := int64(2); i <= 100000; i++ {
		bi := big.NewInt(i)
		sq.Mul(bi, bi)
		if sq.Cmp(t) > 0 {
			break
		}
		for {
			q, r := new(big.Int).QuoRem(t, sq, rem)
			if r.Sign() != 0 {
				break
			}
			t = q
			s.Mul(s, bi)
		}
	}
	return s, t
}

// isolateRoots brackets each real root of a square-free p with a Sturm
// chain, then refines each bracket by bisection and Newton steps.
func isolateRoots(ctx context.Context, p poly) ([]RealRoot, error) {
	chain := p.sturm()
	bound := new(big.Rat).SetFloat64(math.Ceil(p.cauchyBound()))
	type span struct {
		lo, hi *big.Rat
		depth  int
	}
	stack := []span{{new(big.Rat).Neg(bound), bound, 0}}
	var roots []RealRoot
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count := signChanges(chain, s.lo) - signChanges(chain, s.hi)
		switch {
		case count <= 0:
			continue
		case count == 1 || s.depth >= maxIsolationDepth:
			roots = append(roots, numericRoot(refineRoot(p, s.lo, s.hi)))
			continue
		}
		mid := new(big.Rat).Add(s.lo, s.hi)
		mid.Quo(mid, big.NewRat(2, 1))
		if p.evalRat(mid).Sign() == 0 {
			roots = append(roots, exactRoot(mid))
		}
		stack = append(stack, span{s.lo, mid, s.depth + 1}, span{mid, s.hi, s.depth + 1})
	}
	return roots, nil
}

func refineRoot(p poly, lo, hi *big.Rat) float64 {
	lo, hi = new(big.Rat).Set(lo), new(big.Rat).Set(hi)
	if p.evalRat(hi).Sign() == 0 {
		f, _ := hi.Float64()
		return f
	}
	slo := p.evalRat(lo).Sign()
	half := big.NewRat(1, 2)
	for i := 0; i < 64; i++ {
		mid := new(big.Rat).Add(lo, hi)
		mid.Mul(mid, half)
		sm := p.evalRat(mid).Sign()
		if sm == 0 {
			f, _ := mid.Float64()
			return f
		}
		if sm == slo {
			lo = mid
		} else {
			hi = mid
		}
	}
	a, _ := lo.Float64()
	b, _ := hi.Float64()
	dp := p.derivative()
	return newtonPolish(p.evalFloat, dp.evalFloat, (a+b)/2, a, b)
}

// newtonPolish takes up to three Newton steps from x inside [lo, hi],
// stopping as soon as a step leaves the bracket or fails to shrink |f|.
func newtonPolish(f, df func(float64) float64, x, lo, hi float64) float64 {
	for i := 0; i < 3; i++ {
		fx := f(x)
		d := df(x)
		if fx == 0 || d == 0 || math.IsNaN(d) {
			break
		}
		nx := x - fx/d
		if nx < lo || nx > hi || math.IsNaN(nx) || math.Abs(f(nx)) >= math.Abs(fx) {
			break
		}
		x = nx
	}
	return x
}

// ------------------------------------------------------------
// Polynomials with inexact coefficients
// ------------------------------------------------------------

func solveInexactPoly(ctx context.Context, p poly, opts SolveOptions) ([]RealRoot, error) {
	var roots []RealRoot
	k := 0
	for k < len(p) && p[k].Sign() == 0 {
		k++
	}
	if k > 0 {
		roots = append(roots, exactRoot(new(big.Rat)))
		p = p[k:]
	}
	c := make([]float64, len(p))
	for i, r := range p {
		c[i], _ = r.Float64()
	}
	switch p.degree() {
	case -1, 0:
	case 1:
		roots = append(roots, numericRoot(-c[0]/c[1]))
	case 2:
		a, b, cc := c[2], c[1], c[0]
		disc := b*b - 4*a*cc
		switch {
		case disc < 0:
		case disc == 0:
			roots = append(roots, numericRoot(-b/(2*a)))
		default:
			q := -(b + math.Copysign(math.Sqrt(disc), b)) / 2
			roots = append(roots, numericRoot(q/a))
			if q != 0 {
				roots = append(roots, numericRoot(cc/q))
			}
		}
	default:
		bound := p.cauchyBound()
		dp := p.derivative()
		samples := opts.Samples
		if n := 50 * p.degree(); samples < n {
			samples = n
		}
		sc, err := scanRoots(ctx, p.evalFloat, dp.evalFloat, -bound, bound, samples)
		if err != nil {
			return nil, err
		}
		for _, x := range sc.roots {
			roots = append(roots, numericRoot(x))
		}
	}
	return roots, nil
}

// ------------------------------------------------------------
// Windowed search for non-polynomial expressions
// ------------------------------------------------------------

func solveWindowed(ctx context.Context, e Expr, opts SolveOptions) SolveResult {
	f := Compile(e)
	df := Compile(Differentiate(e))
	sc, err := scanRoots(ctx, f, df, opts.WindowMin, opts.WindowMax, opts.Samples)
	if err != nil {
		return timedOut(e, err)
	}
	if sc.defined == 0 {
		return SolveResult{Status: SolveFailed, Err: fmt.Errorf("solve %s: %w on [%g, %g]: %w", e, ErrUndefined, opts.WindowMin, opts.WindowMax, ErrUnsolvable)}
	}
	if sc.zero == sc.defined {
		return SolveResult{Status: SolveIdentity}
	}
	roots := make([]RealRoot, 0, len(sc.roots))
	for _, x := range sc.roots {
		if err := ctx.Err(); err != nil {
			return timedOut(e, err)
		}
		roots = append(roots, snapRoot(e, x))
	}
	roots = normalizeRoots(roots)
	res := SolveResult{Status: SolveWindowed}
	if len(roots) > opts.MaxRoots {
		// keep the roots nearest the origin
		sort.SliceStable(roots, func(i, j int) bool { return math.Abs(roots[i].Approx) < math.Abs(roots[j].Approx) })
		roots = roots[:opts.MaxRoots]
		sort.SliceStable(roots, func(i, j int) bool { return roots[i].Approx < roots[j].Approx })
		res.Truncated = true
	}
	res.Roots = roots
	return res
}

type scanResult struct {
	roots   []float64
	defined int
	zero    int
}

// scanRoots samples f on samples+1 evenly spaced points of [lo, hi],
// bisects every sign change that is not a pole and refines local minima of
// |f| that touch zero.
func scanRoots(ctx context.Context, f, df func(float64) float64, lo, hi float64, samples int) (scanResult, error) {
	var res scanResult
	xs := make([]float64, samples+1)
	ys := make([]float64, samples+1)
	step := (hi - lo) / float64(samples)
	for i := range xs {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		xs[i] = lo + step*float64(i)
		if i == samples {
			xs[i] = hi
		}
		ys[i] = f(xs[i])
		if math.IsNaN(ys[i]) {
			continue
		}
		res.defined++
		if math.Abs(ys[i]) <= identityTolerance {
			res.zero++
		}
		if ys[i] == 0 {
			res.roots = append(res.roots, xs[i])
		}
	}
	ok := func(y float64) bool { return !math.IsNaN(y) && y != 0 }
	for i := 0; i < samples; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		a, b := ys[i], ys[i+1]
		if ok(a) && ok(b) && math.Signbit(a) != math.Signbit(b) {
			r := bisect(f, xs[i], xs[i+1], a)
			if math.Abs(f(r)) <= poleTolerance {
				res.roots = append(res.roots, newtonPolish(f, df, r, xs[i], xs[i+1]))
			}
		}
		if i == 0 {
			continue
		}
		y0, y1, y2 := ys[i-1], ys[i], ys[i+1]
		if ok(y0) && ok(y1) && ok(y2) &&
			math.Signbit(y0) == math.Signbit(y1) && math.Signbit(y1) == math.Signbit(y2) &&
			math.Abs(y1) < math.Abs(y0) && math.Abs(y1) <= math.Abs(y2) {
			m := goldenMin(func(x float64) float64 { return math.Abs(f(x)) }, xs[i-1], xs[i+1])
			if math.Abs(f(m)) <= tangentTolerance {
				res.roots = append(res.roots, m)
			}
		}
	}
	sort.Float64s(res.roots)
	return res, nil
}

func bisect(f func(float64) float64, a, b, fa float64) float64 {
	for i := 0; i < 200; i++ {
		m := a + (b-a)/2
		if m <= a || m >= b {
			break
		}
		fm := f(m)
		if fm == 0 || math.IsNaN(fm) {
			return m
		}
		if math.Signbit(fm) == math.Signbit(fa) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return a + (b-a)/2
}

func goldenMin(f func(float64) float64, a, b float64) float64 {
	const invPhi = 0.6180339887498949
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < 200 && b-a > 1e-15*math.Max(1, math.Abs(a)); i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

// snapRoot replaces a numeric root with a nearby small-denominator rational
// when exact evaluation confirms it, or with a rational multiple of pi when
// the float residual vanishes there.
func snapRoot(e Expr, x float64) RealRoot {
	for q := int64(1); q <= maxSnapDenom; q++ {
		p := math.Round(x * float64(q))
		if math.Abs(p) > 1e12 || !closeTo(p/float64(q), x, snapTolerance) {
			continue
		}
		cand := F(int64(p), q)
		if v, err := EvaluateAt(e, cand); err == nil && v.Exact() && v.Sign(0) == 0 {
			return RealRoot{Expr: cand, Approx: cand.Float64(), Exact: true}
		}
	}
	for q := int64(1); q <= maxSnapDenom; q++ {
		p := math.Round(x * float64(q) / math.Pi)
		if p == 0 || math.Abs(p) > 1e12 {
			continue
		}
		v := p * math.Pi / float64(q)
		if !closeTo(v, x, snapTolerance) {
			continue
		}
		cand := MulOf(F(int64(p), q), Pi)
		if val, err := EvaluateAt(e, cand); err == nil && math.Abs(val.Float64()) <= identityTolerance {
			return RealRoot{Expr: cand, Approx: v, Exact: false}
		}
	}
	return numericRoot(x)
}
