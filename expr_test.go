package curvesketch_test

import (
	"strings"
	"testing"

	"github.com/njchilds90/curvesketch"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := curvesketch.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := curvesketch.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := curvesketch.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_Inexact(t *testing.T) {
	n := curvesketch.NFloat(0.25)
	if !n.Inexact() {
		t.Errorf("NFloat should be tagged inexact")
	}
	if curvesketch.N(1).Inexact() {
		t.Errorf("N should be exact")
	}
	sum := curvesketch.AddOf(n, curvesketch.N(1))
	if s, ok := sum.(*curvesketch.Num); !ok || !s.Inexact() {
		t.Errorf("inexact + exact should stay inexact, got %v", sum)
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := curvesketch.N(5).Diff("x")
	if curvesketch.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", curvesketch.String(result))
	}
}

// ============================================================
// Sym and Const tests
// ============================================================

func TestSym_Sub_Match(t *testing.T) {
	result := curvesketch.S("x").Sub("x", curvesketch.N(3))
	if curvesketch.String(result) != "3" {
		t.Errorf("want 3, got %s", curvesketch.String(result))
	}
}

func TestSym_Diff_Self(t *testing.T) {
	result := curvesketch.S("x").Diff("x")
	if curvesketch.String(result) != "1" {
		t.Errorf("d/dx(x) should be 1, got %s", curvesketch.String(result))
	}
}

func TestConst_Pi(t *testing.T) {
	e := curvesketch.MulOf(curvesketch.F(1, 2), curvesketch.Pi)
	if e.String() != "pi/2" {
		t.Errorf("want pi/2, got %s", e.String())
	}
	if e.LaTeX() != `\frac{\pi}{2}` {
		t.Errorf("want \\frac{\\pi}{2}, got %s", e.LaTeX())
	}
	if !curvesketch.IsZero(curvesketch.Diff(curvesketch.Pi, "x")) {
		t.Errorf("d/dx(pi) should be 0")
	}
}

// ============================================================
// Add tests
// ============================================================

func TestAdd_Simple(t *testing.T) {
	e := curvesketch.AddOf(curvesketch.S("x"), curvesketch.N(1))
	if e.String() != "x + 1" {
		t.Errorf("want x + 1, got %s", e.String())
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.AddOf(x, curvesketch.MulOf(curvesketch.N(-1), x))
	if e.String() != "0" {
		t.Errorf("want 0, got %s", e.String())
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.AddOf(x, x)
	if e.String() != "2*x" {
		t.Errorf("want 2*x, got %s", e.String())
	}
}

func TestAdd_OrdersByDegree(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.AddOf(curvesketch.N(-4), curvesketch.MulOf(curvesketch.N(3), x), curvesketch.PowOf(x, curvesketch.N(2)))
	if e.String() != "x^2 + 3*x - 4" {
		t.Errorf("want x^2 + 3*x - 4, got %s", e.String())
	}
}

// ============================================================
// Mul tests
// ============================================================

func TestMul_ZeroCollapse(t *testing.T) {
	e := curvesketch.MulOf(curvesketch.N(0), curvesketch.S("x"))
	if e.String() != "0" {
		t.Errorf("want 0, got %s", e.String())
	}
}

func TestMul_MergesPowers(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.MulOf(x, curvesketch.PowOf(x, curvesketch.N(2)))
	if e.String() != "x^3" {
		t.Errorf("want x^3, got %s", e.String())
	}
	one := curvesketch.MulOf(x, curvesketch.PowOf(x, curvesketch.N(-1)))
	if one.String() != "1" {
		t.Errorf("want 1, got %s", one.String())
	}
}

func TestMul_Fraction(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.MulOf(curvesketch.F(-3, 2), curvesketch.PowOf(x, curvesketch.N(-2)))
	if e.String() != "-3/(2*x^2)" {
		t.Errorf("want -3/(2*x^2), got %s", e.String())
	}
}

func TestMul_ProductRule(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.MulOf(x, curvesketch.SinOf(x))
	d := curvesketch.Differentiate(e)
	if d.String() != "cos(x)*x + sin(x)" {
		t.Errorf("want cos(x)*x + sin(x), got %s", d.String())
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_ZeroExp(t *testing.T) {
	e := curvesketch.PowOf(curvesketch.S("x"), curvesketch.N(0))
	if e.String() != "1" {
		t.Errorf("want 1, got %s", e.String())
	}
}

func TestPow_NumericFold(t *testing.T) {
	e := curvesketch.PowOf(curvesketch.N(2), curvesketch.N(10))
	if e.String() != "1024" {
		t.Errorf("want 1024, got %s", e.String())
	}
	r := curvesketch.PowOf(curvesketch.F(9, 4), curvesketch.F(3, 2))
	if r.String() != "27/8" {
		t.Errorf("want 27/8, got %s", r.String())
	}
}

func TestPow_IrrationalRootStays(t *testing.T) {
	e := curvesketch.SqrtOf(curvesketch.N(2))
	if e.String() != "sqrt(2)" {
		t.Errorf("want sqrt(2), got %s", e.String())
	}
	sq := curvesketch.PowOf(e, curvesketch.N(2))
	if sq.String() != "2" {
		t.Errorf("want 2, got %s", sq.String())
	}
}

func TestPow_ZeroToNegativeStaysUnevaluated(t *testing.T) {
	e := curvesketch.PowOf(curvesketch.N(0), curvesketch.N(-1))
	if _, ok := e.(*curvesketch.Num); ok {
		t.Errorf("0^-1 must not fold to a number, got %s", e)
	}
}

func TestPow_Diff_PowerRule(t *testing.T) {
	x := curvesketch.S("x")
	result := curvesketch.Differentiate(curvesketch.PowOf(x, curvesketch.N(3)))
	if result.String() != "3*x^2" {
		t.Errorf("d/dx(x^3) should be 3*x^2, got %s", result.String())
	}
}

func TestPow_LaTeX(t *testing.T) {
	e := curvesketch.PowOf(curvesketch.S("x"), curvesketch.N(2))
	if e.LaTeX() != "x^{2}" {
		t.Errorf("want x^{2}, got %s", e.LaTeX())
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_Derivatives(t *testing.T) {
	x := curvesketch.S("x")
	cases := []struct {
		in   curvesketch.Expr
		want string
	}{
		{curvesketch.SinOf(x), "cos(x)"},
		{curvesketch.CosOf(x), "-sin(x)"},
		{curvesketch.ExpOf(x), "exp(x)"},
		{curvesketch.LnOf(x), "1/x"},
		{curvesketch.AbsOf(x), "sign(x)"},
		{curvesketch.SinOf(curvesketch.MulOf(curvesketch.N(2), x)), "2*cos(2*x)"},
	}
	for _, c := range cases {
		if got := curvesketch.Differentiate(c.in).String(); got != c.want {
			t.Errorf("d/dx(%s): want %s, got %s", c.in, c.want, got)
		}
	}
}

func TestFunc_ExactAtZero(t *testing.T) {
	if s := curvesketch.SinOf(curvesketch.N(0)).String(); s != "0" {
		t.Errorf("sin(0): want 0, got %s", s)
	}
	if s := curvesketch.CosOf(curvesketch.N(0)).String(); s != "1" {
		t.Errorf("cos(0): want 1, got %s", s)
	}
}

func TestFunc_LaTeX_Sin(t *testing.T) {
	e := curvesketch.SinOf(curvesketch.S("x"))
	if !strings.Contains(e.LaTeX(), `\sin`) {
		t.Errorf("LaTeX of sin should contain \\sin, got %s", e.LaTeX())
	}
}

func TestTrigSimplify_Pythagorean(t *testing.T) {
	x := curvesketch.S("x")
	e := curvesketch.AddOf(
		curvesketch.PowOf(curvesketch.SinOf(x), curvesketch.N(2)),
		curvesketch.PowOf(curvesketch.CosOf(x), curvesketch.N(2)),
	)
	if got := curvesketch.DeepSimplify(e).String(); got != "1" {
		t.Errorf("sin^2+cos^2: want 1, got %s", got)
	}
}

// ============================================================
// Misc
// ============================================================

func TestFreeSymbols(t *testing.T) {
	e := curvesketch.AddOf(curvesketch.S("x"), curvesketch.S("y"), curvesketch.Pi)
	syms := curvesketch.FreeSymbols(e)
	if len(syms) != 2 {
		t.Errorf("expected 2 free symbols, got %d", len(syms))
	}
}

func TestEquation_Residual(t *testing.T) {
	x := curvesketch.S("x")
	eq := curvesketch.Eq(curvesketch.PowOf(x, curvesketch.N(2)), curvesketch.N(4))
	if eq.String() != "x^2 = 4" {
		t.Errorf("want x^2 = 4, got %s", eq.String())
	}
	if eq.Residual().String() != "x^2 - 4" {
		t.Errorf("want x^2 - 4, got %s", eq.Residual().String())
	}
}

func TestDeterminism(t *testing.T) {
	build := func() string {
		x := curvesketch.S("x")
		return curvesketch.AddOf(
			curvesketch.MulOf(curvesketch.N(3), curvesketch.PowOf(x, curvesketch.N(2))),
			curvesketch.SinOf(x),
			curvesketch.N(7),
			x,
		).String()
	}
	first := build()
	for i := 0; i < 20; i++ {
		if got := build(); got != first {
			t.Fatalf("non-deterministic output: %q vs %q", first, got)
		}
	}
}
