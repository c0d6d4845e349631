package curvesketch_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/curvesketch"
)

func TestEvaluate_Exact(t *testing.T) {
	f := curvesketch.MustParse("x^2 - 3*x + 1/2")
	v, err := curvesketch.Evaluate(f, 3)
	require.NoError(t, err)
	assert.True(t, v.Exact())
	assert.Equal(t, "1/2", v.String())
	assert.Equal(t, 1, v.Sign(0))
}

func TestEvaluate_Inexact(t *testing.T) {
	v, err := curvesketch.Evaluate(curvesketch.MustParse("sin(x)"), 1)
	require.NoError(t, err)
	assert.False(t, v.Exact())
	assert.InDelta(t, math.Sin(1), v.Float64(), 1e-15)
}

func TestEvaluate_Undefined(t *testing.T) {
	cases := []struct {
		expr string
		at   float64
	}{
		{"1/x", 0},
		{"ln(x)", 0},
		{"ln(x)", -1},
		{"sqrt(x)", -4},
		{"asin(x)", 2},
		{"sin(x)/x", 0},
		{"x*ln(x)", 0},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			_, err := curvesketch.Evaluate(curvesketch.MustParse(c.expr), c.at)
			require.Error(t, err)
			assert.True(t, errors.Is(err, curvesketch.ErrUndefined), "got %v", err)
		})
	}
	_, err := curvesketch.Evaluate(curvesketch.MustParse("x"), math.NaN())
	assert.True(t, errors.Is(err, curvesketch.ErrUndefined))
}

func TestEvaluate_Overflow(t *testing.T) {
	v, err := curvesketch.Evaluate(curvesketch.MustParse("exp(x)"), 1000)
	require.NoError(t, err)
	assert.True(t, v.Overflow())
	assert.Nil(t, v.Num())
	assert.False(t, v.Exact())
	assert.Equal(t, 1, v.Sign(1e-9))
	assert.True(t, math.IsInf(v.Float64(), 1))
	assert.Equal(t, "∞", v.String())
	assert.Equal(t, `\infty`, v.LaTeX())
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expr":"∞","value":"inf","exact":false}`, string(b))

	v, err = curvesketch.Evaluate(curvesketch.MustParse("-exp(x)"), 1000)
	require.NoError(t, err)
	assert.Equal(t, -1, v.Sign(0))
	assert.Equal(t, "-∞", v.String())
}

func TestEvaluate_ExactBeyondFloatRange(t *testing.T) {
	v, err := curvesketch.Evaluate(curvesketch.MustParse("x^2"), 1e300)
	require.NoError(t, err)
	assert.True(t, v.Exact())
	assert.False(t, v.Overflow())
	assert.Equal(t, 1, v.Sign(0))
	assert.Equal(t, "1e+600", v.Compact())
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"value":"inf"`)

	d := curvesketch.Differentiate(curvesketch.MustParse("1e400*x"))
	v, err = curvesketch.Evaluate(d, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Sign(0))
}

func TestValue_Compact(t *testing.T) {
	cases := []struct {
		expr string
		at   float64
		want string
	}{
		{"x^2 - 3*x + 1/2", 3, "1/2"},
		{"x", 0.1, "0.1"},
		{"x^3 - 2*x", -0.7071067811865476, "1.060660172"},
		{"10*x", 0, "0"},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			v, err := curvesketch.Evaluate(curvesketch.MustParse(c.expr), c.at)
			require.NoError(t, err)
			assert.Equal(t, c.want, v.Compact())
		})
	}
}

func TestZeroProduct_Domain(t *testing.T) {
	assert.Equal(t, "0", curvesketch.Differentiate(curvesketch.MustParse("exp(1000)")).String())
	assert.Equal(t, "0", curvesketch.MustParse("0*exp(800)").String())

	for _, text := range []string{"0*ln(0)", "0*(1/0)", "0*sqrt(-1)", "0*asin(2)"} {
		_, err := curvesketch.EvaluateAt(curvesketch.MustParse(text), curvesketch.N(0))
		assert.ErrorIs(t, err, curvesketch.ErrUndefined, text)
	}
}

func TestEvaluateAt_Surd(t *testing.T) {
	f2 := curvesketch.MustParse("6*x")
	root := curvesketch.SqrtOf(curvesketch.N(2))
	v, err := curvesketch.EvaluateAt(f2, root)
	require.NoError(t, err)
	assert.False(t, v.Exact())
	assert.InDelta(t, 6*math.Sqrt2, v.Float64(), 1e-12)

	f1 := curvesketch.MustParse("3*x^2 - 6")
	z, err := curvesketch.EvaluateAt(f1, root)
	require.NoError(t, err)
	assert.True(t, z.Exact())
	assert.Equal(t, 0, z.Sign(0))
}

func TestValue_SignTolerance(t *testing.T) {
	v, err := curvesketch.EvaluateAt(curvesketch.MustParse("sin(x)"), curvesketch.Pi)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign(1e-9))
	assert.NotEqual(t, 0, v.Sign(0))
}

func TestEvaluate_Idempotent(t *testing.T) {
	f := curvesketch.MustParse("x^3 - 6*x + exp(x)")
	d := curvesketch.Differentiate(f)
	for _, e := range []curvesketch.Expr{f, d, curvesketch.Differentiate(d)} {
		a, errA := curvesketch.Evaluate(e, 1.5)
		b, errB := curvesketch.Evaluate(e, 1.5)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, a.String(), b.String())
		assert.True(t, a.Num().Equal(b.Num()))
	}
}

// oracleFuncs mirror the parser's function set for govaluate.
var oracleFuncs = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"exp":  unary(math.Exp),
	"ln":   unary(math.Log),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
	"atan": unary(math.Atan),
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		return fn(args[0].(float64)), nil
	}
}

func TestEvaluate_MatchesOracle(t *testing.T) {
	cases := []struct {
		ours, oracle string
	}{
		{"x^3 - 6*x", "x ** 3 - 6 * x"},
		{"(x+1)/(x-2)", "(x + 1) / (x - 2)"},
		{"sin(x)*cos(x) + exp(-x)", "sin(x) * cos(x) + exp(-x)"},
		{"ln(x^2 + 1) - sqrt(abs(x))", "ln(x ** 2 + 1) - sqrt(abs(x))"},
		{"atan(x)/2 + tan(x/3)", "atan(x) / 2 + tan(x / 3)"},
	}
	points := []float64{-3.5, -1.5, -0.25, 0.5, 1, 2.75, 7}
	for _, c := range cases {
		t.Run(c.ours, func(t *testing.T) {
			f := curvesketch.MustParse(c.ours)
			compiled := curvesketch.Compile(f)
			oracle, err := govaluate.NewEvaluableExpressionWithFunctions(c.oracle, oracleFuncs)
			require.NoError(t, err)
			for _, x := range points {
				raw, err := oracle.Evaluate(map[string]interface{}{"x": x})
				require.NoError(t, err)
				want := raw.(float64)
				if math.IsNaN(want) || math.IsInf(want, 0) {
					continue
				}
				got, err := curvesketch.Evaluate(f, x)
				require.NoError(t, err, "x=%v", x)
				assert.InEpsilon(t, want, got.Float64(), 1e-9, "Evaluate x=%v", x)
				assert.InEpsilon(t, want, compiled(x), 1e-9, "Compile x=%v", x)
			}
		})
	}
}

func TestCompile_UndefinedIsNaN(t *testing.T) {
	f := curvesketch.Compile(curvesketch.MustParse("1/x + ln(x)"))
	assert.True(t, math.IsNaN(f(0)))
	assert.True(t, math.IsNaN(f(-1)))
	assert.InDelta(t, 1.0, f(1), 1e-15)
}
