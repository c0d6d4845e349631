package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
)

func analyze(t *testing.T, text string) *analysis.Report {
	t.Helper()
	r, err := analysis.Analyze(context.Background(), text)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func states(ivs []analysis.Interval) []analysis.State {
	out := make([]analysis.State, len(ivs))
	for i, iv := range ivs {
		out[i] = iv.State
	}
	return out
}

// ============================================================
// Scenarios
// ============================================================

func TestAnalyze_Parabola(t *testing.T) {
	r := analyze(t, "x^2")
	assert.Equal(t, "2*x", r.Derivatives.First)
	assert.Equal(t, "2", r.Derivatives.Second)

	require.Len(t, r.Critical.Points, 1)
	cp := r.Critical.Points[0]
	assert.Equal(t, analysis.LocalMinimum, cp.Kind)
	assert.Equal(t, "2", cp.SecondDerivative.String())
	assert.Equal(t, []analysis.Point{{X: 0, Y: 0, XExpr: "0", YExpr: "0"}}, r.Minima)
	assert.Empty(t, r.Maxima)

	assert.Equal(t, []analysis.State{analysis.Decreasing, analysis.Increasing}, states(r.Monotonicity.Intervals))
	assert.Empty(t, r.Inflection.Candidates)
	assert.Empty(t, r.Inflections)
	assert.Equal(t, []analysis.State{analysis.ConcaveUp}, states(r.Concavity.Intervals))
}

func TestAnalyze_Cubic(t *testing.T) {
	r := analyze(t, "x^3")
	assert.Equal(t, "3*x^2", r.Derivatives.First)
	assert.Equal(t, "6*x", r.Derivatives.Second)

	require.Len(t, r.Critical.Points, 1)
	assert.Equal(t, analysis.Undetermined, r.Critical.Points[0].Kind)
	assert.Equal(t, 0, r.Critical.Points[0].SecondDerivative.Sign(0))
	assert.Nil(t, r.Critical.Points[0].Y)
	assert.Empty(t, r.Maxima)
	assert.Empty(t, r.Minima)

	// the undetermined point is not a breakpoint
	assert.Equal(t, []analysis.State{analysis.Increasing}, states(r.Monotonicity.Intervals))

	require.Len(t, r.Inflection.Candidates, 1)
	assert.True(t, r.Inflection.Candidates[0].SignChange)
	assert.Equal(t, []analysis.Point{{X: 0, Y: 0, XExpr: "0", YExpr: "0"}}, r.Inflections)
	assert.Equal(t, []analysis.State{analysis.ConcaveDown, analysis.ConcaveUp}, states(r.Concavity.Intervals))
}

func TestAnalyze_CubicWithExtrema(t *testing.T) {
	r := analyze(t, "x^3 - 3*x")
	assert.Equal(t, []analysis.Point{{X: -1, Y: 2, XExpr: "-1", YExpr: "2"}}, r.Maxima)
	assert.Equal(t, []analysis.Point{{X: 1, Y: -2, XExpr: "1", YExpr: "-2"}}, r.Minima)
	assert.Equal(t,
		[]analysis.State{analysis.Increasing, analysis.Decreasing, analysis.Increasing},
		states(r.Monotonicity.Intervals))
	assert.Equal(t, []float64{-2, 0, 2}, []float64{
		r.Monotonicity.Intervals[0].TestPoint,
		r.Monotonicity.Intervals[1].TestPoint,
		r.Monotonicity.Intervals[2].TestPoint,
	})
}

func TestAnalyze_SurdExtrema(t *testing.T) {
	r := analyze(t, "x^3 - 6*x")
	require.Len(t, r.Maxima, 1)
	require.Len(t, r.Minima, 1)
	assert.Equal(t, "-sqrt(2)", r.Maxima[0].XExpr)
	assert.Equal(t, "sqrt(2)", r.Minima[0].XExpr)
	assert.InDelta(t, 4*math.Sqrt2, r.Maxima[0].Y, 1e-9)
	assert.InDelta(t, -4*math.Sqrt2, r.Minima[0].Y, 1e-9)
	assert.Equal(t, "sqrt(2)", r.Monotonicity.Intervals[1].Upper.Expr)
}

func TestAnalyze_Sine(t *testing.T) {
	r := analyze(t, "sin(x)")
	assert.Equal(t, curvesketch.SolveWindowed, r.Critical.Status)
	assert.Equal(t, [2]float64{-10, 10}, r.Critical.Window)

	require.Len(t, r.Critical.Points, 6)
	assert.Len(t, r.Maxima, 3)
	assert.Len(t, r.Minima, 3)
	for _, p := range r.Maxima {
		assert.InDelta(t, 1, p.Y, 1e-9)
	}
	for _, p := range r.Minima {
		assert.InDelta(t, -1, p.Y, 1e-9)
	}
	assert.Len(t, r.Inflection.Candidates, 7)
	assert.Len(t, r.Inflections, 7)
	for _, c := range r.Inflection.Candidates {
		assert.True(t, c.SignChange, "x = %s", c.Root)
	}

	mono := states(r.Monotonicity.Intervals)
	require.Len(t, mono, 7)
	for i := 1; i < len(mono); i++ {
		assert.NotEqual(t, mono[i-1], mono[i])
	}
}

func TestAnalyze_Constant(t *testing.T) {
	r := analyze(t, "5")
	assert.Equal(t, "0", r.Derivatives.First)
	assert.Equal(t, curvesketch.SolveIdentity, r.Critical.Status)
	assert.Empty(t, r.Critical.Points)
	assert.Equal(t, []analysis.State{analysis.Constant}, states(r.Monotonicity.Intervals))
	assert.Equal(t, []analysis.State{analysis.Constant}, states(r.Concavity.Intervals))

	secs := r.Sections()
	assert.Contains(t, secs[1].Lines, "No real critical points found.")
	assert.Equal(t, []string{"The function is constant."}, secs[3].Lines)
	assert.Equal(t, []string{"No defined concavity (possibly a line)."}, secs[4].Lines)
}

func TestAnalyze_Line(t *testing.T) {
	r := analyze(t, "3*x - 1")
	assert.Equal(t, curvesketch.SolveNoRoots, r.Critical.Status)
	assert.Equal(t, []analysis.State{analysis.Increasing}, states(r.Monotonicity.Intervals))
	assert.Equal(t, []analysis.State{analysis.Constant}, states(r.Concavity.Intervals))
}

func TestAnalyze_ParseError(t *testing.T) {
	for _, in := range []string{"", "x + (", "2x", "y^2"} {
		r, err := analysis.Analyze(context.Background(), in)
		assert.Nil(t, r, in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, curvesketch.ErrParse), in)
	}
}

// ============================================================
// Inflection verification
// ============================================================

func TestAnalyze_EvenMultiplicityInflection(t *testing.T) {
	r := analyze(t, "x^4")
	require.Len(t, r.Inflection.Candidates, 1)
	assert.False(t, r.Inflection.Candidates[0].SignChange)
	assert.Len(t, r.Inflections, 1)

	opts := analysis.DefaultOptions()
	opts.VerifyInflections = true
	r, err := analysis.New(opts, nil).Analyze(context.Background(), "x^4")
	require.NoError(t, err)
	assert.Len(t, r.Inflection.Candidates, 1)
	assert.Empty(t, r.Inflections)
}

// ============================================================
// Values beyond float64 range
// ============================================================

func TestAnalyze_OverflowingConstant(t *testing.T) {
	r := analyze(t, "exp(1000)")
	assert.Equal(t, "0", r.Derivatives.First)
	assert.Equal(t, curvesketch.SolveIdentity, r.Critical.Status)
	assert.Equal(t, []analysis.State{analysis.Constant}, states(r.Monotonicity.Intervals))
	assert.Equal(t, []analysis.State{analysis.Constant}, states(r.Concavity.Intervals))
}

func TestAnalyze_HugeSlope(t *testing.T) {
	cases := []struct {
		in   string
		line string
	}{
		{"1e400*x", "Domain (-∞, ∞): f'(0) = 1e+400 > 0, increasing ↑"},
		{"exp(800)*x", "Domain (-∞, ∞): f'(0) = ∞ > 0, increasing ↑"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			r := analyze(t, c.in)
			assert.Equal(t, []analysis.State{analysis.Increasing}, states(r.Monotonicity.Intervals))
			assert.Equal(t, []string{c.line}, r.Sections()[3].Lines)
			_, err := json.Marshal(r)
			assert.NoError(t, err)
		})
	}
}

func TestAnalyze_InflectionWithoutFiniteY(t *testing.T) {
	for _, in := range []string{"x^3 + exp(800)", "x^3 + 1e400"} {
		t.Run(in, func(t *testing.T) {
			r := analyze(t, in)
			require.Len(t, r.Inflections, 1)
			p := r.Inflections[0]
			assert.Equal(t, 0.0, p.X)
			assert.Equal(t, "0", p.XExpr)
			assert.True(t, p.YMissing)
			assert.Equal(t, 0.0, p.Y)
			assert.NotEmpty(t, p.YExpr)

			b, err := json.Marshal(r)
			require.NoError(t, err)
			assert.Contains(t, string(b), `"y_missing":true`)
		})
	}
}

// ============================================================
// Degraded runs
// ============================================================

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	core, logs := observer.New(zapcore.DebugLevel)
	r, err := analysis.New(analysis.DefaultOptions(), zap.New(core)).Analyze(ctx, "x^2")
	require.NoError(t, err)
	assert.Equal(t, curvesketch.SolveTimedOut, r.Critical.Status)
	assert.Equal(t, curvesketch.SolveTimedOut, r.Inflection.Status)
	assert.Empty(t, r.Critical.Points)
	assert.Contains(t, r.Sections()[1].Lines, "(solver timed out)")
	assert.Equal(t, 2, logs.FilterMessage("solve timed out").Len())
}

func TestAnalyze_DeadlinePassed(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	r, err := analysis.Analyze(ctx, "sin(x)*exp(x/10)")
	require.NoError(t, err)
	assert.Equal(t, curvesketch.SolveTimedOut, r.Critical.Status)
	assert.Empty(t, r.Maxima)
}

// ============================================================
// Report
// ============================================================

func TestReport_Sections(t *testing.T) {
	r := analyze(t, "x^2")
	secs := r.Sections()
	require.Len(t, secs, 5)
	assert.Equal(t, []string{"f(x) = x^2", "f'(x) = 2*x", "f''(x) = 2"}, secs[0].Lines)
	assert.Contains(t, secs[1].Lines, "f''(0) = 2 > 0: local minimum at (0, 0)")
	assert.Contains(t, secs[2].Lines, "No real inflection points found.")
	assert.Equal(t, []string{
		"(-∞, 0): f'(-1) = -2 ≤ 0, decreasing ↓",
		"(0, ∞): f'(1) = 2 > 0, increasing ↑",
	}, secs[3].Lines)
	assert.Equal(t, []string{"Domain (-∞, ∞): f''(0) = 2 > 0, concave up ∪"}, secs[4].Lines)
	assert.Contains(t, r.String(), "Step 5: Concavity")
}

func TestReport_IntervalLinesStayShort(t *testing.T) {
	for _, in := range []string{"x^4/4 - x^2", "x/(x^2 + 1)"} {
		t.Run(in, func(t *testing.T) {
			secs := analyze(t, in).Sections()
			for _, sec := range secs[3:] {
				for _, line := range sec.Lines {
					assert.Less(t, utf8.RuneCountInString(line), 90, line)
				}
			}
		})
	}

	secs := analyze(t, "x^4/4 - x^2").Sections()
	require.Len(t, secs[3].Lines, 4)
	assert.Contains(t, secs[3].Lines[0], "= -9.242640687 ≤ 0, decreasing ↓")
	for _, line := range secs[3].Lines {
		assert.NotContains(t, line, "/", line)
	}
}

func TestReport_JSON(t *testing.T) {
	r := analyze(t, "x^3 - 3*x")
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, r.ID, got["id"])
	assert.Equal(t, "x^3 - 3*x", got["input"])
	mono := got["monotonicity"].(map[string]interface{})["intervals"].([]interface{})
	require.Len(t, mono, 3)
	first := mono[0].(map[string]interface{})
	assert.Equal(t, "-inf", first["lower"].(map[string]interface{})["value"])
	assert.Equal(t, "increasing", first["state"])
	assert.Equal(t, "positive", first["sign"])
}

func TestReport_FreshPerRun(t *testing.T) {
	a := analyze(t, "x^2")
	b := analyze(t, "x^2")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Sections(), b.Sections())
	assert.ElementsMatch(t, []float64{0}, a.SpecialX())
}
