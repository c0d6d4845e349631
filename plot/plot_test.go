package plot_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
	"github.com/njchilds90/curvesketch/plot"
)

func report(t *testing.T, text string) *analysis.Report {
	t.Helper()
	r, err := analysis.Analyze(context.Background(), text)
	require.NoError(t, err)
	return r
}

func TestRange(t *testing.T) {
	opts := plot.DefaultOptions()
	lo, hi := plot.Range(nil, opts)
	assert.Equal(t, -10.0, lo)
	assert.Equal(t, 10.0, hi)

	lo, hi = plot.Range([]float64{1, -0.5, 3}, opts)
	assert.Equal(t, -2.5, lo)
	assert.Equal(t, 5.0, hi)

	// a single point still gives a non-empty range
	lo, hi = plot.Range([]float64{0}, opts)
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 2.0, hi)
}

func TestRange_ZeroOptionsUseDefaults(t *testing.T) {
	lo, hi := plot.Range(nil, plot.Options{})
	assert.Equal(t, -10.0, lo)
	assert.Equal(t, 10.0, hi)
	lo, hi = plot.Range([]float64{4}, plot.Options{})
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 6.0, hi)
}

func TestSampleCurve(t *testing.T) {
	s := plot.SampleCurve(curvesketch.MustParse("x^2"), -1, 1, 5)
	require.Len(t, s, 5)
	xs := []float64{-1, -0.5, 0, 0.5, 1}
	ys := []float64{1, 0.25, 0, 0.25, 1}
	for i := range s {
		assert.Equal(t, xs[i], s[i].X)
		require.NotNil(t, s[i].Y)
		assert.InDelta(t, ys[i], *s[i].Y, 1e-15)
	}
}

func TestSampleCurve_Gaps(t *testing.T) {
	s := plot.SampleCurve(curvesketch.MustParse("ln(x)"), -1, 1, 3)
	assert.Nil(t, s[0].Y)
	assert.Nil(t, s[1].Y)
	require.NotNil(t, s[2].Y)
	assert.Equal(t, 0.0, *s[2].Y)

	b, err := json.Marshal(s[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":-1,"y":null}`, string(b))
}

func TestNew_Markers(t *testing.T) {
	d := plot.New(report(t, "x^3 - 3*x"), plot.DefaultOptions())
	assert.Equal(t, -3.0, d.XMin)
	assert.Equal(t, 3.0, d.XMax)
	require.Len(t, d.Samples, 400)
	assert.Equal(t, -3.0, d.Samples[0].X)
	assert.Equal(t, 3.0, d.Samples[399].X)

	require.Len(t, d.Markers, 3)
	assert.Equal(t, plot.Marker{Kind: plot.MarkMaximum, X: -1, Y: 2, XExpr: "-1"}, d.Markers[0])
	assert.Equal(t, plot.Marker{Kind: plot.MarkMinimum, X: 1, Y: -2, XExpr: "1"}, d.Markers[1])
	assert.Equal(t, plot.Marker{Kind: plot.MarkInflection, X: 0, Y: 0, XExpr: "0"}, d.Markers[2])

	// x^3 - 3x on [-3, 3] spans [-18, 18]
	assert.InDelta(t, -18, d.YMin, 1e-9)
	assert.InDelta(t, 18, d.YMax, 1e-9)
}

func TestNew_MarkerWithoutFiniteY(t *testing.T) {
	d := plot.New(report(t, "x^3 + exp(800)"), plot.DefaultOptions())
	require.Len(t, d.Markers, 1)
	assert.Equal(t, plot.Marker{Kind: plot.MarkInflection, X: 0, XExpr: "0", YMissing: true}, d.Markers[0])
	assert.Equal(t, -2.0, d.XMin)
	assert.Equal(t, 2.0, d.XMax)
	assert.False(t, math.IsInf(d.YMin, 0) || math.IsInf(d.YMax, 0))

	_, err := json.Marshal(d)
	assert.NoError(t, err)
}

func TestNew_DefaultRange(t *testing.T) {
	d := plot.New(report(t, "2*x + 1"), plot.DefaultOptions())
	assert.Equal(t, -10.0, d.XMin)
	assert.Equal(t, 10.0, d.XMax)
	assert.Empty(t, d.Markers)
	assert.InDelta(t, -19, d.YMin, 1e-9)
	assert.InDelta(t, 21, d.YMax, 1e-9)
}

func TestMarkerKind_Label(t *testing.T) {
	assert.Equal(t, "Max", plot.MarkMaximum.Label())
	assert.Equal(t, "Min", plot.MarkMinimum.Label())
	assert.Equal(t, "Inf", plot.MarkInflection.Label())
}
