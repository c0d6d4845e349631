package render_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/curvesketch/analysis"
	"github.com/njchilds90/curvesketch/plot"
	"github.com/njchilds90/curvesketch/render"
)

func TestThemeByName(t *testing.T) {
	th, err := render.ThemeByName("")
	require.NoError(t, err)
	assert.Equal(t, "dark", th.Name)

	th, err = render.ThemeByName("Light")
	require.NoError(t, err)
	assert.Equal(t, "light", th.Name)
	assert.NotEqual(t, render.Dark().Title, th.Title)

	_, err = render.ThemeByName("solarized")
	assert.Error(t, err)
}

func TestPrinter_Report(t *testing.T) {
	r, err := analysis.Analyze(context.Background(), "x^3 - 3*x")
	require.NoError(t, err)

	var buf bytes.Buffer
	out := render.NewPrinter(&buf, render.Light()).Report(r)
	for _, want := range []string{
		"Step 1: Derivatives",
		"f'(x) = 3*x^2 - 3",
		"Step 5: Concavity",
		"Max (-1, 2)",
		"Min (1, -2)",
		"Inf x = 0",
		"(-∞, -1) ↑",
		"(0, ∞) ∪",
	} {
		assert.Contains(t, out, want)
	}
	// a plain buffer gets no escape sequences
	assert.NotContains(t, out, "\x1b[")
}

func TestPrinter_ReportMarksUnverifiedInflection(t *testing.T) {
	r, err := analysis.Analyze(context.Background(), "x^4")
	require.NoError(t, err)
	var buf bytes.Buffer
	out := render.NewPrinter(&buf, render.Dark()).Report(r)
	assert.Contains(t, out, "Inf x = 0 (no sign change)")
}

func TestPrinter_Chart(t *testing.T) {
	r, err := analysis.Analyze(context.Background(), "x^3 - 3*x")
	require.NoError(t, err)
	d := plot.New(r, plot.DefaultOptions())

	var buf bytes.Buffer
	out := render.NewPrinter(&buf, render.Dark()).Chart(d, 40, 12)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 12+2)
	assert.Equal(t, "f(x) = x^3 - 3*x", lines[0])

	grid := strings.Join(lines[1:13], "\n")
	assert.Equal(t, 1, strings.Count(grid, "M"))
	assert.Equal(t, 1, strings.Count(grid, "m"))
	assert.Equal(t, 1, strings.Count(grid, "i"))
	assert.Contains(t, grid, "•")
	assert.Contains(t, grid, "│")
	assert.Contains(t, lines[13], "-3")
	assert.Contains(t, lines[13], "3")
}

func TestPrinter_ChartSkipsMarkerWithoutY(t *testing.T) {
	r, err := analysis.Analyze(context.Background(), "x^3 + exp(800)")
	require.NoError(t, err)
	d := plot.New(r, plot.DefaultOptions())
	require.Len(t, d.Markers, 1)

	var buf bytes.Buffer
	out := render.NewPrinter(&buf, render.Dark()).Chart(d, 40, 12)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 12+2)
	assert.Equal(t, 0, strings.Count(strings.Join(lines[1:13], "\n"), "i"))
}

func TestPrinter_ChartFlatCurve(t *testing.T) {
	r, err := analysis.Analyze(context.Background(), "5")
	require.NoError(t, err)
	d := plot.New(r, plot.DefaultOptions())
	var buf bytes.Buffer
	out := render.NewPrinter(&buf, render.Dark()).Chart(d, 0, 0)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, render.DefaultHeight+2)
	assert.Contains(t, out, "•")
}
