package analysis

import (
	"fmt"
	"strings"

	"github.com/njchilds90/curvesketch"
)

// ============================================================
// Points
// ============================================================

// Kind classifies a critical point by the second-derivative test.
type Kind string

const (
	LocalMaximum Kind = "local-maximum"
	LocalMinimum Kind = "local-minimum"
	// Undetermined means f'' vanished (or was undefined) at the point.
	Undetermined Kind = "undetermined"
)

// Point is a plotted (x, y) pair with the exact forms kept for display.
// YMissing is set when f is undefined at X or its value is beyond float64
// range. Y is 0 then and YExpr reads "undefined", "∞" or the exact value.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	XExpr    string  `json:"x_expr"`
	YExpr    string  `json:"y_expr"`
	YMissing bool    `json:"y_missing,omitempty"`
}

// CriticalPoint is a real root of f'. Y is set for maxima and minima only.
type CriticalPoint struct {
	Root             curvesketch.RealRoot `json:"root"`
	Kind             Kind                 `json:"kind"`
	SecondDerivative *curvesketch.Value   `json:"second_derivative,omitempty"`
	Y                *curvesketch.Value   `json:"y,omitempty"`
}

// InflectionCandidate is a real root of f''. SignChange reports whether the
// concavity intervals on either side of it carry different states.
type InflectionCandidate struct {
	Root       curvesketch.RealRoot `json:"root"`
	Y          *curvesketch.Value   `json:"y,omitempty"`
	SignChange bool                 `json:"sign_change"`
}

// ============================================================
// Steps
// ============================================================

// DerivativeStep holds f and its first two derivatives.
type DerivativeStep struct {
	Function string `json:"function"`
	First    string `json:"first"`
	Second   string `json:"second"`
}

// SolveStep records how a derivative was solved for zero.
type SolveStep struct {
	Equation  string                  `json:"equation"`
	Status    curvesketch.SolveStatus `json:"status"`
	Truncated bool                    `json:"truncated,omitempty"`
	Window    [2]float64              `json:"window,omitempty"`
}

// CriticalStep lists the critical points in solver order.
type CriticalStep struct {
	SolveStep
	Points []CriticalPoint `json:"points"`
}

// InflectionStep lists every real root of f''.
type InflectionStep struct {
	SolveStep
	Candidates []InflectionCandidate `json:"candidates"`
}

// IntervalStep is one Classify run. Reference is "f'" or "f''".
type IntervalStep struct {
	Reference string     `json:"reference"`
	Intervals []Interval `json:"intervals"`
}

// ============================================================
// Report
// ============================================================

// Report is the full result of one analysis run.
type Report struct {
	ID    string           `json:"id"`
	Input string           `json:"input"`
	F     curvesketch.Expr `json:"-"`
	F1    curvesketch.Expr `json:"-"`
	F2    curvesketch.Expr `json:"-"`

	Derivatives  DerivativeStep `json:"derivatives"`
	Critical     CriticalStep   `json:"critical"`
	Inflection   InflectionStep `json:"inflection"`
	Monotonicity IntervalStep   `json:"monotonicity"`
	Concavity    IntervalStep   `json:"concavity"`

	Maxima      []Point `json:"maxima"`
	Minima      []Point `json:"minima"`
	Inflections []Point `json:"inflections"`
}

// SpecialX returns the x-values of every plotted point.
func (r *Report) SpecialX() []float64 {
	var xs []float64
	for _, group := range [][]Point{r.Maxima, r.Minima, r.Inflections} {
		for _, p := range group {
			xs = append(xs, p.X)
		}
	}
	return xs
}

// Section is one titled block of report text.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

func (s Section) String() string {
	var b strings.Builder
	b.WriteString(s.Title)
	for _, l := range s.Lines {
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	return b.String()
}

// Sections renders the five steps as plain text, in order: derivatives,
// critical points, inflection points, monotonicity, concavity.
func (r *Report) Sections() []Section {
	return []Section{
		{
			Title: "Step 1: Derivatives",
			Lines: []string{
				"f(x) = " + r.Derivatives.Function,
				"f'(x) = " + r.Derivatives.First,
				"f''(x) = " + r.Derivatives.Second,
			},
		},
		r.criticalSection(),
		r.inflectionSection(),
		intervalSection("Step 4: Monotonicity", r.Monotonicity, "The function is constant."),
		intervalSection("Step 5: Concavity", r.Concavity, "No defined concavity (possibly a line)."),
	}
}

// String joins the sections with blank lines.
func (r *Report) String() string {
	secs := r.Sections()
	parts := make([]string, len(secs))
	for i, s := range secs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n\n")
}

func solveLines(s SolveStep, what string) []string {
	lines := []string{fmt.Sprintf("Solve %s = 0: %s = 0", what, s.Equation)}
	switch s.Status {
	case curvesketch.SolveWindowed:
		lines = append(lines, fmt.Sprintf("(searched numerically on [%g, %g])", s.Window[0], s.Window[1]))
	case curvesketch.SolveIdentity:
		lines = append(lines, "(identically zero, no isolated roots)")
	case curvesketch.SolveTimedOut:
		lines = append(lines, "(solver timed out)")
	case curvesketch.SolveFailed:
		lines = append(lines, "(solver failed)")
	}
	if s.Truncated {
		lines = append(lines, "(root list truncated)")
	}
	return lines
}

func (r *Report) criticalSection() Section {
	lines := solveLines(r.Critical.SolveStep, "f'(x)")
	if len(r.Critical.Points) == 0 {
		lines = append(lines, "No real critical points found.")
		return Section{Title: "Step 2: Critical points", Lines: lines}
	}
	names := make([]string, len(r.Critical.Points))
	for i, p := range r.Critical.Points {
		names[i] = p.Root.String()
	}
	lines = append(lines, "Critical points: x = "+strings.Join(names, ", "))
	for _, p := range r.Critical.Points {
		x := p.Root.String()
		if p.SecondDerivative == nil {
			lines = append(lines, fmt.Sprintf("f''(%s) is undefined: the test is inconclusive", x))
			continue
		}
		v := p.SecondDerivative.Compact()
		switch p.Kind {
		case LocalMinimum:
			lines = append(lines, fmt.Sprintf("f''(%s) = %s > 0: local minimum at (%s, %s)", x, v, x, valueText(p.Y)))
		case LocalMaximum:
			lines = append(lines, fmt.Sprintf("f''(%s) = %s < 0: local maximum at (%s, %s)", x, v, x, valueText(p.Y)))
		default:
			lines = append(lines, fmt.Sprintf("f''(%s) = %s: the test is inconclusive (possible inflection)", x, v))
		}
	}
	return Section{Title: "Step 2: Critical points", Lines: lines}
}

func (r *Report) inflectionSection() Section {
	lines := solveLines(r.Inflection.SolveStep, "f''(x)")
	if len(r.Inflection.Candidates) == 0 {
		lines = append(lines, "No real inflection points found.")
		return Section{Title: "Step 3: Inflection points", Lines: lines}
	}
	for _, c := range r.Inflection.Candidates {
		note := "concavity changes"
		if !c.SignChange {
			note = "concavity does not change"
		}
		lines = append(lines, fmt.Sprintf("x = %s (%s)", c.Root, note))
	}
	return Section{Title: "Step 3: Inflection points", Lines: lines}
}

var stateText = map[State]string{
	Increasing:  "increasing ↑",
	Decreasing:  "decreasing ↓",
	ConcaveUp:   "concave up ∪",
	ConcaveDown: "concave down ∩",
	Undefined:   "undefined",
}

func intervalSection(title string, step IntervalStep, degenerate string) Section {
	var lines []string
	for _, iv := range step.Intervals {
		if iv.State == Constant {
			lines = append(lines, degenerate)
			continue
		}
		span := fmt.Sprintf("(%s, %s)", iv.Lower, iv.Upper)
		if iv.Lower.IsInf() && iv.Upper.IsInf() {
			span = "Domain " + span
		}
		at := fmt.Sprintf("%s(%g)", step.Reference, iv.TestPoint)
		switch iv.Sign {
		case SignPositive:
			lines = append(lines, fmt.Sprintf("%s: %s = %s > 0, %s", span, at, iv.Value.Compact(), stateText[iv.State]))
		case SignUndefined:
			lines = append(lines, fmt.Sprintf("%s: %s is undefined", span, at))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s = %s ≤ 0, %s", span, at, iv.Value.Compact(), stateText[iv.State]))
		}
	}
	return Section{Title: title, Lines: lines}
}

func valueText(v *curvesketch.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.Compact()
}
