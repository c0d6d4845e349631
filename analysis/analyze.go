// Package analysis runs the curve-sketching pipeline over a parsed f(x):
// derivatives, critical points with the second-derivative test, inflection
// candidates, and the monotonicity and concavity partitions of the real line.
package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njchilds90/curvesketch"
)

// Options configures an Analyzer.
type Options struct {
	Solve curvesketch.SolveOptions
	// ZeroTolerance is the band around zero inside which an inexact value
	// counts as zero. Exact values always use their exact sign.
	ZeroTolerance float64
	// VerifyInflections drops candidates without a concavity change from
	// the plotted inflection points. They stay in the inflection step.
	VerifyInflections bool
}

func DefaultOptions() Options {
	return Options{
		Solve:         curvesketch.DefaultSolveOptions(),
		ZeroTolerance: 1e-9,
	}
}

// Analyzer runs analyses. It holds no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// New returns an Analyzer. A nil logger discards output.
func New(opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ZeroTolerance < 0 {
		opts.ZeroTolerance = 0
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Analyze parses text with the default options and analyzes it.
func Analyze(ctx context.Context, text string) (*Report, error) {
	return New(DefaultOptions(), nil).Analyze(ctx, text)
}

// Analyze parses text and runs the full pipeline. A parse failure is the
// only error; solver and evaluation failures degrade into the report.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Report, error) {
	f, err := curvesketch.Parse(text)
	if err != nil {
		a.logger.Debug("parse failed", zap.String("input", text), zap.Error(err))
		return nil, err
	}
	return a.run(ctx, text, f), nil
}

// AnalyzeExpr analyzes an already-built expression.
func (a *Analyzer) AnalyzeExpr(ctx context.Context, f curvesketch.Expr) *Report {
	f = f.Simplify()
	return a.run(ctx, f.String(), f)
}

func (a *Analyzer) run(ctx context.Context, input string, f curvesketch.Expr) *Report {
	tol := a.opts.ZeroTolerance
	f1 := curvesketch.Differentiate(f)
	f2 := curvesketch.Differentiate(f1)

	r := &Report{
		ID:    uuid.NewString(),
		Input: input,
		F:     f,
		F1:    f1,
		F2:    f2,
		Derivatives: DerivativeStep{
			Function: f.String(),
			First:    f1.String(),
			Second:   f2.String(),
		},
		Maxima:      []Point{},
		Minima:      []Point{},
		Inflections: []Point{},
	}
	log := a.logger.With(zap.String("id", r.ID), zap.String("f", r.Derivatives.Function))

	crit := curvesketch.SolveRealRoots(ctx, f1, a.opts.Solve)
	a.logSolve(log, "f'", crit)
	r.Critical = CriticalStep{SolveStep: a.solveStep(f1, crit), Points: []CriticalPoint{}}

	var extrema []curvesketch.RealRoot
	for _, root := range crit.Roots {
		cp := CriticalPoint{Root: root, Kind: Undetermined}
		if v, err := curvesketch.EvaluateAt(f2, root.Expr); err == nil {
			cp.SecondDerivative = &v
			switch v.Sign(tol) {
			case 1:
				cp.Kind = LocalMinimum
			case -1:
				cp.Kind = LocalMaximum
			}
		} else {
			log.Debug("second derivative undefined at critical point", zap.Stringer("x", root.Expr), zap.Error(err))
		}
		if cp.Kind != Undetermined {
			extrema = append(extrema, root)
			if y, err := curvesketch.EvaluateAt(f, root.Expr); err == nil {
				cp.Y = &y
			}
			pt := pointOf(root, cp.Y)
			if cp.Kind == LocalMinimum {
				r.Minima = append(r.Minima, pt)
			} else {
				r.Maxima = append(r.Maxima, pt)
			}
		}
		r.Critical.Points = append(r.Critical.Points, cp)
	}

	infl := curvesketch.SolveRealRoots(ctx, f2, a.opts.Solve)
	a.logSolve(log, "f''", infl)
	r.Inflection = InflectionStep{SolveStep: a.solveStep(f2, infl), Candidates: []InflectionCandidate{}}

	sortRoots(extrema)
	r.Monotonicity = IntervalStep{Reference: "f'", Intervals: Classify(f1, extrema, Monotonicity, tol)}

	candidates := append([]curvesketch.RealRoot(nil), infl.Roots...)
	sortRoots(candidates)
	r.Concavity = IntervalStep{Reference: "f''", Intervals: Classify(f2, candidates, Concavity, tol)}

	for i, root := range candidates {
		left, right := r.Concavity.Intervals[i], r.Concavity.Intervals[i+1]
		c := InflectionCandidate{
			Root:       root,
			SignChange: left.State != right.State && left.State != Undefined && right.State != Undefined,
		}
		if y, err := curvesketch.EvaluateAt(f, root.Expr); err == nil {
			c.Y = &y
		}
		if c.SignChange || !a.opts.VerifyInflections {
			r.Inflections = append(r.Inflections, pointOf(root, c.Y))
		}
		r.Inflection.Candidates = append(r.Inflection.Candidates, c)
	}

	log.Debug("analysis complete",
		zap.Int("maxima", len(r.Maxima)),
		zap.Int("minima", len(r.Minima)),
		zap.Int("inflections", len(r.Inflections)))
	return r
}

func (a *Analyzer) solveStep(e curvesketch.Expr, res curvesketch.SolveResult) SolveStep {
	s := SolveStep{Equation: e.String(), Status: res.Status, Truncated: res.Truncated}
	if res.Status == curvesketch.SolveWindowed {
		opts := a.opts.Solve.WithDefaults()
		s.Window = [2]float64{opts.WindowMin, opts.WindowMax}
	}
	return s
}

func (a *Analyzer) logSolve(log *zap.Logger, which string, res curvesketch.SolveResult) {
	fields := []zap.Field{
		zap.String("derivative", which),
		zap.String("status", string(res.Status)),
		zap.Int("roots", len(res.Roots)),
	}
	switch res.Status {
	case curvesketch.SolveTimedOut:
		log.Warn("solve timed out", append(fields, zap.Error(res.Err))...)
	case curvesketch.SolveFailed:
		log.Info("solve failed", append(fields, zap.Error(res.Err))...)
	default:
		if res.Truncated {
			fields = append(fields, zap.Bool("truncated", true))
		}
		log.Debug("solved", fields...)
	}
}

// pointOf builds the point at root. y is nil when f is undefined there.
func pointOf(root curvesketch.RealRoot, y *curvesketch.Value) Point {
	p := Point{X: root.Approx, XExpr: root.String(), YExpr: valueText(y)}
	if y == nil || math.IsInf(y.Float64(), 0) {
		p.YMissing = true
		return p
	}
	p.Y = y.Float64()
	return p
}

func sortRoots(rs []curvesketch.RealRoot) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Approx < rs[j].Approx })
}
