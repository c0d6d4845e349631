// Package plot turns an analysis report into plottable data: a sampled
// curve over a range chosen around the report's special points, plus one
// marker per maximum, minimum and inflection point.
package plot

import (
	"math"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
)

// Options controls range selection and resolution.
type Options struct {
	// Samples is the number of points on the curve, endpoints included.
	Samples int `json:"samples"`
	// Padding widens the range on both sides of the outermost special point.
	Padding float64 `json:"padding"`
	// DefaultMin and DefaultMax are used when the report has no special
	// points.
	DefaultMin float64 `json:"default_min"`
	DefaultMax float64 `json:"default_max"`
}

func DefaultOptions() Options {
	return Options{Samples: 400, Padding: 2, DefaultMin: -10, DefaultMax: 10}
}

// MarkerKind says which point list a marker came from.
type MarkerKind string

const (
	MarkMaximum    MarkerKind = "maximum"
	MarkMinimum    MarkerKind = "minimum"
	MarkInflection MarkerKind = "inflection"
)

// Label is the short tag drawn next to a marker.
func (k MarkerKind) Label() string {
	switch k {
	case MarkMaximum:
		return "Max"
	case MarkMinimum:
		return "Min"
	}
	return "Inf"
}

// Marker is a special point of the curve. YMissing markers have no finite
// y and are not drawn.
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	XExpr    string     `json:"x_expr"`
	YMissing bool       `json:"y_missing,omitempty"`
}

// Sample is one point of the curve. Y is nil where f is undefined.
type Sample struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// Data is everything a renderer needs to draw the curve.
type Data struct {
	Function string   `json:"function"`
	XMin     float64  `json:"x_min"`
	XMax     float64  `json:"x_max"`
	YMin     float64  `json:"y_min"`
	YMax     float64  `json:"y_max"`
	Samples  []Sample `json:"samples"`
	Markers  []Marker `json:"markers"`
}

// Range returns [min(xs)-pad, max(xs)+pad], or the default range when xs
// is empty.
func Range(xs []float64, opts Options) (lo, hi float64) {
	opts = opts.withDefaults()
	if len(xs) == 0 {
		return opts.DefaultMin, opts.DefaultMax
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo - opts.Padding, hi + opts.Padding
}

// SampleCurve evaluates f at n evenly spaced points of [lo, hi].
func SampleCurve(f curvesketch.Expr, lo, hi float64, n int) []Sample {
	if n < 2 {
		n = 2
	}
	fn := curvesketch.Compile(f)
	out := make([]Sample, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		x := lo + float64(i)*step
		if i == n-1 {
			x = hi
		}
		out[i].X = x
		if y := fn(x); !math.IsNaN(y) && !math.IsInf(y, 0) {
			out[i].Y = &y
		}
	}
	return out
}

// New samples the report's function and places its markers.
func New(r *analysis.Report, opts Options) *Data {
	opts = opts.withDefaults()
	lo, hi := Range(r.SpecialX(), opts)
	d := &Data{
		Function: r.Derivatives.Function,
		XMin:     lo,
		XMax:     hi,
		Samples:  SampleCurve(r.F, lo, hi, opts.Samples),
		Markers:  []Marker{},
	}
	add := func(kind MarkerKind, pts []analysis.Point) {
		for _, p := range pts {
			d.Markers = append(d.Markers, Marker{Kind: kind, X: p.X, Y: p.Y, XExpr: p.XExpr, YMissing: p.YMissing})
		}
	}
	add(MarkMaximum, r.Maxima)
	add(MarkMinimum, r.Minima)
	add(MarkInflection, r.Inflections)

	d.YMin, d.YMax = math.Inf(1), math.Inf(-1)
	for _, s := range d.Samples {
		if s.Y != nil {
			d.YMin = math.Min(d.YMin, *s.Y)
			d.YMax = math.Max(d.YMax, *s.Y)
		}
	}
	for _, m := range d.Markers {
		if m.YMissing {
			continue
		}
		d.YMin = math.Min(d.YMin, m.Y)
		d.YMax = math.Max(d.YMax, m.Y)
	}
	if math.IsInf(d.YMin, 1) {
		d.YMin, d.YMax = 0, 0
	}
	return d
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Samples <= 0 {
		o.Samples = d.Samples
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.DefaultMin >= o.DefaultMax {
		o.DefaultMin, o.DefaultMax = d.DefaultMin, d.DefaultMax
	}
	return o
}
