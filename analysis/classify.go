package analysis

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/njchilds90/curvesketch"
)

// ============================================================
// Interval states
// ============================================================

// State is the qualitative label attached to an interval.
type State string

const (
	Increasing  State = "increasing"
	Decreasing  State = "decreasing"
	ConcaveUp   State = "concave-up"
	ConcaveDown State = "concave-down"
	// Undefined marks an interval whose test point lies outside the domain.
	Undefined State = "undefined"
	// Constant marks the single interval of a derivative that vanishes at
	// both tie-break points.
	Constant State = "constant"
)

// Labels pairs the state chosen for a positive sign with the one chosen for a
// non-positive sign.
type Labels struct {
	Positive State
	Negative State
}

var (
	Monotonicity = Labels{Positive: Increasing, Negative: Decreasing}
	Concavity    = Labels{Positive: ConcaveUp, Negative: ConcaveDown}
)

// Sign is the sign of the reference derivative at a test point.
type Sign int

const (
	SignNegative  Sign = -1
	SignZero      Sign = 0
	SignPositive  Sign = 1
	SignUndefined Sign = 2
)

func (s Sign) String() string {
	switch s {
	case SignNegative:
		return "negative"
	case SignZero:
		return "zero"
	case SignPositive:
		return "positive"
	}
	return "undefined"
}

func (s Sign) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// ============================================================
// Bounds and intervals
// ============================================================

// Bound is an interval endpoint. Expr holds the printed breakpoint and is
// empty at ±∞.
type Bound struct {
	Value float64
	Expr  string
}

func NegInf() Bound { return Bound{Value: math.Inf(-1)} }
func PosInf() Bound { return Bound{Value: math.Inf(1)} }

// BoundOf wraps a solver root as an endpoint.
func BoundOf(r curvesketch.RealRoot) Bound {
	return Bound{Value: r.Approx, Expr: r.String()}
}

func (b Bound) IsInf() bool { return math.IsInf(b.Value, 0) }

func (b Bound) String() string {
	switch {
	case math.IsInf(b.Value, -1):
		return "-∞"
	case math.IsInf(b.Value, 1):
		return "∞"
	case b.Expr != "":
		return b.Expr
	}
	return strconv.FormatFloat(b.Value, 'g', 10, 64)
}

// MarshalJSON writes infinite bounds as the strings "-inf" and "inf".
func (b Bound) MarshalJSON() ([]byte, error) {
	if b.IsInf() {
		if b.Value < 0 {
			return json.Marshal(struct {
				Value string `json:"value"`
			}{"-inf"})
		}
		return json.Marshal(struct {
			Value string `json:"value"`
		}{"inf"})
	}
	return json.Marshal(struct {
		Value float64 `json:"value"`
		Expr  string  `json:"expr,omitempty"`
	}{b.Value, b.Expr})
}

// Interval is one open span (Lower, Upper) of the real line together with
// the test point that decided its state.
type Interval struct {
	Lower     Bound              `json:"lower"`
	Upper     Bound              `json:"upper"`
	TestPoint float64            `json:"test_point"`
	Value     *curvesketch.Value `json:"value,omitempty"`
	Sign      Sign               `json:"sign"`
	State     State              `json:"state"`
}

// ============================================================
// Classify
// ============================================================

// Classify partitions the real line at the ascending breakpoints and labels
// each of the n+1 open intervals by the sign of ref at a test point: b0-1
// left of the first breakpoint, midpoints between breakpoints, and bn-1+1
// right of the last. A positive sign selects labels.Positive; zero or
// negative selects labels.Negative. A test point where ref is undefined
// yields Undefined instead of a guess.
//
// With no breakpoints ref is tested at 0, and at 1 when the value there is
// zero or undefined. A derivative that is still zero has no qualitative
// information and the single interval is labelled Constant.
func Classify(ref curvesketch.Expr, breakpoints []curvesketch.RealRoot, labels Labels, tol float64) []Interval {
	if len(breakpoints) == 0 {
		iv := Interval{Lower: NegInf(), Upper: PosInf()}
		for _, x := range []float64{0, 1} {
			iv.TestPoint = x
			iv.Value, iv.Sign = signAt(ref, x, tol)
			if iv.Sign != SignZero && iv.Sign != SignUndefined {
				break
			}
		}
		switch iv.Sign {
		case SignPositive:
			iv.State = labels.Positive
		case SignNegative:
			iv.State = labels.Negative
		case SignZero:
			iv.State = Constant
		default:
			iv.State = Undefined
		}
		return []Interval{iv}
	}

	n := len(breakpoints)
	out := make([]Interval, 0, n+1)
	for i := 0; i <= n; i++ {
		iv := Interval{Lower: NegInf(), Upper: PosInf()}
		if i > 0 {
			iv.Lower = BoundOf(breakpoints[i-1])
		}
		if i < n {
			iv.Upper = BoundOf(breakpoints[i])
		}
		switch {
		case i == 0:
			iv.TestPoint = iv.Upper.Value - 1
		case i == n:
			iv.TestPoint = iv.Lower.Value + 1
		default:
			iv.TestPoint = (iv.Lower.Value + iv.Upper.Value) / 2
		}
		iv.Value, iv.Sign = signAt(ref, iv.TestPoint, tol)
		switch iv.Sign {
		case SignPositive:
			iv.State = labels.Positive
		case SignUndefined:
			iv.State = Undefined
		default:
			iv.State = labels.Negative
		}
		out = append(out, iv)
	}
	return out
}

func signAt(ref curvesketch.Expr, x, tol float64) (*curvesketch.Value, Sign) {
	v, err := curvesketch.Evaluate(ref, x)
	if err != nil {
		return nil, SignUndefined
	}
	return &v, Sign(v.Sign(tol))
}
