package curvesketch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/curvesketch"
)

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"x^2 + 3*x - 4", "x^2 + 3*x - 4"},
		{"x**2", "x^2"},
		{"-x^2", "-x^2"},
		{"2^3^2", "512"},
		{"(x+1)*(x-1)", "(x + 1)*(x - 1)"},
		{"1/x", "1/x"},
		{"log(x)", "ln(x)"},
		{"arctan(x)", "atan(x)"},
		{"2.5e-1*x", "x/4"},
		{"sin(x)/2", "sin(x)/2"},
		{"  x  ", "x"},
		{"+x", "x"},
		{"--x", "x"},
		{"pi*x", "pi*x"},
		{"e^x", "e^x"},
		{"sqrt(4)", "2"},
		{"x - x", "0"},
		{"5", "5"},
		{"0.5", "1/2"},
		{"2e3", "2000"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			e, err := curvesketch.Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, e.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"   ", 0},
		{"x + (", 5},
		{"(x", 2},
		{"x)", 1},
		{"2x", 1},
		{"2e", 1},
		{"y + 1", 0},
		{"foo(x)", 0},
		{"sin x", 4},
		{"x $ 2", 2},
		{"x +* 2", 3},
		{"sin()", 4},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			e, err := curvesketch.Parse(c.in)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, curvesketch.ErrParse))

			var pe *curvesketch.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, c.in, pe.Input)
			assert.Equal(t, c.pos, pe.Pos)
		})
	}
}

func TestParse_ImplicitMultiplicationMessage(t *testing.T) {
	_, err := curvesketch.Parse("3x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "implicit multiplication")
}

func TestParse_RoundTripsDerivatives(t *testing.T) {
	for _, in := range []string{
		"x^3 - 6*x",
		"x*sin(x)",
		"1/x",
		"exp(x^2)",
		"sqrt(x)",
		"x^4/4 - x",
		"ln(x^2 + 1)",
	} {
		f, err := curvesketch.Parse(in)
		require.NoError(t, err, in)
		d := curvesketch.Differentiate(f)
		back, err := curvesketch.Parse(d.String())
		require.NoError(t, err, "re-parse %q", d.String())
		assert.True(t, back.Equal(d), "%s: printed %q re-parses to %q", in, d, back)
	}
}

func TestFormatParseError(t *testing.T) {
	_, err := curvesketch.Parse("x + (")
	require.Error(t, err)
	out := curvesketch.FormatParseError(err)
	assert.Contains(t, out, "x + (")
	assert.Contains(t, out, "     ^")
}
