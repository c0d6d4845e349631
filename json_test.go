package curvesketch_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/curvesketch"
)

func TestToJSON_Num(t *testing.T) {
	s, err := curvesketch.ToJSON(curvesketch.F(3, 4))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	assert.Equal(t, "num", m["type"])
	assert.Equal(t, "3/4", m["value"])
	assert.NotContains(t, m, "inexact")
}

func TestFromJSON_RoundTrip(t *testing.T) {
	exprs := []curvesketch.Expr{
		curvesketch.MustParse("x^3 - 6*x"),
		curvesketch.MustParse("sin(x)/2 + exp(-x)"),
		curvesketch.MustParse("pi*x - e"),
		curvesketch.MustParse("sqrt(x + 1)"),
		curvesketch.MulOf(curvesketch.NFloat(0.1), curvesketch.S("x")),
	}
	for _, e := range exprs {
		s, err := curvesketch.ToJSON(e)
		require.NoError(t, err)
		back, err := curvesketch.ParseJSON([]byte(s))
		require.NoError(t, err, s)
		assert.True(t, back.Equal(e), "%s round-tripped to %s", e, back)
		assert.Equal(t, e.String(), back.String())
	}
}

func TestFromJSON_Rejects(t *testing.T) {
	for _, raw := range []string{
		`{"type":"sym","name":"y"}`,
		`{"type":"func","name":"gamma","arg":{"type":"sym","name":"x"}}`,
		`{"type":"const","name":"tau"}`,
		`{"type":"add","terms":[]}`,
		`{"type":"num","value":"abc"}`,
		`{"type":"pow","base":{"type":"sym","name":"x"}}`,
		`{"value":"1"}`,
		`not json`,
	} {
		_, err := curvesketch.ParseJSON([]byte(raw))
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, curvesketch.ErrDecode), raw)
	}
}
