package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/plot"
)

// ============================================================
// Tool interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs one tool. Expression params accept either input text
// ("x^2 - 1") or the JSON tree form produced by the parse tool.
func (s *Server) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getExpr := func(key string) (curvesketch.Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return curvesketch.Parse(val)
		case map[string]interface{}:
			return curvesketch.FromJSON(val)
		}
		return nil, fmt.Errorf("param %s must be a string or an expression object", key)
	}
	getNumber := func(key string, def float64) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("param %s must be a finite number", key)
		}
		return f, nil
	}
	getInt := func(key string, def, lo, hi int) (int, error) {
		f, err := getNumber(key, float64(def))
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
			return 0, fmt.Errorf("param %s must be an integer in [%d, %d]", key, lo, hi)
		}
		return int(f), nil
	}
	respond := func(e curvesketch.Expr) ToolResponse {
		return ToolResponse{Result: curvesketch.Tree(e), LaTeX: curvesketch.LaTeX(e), String: curvesketch.String(e)}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "parse":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: curvesketch.LaTeX(e), LaTeX: curvesketch.LaTeX(e), String: curvesketch.String(e)}

	case "differentiate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		n, err := getInt("order", 1, 1, 16)
		if err != nil {
			return fail(err)
		}
		for i := 0; i < n; i++ {
			e = curvesketch.Differentiate(e)
		}
		return respond(e)

	case "evaluate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, ok := req.Params["at"]
		if !ok {
			return fail(fmt.Errorf("missing param: at"))
		}
		var v curvesketch.Value
		switch a := at.(type) {
		case float64:
			v, err = curvesketch.Evaluate(e, a)
		case string:
			var pt curvesketch.Expr
			if pt, err = curvesketch.Parse(a); err == nil {
				v, err = curvesketch.EvaluateAt(e, pt)
			}
		default:
			err = fmt.Errorf("param at must be a number or an expression string")
		}
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: v, LaTeX: v.LaTeX(), String: v.String()}

	case "solve":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		if _, ok := req.Params["rhs"]; ok {
			rhs, err := getExpr("rhs")
			if err != nil {
				return fail(err)
			}
			e = curvesketch.Eq(e, rhs).Residual()
		}
		opts := s.analysis.Solve
		if opts.WindowMin, err = getNumber("window_min", opts.WindowMin); err != nil {
			return fail(err)
		}
		if opts.WindowMax, err = getNumber("window_max", opts.WindowMax); err != nil {
			return fail(err)
		}
		if opts.WindowMin >= opts.WindowMax && (opts.WindowMin != 0 || opts.WindowMax != 0) {
			return fail(fmt.Errorf("window_min must be below window_max"))
		}
		res := curvesketch.SolveRealRoots(ctx, e, opts)
		solveStatus.WithLabelValues(string(res.Status)).Inc()
		resp := ToolResponse{Result: res, String: joinRoots(res)}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		return resp

	case "analyze":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		r := s.analyzer.AnalyzeExpr(ctx, e)
		observeReport(r)
		return ToolResponse{Result: r, String: r.String()}

	case "plot":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		opts := s.plot
		if opts.Samples, err = getInt("samples", opts.Samples, 2, 10000); err != nil {
			return fail(err)
		}
		r := s.analyzer.AnalyzeExpr(ctx, e)
		observeReport(r)
		return ToolResponse{Result: plot.New(r, opts), String: r.Derivatives.Function}

	case "schema":
		var spec interface{}
		if err := json.Unmarshal([]byte(ToolSpec()), &spec); err != nil {
			return fail(err)
		}
		return ToolResponse{Result: spec}

	default:
		return ToolResponse{Error: fmt.Sprintf("unknown tool: %q", req.Tool)}
	}
}

func joinRoots(res curvesketch.SolveResult) string {
	out := ""
	for i, r := range res.Roots {
		if i > 0 {
			out += ", "
		}
		out += r.String()
	}
	return out
}

// ToolSpec returns the tool schema for agent registration.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("parse", "Parse f(x) text into an expression tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("latex", "Render an expression as LaTeX", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("differentiate", "Exact derivative d/dx. Optional order (default 1)", []string{"expr"}, map[string]string{"expr": "string", "order": "integer"}),
		ts("evaluate", "Evaluate at a point. at is a number or an exact expression such as \"sqrt(2)\"", []string{"expr", "at"}, map[string]string{"expr": "string", "at": "number"}),
		ts("solve", "Real roots of expr = rhs (rhs defaults to 0). Optional search window for non-polynomials", []string{"expr"}, map[string]string{"expr": "string", "rhs": "string", "window_min": "number", "window_max": "number"}),
		ts("analyze", "Critical points, extrema, inflection points, monotonicity and concavity", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("plot", "Sampled curve and markers for plotting. Optional samples (default 400)", []string{"expr"}, map[string]string{"expr": "string", "samples": "integer"}),
		ts("schema", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
