package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
	"github.com/njchilds90/curvesketch/internal/server"
	"github.com/njchilds90/curvesketch/plot"
	"github.com/njchilds90/curvesketch/render"
)

// expression joins the positional args so unquoted input ("x^2 + 1"
// split by the shell) still reads as one expression.
func expression(args []string) string { return strings.Join(args, " ") }

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		jsonOut  bool
		chart    bool
		plotPath string
		theme    string
	)
	cmd := &cobra.Command{
		Use:   "analyze <expression>",
		Short: "Run the full derivative analysis of f(x)",
		Long: `Prints the step-by-step analysis followed by a summary of extrema,
inflection points and intervals.

Example:
  curvesketch analyze "x^3 - 3*x"
  curvesketch analyze "sin(x)" --chart --theme light
  curvesketch analyze "x^4 - 2*x^2" --json --plot curve.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := analysis.New(a.cfg.AnalysisOptions(), a.logger.Named("analysis")).
				Analyze(cmd.Context(), expression(args))
			if err != nil {
				return err
			}
			a.logger.Debug("analysis complete",
				zap.String("id", r.ID),
				zap.Int("maxima", len(r.Maxima)),
				zap.Int("minima", len(r.Minima)),
				zap.Int("inflections", len(r.Inflections)))

			var data *plot.Data
			if plotPath != "" || chart {
				data = plot.New(r, a.cfg.PlotOptions())
			}
			if plotPath != "" {
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("encode plot data: %w", err)
				}
				if err := os.WriteFile(plotPath, b, 0o644); err != nil {
					return fmt.Errorf("write plot data: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			if theme == "" {
				theme = a.cfg.Render.Theme
			}
			th, err := render.ThemeByName(theme)
			if err != nil {
				return err
			}
			p := render.NewPrinter(out, th)
			fmt.Fprintln(out, p.Report(r))
			if chart {
				fmt.Fprintln(out)
				fmt.Fprintln(out, p.Chart(data, a.cfg.Render.Width, a.cfg.Render.Height))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&chart, "chart", false, "draw a terminal chart of f(x) with its marked points")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write sampled plot data as JSON to this file")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: dark or light (default from config)")
	return cmd
}

func newDeriveCmd(a *app) *cobra.Command {
	var (
		order int
		latex bool
	)
	cmd := &cobra.Command{
		Use:   "derive <expression>",
		Short: "Print the exact derivative of f(x)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if order < 1 {
				return fmt.Errorf("--order must be at least 1, got %d", order)
			}
			e, err := curvesketch.Parse(expression(args))
			if err != nil {
				return err
			}
			for i := 0; i < order; i++ {
				e = curvesketch.Differentiate(e)
			}
			if latex {
				fmt.Fprintln(cmd.OutOrStdout(), curvesketch.LaTeX(e))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), curvesketch.String(e))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&order, "order", 1, "derivative order")
	cmd.Flags().BoolVar(&latex, "latex", false, "print LaTeX instead of plain text")
	return cmd
}

func newSolveCmd(a *app) *cobra.Command {
	var windowMin, windowMax float64
	cmd := &cobra.Command{
		Use:   "solve <expression> [= <expression>]",
		Short: "Find the real roots of f(x) = 0, or of lhs = rhs",
		Long: `Polynomials are solved exactly. Other expressions are searched
numerically inside a window (default from config, [-10, 10]).

Example:
  curvesketch solve "x^3 - 2*x"
  curvesketch solve "x^2 = 2"
  curvesketch solve "cos(x) = x" --window-min -2 --window-max 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := parseEquation(expression(args))
			if err != nil {
				return err
			}
			opts := a.cfg.SolveOptions()
			if cmd.Flags().Changed("window-min") {
				opts.WindowMin = windowMin
			}
			if cmd.Flags().Changed("window-max") {
				opts.WindowMax = windowMax
			}
			if opts.WindowMin >= opts.WindowMax {
				return fmt.Errorf("window [%g, %g] is empty", opts.WindowMin, opts.WindowMax)
			}
			res := curvesketch.SolveRealRoots(cmd.Context(), e, opts)
			if res.Err != nil {
				return res.Err
			}

			out := cmd.OutOrStdout()
			switch res.Status {
			case curvesketch.SolveIdentity:
				fmt.Fprintln(out, "Identically zero: every x is a root.")
				return nil
			case curvesketch.SolveNoRoots:
				fmt.Fprintln(out, "No real roots.")
				return nil
			}
			if len(res.Roots) == 0 {
				fmt.Fprintln(out, "No real roots.")
			}
			for _, r := range res.Roots {
				if r.Exact {
					fmt.Fprintf(out, "x = %s\n", r)
				} else {
					fmt.Fprintf(out, "x ≈ %s\n", r)
				}
			}
			if res.Status == curvesketch.SolveWindowed {
				fmt.Fprintf(out, "(searched numerically on [%g, %g])\n", opts.WindowMin, opts.WindowMax)
			}
			if res.Truncated {
				fmt.Fprintln(out, "(root list truncated)")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&windowMin, "window-min", 0, "lower end of the numeric search window")
	cmd.Flags().Float64Var(&windowMax, "window-max", 0, "upper end of the numeric search window")
	return cmd
}

// parseEquation parses "lhs = rhs" into lhs - rhs, or plain text as is.
func parseEquation(text string) (curvesketch.Expr, error) {
	lhs, rhs, ok := strings.Cut(text, "=")
	if !ok {
		return curvesketch.Parse(text)
	}
	l, err := curvesketch.Parse(lhs)
	if err != nil {
		return nil, err
	}
	r, err := curvesketch.Parse(rhs)
	if err != nil {
		return nil, err
	}
	return curvesketch.Eq(l, r).Residual(), nil
}

func newEvalCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "eval <expression> --at <point>",
		Short: "Evaluate f(x) at a point, exactly where possible",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := curvesketch.Parse(expression(args))
			if err != nil {
				return err
			}
			pt, err := curvesketch.Parse(at)
			if err != nil {
				return err
			}
			v, err := curvesketch.EvaluateAt(e, pt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "point to evaluate at, a number or an exact expression such as pi/4")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over HTTP",
		Long: `Endpoints:
  POST /tool     execute a tool call
  POST /analyze  analyze {"expression": "..."}
  GET  /schema   tool schema for agent registration
  GET  /health   liveness check
  GET  /metrics  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(a.cfg, a.logger.Named("server")).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
