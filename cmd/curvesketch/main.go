// Command curvesketch analyzes single-variable functions from the terminal
// and serves the same tools over HTTP.
//
// Usage:
//
//	curvesketch analyze "x^3 - 3*x" --chart
//	curvesketch derive "sin(x)*x" --order 2
//	curvesketch solve "x^2 - 2"
//	curvesketch eval "x^2 - 3*x" --at "sqrt(2)"
//	curvesketch serve --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/internal/config"
	"github.com/njchilds90/curvesketch/internal/logging"
)

// app holds the state shared by every subcommand once the root's
// PersistentPreRunE has run.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "curvesketch",
		Short: "Derivatives, extrema, inflections and intervals of f(x)",
		Long: `curvesketch runs a first- and second-derivative analysis of a
function of x: derivatives, critical points, local extrema, inflection
points, and the intervals of monotonicity and concavity.

Expressions use x, pi, e, + - * / ^ (or **), and the functions sin, cos,
tan, exp, ln (log), sqrt, abs, asin, acos, atan, sinh, cosh, tanh.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			logger, _, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newDeriveCmd(a),
		newSolveCmd(a),
		newEvalCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", curvesketch.FormatParseError(err))
		os.Exit(1)
	}
}
