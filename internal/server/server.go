// Package server exposes the curvesketch tools over HTTP.
//
//	POST /tool     execute a tool call
//	POST /analyze  analyze {"expression": "..."}
//	GET  /schema   tool schema for agent registration
//	GET  /health   liveness check
//	GET  /metrics  Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/curvesketch"
	"github.com/njchilds90/curvesketch/analysis"
	"github.com/njchilds90/curvesketch/internal/config"
	"github.com/njchilds90/curvesketch/plot"
)

// Server serves tool calls and analyses. Each request runs its own
// analysis; the only shared state is the metrics.
type Server struct {
	cfg      config.ServerConfig
	analysis analysis.Options
	analyzer *analysis.Analyzer
	plot     plot.Options
	logger   *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := cfg.AnalysisOptions()
	return &Server{
		cfg:      cfg.Server,
		analysis: opts,
		analyzer: analysis.New(opts, logger.Named("analysis")),
		plot:     cfg.PlotOptions(),
		logger:   logger,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/tool", s.instrument("/tool", http.HandlerFunc(s.handleTool)))
	mux.Handle("/analyze", s.instrument("/analyze", http.HandlerFunc(s.handleAnalyze)))
	mux.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, ToolSpec())
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// instrument adds panic recovery and request timing.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", zap.String("route", route), zap.Any("panic", rec), zap.Stack("stack"))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		defer r.Body.Close()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req ToolRequest
	if err := decodeStrict(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp := s.HandleToolCall(r.Context(), req)
	outcome := "ok"
	if resp.Error != "" {
		outcome = "error"
	}
	toolCalls.WithLabelValues(req.Tool, outcome).Inc()
	s.logger.Debug("tool call", zap.String("tool", req.Tool), zap.String("outcome", outcome))
	writeJSON(w, http.StatusOK, resp)
}

type analyzeRequest struct {
	Expression string `json:"expression"`
}

type analyzeResponse struct {
	*analysis.Report
	Sections []analysis.Section `json:"sections"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeStrict(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rep, err := s.analyzer.Analyze(r.Context(), req.Expression)
	if err != nil {
		analyses.WithLabelValues("parse_error").Inc()
		body := map[string]interface{}{"error": err.Error()}
		var pe *curvesketch.ParseError
		if errors.As(err, &pe) {
			body["position"] = pe.Pos
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	analyses.WithLabelValues("ok").Inc()
	observeReport(rep)
	writeJSON(w, http.StatusOK, analyzeResponse{Report: rep, Sections: rep.Sections()})
}

func decodeStrict(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		grace := s.cfg.ShutdownTimeout
		if grace <= 0 {
			grace = 5 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("stopped")
		return nil
	})
	return g.Wait()
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}
