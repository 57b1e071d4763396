package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/analyzer"
	"cryptoscan/internal/metrics"
	"cryptoscan/internal/signal"
	"cryptoscan/pkg/model"
)

// Analyzer runs an on-demand analysis of one pair
type Analyzer interface {
	Analyze(ctx context.Context, symbol, timeframe string) (*analyzer.Analysis, error)
}

// Results holds the most recent scan result
type Results struct {
	mu    sync.RWMutex
	last  *model.ScanResult
	scans int
}

// Set replaces the last scan result
func (r *Results) Set(res *model.ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = res
	r.scans++
}

// Last returns the last scan result, nil before the first scan
func (r *Results) Last() (*model.ScanResult, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.scans
}

// Server is the status HTTP server
type Server struct {
	results          *Results
	analyzer         Analyzer
	modules          []signal.Info
	defaultTimeframe string
	started          time.Time
	logger           zerolog.Logger
	srv              *http.Server
}

// NewServer creates a status server. analyzer may be nil, which disables
// /api/analyze/.
func NewServer(results *Results, a Analyzer, modules []signal.Info, defaultTimeframe string, logger zerolog.Logger) *Server {
	return &Server{
		results:          results,
		analyzer:         a,
		modules:          modules,
		defaultTimeframe: defaultTimeframe,
		started:          time.Now(),
		logger:           logger.With().Str("component", "web").Logger(),
	}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/modules", s.handleModules)
	mux.HandleFunc("/api/analyze/", s.handleAnalyze)
	return corsMiddleware(mux)
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("status server listening")

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers for dashboards served elsewhere
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
