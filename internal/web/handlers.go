package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cryptoscan/internal/provider"
	"cryptoscan/pkg/model"
)

const chartBars = 100

// HealthResponse is the /healthz body
type HealthResponse struct {
	Status   string     `json:"status"`
	Uptime   string     `json:"uptime"`
	Scans    int        `json:"scans"`
	LastScan *time.Time `json:"last_scan,omitempty"`
}

// AlertsResponse is the /api/alerts body
type AlertsResponse struct {
	ScanID   string        `json:"scan_id,omitempty"`
	Admitted []model.Alert `json:"admitted"`
	Best     []model.Alert `json:"best"`
}

// AnalyzeResponse is the /api/analyze/{symbol} body
type AnalyzeResponse struct {
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Candles   []model.Candle `json:"candles"`
	Signals   []model.Signal `json:"signals"`
	Alert     *model.Alert   `json:"alert,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	last, scans := s.results.Last()
	resp := HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Scans:  scans,
	}
	if last != nil {
		done := last.StartedAt.Add(last.Duration)
		resp.LastScan = &done
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAlerts returns the alerts of the last scan
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := AlertsResponse{Admitted: []model.Alert{}, Best: []model.Alert{}}
	if last, _ := s.results.Last(); last != nil {
		resp.ScanID = last.ID
		resp.Admitted = append(resp.Admitted, last.Admitted...)
		resp.Best = append(resp.Best, last.Best...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScan returns the full last scan result
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	last, _ := s.results.Last()
	if last == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "no scan yet"})
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modules": s.modules})
}

// handleAnalyze runs every module over one symbol: /api/analyze/BTCUSDT?timeframe=1h
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.analyzer == nil {
		http.Error(w, "Analysis not available", http.StatusServiceUnavailable)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/analyze/")))
	if symbol == "" {
		http.Error(w, "Symbol required", http.StatusBadRequest)
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = s.defaultTimeframe
	}
	if !provider.ValidInterval(timeframe) {
		http.Error(w, "Unknown timeframe: "+timeframe, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.analyzer.Analyze(ctx, symbol, timeframe)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("on-demand analysis failed")
		http.Error(w, "Failed to get market data: "+err.Error(), http.StatusBadGateway)
		return
	}

	candles := res.Frame.Candles
	if len(candles) > chartBars {
		candles = candles[len(candles)-chartBars:]
	}
	signals := res.Signals
	if signals == nil {
		signals = []model.Signal{}
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   candles,
		Signals:   signals,
		Alert:     res.Alert,
	})
}
