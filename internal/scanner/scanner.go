package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cryptoscan/internal/analyzer"
	"cryptoscan/internal/metrics"
	"cryptoscan/internal/provider"
	"cryptoscan/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Config controls one scan cycle
type Config struct {
	Timeframes []string
	Limit      int     // klines per fetch
	MinVolume  float64 // 24h quote volume floor; 0 disables the gate
	Workers    int
	Timeout    time.Duration
}

// DefaultConfig returns the default scan settings
func DefaultConfig() Config {
	return Config{
		Timeframes: []string{"4h"},
		Limit:      500,
		MinVolume:  1_000_000,
		Workers:    4,
		Timeout:    30 * time.Minute,
	}
}

type job struct {
	symbol    string
	timeframe string
}

type jobResult struct {
	job      job
	analysis *analyzer.Analysis
	err      error
}

// Scanner runs the analyzer over every (symbol, timeframe) pair
type Scanner struct {
	provider     provider.Provider
	analyzer     *analyzer.Analyzer
	gate         *analyzer.Gate
	cfg          Config
	logger       zerolog.Logger
	progressFunc ProgressCallback
}

// NewScanner creates a new scanner. gate may be nil, in which case every best
// alert is admitted.
func NewScanner(p provider.Provider, a *analyzer.Analyzer, gate *analyzer.Gate, cfg Config, logger zerolog.Logger) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	return &Scanner{
		provider: p,
		analyzer: a,
		gate:     gate,
		cfg:      cfg,
		logger:   logger.With().Str("component", "scanner").Logger(),
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// Scan runs one full cycle: volume gate, fetch, analyze, best per symbol and
// admission
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*model.ScanResult, error) {
	start := time.Now()
	result := &model.ScanResult{
		ID:        uuid.NewString(),
		StartedAt: start,
		Detected:  []model.Signal{},
		Best:      []model.Alert{},
		Admitted:  []model.Alert{},
	}
	if len(symbols) == 0 || len(s.cfg.Timeframes) == 0 {
		return result, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	log := s.logger.With().Str("scan", result.ID).Logger()
	log.Info().Int("symbols", len(symbols)).Strs("timeframes", s.cfg.Timeframes).Msg("[SCAN] starting")

	passed := s.volumeGate(ctx, symbols, result)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("volume gate: %w", err)
	}

	var jobs []job
	for _, tf := range s.cfg.Timeframes {
		for _, sym := range passed {
			jobs = append(jobs, job{symbol: sym, timeframe: tf})
		}
	}

	var alerts []model.Alert
	for r := range s.run(ctx, jobs) {
		if r.err != nil {
			result.Skipped = append(result.Skipped, model.Skipped{Symbol: r.job.symbol, Timeframe: r.job.timeframe, Reason: r.err.Error()})
			metrics.FetchErrors.WithLabelValues("fetch").Inc()
			log.Warn().Err(r.err).Str("symbol", r.job.symbol).Str("timeframe", r.job.timeframe).Msg("[X] fetch failed")
			continue
		}
		for _, sig := range r.analysis.Signals {
			metrics.SignalsDetected.WithLabelValues(sig.Module).Inc()
		}
		result.Detected = append(result.Detected, r.analysis.Signals...)
		if r.analysis.Alert != nil {
			alerts = append(alerts, *r.analysis.Alert)
		}
	}
	result.Scanned = len(jobs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	// workers finish in any order
	sort.SliceStable(result.Detected, func(i, j int) bool {
		a, b := result.Detected[i], result.Detected[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Timeframe < b.Timeframe
	})
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Symbol() < alerts[j].Symbol() })

	result.Best = analyzer.BestPerSymbol(alerts)
	if s.gate != nil {
		admitted, decisions := s.gate.Filter(ctx, result.Best)
		for _, d := range decisions {
			if !d.Admitted {
				metrics.AlertsRejected.WithLabelValues(strings.Fields(d.Reason)[0]).Inc()
			}
		}
		result.Admitted = admitted
	} else {
		result.Admitted = append(result.Admitted, result.Best...)
	}
	for _, a := range result.Admitted {
		metrics.AlertsAdmitted.WithLabelValues(string(a.Signal.Kind.Category)).Inc()
	}

	result.Duration = time.Since(start)
	metrics.ScanDuration.Observe(result.Duration.Seconds())
	metrics.LastScan.SetToCurrentTime()

	s.logSummary(log, result)
	return result, nil
}

// volumeGate keeps symbols whose 24h quote volume reaches the floor. A failed
// lookup skips the symbol.
func (s *Scanner) volumeGate(ctx context.Context, symbols []string, result *model.ScanResult) []string {
	if s.cfg.MinVolume <= 0 {
		return symbols
	}
	var passed []string
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		vol, err := s.provider.QuoteVolume24h(ctx, sym)
		if err != nil {
			result.Skipped = append(result.Skipped, model.Skipped{Symbol: sym, Reason: "volume lookup: " + err.Error()})
			metrics.FetchErrors.WithLabelValues("volume").Inc()
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("[X] volume lookup failed")
			continue
		}
		if vol < s.cfg.MinVolume {
			result.Skipped = append(result.Skipped, model.Skipped{Symbol: sym, Reason: fmt.Sprintf("volume %.0f below %.0f", vol, s.cfg.MinVolume)})
			s.logger.Info().Str("symbol", sym).Float64("volume", vol).Msg("low volume, skipped")
			continue
		}
		passed = append(passed, sym)
	}
	return passed
}

func (s *Scanner) run(ctx context.Context, jobs []job) <-chan jobResult {
	jobChan := make(chan job, len(jobs))
	resultChan := make(chan jobResult, len(jobs))

	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)

	var scannedCount int64
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- s.analyze(ctx, j)

					count := atomic.AddInt64(&scannedCount, 1)
					if s.progressFunc != nil {
						s.progressFunc(int(count), len(jobs))
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()
	return resultChan
}

func (s *Scanner) analyze(ctx context.Context, j job) jobResult {
	candles, err := s.provider.GetCandles(ctx, j.symbol, j.timeframe, s.cfg.Limit)
	if err != nil {
		return jobResult{job: j, err: err}
	}
	if len(candles) == 0 {
		return jobResult{job: j, err: provider.ErrNoData}
	}
	series := model.Series{Symbol: j.symbol, Timeframe: j.timeframe, Candles: candles}
	return jobResult{job: j, analysis: s.analyzer.Analyze(series)}
}

// Analyze fetches and analyzes a single pair
func (s *Scanner) Analyze(ctx context.Context, symbol, timeframe string) (*analyzer.Analysis, error) {
	r := s.analyze(ctx, job{symbol: symbol, timeframe: timeframe})
	return r.analysis, r.err
}

func (s *Scanner) logSummary(log zerolog.Logger, result *model.ScanResult) {
	dist := TypeDistribution(result.Admitted)
	types := make([]string, 0, len(dist))
	for t := range dist {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		log.Info().Str("type", t).Int("count", dist[t]).Msg("admitted by type")
	}

	for _, sig := range TopRejected(result.Detected, result.Admitted, 10) {
		log.Info().
			Str("symbol", sig.Symbol).
			Str("timeframe", sig.Timeframe).
			Str("type", sig.Type()).
			Int("quality", sig.Quality).
			Msg("not sent")
	}

	log.Info().
		Int("scanned", result.Scanned).
		Int("skipped", len(result.Skipped)).
		Int("detected", len(result.Detected)).
		Int("best", len(result.Best)).
		Int("admitted", len(result.Admitted)).
		Dur("duration", result.Duration).
		Msg("[OK] scan complete")
}

// TypeDistribution counts alerts by their primary signal type
func TypeDistribution(alerts []model.Alert) map[string]int {
	dist := make(map[string]int)
	for _, a := range alerts {
		dist[a.Signal.Type()]++
	}
	return dist
}

// TopRejected returns the n highest-quality detected signals whose
// symbol/timeframe produced no admitted alert this cycle
func TopRejected(detected []model.Signal, admitted []model.Alert, n int) []model.Signal {
	sent := make(map[string]bool, len(admitted))
	for _, a := range admitted {
		sent[a.Signal.Symbol+"/"+a.Signal.Timeframe] = true
	}
	var out []model.Signal
	for _, s := range detected {
		if !sent[s.Symbol+"/"+s.Timeframe] {
			out = append(out, s)
		}
	}
	analyzer.SortByQuality(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
