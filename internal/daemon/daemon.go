package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/metrics"
	"cryptoscan/internal/scheduler"
	"cryptoscan/internal/web"
	"cryptoscan/pkg/model"
)

// Scanner runs one scan cycle
type Scanner interface {
	Scan(ctx context.Context, symbols []string) (*model.ScanResult, error)
}

// Dispatcher delivers admitted alerts and returns how many went out
type Dispatcher interface {
	Dispatch(ctx context.Context, alerts []model.Alert) (int, error)
}

// Config 데몬 설정
type Config struct {
	Symbols         []string
	Schedule        string // cron spec
	WebAddr         string // 상태 서버, empty disables it
	MetricsAddr     string // standalone /metrics when WebAddr is empty
	DataDir         string // daily stats
	ShutdownTimeout time.Duration
}

// DefaultConfig 기본 설정
func DefaultConfig() Config {
	return Config{
		Schedule:        "@every 90m",
		DataDir:         "data",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Daemon runs the scan cycle on a schedule, delivers alerts and serves status
type Daemon struct {
	config     Config
	scanner    Scanner
	dispatcher Dispatcher // nil: scan only
	results    *web.Results
	server     *web.Server // nil when the status server is disabled
	tracker    *DailyTracker
	logger     zerolog.Logger
}

// NewDaemon 생성자
func NewDaemon(cfg Config, s Scanner, d Dispatcher, results *web.Results, server *web.Server, logger zerolog.Logger) *Daemon {
	if results == nil {
		results = &web.Results{}
	}
	return &Daemon{
		config:     cfg,
		scanner:    s,
		dispatcher: d,
		results:    results,
		server:     server,
		tracker:    NewDailyTracker(cfg.DataDir),
		logger:     logger.With().Str("component", "daemon").Logger(),
	}
}

// Tracker returns the daily stats tracker
func (d *Daemon) Tracker() *DailyTracker { return d.tracker }

// RunCycle scans once, publishes the result and dispatches admitted alerts
func (d *Daemon) RunCycle(ctx context.Context) error {
	d.logger.Info().Int("symbols", len(d.config.Symbols)).Msg("[DAEMON] Running scan cycle...")

	res, err := d.scanner.Scan(ctx, d.config.Symbols)
	if err != nil {
		d.recordFailure(err)
		return fmt.Errorf("scan: %w", err)
	}
	d.results.Set(res)

	sent := 0
	if d.dispatcher != nil && len(res.Admitted) > 0 {
		sent, err = d.dispatcher.Dispatch(ctx, res.Admitted)
		if err != nil {
			// 일부 전송 후 취소된 경우도 기록
			d.record(res, sent)
			return fmt.Errorf("dispatch: %w", err)
		}
	}
	d.record(res, sent)

	d.logger.Info().
		Int("detected", len(res.Detected)).
		Int("admitted", len(res.Admitted)).
		Int("sent", sent).
		Dur("took", res.Duration).
		Msg("[DAEMON] Cycle complete")
	return nil
}

// Run executes one cycle immediately, then follows the schedule until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info().Str("schedule", d.config.Schedule).Msg("[DAEMON] Starting alert daemon...")

	sched := scheduler.New(ctx, d.RunCycle, d.logger)
	if err := sched.Register(d.config.Schedule); err != nil {
		return err
	}

	var metricsSrv *http.Server
	switch {
	case d.server != nil && d.config.WebAddr != "":
		go func() {
			if err := d.server.Start(d.config.WebAddr); err != nil {
				d.logger.Error().Err(err).Msg("status server failed")
			}
		}()
	case d.config.MetricsAddr != "":
		metricsSrv = metrics.Serve(d.config.MetricsAddr)
		d.logger.Info().Str("addr", d.config.MetricsAddr).Msg("metrics listener started")
	}

	sched.RunNow()
	sched.Start()

	<-ctx.Done()
	d.logger.Info().Msg("[DAEMON] Shutting down...")
	sched.Stop()

	timeout := d.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if d.server != nil {
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn().Err(err).Msg("status server shutdown")
		}
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	stats := d.tracker.Stats()
	d.logger.Info().
		Int("cycles", stats.Cycles).
		Int("failures", stats.Failures).
		Int("sent", stats.Sent).
		Msg("[DAEMON] Stopped")
	return nil
}

func (d *Daemon) record(res *model.ScanResult, sent int) {
	if err := d.tracker.RecordCycle(res, sent); err != nil {
		d.logger.Warn().Err(err).Msg("daily stats not saved")
	}
}

func (d *Daemon) recordFailure(cause error) {
	if err := d.tracker.RecordFailure(cause); err != nil {
		d.logger.Warn().Err(err).Msg("daily stats not saved")
	}
}
