package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron spec; a run that is still in progress when
// the next tick fires makes that tick a no-op
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	ctx    context.Context
	logger zerolog.Logger
	mu     sync.Mutex
	runs   int
}

// New creates a scheduler for job. ctx is passed to every run.
func New(ctx context.Context, job Job, logger zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:    job,
		ctx:    ctx,
		logger: l,
	}
}

// Register adds the job under spec, e.g. "@every 90m" or "0 */4 * * *"
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register %q: %w", spec, err)
	}
	s.logger.Info().Str("spec", spec).Msg("job registered")
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow executes the job synchronously
func (s *Scheduler) RunNow() {
	s.tick()
}

// Runs returns the number of completed runs
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	if err := s.job(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled run failed")
	}
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
