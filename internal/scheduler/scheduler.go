package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *slog.Logger
}

// New creates a Scheduler for a standard five-field cron spec (or a
// descriptor such as "@daily") evaluated in timezone.
func New(spec, timezone string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

// Run schedules the job and blocks until ctx is canceled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		start := time.Now()
		s.logger.Info("scheduled run starting")
		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Info("scheduled run finished", "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "cron", s.spec, "next", s.cron.Entry(id).Next)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
