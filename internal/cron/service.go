package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	p ServiceParams
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Lock == nil:
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil {
		params.Registry = &Registry{}
	}
	if params.Interval <= 0 {
		params.Interval = defaultInterval
	}
	return &Service{p: params}, nil
}

// RunOnce executes a single locked cycle.
func (s *Service) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.cycle(ctx)
}

// Run executes a cycle immediately and then every interval until ctx is
// canceled. Cycle errors are logged, never fatal.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logg := s.p.Logger
	ticker := time.NewTicker(s.p.Interval)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
		}
		logg.Info(ctx, "cron service stopping")
		return ctx.Err()
	}
}

func (s *Service) cycle(ctx context.Context) error {
	logg := s.p.Logger
	locked, err := s.p.Lock.Acquire(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("lock acquire: %w", err)
	case !locked:
		logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.p.Lock.Release(ctx); relErr != nil {
			logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	// The lease is renewed before every job after the first.
	extender, _ := s.p.Lock.(Extender)
	jobs := s.p.Registry.Jobs()
	failed := 0
	for i, job := range jobs {
		if extender != nil && i > 0 {
			if err := extender.Extend(ctx); err != nil {
				return fmt.Errorf("cycle aborted before %s: %w", job.Name(), err)
			}
		}
		if s.runJob(ctx, job) != nil {
			failed++
		}
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"jobs": len(jobs), "failed": failed}), "cron cycle complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	logg := s.p.Logger
	name := job.Name()
	ctx = logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	start := time.Now()
	err := runProtected(ctx, job)
	elapsed := time.Since(start)
	s.p.Metrics.ObserveRun(name, elapsed, err)

	ctx = logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		logg.Error(ctx, "job failed", err)
		return err
	}
	logg.Info(ctx, "job completed")
	return nil
}

// runProtected turns a job panic into an error so the remaining jobs of the
// cycle still run.
func runProtected(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}
	}()
	return job.Run(ctx)
}
