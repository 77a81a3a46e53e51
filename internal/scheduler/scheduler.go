package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"prensa-go/internal/metrics"
	"prensa-go/internal/repositories"
)

type Runner interface {
	Run(ctx context.Context) int
}

type Scheduler struct {
	cron      *cron.Cron
	runner    Runner
	spec      string
	purger    repositories.Purger
	purgeSpec string
	metrics   *metrics.Metrics
}

type Option func(*Scheduler)

// WithPurge schedules deletion of expired records for stores that have no
// expiry of their own.
func WithPurge(spec string, purger repositories.Purger) Option {
	return func(s *Scheduler) {
		s.purgeSpec = spec
		s.purger = purger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func New(spec string, runner Runner, options ...Option) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		slog.Info("scheduled run triggered")
		s.runner.Run(context.Background())
	})
	if err != nil {
		return err
	}

	if s.purger != nil && s.purgeSpec != "" {
		if _, err := s.cron.AddFunc(s.purgeSpec, func() { s.Purge(context.Background()) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Purge(ctx context.Context) {
	if s.purger == nil {
		return
	}
	deleted, err := s.purger.DeleteExpired(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "purge failed", "error", err)
		return
	}
	s.metrics.Purged(deleted)
	slog.InfoContext(ctx, "purged expired records", "deleted", deleted)
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
