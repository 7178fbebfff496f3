// Package cron runs the gateway's periodic jobs: polling enrolment state
// and remediating missing claims, and watching the secret store for
// private key rotation.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dsbgw/dsb-client-gateway/metrics"
)

// Job is a named unit of periodic work. Runs of the same job never overlap:
// the scheduler waits for one run to finish before the next tick is
// considered.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler executes registered jobs on their own tickers until the context
// is cancelled.
type Scheduler struct {
	jobs []Job
	log  *slog.Logger
	wg   sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per job. Each job runs once immediately and
// then on every tick. Job failures are logged and counted, never fatal: the
// next tick retries by re-invoking the whole operation.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()

			s.log.Info("Starting scheduled job", "job", job.Name, "every", job.Every)
			s.runOnce(ctx, job)

			ticker := time.NewTicker(job.Every)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					s.log.Info("Stopping scheduled job", "job", job.Name)
					return
				case <-ticker.C:
					s.runOnce(ctx, job)
				}
			}
		}(job)
	}
}

// Wait blocks until all job goroutines have stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if err := job.Run(ctx); err != nil {
		metrics.CronJobRuns.WithLabelValues(job.Name, "FAILED").Inc()
		s.log.Error("Scheduled job failed", "job", job.Name, "err", err)
		return
	}
	metrics.CronJobRuns.WithLabelValues(job.Name, "SUCCESS").Inc()
}
