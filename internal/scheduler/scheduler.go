// Package scheduler runs the periodic household jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bensuskins/household-hub/internal/logging"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/robfig/cron/v3"
)

// Sweeper drops expired cache entries and reports how many it removed.
type Sweeper interface {
	CleanExpired() int
}

// Digester builds and publishes the daily digest.
type Digester interface {
	Run(ctx context.Context) ([]services.Digest, error)
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New registers the cache sweep and daily digest jobs. Schedules use the
// standard five-field cron syntax or descriptors such as "@every 10m".
func New(ctx context.Context, sweepSchedule string, sweeper Sweeper, digestSchedule string, digester Digester) (*Scheduler, error) {
	logger := logging.Component("scheduler")
	scheduler := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
	}

	if _, err := scheduler.cron.AddFunc(sweepSchedule, func() {
		if removed := sweeper.CleanExpired(); removed > 0 {
			logger.Debug("swept cache", "removed", removed)
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling cache sweep: %w", err)
	}

	if _, err := scheduler.cron.AddFunc(digestSchedule, func() {
		digests, err := digester.Run(ctx)
		if err != nil {
			logger.Error("running digest", "error", err)
			return
		}
		logger.Info("published digests", "households", len(digests))
	}); err != nil {
		return nil, fmt.Errorf("scheduling digest: %w", err)
	}

	return scheduler, nil
}

func (scheduler *Scheduler) Start() {
	scheduler.logger.Info("starting scheduler", "jobs", len(scheduler.cron.Entries()))
	scheduler.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish.
func (scheduler *Scheduler) Stop() {
	<-scheduler.cron.Stop().Done()
	scheduler.logger.Info("stopped scheduler")
}

// Next reports when each job fires next, in registration order.
func (scheduler *Scheduler) Next() []time.Time {
	entries := scheduler.cron.Entries()
	next := make([]time.Time, len(entries))
	for i, entry := range entries {
		next[i] = entry.Next
	}
	return next
}
