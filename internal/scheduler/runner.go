package scheduler

import (
	"context"
	"time"

	"medbook/pkg/config"
)

// Job is one nightly maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner fires every job once per day at local midnight. Jobs run
// sequentially; a failing job is logged and does not stop the others.
type Runner struct {
	jobs []Job
	cfg  *config.Config
	now  func() time.Time
}

func NewRunner(cfg *config.Config, jobs ...Job) *Runner {
	return &Runner{
		jobs: jobs,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Run blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.cfg.JobsRunOnStart {
		r.runAll(ctx)
	}

	for {
		wait := time.Until(nextMidnight(r.now()))
		r.cfg.Log.Info("Scheduler sleeping until next run", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.cfg.Log.Info("Scheduler stopped")
			return
		case <-timer.C:
			r.runAll(ctx)
		}
	}
}

func (r *Runner) runAll(ctx context.Context) {
	for _, job := range r.jobs {
		if ctx.Err() != nil {
			return
		}

		started := r.now()
		if err := job.Run(ctx); err != nil {
			r.cfg.Log.Error("Scheduled job failed",
				"job", job.Name(),
				"duration", time.Since(started),
				"error", err,
			)
			continue
		}
		r.cfg.Log.Info("Scheduled job completed",
			"job", job.Name(),
			"duration", time.Since(started),
		)
	}
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
