// Package scheduler runs periodic maintenance jobs such as expired-session
// sweeps and audit retention.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Job is one periodic task. Run returns the number of items it processed.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int64, error)
}

type Scheduler struct {
	jobs   []Job
	logger logging.Logger
	wg     sync.WaitGroup
}

func New(l logging.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: l.With("module", "scheduler")}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches one goroutine per job. Jobs with a non-positive interval
// are skipped. Each job stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		if j.Interval <= 0 || j.Run == nil {
			s.logger.Info(ctx, "job disabled", "job", j.Name)
			continue
		}
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every started job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	s.logger.Debug(ctx, "job started", "job", j.Name, "interval", j.Interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	start := time.Now()
	n, err := j.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error(ctx, "job failed", "job", j.Name, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info(ctx, "job done", "job", j.Name, "count", n, "duration", time.Since(start).String())
	}
}
