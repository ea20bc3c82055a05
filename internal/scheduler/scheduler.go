// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler wraps a gocron scheduler. Each run gets a context that expires
// after the job interval and is cancelled on Shutdown.
type Scheduler struct {
	s      gocron.Scheduler
	log    logrus.FieldLogger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped Scheduler.
func New(log logrus.FieldLogger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, log: log, ctx: ctx, cancel: cancel}, nil
}

// Every registers fn to run every interval. Overlapping runs are skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(s.ctx, interval)
			defer cancel()
			start := time.Now()
			if err := fn(ctx); err != nil {
				s.log.WithFields(logrus.Fields{"job": name, "error": err}).Error("job failed")
				return
			}
			s.log.WithFields(logrus.Fields{
				"job":         name,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("job done")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.s.Start()
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.s.Shutdown()
}
