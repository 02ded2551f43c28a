// Package jobs runs recurring maintenance in the background.
package jobs

import (
	"context"
	"fmt"
	"time"

	"mess-management-api/logger"
	"mess-management-api/services"

	"github.com/robfig/cron/v3"
)

// Cleaner is the maintenance pass run on every tick
type Cleaner interface {
	Cleanup(ctx context.Context, now time.Time) (services.CleanupResult, error)
}

// Scheduler runs a Cleaner on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	cleaner Cleaner
	log     *logger.Logger
	timeout time.Duration
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such
// as "@daily") and registers the cleanup job. Call Start to begin.
func NewScheduler(schedule string, cleaner Cleaner, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		cleaner: cleaner,
		log:     log.Named("jobs"),
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule cleanup %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs one cleanup pass immediately
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.cleaner.Cleanup(ctx, time.Now())
	if err != nil {
		s.log.Errorw("cleanup failed", "error", err)
		return
	}
	s.log.Debugw("cleanup pass", "activity_logs", res.ActivityLogs, "sessions", res.Sessions)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infow("cleanup scheduled", "next", s.Next())
}

// Next reports when the job runs next; zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts scheduling and waits for a running pass to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warnw("cleanup still running at shutdown")
	}
}
