package daemon

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// Scheduler wraps gocron for the periodic full rebuild in serve mode. The
// scheduled task only requests a rebuild; the daemon's worker serializes it
// with watch-triggered builds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// SchedulePeriodicRebuild registers a recurring full rebuild request and
// returns the job ID.
func (s *Scheduler) SchedulePeriodicRebuild(interval time.Duration, request func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(request),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryDaemon, "schedule periodic rebuild").Build()
	}
	return job.ID().String(), nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	slog.Debug("Scheduler started")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
