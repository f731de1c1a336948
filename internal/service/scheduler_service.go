package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"loose-ends/internal/repository"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location, log *zap.Logger) *SchedulerService {
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or for ctx to end.
func (s *SchedulerService) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	// Convert to cron spec: every N seconds.
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

// Jobs reports how many jobs are registered.
func (s *SchedulerService) Jobs() int {
	return len(s.cron.Entries())
}

// LoginStateSweeper deletes OAuth states nobody came back for.
type LoginStateSweeper struct {
	repo *repository.LoginStateRepository
	now  func() time.Time
	log  *zap.Logger
}

func NewLoginStateSweeper(repo *repository.LoginStateRepository, now func() time.Time, log *zap.Logger) *LoginStateSweeper {
	if now == nil {
		now = time.Now
	}
	return &LoginStateSweeper{repo: repo, now: now, log: log}
}

// Sweep runs one pass and returns the number of removed states.
func (s *LoginStateSweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.repo.SweepExpired(ctx, s.now())
	if err != nil {
		s.log.Error("sweep login states", zap.Error(err))
		return 0, err
	}
	if removed > 0 {
		s.log.Info("swept login states", zap.Int64("removed", removed))
	}
	return removed, nil
}

// Schedule registers the sweeper on the scheduler.
func (s *LoginStateSweeper) Schedule(scheduler *SchedulerService, interval time.Duration) error {
	_, err := scheduler.ScheduleInterval(interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule login state sweep: %w", err)
	}
	return nil
}
