package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Task is a scheduled unit of work. The context is cancelled on Stop.
type Task func(ctx context.Context) error

// Scheduler runs named tasks on a wall-clock schedule. Runs of the same task never overlap.
type Scheduler struct {
	cron   *gocron.Scheduler
	logger *zap.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating times in loc.
func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: cron, logger: logger, ctx: ctx, cancel: cancel}
}

// Daily registers task to run every day at the given "HH:MM" time.
func (s *Scheduler) Daily(name, at string, task Task) error {
	_, err := s.cron.Every(1).Day().At(at).Tag(name).Do(s.wrap(name, task))
	if err != nil {
		return fmt.Errorf("schedule %s at %q: %w", name, at, err)
	}
	return nil
}

// Start begins running tasks in the background. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.StartAsync()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Jobs())))
}

// Stop cancels in-flight runs and halts the schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunNow triggers the named task immediately.
func (s *Scheduler) RunNow(name string) error {
	if err := s.cron.RunByTag(name); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// NextRun reports when the named task fires next.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	jobs, err := s.cron.FindJobsByTag(name)
	if err != nil || len(jobs) == 0 {
		return time.Time{}, false
	}
	return jobs[0].NextRun(), true
}

func (s *Scheduler) wrap(name string, task Task) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		start := time.Now()
		s.logger.Info("scheduled task started", zap.String("task", name))
		if err := task(ctx); err != nil {
			s.logger.Error("scheduled task failed", zap.String("task", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Info("scheduled task finished", zap.String("task", name), zap.Duration("duration", time.Since(start)))
	}
}
