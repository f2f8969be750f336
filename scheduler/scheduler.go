package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"kitai/config"
	"kitai/logger"
	"kitai/models"
)

const defaultLookback = 24 * time.Hour

// ScheduleSource lists the organizations with unattended generation enabled.
type ScheduleSource interface {
	ListEnabledSchedules(ctx context.Context) ([]models.Schedule, error)
}

// Generator runs the resume pipeline for an organization without a session.
type Generator interface {
	GenerateForOrganization(ctx context.Context, organizationID string, req models.ResumeRequest) (*models.GenerationResult, error)
}

// TaskStatus describes the last and next scheduled run.
type TaskStatus struct {
	LastRun   time.Time
	NextRun   time.Time
	IsRunning bool
	Succeeded int
	Failed    int
}

// Scheduler triggers resume generation for every enabled schedule on each cron tick.
type Scheduler struct {
	cron        *cron.Cron
	entry       cron.EntryID
	schedules   ScheduleSource
	generator   Generator
	concurrency int

	mutex  sync.Mutex
	status TaskStatus
	now    func() time.Time
}

// New builds a scheduler for cfg.Scheduler. It does not start it.
func New(cfg *config.Config, schedules ScheduleSource, generator Generator) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	concurrency := cfg.Scheduler.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	s := &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		schedules:   schedules,
		generator:   generator,
		concurrency: concurrency,
		now:         time.Now,
	}
	s.entry, err = s.cron.AddFunc(cfg.Scheduler.Cron, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Scheduler.Cron, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "next_run", s.cron.Entry(s.entry).Next.Format(time.RFC3339))
}

// Stop stops the cron and waits for a running tick to finish, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("scheduler stop timed out")
	}
}

// Status returns a snapshot of the task state.
func (s *Scheduler) Status() TaskStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	status := s.status
	if s.cron != nil {
		status.NextRun = s.cron.Entry(s.entry).Next
	}
	return status
}

// RunOnce generates a resume for every enabled schedule. A tick that starts
// while the previous one is still running is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mutex.Lock()
	if s.status.IsRunning {
		s.mutex.Unlock()
		logger.Warn("previous scheduled run still in progress, skipping")
		return
	}
	s.status.IsRunning = true
	s.mutex.Unlock()

	now := s.now()
	succeeded, failed := s.run(ctx, now)

	s.mutex.Lock()
	s.status.IsRunning = false
	s.status.LastRun = now
	s.status.Succeeded = succeeded
	s.status.Failed = failed
	s.mutex.Unlock()
}

func (s *Scheduler) run(ctx context.Context, now time.Time) (int, int) {
	schedules, err := s.schedules.ListEnabledSchedules(ctx)
	if err != nil {
		logger.Error("listing schedules failed", "error", err)
		return 0, 0
	}
	logger.Info("scheduled run starting", "organizations", len(schedules), "concurrency", s.concurrency)

	var (
		mu                sync.Mutex
		succeeded, failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, sc := range schedules {
		g.Go(func() error {
			ok := s.generate(gctx, sc, now)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				succeeded++
			} else {
				failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("scheduled run finished", "succeeded", succeeded, "failed", failed)
	return succeeded, failed
}

func (s *Scheduler) generate(ctx context.Context, sc models.Schedule, now time.Time) bool {
	lookback := time.Duration(sc.LookbackHours) * time.Hour
	if lookback <= 0 {
		lookback = defaultLookback
	}

	result, err := s.generator.GenerateForOrganization(ctx, sc.OrganizationID, models.ResumeRequest{
		Provider: sc.Provider,
		Model:    sc.Model,
		From:     now.Add(-lookback),
		To:       now,
	})
	switch {
	case err != nil:
		logger.Error("scheduled resume failed", "organization", sc.OrganizationID, "error", err)
		return false
	case result == nil || !result.Success:
		msg := ""
		if result != nil {
			msg = result.Error
		}
		logger.Warn("scheduled resume not generated", "organization", sc.OrganizationID, "reason", msg)
		return false
	}
	logger.Info("scheduled resume generated", "organization", sc.OrganizationID, "selected", len(result.Selected))
	return true
}
