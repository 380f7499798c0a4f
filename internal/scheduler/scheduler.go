package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher regenerates the chart series.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs periodic series refreshes.
type Scheduler struct {
	Cron  *cron.Cron
	Store Refresher
	Ctx   context.Context
	log   *logrus.Logger
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, store Refresher, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron:  cron.New(cron.WithSeconds()),
		Store: store,
		Ctx:   ctx,
		log:   logger,
	}
}

// RegisterRefresh schedules a refresh of every timeframe. An empty spec registers nothing.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if spec == "" {
		s.log.Info("no refresh schedule configured, series stay fixed for the process lifetime")
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.log.Infof("series refresh scheduled: %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.Ctx.Err() != nil {
		return
	}
	s.log.Info("running series refresh")
	if err := s.Store.Refresh(s.Ctx); err != nil {
		s.log.Errorf("series refresh: %v", err)
	}
}
