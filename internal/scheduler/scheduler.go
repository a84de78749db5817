package scheduler

import (
	"context"
	"fmt"
	"time"

	"FundReview/internal/checklist"
	"FundReview/internal/notifier"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic review digest.
type Scheduler struct {
	Cron      *cron.Cron
	Ctrl      *checklist.Controller
	Notifier  notifier.Sender
	StaleDays int
	Ctx       context.Context

	log *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ctrl *checklist.Controller, sender notifier.Sender, staleDays int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Ctrl:      ctrl,
		Notifier:  sender,
		StaleDays: staleDays,
		Ctx:       ctx,
		log:       logger.Named("scheduler"),
	}
}

// RegisterAll registers the digest task.
func (s *Scheduler) RegisterAll(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunDigestNow executes the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	s.log.Info("running digest task")
	funds, err := s.Ctrl.Funds(s.Ctx)
	if err != nil {
		s.log.Error("digest: load funds", zap.Error(err))
		return
	}
	s.trySend(notifier.FormatDigest(funds, s.Ctrl.Now(), s.StaleDays))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.log.Info("no notifier configured, digest not sent", zap.Int("bytes", len(text)))
		return
	}
	ctx, cancel := context.WithTimeout(s.Ctx, 2*time.Minute)
	defer cancel()
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
