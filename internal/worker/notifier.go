// Package worker schedules the daily notification sweep. The cron
// schedule says when to try; the per-store once-per-day gate decides
// whether anything actually runs, so overlapping triggers are harmless.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"fiado/internal/log"
	"fiado/internal/services"
)

type Notifier struct {
	scheduler *cron.Cron
	reminders *services.ReminderService
	spec      string
	runAtBoot bool
	logger    *log.Logger
	jobID     cron.EntryID
}

func NewNotifier(reminders *services.ReminderService, spec string, runAtBoot bool, logger *log.Logger) *Notifier {
	return &Notifier{
		scheduler: cron.New(),
		reminders: reminders,
		spec:      spec,
		runAtBoot: runAtBoot,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Start schedules the sweep and, when configured, runs it immediately
// so a restart does not skip a day.
func (n *Notifier) Start(ctx context.Context) error {
	var err error
	n.jobID, err = n.scheduler.AddFunc(n.spec, func() {
		n.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule notifier job: %w", err)
	}

	n.scheduler.Start()
	n.logger.Info("notifier scheduler started", "spec", n.spec)

	if n.runAtBoot {
		n.logger.Info("running initial sweep")
		n.sweep(ctx)
	}
	return nil
}

func (n *Notifier) sweep(ctx context.Context) {
	if err := n.reminders.RunAll(ctx); err != nil {
		n.logger.ErrorContext(ctx, "notification sweep failed", "error", err)
		return
	}
	n.logger.InfoContext(ctx, "notification sweep completed")
}

// Stop halts the scheduler; a running sweep finishes first.
func (n *Notifier) Stop() {
	ctx := n.scheduler.Stop()
	<-ctx.Done()
	n.logger.Info("notifier scheduler stopped")
}
