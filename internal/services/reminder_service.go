package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fiado/internal/amqp"
	"fiado/internal/core"
	"fiado/internal/reminder"
	"fiado/internal/sheets"
	"fiado/internal/storage"
)

// ReminderService runs the once-per-day notification check per store:
// read the marker, evaluate, deliver, advance the marker. The marker
// only advances when the evaluation actually ran, so a disabled store
// re-evaluates in full once notifications come back on.
type ReminderService struct {
	repo     *storage.Repository
	notifier Notifier
	reports  sheets.ReportWriter // optional

	Now func() time.Time
}

func NewReminderService(repo *storage.Repository, notifier Notifier, reports sheets.ReportWriter) *ReminderService {
	return &ReminderService{
		repo:     repo,
		notifier: notifier,
		reports:  reports,
		Now:      time.Now,
	}
}

// RunAll sweeps every store. Per-store failures are logged and do not
// stop the sweep.
func (s *ReminderService) RunAll(ctx context.Context) error {
	storeIDs, err := s.repo.ListStoreIDs(ctx)
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}
	for _, storeID := range storeIDs {
		if err := s.RunForStore(ctx, storeID); err != nil {
			slog.ErrorContext(ctx, "daily check failed", "store_id", storeID, "error", err)
		}
	}
	return nil
}

// RunForStore evaluates and delivers one store's daily notifications.
func (s *ReminderService) RunForStore(ctx context.Context, storeID string) error {
	settings, err := s.repo.GetSettings(ctx, storeID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	lastRun, err := s.repo.LastDailyCheck(ctx, storeID)
	if err != nil {
		return fmt.Errorf("load marker: %w", err)
	}
	customers, err := s.repo.ListCustomers(ctx, storeID)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	now := s.Now()
	ev := reminder.Evaluate(customers, settings, now, lastRun)
	if !ev.ShouldRun {
		return nil
	}

	for _, e := range ev.Events {
		if s.notifier != nil {
			msg := amqp.NewNotificationMessage(storeID, string(e.Kind), e.Title, e.Body, now)
			if err := s.notifier.PublishNotification(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "publish daily notification",
					"store_id", storeID, "kind", e.Kind, "error", err)
			}
		}
		if e.Kind == reminder.KindWeeklySummary {
			s.exportWeeklyRow(ctx, storeID, customers, now)
		}
	}

	if err := s.repo.SetLastDailyCheck(ctx, storeID, now); err != nil {
		return fmt.Errorf("advance marker: %w", err)
	}

	l := core.UserLog{
		ID:        uuid.NewString(),
		Timestamp: now,
		Action:    core.ActionSystem,
		Details:   fmt.Sprintf("Chequeo diario de notificaciones (%d eventos)", len(ev.Events)),
	}
	if err := s.repo.AppendLog(ctx, storeID, l); err != nil {
		slog.ErrorContext(ctx, "append system log", "store_id", storeID, "error", err)
	}
	return nil
}

func (s *ReminderService) exportWeeklyRow(ctx context.Context, storeID string, customers []core.Customer, now time.Time) {
	if s.reports == nil {
		return
	}
	stats := reminder.ComputeWeekStats(customers, now)
	row := sheets.SummaryRow{
		Week:            now,
		StoreID:         storeID,
		Collected:       stats.Collected,
		NewClients:      stats.NewClients,
		OverdueAccounts: stats.OverdueAccounts,
	}
	ref, err := s.reports.AppendSummaryRow(ctx, row)
	if err != nil {
		slog.ErrorContext(ctx, "append weekly report row", "store_id", storeID, "error", err)
		return
	}
	slog.InfoContext(ctx, "weekly report row appended", "store_id", storeID, "ref", ref)
}
