package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fiado/internal/core"
	"fiado/internal/events"
	"fiado/internal/reminder"
	"fiado/internal/sheets/memory"
	"fiado/internal/storage"
)

// Tuesday.
var reminderNow = time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)

func newTestReminder(t *testing.T) (*ReminderService, *LedgerService, *fakeNotifier, *memory.Store) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "fiado.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	notifier := &fakeNotifier{}
	reports := memory.New()
	svc := NewReminderService(repo, notifier, reports)
	svc.Now = func() time.Time { return reminderNow }

	ledger := NewLedgerService(repo, nil, events.NewBroker())
	ledger.Now = func() time.Time { return reminderNow.AddDate(0, 0, -45) }
	return svc, ledger, notifier, reports
}

func TestRunForStoreDailyGate(t *testing.T) {
	svc, ledger, notifier, _ := newTestReminder(t)
	ctx := context.Background()

	// One customer with a 45-day-old credit: overdue digest expected.
	c, err := ledger.CreateCustomer(ctx, testSession, "Juan", "", "")
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if _, err := ledger.AddTransaction(ctx, testSession, c.ID, core.Money{Cents: 10000}, core.Credit, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := svc.RunForStore(ctx, testSession.StoreID); err != nil {
		t.Fatalf("RunForStore: %v", err)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(notifier.msgs))
	}
	if notifier.msgs[0].Kind != string(reminder.KindOverdue) {
		t.Fatalf("kind = %q", notifier.msgs[0].Kind)
	}

	t.Run("second run same day is silent", func(t *testing.T) {
		if err := svc.RunForStore(ctx, testSession.StoreID); err != nil {
			t.Fatalf("RunForStore: %v", err)
		}
		if len(notifier.msgs) != 1 {
			t.Fatalf("messages = %d after second run", len(notifier.msgs))
		}
	})

	t.Run("system log recorded once", func(t *testing.T) {
		logs, err := ledger.Logs(ctx, testSession, 0)
		if err != nil {
			t.Fatalf("Logs: %v", err)
		}
		var systemLogs int
		for _, l := range logs {
			if l.Action == core.ActionSystem {
				systemLogs++
			}
		}
		if systemLogs != 1 {
			t.Fatalf("system logs = %d, want 1", systemLogs)
		}
	})
}

func TestRunForStoreDisabledLeavesMarker(t *testing.T) {
	svc, ledger, notifier, _ := newTestReminder(t)
	ctx := context.Background()

	c, _ := ledger.CreateCustomer(ctx, testSession, "Juan", "", "")
	if _, err := ledger.AddTransaction(ctx, testSession, c.ID, core.Money{Cents: 10000}, core.Credit, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	off := core.DefaultNotificationSettings
	off.Enabled = false
	if err := ledger.UpdateSettings(ctx, testSession, off); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	if err := svc.RunForStore(ctx, testSession.StoreID); err != nil {
		t.Fatalf("RunForStore: %v", err)
	}
	if len(notifier.msgs) != 0 {
		t.Fatal("disabled store must stay silent")
	}

	// Re-enabling the same day still runs: the marker never advanced.
	if err := ledger.UpdateSettings(ctx, testSession, core.DefaultNotificationSettings); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if err := svc.RunForStore(ctx, testSession.StoreID); err != nil {
		t.Fatalf("RunForStore: %v", err)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("messages = %d after re-enable", len(notifier.msgs))
	}
}

func TestRunForStoreWeeklyReportRow(t *testing.T) {
	svc, ledger, notifier, reports := newTestReminder(t)
	ctx := context.Background()

	monday := time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return monday }
	ledger.Now = func() time.Time { return monday.AddDate(0, 0, -2) }

	c, _ := ledger.CreateCustomer(ctx, testSession, "Ana", "", "")
	if _, err := ledger.AddTransaction(ctx, testSession, c.ID, core.Money{Cents: 20000}, core.Credit, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := ledger.AddTransaction(ctx, testSession, c.ID, core.Money{Cents: 7500}, core.Payment, ""); err != nil {
		t.Fatalf("payment: %v", err)
	}

	settings := core.NotificationSettings{Enabled: true, WeeklyReports: true}
	if err := ledger.UpdateSettings(ctx, testSession, settings); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	if err := svc.RunForStore(ctx, testSession.StoreID); err != nil {
		t.Fatalf("RunForStore: %v", err)
	}

	if len(notifier.msgs) != 1 || notifier.msgs[0].Kind != string(reminder.KindWeeklySummary) {
		t.Fatalf("messages = %+v", notifier.msgs)
	}
	rows := reports.Rows()
	if len(rows) != 1 {
		t.Fatalf("report rows = %d, want 1", len(rows))
	}
	if rows[0].Collected.Cents != 7500 || rows[0].NewClients != 1 {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestRunAllSweepsStores(t *testing.T) {
	svc, _, notifier, _ := newTestReminder(t)
	ctx := context.Background()

	// Two stores come from two registered users.
	repo := svc.repo
	if _, err := repo.CreateUser(ctx, "mari", "pw", "Tienda Mari", reminderNow); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.CreateUser(ctx, "pepe", "pw", "Tienda Pepe", reminderNow); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := svc.RunAll(ctx); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	// Empty stores produce no notifications but still consume the gate.
	if len(notifier.msgs) != 0 {
		t.Fatalf("messages = %d", len(notifier.msgs))
	}
	storeIDs, err := repo.ListStoreIDs(ctx)
	if err != nil {
		t.Fatalf("ListStoreIDs: %v", err)
	}
	for _, id := range storeIDs {
		last, err := repo.LastDailyCheck(ctx, id)
		if err != nil {
			t.Fatalf("LastDailyCheck: %v", err)
		}
		if !last.Equal(reminderNow) {
			t.Fatalf("marker for %s = %v", id, last)
		}
	}
}
