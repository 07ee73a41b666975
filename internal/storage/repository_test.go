package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fiado/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "fiado.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestUserLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "mari", "hunter2", "Abarrotes Doña Mari", now)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.StoreID == "" || u.ID == "" {
		t.Fatalf("missing ids: %+v", u)
	}

	t.Run("duplicate username rejected", func(t *testing.T) {
		if _, err := repo.CreateUser(ctx, "mari", "x", "Otra", now); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := repo.Authenticate(ctx, "mari", "hunter2")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if got.StoreID != u.StoreID {
			t.Fatalf("store = %q, want %q", got.StoreID, u.StoreID)
		}
		if _, err := repo.Authenticate(ctx, "mari", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("wrong password: %v", err)
		}
		if _, err := repo.Authenticate(ctx, "nadie", "x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("unknown user: %v", err)
		}
	})

	t.Run("join store", func(t *testing.T) {
		other, err := repo.CreateUser(ctx, "pepe", "pw", "Tienda Pepe", now)
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		joined, err := repo.JoinStore(ctx, other.ID, u.StoreID)
		if err != nil {
			t.Fatalf("JoinStore: %v", err)
		}
		if joined.StoreID != u.StoreID || joined.StoreName != u.StoreName {
			t.Fatalf("joined = %+v", joined)
		}
		if _, err := repo.JoinStore(ctx, other.ID, "no-such-store"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCustomerAndTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := core.Customer{
		ID: "c1", Name: "Juan Pérez", Phone: "555-0101", CreatedAt: now,
		Transactions: []core.Transaction{
			{ID: "t1", Amount: core.Money{Cents: 15000}, Type: core.Credit, Date: now.AddDate(0, 0, -40)},
		},
	}
	if err := repo.CreateCustomer(ctx, "s1", c); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	if err := repo.AddTransaction(ctx, "s1", "c1", core.Transaction{
		ID: "t2", Amount: core.Money{Cents: 5000}, Type: core.Payment, Date: now,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	got, err := repo.GetCustomer(ctx, "s1", "c1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(got.Transactions))
	}
	// Insertion order preserved, not date order.
	if got.Transactions[0].ID != "t1" || got.Transactions[1].ID != "t2" {
		t.Fatalf("order = %s, %s", got.Transactions[0].ID, got.Transactions[1].ID)
	}
	if got.Transactions[1].Amount.Cents != 5000 || got.Transactions[1].Type != core.Payment {
		t.Fatalf("t2 = %+v", got.Transactions[1])
	}

	t.Run("store isolation", func(t *testing.T) {
		if _, err := repo.GetCustomer(ctx, "s2", "c1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound across stores, got %v", err)
		}
		if err := repo.AddTransaction(ctx, "s2", "c1", core.Transaction{
			ID: "t3", Amount: core.Money{Cents: 100}, Type: core.Credit, Date: now,
		}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		customers, err := repo.ListCustomers(ctx, "s1")
		if err != nil {
			t.Fatalf("ListCustomers: %v", err)
		}
		if len(customers) != 1 || len(customers[0].Transactions) != 2 {
			t.Fatalf("customers = %+v", customers)
		}
	})
}

func TestUserLogCap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < UserLogCap+5; i++ {
		l := core.UserLog{
			ID:        fmt.Sprintf("log-%d", i),
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Action:    core.ActionAddTransaction,
			Details:   fmt.Sprintf("entry %d", i),
		}
		if err := repo.AppendLog(ctx, "s1", l); err != nil {
			t.Fatalf("AppendLog %d: %v", i, err)
		}
	}

	logs, err := repo.ListLogs(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != UserLogCap {
		t.Fatalf("len = %d, want %d", len(logs), UserLogCap)
	}
	if logs[0].ID != fmt.Sprintf("log-%d", UserLogCap+4) {
		t.Fatalf("newest first, got %s", logs[0].ID)
	}
	// Oldest five were evicted.
	last := logs[len(logs)-1]
	if last.ID != "log-5" {
		t.Fatalf("oldest surviving = %s, want log-5", last.ID)
	}
}

func TestSettingsDefaultAndRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetSettings(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got != core.DefaultNotificationSettings {
		t.Fatalf("defaults = %+v", got)
	}

	want := core.NotificationSettings{Enabled: true, WeeklyReports: true}
	if err := repo.SaveSettings(ctx, "s1", want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err = repo.GetSettings(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLastDailyCheck(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.LastDailyCheck(ctx, "s1")
	if err != nil {
		t.Fatalf("LastDailyCheck: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero marker, got %v", got)
	}

	if err := repo.SetLastDailyCheck(ctx, "s1", now); err != nil {
		t.Fatalf("SetLastDailyCheck: %v", err)
	}
	got, err = repo.LastDailyCheck(ctx, "s1")
	if err != nil {
		t.Fatalf("LastDailyCheck: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("marker = %v, want %v", got, now)
	}

	// Overwrite on a later day.
	later := now.AddDate(0, 0, 1)
	if err := repo.SetLastDailyCheck(ctx, "s1", later); err != nil {
		t.Fatalf("SetLastDailyCheck: %v", err)
	}
	got, _ = repo.LastDailyCheck(ctx, "s1")
	if !got.Equal(later) {
		t.Fatalf("marker = %v, want %v", got, later)
	}
}
