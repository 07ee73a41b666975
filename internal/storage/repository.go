// Package storage persists stores, customers, ledgers, logs and
// notification state in SQLite. All queries are store-scoped: the
// store id is the partition key and no query crosses it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fiado/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserLogCap bounds the per-store audit log; the oldest entries are
// evicted once it is exceeded.
const UserLogCap = 1000

// User is an account row. The password hash never leaves this package.
type User struct {
	ID        string
	Username  string
	StoreID   string
	StoreName string
	CreatedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser registers a new account with a fresh store. The username
// must be unused.
func (r *Repository) CreateUser(ctx context.Context, username, password, storeName string, now time.Time) (User, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:        uuid.NewString(),
		Username:  username,
		StoreID:   uuid.NewString(),
		StoreName: storeName,
		CreatedAt: now,
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, store_id, store_name, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, string(hash), u.StoreID, u.StoreName, u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials and returns the account on success.
// A wrong password and an unknown username report the same error.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		u    User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, store_id, store_name, created_at FROM users WHERE username = ?",
		username).Scan(&u.ID, &u.Username, &hash, &u.StoreID, &u.StoreName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// JoinStore moves a user onto another user's store so two people can
// share one tab book. The target store must exist.
func (r *Repository) JoinStore(ctx context.Context, userID, storeID string) (User, error) {
	var storeName string
	err := r.db.QueryRowContext(ctx,
		"SELECT store_name FROM users WHERE store_id = ? LIMIT 1", storeID).Scan(&storeName)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("query store: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET store_id = ?, store_name = ? WHERE id = ?", storeID, storeName, userID)
	if err != nil {
		return User{}, fmt.Errorf("update user store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	var u User
	err = r.db.QueryRowContext(ctx,
		"SELECT id, username, store_id, store_name, created_at FROM users WHERE id = ?",
		userID).Scan(&u.ID, &u.Username, &u.StoreID, &u.StoreName, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("reload user: %w", err)
	}
	return u, nil
}

// ListStoreIDs returns every distinct store, for the notifier sweep.
func (r *Repository) ListStoreIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT store_id FROM users ORDER BY store_id")
	if err != nil {
		return nil, fmt.Errorf("query store ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan store id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateCustomer inserts a customer and any transactions it already
// carries (imports backfill history at creation time).
func (r *Repository) CreateCustomer(ctx context.Context, storeID string, c core.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO customers (id, store_id, name, phone, address, avatar_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, storeID, c.Name, c.Phone, c.Address, c.AvatarURL, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	for i, t := range c.Transactions {
		if err := insertTransaction(ctx, tx, c.ID, t, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddTransaction appends one ledger entry, preserving insertion order.
func (r *Repository) AddTransaction(ctx context.Context, storeID, customerID string, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx,
		"SELECT store_id FROM customers WHERE id = ?", customerID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != storeID) {
		return fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query customer: %w", err)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM transactions WHERE customer_id = ?", customerID).Scan(&next)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}
	if err := insertTransaction(ctx, tx, customerID, t, next); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, customerID string, t core.Transaction, seq int) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO transactions (id, customer_id, amount_cents, type, date, description, seq) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, customerID, t.Amount.Cents, string(t.Type), t.Date, t.Description, seq)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetCustomer loads one customer with its full ledger.
func (r *Repository) GetCustomer(ctx context.Context, storeID, customerID string) (core.Customer, error) {
	var c core.Customer
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, phone, address, avatar_url, created_at FROM customers WHERE id = ? AND store_id = ?",
		customerID, storeID).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.AvatarURL, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Customer{}, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("query customer: %w", err)
	}

	c.Transactions, err = r.listTransactions(ctx, customerID)
	if err != nil {
		return core.Customer{}, err
	}
	return c, nil
}

// ListCustomers loads every customer of a store, ledgers included.
func (r *Repository) ListCustomers(ctx context.Context, storeID string) ([]core.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, phone, address, avatar_url, created_at FROM customers WHERE store_id = ? ORDER BY created_at, id",
		storeID)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []core.Customer
	for rows.Next() {
		var c core.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.AvatarURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	for i := range customers {
		customers[i].Transactions, err = r.listTransactions(ctx, customers[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return customers, nil
}

func (r *Repository) listTransactions(ctx context.Context, customerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, amount_cents, type, date, description FROM transactions WHERE customer_id = ? ORDER BY seq",
		customerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t     core.Transaction
			typ   string
			cents int64
		)
		if err := rows.Scan(&t.ID, &cents, &typ, &t.Date, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money{Cents: cents}
		t.Type = core.TxType(typ)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// AppendLog records an audit entry and evicts beyond the cap.
func (r *Repository) AppendLog(ctx context.Context, storeID string, l core.UserLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_logs (id, store_id, action, details, duration, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, storeID, string(l.Action), l.Details, l.Duration, l.Timestamp)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM user_logs WHERE store_id = ? AND seq NOT IN (
			SELECT seq FROM user_logs WHERE store_id = ? ORDER BY seq DESC LIMIT ?
		)`, storeID, storeID, UserLogCap)
	if err != nil {
		return fmt.Errorf("trim logs: %w", err)
	}
	return tx.Commit()
}

// ListLogs returns audit entries newest first, up to limit (0 = cap).
func (r *Repository) ListLogs(ctx context.Context, storeID string, limit int) ([]core.UserLog, error) {
	if limit <= 0 || limit > UserLogCap {
		limit = UserLogCap
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, action, details, duration, created_at FROM user_logs WHERE store_id = ? ORDER BY seq DESC LIMIT ?",
		storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var logs []core.UserLog
	for rows.Next() {
		var (
			l      core.UserLog
			action string
		)
		if err := rows.Scan(&l.ID, &action, &l.Details, &l.Duration, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Action = core.LogAction(action)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetSettings returns a store's notification settings, falling back to
// the defaults when none were saved yet.
func (r *Repository) GetSettings(ctx context.Context, storeID string) (core.NotificationSettings, error) {
	var s core.NotificationSettings
	err := r.db.QueryRowContext(ctx,
		"SELECT enabled, daily_reminders, payments, weekly_reports, app_updates FROM notification_settings WHERE store_id = ?",
		storeID).Scan(&s.Enabled, &s.DailyReminders, &s.Payments, &s.WeeklyReports, &s.AppUpdates)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultNotificationSettings, nil
	}
	if err != nil {
		return core.NotificationSettings{}, fmt.Errorf("query settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveSettings(ctx context.Context, storeID string, s core.NotificationSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_settings (store_id, enabled, daily_reminders, payments, weekly_reports, app_updates)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(store_id) DO UPDATE SET
			enabled = excluded.enabled,
			daily_reminders = excluded.daily_reminders,
			payments = excluded.payments,
			weekly_reports = excluded.weekly_reports,
			app_updates = excluded.app_updates`,
		storeID, s.Enabled, s.DailyReminders, s.Payments, s.WeeklyReports, s.AppUpdates)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LastDailyCheck returns the once-per-day marker, zero when never run.
func (r *Repository) LastDailyCheck(ctx context.Context, storeID string) (time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx,
		"SELECT last_daily_check FROM notification_state WHERE store_id = ?", storeID).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query notification state: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

func (r *Repository) SetLastDailyCheck(ctx context.Context, storeID string, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_state (store_id, last_daily_check) VALUES (?, ?)
		ON CONFLICT(store_id) DO UPDATE SET last_daily_check = excluded.last_daily_check`,
		storeID, t)
	if err != nil {
		return fmt.Errorf("save notification state: %w", err)
	}
	return nil
}
