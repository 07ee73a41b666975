package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit  TxType = "CREDIT"
	Payment TxType = "PAYMENT"
)

type (
	// TxType marks whether a transaction increases (CREDIT) or reduces
	// (PAYMENT) a customer's owed balance.
	TxType string

	// Transaction is a single ledger entry. Immutable once recorded.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Type        TxType    `json:"type"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
	}

	// Customer owns an append-only transaction sequence. Insertion order
	// is history order, which is not necessarily date order (imports may
	// backfill older entries).
	Customer struct {
		ID           string        `json:"id"`
		Name         string        `json:"name"`
		Phone        string        `json:"phone,omitempty"`
		Address      string        `json:"address,omitempty"`
		CreatedAt    time.Time     `json:"createdAt"`
		AvatarURL    string        `json:"avatarUrl,omitempty"`
		Transactions []Transaction `json:"transactions"`
	}

	// NotificationSettings gates all notification emission for a user.
	NotificationSettings struct {
		Enabled        bool `json:"enabled"`
		DailyReminders bool `json:"dailyReminders"`
		Payments       bool `json:"payments"`
		WeeklyReports  bool `json:"weeklyReports"`
		AppUpdates     bool `json:"appUpdates"`
	}

	// LogAction enumerates auditable user actions.
	LogAction string

	// UserLog is an append-only audit record. Retained newest-first up to
	// a cap; never mutated.
	UserLog struct {
		ID        string    `json:"id"`
		Timestamp time.Time `json:"timestamp"`
		Action    LogAction `json:"action"`
		Details   string    `json:"details"`
		Duration  string    `json:"duration,omitempty"`
	}
)

const (
	ActionLogin          LogAction = "LOGIN"
	ActionLogout         LogAction = "LOGOUT"
	ActionCreateCustomer LogAction = "CREATE_CUSTOMER"
	ActionAddTransaction LogAction = "ADD_TRANSACTION"
	ActionUpdateSettings LogAction = "UPDATE_SETTINGS"
	ActionSystem         LogAction = "SYSTEM"
)

// DefaultNotificationSettings is applied to newly registered users.
var DefaultNotificationSettings = NotificationSettings{
	Enabled:        true,
	DailyReminders: true,
	Payments:       true,
	WeeklyReports:  true,
	AppUpdates:     true,
}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidTxType  = errors.New("invalid transaction type")
	ErrEmptyName      = errors.New("empty name")
	ErrZeroDate       = errors.New("date cannot be zero")
	ErrNoStoreContext = errors.New("no store context")
)

func (t TxType) Valid() bool {
	return t == Credit || t == Payment
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTxType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 120 {
		return errors.New("name too long (max 120 characters)")
	}
	if c.CreatedAt.IsZero() {
		return ErrZeroDate
	}
	return nil
}
