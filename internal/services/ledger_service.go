// Package services orchestrates storage, notifications and events on
// behalf of the transport layers. All time-dependent logic takes its
// clock from the service's Now field so tests can pin a date.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fiado/internal/amqp"
	"fiado/internal/core"
	"fiado/internal/events"
	"fiado/internal/session"
	"fiado/internal/storage"
)

// Notifier delivers rendered notifications to the external sink.
// *amqp.Client satisfies it.
type Notifier interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// CustomerView is a customer decorated with derived ledger figures.
type CustomerView struct {
	core.Customer
	Balance core.Money     `json:"balance"`
	Aging   core.Aging     `json:"aging"`
	Risk    core.RiskLevel `json:"risk"`
}

// LedgerService covers customers, transactions, summaries, settings and
// the audit log for one store at a time.
type LedgerService struct {
	repo     *storage.Repository
	notifier Notifier
	broker   *events.Broker

	// Now is the clock for every derived figure. Tests pin it.
	Now func() time.Time
}

func NewLedgerService(repo *storage.Repository, notifier Notifier, broker *events.Broker) *LedgerService {
	return &LedgerService{
		repo:     repo,
		notifier: notifier,
		broker:   broker,
		Now:      time.Now,
	}
}

// ListCustomers returns every customer with balance, aging and risk as
// of now.
func (s *LedgerService) ListCustomers(ctx context.Context, sess session.Session) ([]CustomerView, error) {
	customers, err := s.repo.ListCustomers(ctx, sess.StoreID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	asOf := s.Now()
	views := make([]CustomerView, 0, len(customers))
	for _, c := range customers {
		views = append(views, s.view(c, asOf))
	}
	return views, nil
}

// GetCustomer returns one customer with derived figures.
func (s *LedgerService) GetCustomer(ctx context.Context, sess session.Session, customerID string) (CustomerView, error) {
	c, err := s.repo.GetCustomer(ctx, sess.StoreID, customerID)
	if err != nil {
		return CustomerView{}, fmt.Errorf("get customer: %w", err)
	}
	return s.view(c, s.Now()), nil
}

func (s *LedgerService) view(c core.Customer, asOf time.Time) CustomerView {
	aging := core.ComputeAging(c.Transactions, asOf)
	return CustomerView{
		Customer: c,
		Balance:  core.Balance(c.Transactions),
		Aging:    aging,
		Risk:     core.ClassifyRisk(aging),
	}
}

// CreateCustomer registers a customer and records the action.
func (s *LedgerService) CreateCustomer(ctx context.Context, sess session.Session, name, phone, address string) (core.Customer, error) {
	c := core.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Address:   address,
		CreatedAt: s.Now(),
	}
	if err := c.Validate(); err != nil {
		return core.Customer{}, err
	}
	if err := s.repo.CreateCustomer(ctx, sess.StoreID, c); err != nil {
		return core.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	s.appendLog(ctx, sess, core.ActionCreateCustomer, fmt.Sprintf("Cliente creado: %s", c.Name), "")
	s.broker.Publish(events.Change{StoreID: sess.StoreID, CustomerID: c.ID, Kind: "customer"})
	return c, nil
}

// AddTransaction appends a ledger entry and, for payments, emits the
// confirmation notifications when the store has them enabled.
func (s *LedgerService) AddTransaction(ctx context.Context, sess session.Session, customerID string, amount core.Money, txType core.TxType, description string) (core.Transaction, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Type:        txType,
		Date:        s.Now(),
		Description: description,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.AddTransaction(ctx, sess.StoreID, customerID, t); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	c, err := s.repo.GetCustomer(ctx, sess.StoreID, customerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload customer: %w", err)
	}

	verb := "Crédito"
	if txType == core.Payment {
		verb = "Pago"
	}
	s.appendLog(ctx, sess, core.ActionAddTransaction,
		fmt.Sprintf("%s de $%s para %s", verb, amount.String(), c.Name), "")
	s.broker.Publish(events.Change{StoreID: sess.StoreID, CustomerID: customerID, Kind: "transaction"})

	if txType == core.Payment {
		s.notifyPayment(ctx, sess, c, amount)
	}
	return t, nil
}

func (s *LedgerService) notifyPayment(ctx context.Context, sess session.Session, c core.Customer, amount core.Money) {
	settings, err := s.repo.GetSettings(ctx, sess.StoreID)
	if err != nil {
		slog.ErrorContext(ctx, "load settings for payment notification", "error", err)
		return
	}
	if !settings.Enabled || !settings.Payments {
		return
	}

	balance := core.Balance(c.Transactions)
	s.publish(ctx, sess.StoreID, "payment", "Pago Registrado",
		fmt.Sprintf("%s pagó $%s. Saldo actual: $%s.", c.Name, amount.String(), balance.String()))
	if balance.Cents <= 0 {
		s.publish(ctx, sess.StoreID, "debt_settled", "¡Deuda Saldada!",
			fmt.Sprintf("%s liquidó su cuenta por completo.", c.Name))
	}
}

func (s *LedgerService) publish(ctx context.Context, storeID, kind, title, body string) {
	if s.notifier == nil {
		return
	}
	msg := amqp.NewNotificationMessage(storeID, kind, title, body, s.Now())
	if err := s.notifier.PublishNotification(ctx, msg); err != nil {
		// Notification delivery is best-effort.
		slog.ErrorContext(ctx, "publish notification", "kind", kind, "error", err)
	}
}

// Summary builds the store-wide financial rollup as of now.
func (s *LedgerService) Summary(ctx context.Context, sess session.Session) (core.FinancialSummary, error) {
	customers, err := s.repo.ListCustomers(ctx, sess.StoreID)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("list customers: %w", err)
	}
	return core.BuildSummary(customers, s.Now()), nil
}

// Settings returns the store's notification settings.
func (s *LedgerService) Settings(ctx context.Context, sess session.Session) (core.NotificationSettings, error) {
	return s.repo.GetSettings(ctx, sess.StoreID)
}

// UpdateSettings saves notification settings and records the action.
func (s *LedgerService) UpdateSettings(ctx context.Context, sess session.Session, settings core.NotificationSettings) error {
	if err := s.repo.SaveSettings(ctx, sess.StoreID, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.appendLog(ctx, sess, core.ActionUpdateSettings, "Configuración de notificaciones actualizada", "")
	return nil
}

// Logs returns the audit trail, newest first.
func (s *LedgerService) Logs(ctx context.Context, sess session.Session, limit int) ([]core.UserLog, error) {
	return s.repo.ListLogs(ctx, sess.StoreID, limit)
}

// RecordLogin appends a LOGIN audit entry.
func (s *LedgerService) RecordLogin(ctx context.Context, sess session.Session, username string) {
	s.appendLog(ctx, sess, core.ActionLogin, fmt.Sprintf("Inicio de sesión: %s", username), "")
}

// RecordLogout appends a LOGOUT entry with the session duration.
func (s *LedgerService) RecordLogout(ctx context.Context, sess session.Session, username string, duration time.Duration) {
	s.appendLog(ctx, sess, core.ActionLogout,
		fmt.Sprintf("Cierre de sesión: %s", username), duration.Round(time.Second).String())
}

func (s *LedgerService) appendLog(ctx context.Context, sess session.Session, action core.LogAction, details, duration string) {
	l := core.UserLog{
		ID:        uuid.NewString(),
		Timestamp: s.Now(),
		Action:    action,
		Details:   details,
		Duration:  duration,
	}
	if err := s.repo.AppendLog(ctx, sess.StoreID, l); err != nil {
		// The audit log never fails a user operation.
		slog.ErrorContext(ctx, "append user log", "action", action, "error", err)
	}
}
