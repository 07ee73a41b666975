package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fiado/internal/core"
	"fiado/internal/events"
	"fiado/internal/extract"
	"fiado/internal/importer"
	"fiado/internal/session"
	"fiado/internal/storage"
)

// ErrTooManyItems rejects batches over the configured limit before
// validation even starts.
var ErrTooManyItems = fmt.Errorf("too many items in import batch")

// ImportService runs the extract → validate → reconcile → commit
// workflow for ledger imports.
type ImportService struct {
	repo     *storage.Repository
	broker   *events.Broker
	maxItems int

	Now func() time.Time
}

func NewImportService(repo *storage.Repository, broker *events.Broker, maxItems int) *ImportService {
	return &ImportService{
		repo:     repo,
		broker:   broker,
		maxItems: maxItems,
		Now:      time.Now,
	}
}

// Extract parses an uploaded file and stages its records against the
// store's customer base. A failed extraction or an invalid batch stages
// nothing.
func (s *ImportService) Extract(ctx context.Context, sess session.Session, filename string, data []byte) ([]importer.StagedItem, error) {
	items, err := extract.ForFilename(filename).Extract(data)
	if err != nil {
		return nil, err
	}
	if len(items) > s.maxItems {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrTooManyItems, len(items), s.maxItems)
	}
	if err := importer.ValidateBatch(items); err != nil {
		return nil, fmt.Errorf("validate batch: %w", err)
	}

	customers, err := s.repo.ListCustomers(ctx, sess.StoreID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return importer.Reconcile(items, customers), nil
}

// Rematch re-evaluates one staged item after a user edit. Matching is
// exact-only at this stage.
func (s *ImportService) Rematch(ctx context.Context, sess session.Session, item importer.StagedItem) (importer.StagedItem, error) {
	customers, err := s.repo.ListCustomers(ctx, sess.StoreID)
	if err != nil {
		return importer.StagedItem{}, fmt.Errorf("list customers: %w", err)
	}
	return importer.Rematch(item, customers), nil
}

// CommitResult reports what a committed import changed.
type CommitResult struct {
	CustomersCreated  int `json:"customersCreated"`
	TransactionsAdded int `json:"transactionsAdded"`
}

// Commit applies staged items: NEW items create a customer first, then
// every item appends a transaction dated at commit time.
func (s *ImportService) Commit(ctx context.Context, sess session.Session, items []importer.StagedItem) (CommitResult, error) {
	var result CommitResult

	customers, err := s.repo.ListCustomers(ctx, sess.StoreID)
	if err != nil {
		return result, fmt.Errorf("list customers: %w", err)
	}
	byName := make(map[string]core.Customer, len(customers))
	for _, c := range customers {
		byName[strings.ToLower(c.Name)] = c
	}

	now := s.Now()
	for i, item := range items {
		name := strings.TrimSpace(item.CustomerName)
		target, ok := byName[strings.ToLower(name)]
		if !ok {
			target = core.Customer{
				ID:        uuid.NewString(),
				Name:      name,
				Address:   "Importado de libreta",
				CreatedAt: now,
			}
			if err := target.Validate(); err != nil {
				return result, fmt.Errorf("item %d: %w", i, err)
			}
			if err := s.repo.CreateCustomer(ctx, sess.StoreID, target); err != nil {
				return result, fmt.Errorf("item %d: create customer: %w", i, err)
			}
			byName[strings.ToLower(name)] = target
			result.CustomersCreated++
		}

		t := core.Transaction{
			ID:          uuid.NewString(),
			Amount:      item.Amount,
			Type:        item.Type,
			Date:        now,
			Description: item.Description,
		}
		if err := t.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i, err)
		}
		if err := s.repo.AddTransaction(ctx, sess.StoreID, target.ID, t); err != nil {
			return result, fmt.Errorf("item %d: add transaction: %w", i, err)
		}
		result.TransactionsAdded++
	}

	if result.TransactionsAdded > 0 {
		s.broker.Publish(events.Change{StoreID: sess.StoreID, Kind: "transaction"})
	}
	return result, nil
}
