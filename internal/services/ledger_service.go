// Package services provides business logic and orchestration above the
// persistence ports.
package services

import (
	"context"
	"errors"
	"fmt"

	"gagyebu/internal/core"
	applog "gagyebu/internal/log"
	"gagyebu/internal/store"
)

// ExportPublisher enqueues a transaction for background export. Nil is
// allowed; exports are then skipped.
type ExportPublisher interface {
	PublishExport(ctx context.Context, transactionID, userID string) error
}

// LedgerService owns the transaction, category, and budget operations.
type LedgerService struct {
	store     store.Store
	publisher ExportPublisher
	logger    *applog.Logger
}

func NewLedgerService(s store.Store, publisher ExportPublisher) *LedgerService {
	return &LedgerService{
		store:     s,
		publisher: publisher,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger),
	}
}

// TransactionWithItems pairs a transaction with its item rows.
type TransactionWithItems struct {
	Transaction core.Transaction      `json:"transaction"`
	Items       []core.TransactionItem `json:"items"`
}

// CreateTransaction persists the transaction and its items. The stored
// total is always the sum of the item totals, whatever the caller sent.
// If the item write fails after the transaction row landed, the row is
// deleted again so no empty transaction lingers.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction, items []core.TransactionItem) (TransactionWithItems, error) {
	if len(items) == 0 {
		return TransactionWithItems{}, errors.New("transaction needs at least one item")
	}
	var total int64
	for i := range items {
		items[i].Recompute()
		if err := items[i].Validate(); err != nil {
			return TransactionWithItems{}, fmt.Errorf("item %d: %w", i, err)
		}
		total += items[i].TotalPrice
	}
	t.TotalAmount = total

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return TransactionWithItems{}, fmt.Errorf("create transaction: %w", err)
	}

	createdItems, err := s.store.CreateItems(ctx, created.ID, items)
	if err != nil {
		// Roll the transaction row back so it does not linger without items.
		if delErr := s.store.DeleteTransaction(ctx, created.UserID, created.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back transaction after item write failure",
				applog.FieldTransactionID, created.ID,
				applog.FieldError, delErr.Error())
		}
		return TransactionWithItems{}, fmt.Errorf("create items: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction created",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithTransaction(created.ID, created.UserID, created.Place, created.TotalAmount, len(createdItems)).
			ToSlice()...)

	s.publishExport(ctx, created.ID, created.UserID)

	return TransactionWithItems{Transaction: created, Items: createdItems}, nil
}

func (s *LedgerService) publishExport(ctx context.Context, transactionID, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExport(ctx, transactionID, userID); err != nil {
		// The transaction is saved; the worker's startup check or a
		// republish can recover the export.
		s.logger.ErrorContext(ctx, "failed to publish export message",
			applog.FieldTransactionID, transactionID,
			applog.FieldError, err.Error())
	}
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id string) (TransactionWithItems, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return TransactionWithItems{}, err
	}
	items, err := s.store.ListItemsByTransaction(ctx, t.ID)
	if err != nil {
		return TransactionWithItems{}, fmt.Errorf("list items: %w", err)
	}
	return TransactionWithItems{Transaction: t, Items: items}, nil
}

// ListTransactions returns the user's transactions in [from, to] with
// items attached, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]TransactionWithItems, error) {
	txs, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]TransactionWithItems, 0, len(txs))
	for _, t := range txs {
		items, err := s.store.ListItemsByTransaction(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list items for %s: %w", t.ID, err)
		}
		out = append(out, TransactionWithItems{Transaction: t, Items: items})
	}
	return out, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

func (s *LedgerService) UpdateItemCategory(ctx context.Context, userID, itemID string, categoryID *string) (core.TransactionItem, error) {
	return s.store.UpdateItemCategory(ctx, userID, itemID, categoryID)
}

func (s *LedgerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *LedgerService) CreateCategory(ctx context.Context, userID, name string) (core.Category, error) {
	return s.store.CreateCategory(ctx, core.Category{UserID: userID, Name: name})
}

func (s *LedgerService) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.store.DeleteCategory(ctx, userID, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

// UpsertBudget creates the budget for its (period type, start date,
// category) slot, or updates the amount when the slot is already taken.
func (s *LedgerService) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	existing, err := s.store.FindBudget(ctx, b.UserID, b.PeriodType, b.StartDate, b.CategoryID)
	switch {
	case err == nil:
		return s.store.UpdateBudgetAmount(ctx, b.UserID, existing.ID, b.Amount)
	case errors.Is(err, store.ErrNotFound):
		return s.store.CreateBudget(ctx, b)
	default:
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *LedgerService) Close() error {
	return s.store.Close()
}
