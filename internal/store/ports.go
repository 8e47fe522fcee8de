// Package store defines the persistence ports the service layer depends on.
// Backends live in subpackages; the backend package picks one at startup.
package store

import (
	"context"
	"errors"

	"gagyebu/internal/core"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to a
	// different user. Ownership failures are indistinguishable from absence
	// on purpose.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCategory is returned when a user already has a category
	// with the same name.
	ErrDuplicateCategory = errors.New("category name already in use")
)

// Ports for persistence adapters.
type (
	TransactionStore interface {
		// CreateTransaction persists the transaction row alone. Items follow
		// via CreateItems so backends without multi-table transactions can
		// compensate on failure.
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		// ListTransactions returns transactions dated within [from, to],
		// newest first.
		ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error)
		// DeleteTransaction removes the transaction and, by cascade, its items.
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	ItemStore interface {
		CreateItems(ctx context.Context, transactionID string, items []core.TransactionItem) ([]core.TransactionItem, error)
		ListItemsByTransaction(ctx context.Context, transactionID string) ([]core.TransactionItem, error)
		// ListItemsInRange returns every item whose owning transaction belongs
		// to the user and is dated within [from, to].
		ListItemsInRange(ctx context.Context, userID string, from, to core.Date) ([]core.TransactionItem, error)
		// UpdateItemCategory sets or clears (nil) the item's category.
		UpdateItemCategory(ctx context.Context, userID, itemID string, categoryID *string) (core.TransactionItem, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory removes the category; items referencing it keep a
		// dangling id and surface as uncategorized.
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		// FindBudget locates the budget for the exact (period type, start
		// date, category) slot, ErrNotFound when the slot is empty.
		FindBudget(ctx context.Context, userID string, periodType core.PeriodType, startDate core.Date, categoryID *string) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudgetAmount(ctx context.Context, userID, id string, amount int64) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	// ReceiptStore keeps uploaded receipt images and hands back stable URLs.
	ReceiptStore interface {
		UploadReceipt(ctx context.Context, userID, ext, contentType string, data []byte) (url string, err error)
	}
)

// Store is the full persistence surface a backend must provide.
type Store interface {
	TransactionStore
	ItemStore
	CategoryStore
	BudgetStore
	Close() error
}
