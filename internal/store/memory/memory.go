// Package memory is the in-memory backend used for local development and
// tests. State lives for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gagyebu/internal/core"
	"gagyebu/internal/store"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	items        map[string]core.TransactionItem
	categories   map[string]core.Category
	budgets      map[string]core.Budget
	receipts     map[string][]byte

	// FailItems forces CreateItems to error, for compensation tests.
	FailItems bool
}

func New() *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		items:        make(map[string]core.TransactionItem),
		categories:   make(map[string]core.Category),
		budgets:      make(map[string]core.Budget),
		receipts:     make(map[string][]byte),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	for itemID, item := range s.items {
		if item.TransactionID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *Store) CreateItems(_ context.Context, transactionID string, items []core.TransactionItem) ([]core.TransactionItem, error) {
	if s.FailItems {
		return nil, fmt.Errorf("create items: injected failure")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[transactionID]; !ok {
		return nil, store.ErrNotFound
	}
	out := make([]core.TransactionItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.ID = uuid.NewString()
		item.TransactionID = transactionID
		s.items[item.ID] = item
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) ListItemsByTransaction(_ context.Context, transactionID string) ([]core.TransactionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.TransactionItem
	for _, item := range s.items {
		if item.TransactionID == transactionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListItemsInRange(_ context.Context, userID string, from, to core.Date) ([]core.TransactionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inRange := make(map[string]bool)
	for id, t := range s.transactions {
		if t.UserID == userID && !t.Date.Before(from) && !t.Date.After(to) {
			inRange[id] = true
		}
	}
	var out []core.TransactionItem
	for _, item := range s.items {
		if inRange[item.TransactionID] {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateItemCategory(_ context.Context, userID, itemID string, categoryID *string) (core.TransactionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return core.TransactionItem{}, store.ErrNotFound
	}
	owner, ok := s.transactions[item.TransactionID]
	if !ok || owner.UserID != userID {
		return core.TransactionItem{}, store.ErrNotFound
	}
	if categoryID != nil {
		if _, ok := s.categories[*categoryID]; !ok {
			return core.TransactionItem{}, store.ErrNotFound
		}
	}
	item.CategoryID = categoryID
	s.items[itemID] = item
	return item, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && strings.EqualFold(existing.Name, c.Name) {
			return core.Category{}, store.ErrDuplicateCategory
		}
	}
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[j].StartDate.Before(out[i].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) FindBudget(_ context.Context, userID string, periodType core.PeriodType, startDate core.Date, categoryID *string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID != userID || b.PeriodType != periodType || !b.StartDate.Equal(startDate.Time) {
			continue
		}
		if sameCategory(b.CategoryID, categoryID) {
			return b, nil
		}
	}
	return core.Budget{}, store.ErrNotFound
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudgetAmount(_ context.Context, userID, id string, amount int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, store.ErrNotFound
	}
	if amount < 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	b.Amount = amount
	s.budgets[id] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// UploadReceipt keeps the bytes in memory and returns a synthetic URL.
func (s *Store) UploadReceipt(_ context.Context, userID, ext, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := fmt.Sprintf("%s/%d.%s", userID, time.Now().UnixNano(), ext)
	s.receipts[path] = append([]byte(nil), data...)
	return "mem://receipts/" + path, nil
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
