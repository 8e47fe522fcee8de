// Package supabase is the hosted-Postgres backend. It talks PostgREST for
// rows and Supabase Storage for receipt images.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"gagyebu/internal/core"
	"gagyebu/internal/store"
)

// ReceiptBucket is the storage bucket receipt images are uploaded to.
const ReceiptBucket = "receipts"

type Repository struct {
	client *supabase.Client
}

func New(url, key string) (*Repository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close satisfies store.Store; the underlying client is plain HTTP.
func (r *Repository) Close() error { return nil }

func (r *Repository) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	data, _, err := r.client.From("transactions").Insert(t, false, "", "representation", "").Execute()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	var created []core.Transaction
	if err := json.Unmarshal(data, &created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse inserted transaction: %w", err)
	}
	if len(created) == 0 {
		return core.Transaction{}, errors.New("insert transaction: empty response")
	}
	return created[0], nil
}

func (r *Repository) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	data, _, err := r.client.From("transactions").
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	var rows []core.Transaction
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction: %w", err)
	}
	if len(rows) == 0 {
		return core.Transaction{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (r *Repository) ListTransactions(_ context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	data, _, err := r.client.From("transactions").
		Select("*", "", false).
		Eq("user_id", userID).
		Gte("date", from.String()).
		Lte("date", to.String()).
		Order("date.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var rows []core.Transaction
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	return rows, nil
}

func (r *Repository) DeleteTransaction(_ context.Context, userID, id string) error {
	data, _, err := r.client.From("transactions").
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	var rows []core.Transaction
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateItems(_ context.Context, transactionID string, items []core.TransactionItem) ([]core.TransactionItem, error) {
	payload := make([]core.TransactionItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.ID = ""
		item.TransactionID = transactionID
		payload = append(payload, item)
	}
	data, _, err := r.client.From("transaction_items").Insert(payload, false, "", "representation", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}
	var created []core.TransactionItem
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("parse inserted items: %w", err)
	}
	return created, nil
}

func (r *Repository) ListItemsByTransaction(_ context.Context, transactionID string) ([]core.TransactionItem, error) {
	data, _, err := r.client.From("transaction_items").
		Select("*", "", false).
		Eq("transaction_id", transactionID).
		Order("id.asc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var rows []core.TransactionItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	return rows, nil
}

// ListItemsInRange filters through the owning transaction with an inner
// embed, the PostgREST way of expressing the join.
func (r *Repository) ListItemsInRange(_ context.Context, userID string, from, to core.Date) ([]core.TransactionItem, error) {
	data, _, err := r.client.From("transaction_items").
		Select("*, transactions!inner(user_id, date)", "", false).
		Eq("transactions.user_id", userID).
		Gte("transactions.date", from.String()).
		Lte("transactions.date", to.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list items in range: %w", err)
	}
	var rows []core.TransactionItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	return rows, nil
}

func (r *Repository) UpdateItemCategory(ctx context.Context, userID, itemID string, categoryID *string) (core.TransactionItem, error) {
	// PostgREST cannot join-filter an update, so verify ownership first.
	owned, err := r.itemOwnedBy(userID, itemID)
	if err != nil {
		return core.TransactionItem{}, err
	}
	if !owned {
		return core.TransactionItem{}, store.ErrNotFound
	}
	if categoryID != nil {
		if _, err := r.categoryOwnedBy(userID, *categoryID); err != nil {
			return core.TransactionItem{}, err
		}
	}

	patch := map[string]*string{"category_id": categoryID}
	data, _, err := r.client.From("transaction_items").
		Update(patch, "representation", "").
		Eq("id", itemID).
		Execute()
	if err != nil {
		return core.TransactionItem{}, fmt.Errorf("update item category: %w", err)
	}
	var rows []core.TransactionItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.TransactionItem{}, fmt.Errorf("parse updated item: %w", err)
	}
	if len(rows) == 0 {
		return core.TransactionItem{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (r *Repository) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	data, _, err := r.client.From("categories").
		Select("*", "", false).
		Eq("user_id", userID).
		Order("name.asc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var rows []core.Category
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	return rows, nil
}

func (r *Repository) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	data, _, err := r.client.From("categories").Insert(c, false, "", "representation", "").Execute()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return core.Category{}, store.ErrDuplicateCategory
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	var created []core.Category
	if err := json.Unmarshal(data, &created); err != nil {
		return core.Category{}, fmt.Errorf("parse inserted category: %w", err)
	}
	if len(created) == 0 {
		return core.Category{}, errors.New("insert category: empty response")
	}
	return created[0], nil
}

func (r *Repository) DeleteCategory(_ context.Context, userID, id string) error {
	data, _, err := r.client.From("categories").
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	var rows []core.Category
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	data, _, err := r.client.From("budgets").
		Select("*", "", false).
		Eq("user_id", userID).
		Order("start_date.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	var rows []core.Budget
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse budgets: %w", err)
	}
	return rows, nil
}

func (r *Repository) FindBudget(_ context.Context, userID string, periodType core.PeriodType, startDate core.Date, categoryID *string) (core.Budget, error) {
	query := r.client.From("budgets").
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("period_type", string(periodType)).
		Eq("start_date", startDate.String())
	if categoryID == nil {
		query = query.Is("category_id", "null")
	} else {
		query = query.Eq("category_id", *categoryID)
	}
	data, _, err := query.Execute()
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	var rows []core.Budget
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Budget{}, fmt.Errorf("parse budgets: %w", err)
	}
	if len(rows) == 0 {
		return core.Budget{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (r *Repository) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	data, _, err := r.client.From("budgets").Insert(b, false, "", "representation", "").Execute()
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	var created []core.Budget
	if err := json.Unmarshal(data, &created); err != nil {
		return core.Budget{}, fmt.Errorf("parse inserted budget: %w", err)
	}
	if len(created) == 0 {
		return core.Budget{}, errors.New("insert budget: empty response")
	}
	return created[0], nil
}

func (r *Repository) UpdateBudgetAmount(_ context.Context, userID, id string, amount int64) (core.Budget, error) {
	if amount < 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	data, _, err := r.client.From("budgets").
		Update(map[string]int64{"amount": amount}, "representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	var rows []core.Budget
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Budget{}, fmt.Errorf("parse updated budget: %w", err)
	}
	if len(rows) == 0 {
		return core.Budget{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (r *Repository) DeleteBudget(_ context.Context, userID, id string) error {
	data, _, err := r.client.From("budgets").
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	var rows []core.Budget
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UploadReceipt stores the image under {userID}/{timestamp}.{ext} and
// returns the public URL.
func (r *Repository) UploadReceipt(_ context.Context, userID, ext, contentType string, data []byte) (string, error) {
	path := fmt.Sprintf("%s/%d.%s", userID, time.Now().UnixMilli(), ext)
	_, err := r.client.Storage.UploadFile(ReceiptBucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	resp := r.client.Storage.GetPublicUrl(ReceiptBucket, path)
	return resp.SignedURL, nil
}

func (r *Repository) itemOwnedBy(userID, itemID string) (bool, error) {
	data, _, err := r.client.From("transaction_items").
		Select("id, transactions!inner(user_id)", "", false).
		Eq("id", itemID).
		Eq("transactions.user_id", userID).
		Execute()
	if err != nil {
		return false, fmt.Errorf("check item ownership: %w", err)
	}
	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("parse ownership check: %w", err)
	}
	return len(rows) > 0, nil
}

func (r *Repository) categoryOwnedBy(userID, categoryID string) (core.Category, error) {
	data, _, err := r.client.From("categories").
		Select("*", "", false).
		Eq("id", categoryID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Category{}, fmt.Errorf("check category: %w", err)
	}
	var rows []core.Category
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Category{}, fmt.Errorf("parse category: %w", err)
	}
	if len(rows) == 0 {
		return core.Category{}, store.ErrNotFound
	}
	return rows[0], nil
}
