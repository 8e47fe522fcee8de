// Package sqlite is the embedded single-file backend. It is the default for
// self-hosted deployments that do not want a hosted Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gagyebu/internal/core"
	"gagyebu/internal/store"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
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

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, place, total_amount, receipt_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Date.String(), t.Place, t.TotalAmount, t.ReceiptURL, t.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, place, total_amount, receipt_url, created_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, place, total_amount, receipt_url, created_at
		 FROM transactions
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, created_at DESC`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateItems inserts all items in one database transaction so a partial
// batch never persists.
func (r *Repository) CreateItems(ctx context.Context, transactionID string, items []core.TransactionItem) ([]core.TransactionItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	out := make([]core.TransactionItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.ID = uuid.NewString()
		item.TransactionID = transactionID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_items (id, transaction_id, product_name, quantity, unit_price, total_price, category_id, is_manual_entry)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.TransactionID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice, item.CategoryID, item.IsManualEntry)
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		out = append(out, item)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit items: %w", err)
	}
	return out, nil
}

func (r *Repository) ListItemsByTransaction(ctx context.Context, transactionID string) ([]core.TransactionItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, transaction_id, product_name, quantity, unit_price, total_price, category_id, is_manual_entry
		 FROM transaction_items WHERE transaction_id = ? ORDER BY id`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *Repository) ListItemsInRange(ctx context.Context, userID string, from, to core.Date) ([]core.TransactionItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.transaction_id, i.product_name, i.quantity, i.unit_price, i.total_price, i.category_id, i.is_manual_entry
		 FROM transaction_items i
		 JOIN transactions t ON t.id = i.transaction_id
		 WHERE t.user_id = ? AND t.date >= ? AND t.date <= ?
		 ORDER BY i.id`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list items in range: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *Repository) UpdateItemCategory(ctx context.Context, userID, itemID string, categoryID *string) (core.TransactionItem, error) {
	if categoryID != nil {
		var exists int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM categories WHERE id = ? AND user_id = ?`, *categoryID, userID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return core.TransactionItem{}, store.ErrNotFound
		}
		if err != nil {
			return core.TransactionItem{}, fmt.Errorf("check category: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transaction_items SET category_id = ?
		 WHERE id = ? AND transaction_id IN (SELECT id FROM transactions WHERE user_id = ?)`,
		categoryID, itemID, userID)
	if err != nil {
		return core.TransactionItem{}, fmt.Errorf("update item category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.TransactionItem{}, store.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, transaction_id, product_name, quantity, unit_price, total_price, category_id, is_manual_entry
		 FROM transaction_items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if err != nil {
		return core.TransactionItem{}, fmt.Errorf("reload item: %w", err)
	}
	return item, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name) VALUES (?, ?, ?)`,
		c.ID, c.UserID, c.Name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Category{}, store.ErrDuplicateCategory
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, period_type, start_date, category_id, amount
		 FROM budgets WHERE user_id = ? ORDER BY start_date DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) FindBudget(ctx context.Context, userID string, periodType core.PeriodType, startDate core.Date, categoryID *string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, period_type, start_date, category_id, amount
		 FROM budgets
		 WHERE user_id = ? AND period_type = ? AND start_date = ? AND IFNULL(category_id, '') = IFNULL(?, '')`,
		userID, string(periodType), startDate.String(), categoryID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, store.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, period_type, start_date, category_id, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, string(b.PeriodType), b.StartDate.String(), b.CategoryID, b.Amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudgetAmount(ctx context.Context, userID, id string, amount int64) (core.Budget, error) {
	if amount < 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET amount = ? WHERE id = ? AND user_id = ?`, amount, id, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Budget{}, store.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, period_type, start_date, category_id, amount FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("reload budget: %w", err)
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		date    string
		created string
	)
	if err := s.Scan(&t.ID, &t.UserID, &date, &t.Place, &t.TotalAmount, &t.ReceiptURL, &created); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.Date = d
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

func scanItem(s scanner) (core.TransactionItem, error) {
	var (
		i   core.TransactionItem
		cat sql.NullString
	)
	if err := s.Scan(&i.ID, &i.TransactionID, &i.ProductName, &i.Quantity, &i.UnitPrice, &i.TotalPrice, &cat, &i.IsManualEntry); err != nil {
		return core.TransactionItem{}, err
	}
	if cat.Valid {
		i.CategoryID = &cat.String
	}
	return i, nil
}

func collectItems(rows *sql.Rows) ([]core.TransactionItem, error) {
	var out []core.TransactionItem
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b      core.Budget
		period string
		start  string
		cat    sql.NullString
	)
	if err := s.Scan(&b.ID, &b.UserID, &period, &start, &cat, &b.Amount); err != nil {
		return core.Budget{}, err
	}
	b.PeriodType = core.PeriodType(period)
	d, err := core.ParseDate(start)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	b.StartDate = d
	if cat.Valid {
		b.CategoryID = &cat.String
	}
	return b, nil
}
