package memory

import (
	"context"
	"errors"
	"testing"

	"gagyebu/internal/core"
	"gagyebu/internal/store"
)

func newTx(user string, date core.Date) core.Transaction {
	return core.Transaction{UserID: user, Date: date, Place: "이마트", TotalAmount: 5000}
}

func TestTransactionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, newTx("u1", core.NewDate(2025, 3, 10)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated id")
	}

	items, err := s.CreateItems(ctx, tx.ID, []core.TransactionItem{
		{ProductName: "우유", Quantity: 2, UnitPrice: 1300, TotalPrice: 2600},
		{ProductName: "식빵", Quantity: 1, UnitPrice: 2400, TotalPrice: 2400},
	})
	if err != nil {
		t.Fatalf("create items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}

	got, err := s.ListItemsByTransaction(ctx, tx.ID)
	if err != nil || len(got) != 2 {
		t.Fatalf("list items: %v, %d", err, len(got))
	}

	if err := s.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = s.ListItemsByTransaction(ctx, tx.ID)
	if len(got) != 0 {
		t.Errorf("items survived transaction delete: %d", len(got))
	}
}

func TestOwnershipIsNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.CreateTransaction(ctx, newTx("u1", core.NewDate(2025, 3, 10)))

	if _, err := s.GetTransaction(ctx, "u2", tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user get: %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "u2", tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user delete: %v, want ErrNotFound", err)
	}
}

func TestListTransactionsRangeAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, d := range []core.Date{
		core.NewDate(2025, 3, 1),
		core.NewDate(2025, 3, 15),
		core.NewDate(2025, 4, 1),
	} {
		if _, err := s.CreateTransaction(ctx, newTx("u1", d)); err != nil {
			t.Fatal(err)
		}
	}
	s.CreateTransaction(ctx, newTx("other", core.NewDate(2025, 3, 15)))

	got, err := s.ListTransactions(ctx, "u1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("transactions = %d, want 2", len(got))
	}
	if got[0].Date.Before(got[1].Date) {
		t.Error("expected newest first")
	}
}

func TestItemsInRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	in, _ := s.CreateTransaction(ctx, newTx("u1", core.NewDate(2025, 3, 10)))
	out, _ := s.CreateTransaction(ctx, newTx("u1", core.NewDate(2025, 4, 10)))
	s.CreateItems(ctx, in.ID, []core.TransactionItem{{ProductName: "우유", Quantity: 1, UnitPrice: 1300, TotalPrice: 1300}})
	s.CreateItems(ctx, out.ID, []core.TransactionItem{{ProductName: "계란", Quantity: 1, UnitPrice: 6000, TotalPrice: 6000}})

	items, err := s.ListItemsInRange(ctx, "u1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ProductName != "우유" {
		t.Errorf("items = %+v", items)
	}
}

func TestUpdateItemCategory(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.CreateTransaction(ctx, newTx("u1", core.NewDate(2025, 3, 10)))
	items, _ := s.CreateItems(ctx, tx.ID, []core.TransactionItem{{ProductName: "우유", Quantity: 1, UnitPrice: 1300, TotalPrice: 1300}})
	cat, err := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "식비"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateItemCategory(ctx, "u1", items[0].ID, &cat.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != cat.ID {
		t.Errorf("category = %v", updated.CategoryID)
	}

	updated, err = s.UpdateItemCategory(ctx, "u1", items[0].ID, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if updated.CategoryID != nil {
		t.Error("category not cleared")
	}

	ghost := "no-such-category"
	if _, err := s.UpdateItemCategory(ctx, "u1", items[0].ID, &ghost); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown category: %v, want ErrNotFound", err)
	}
}

func TestCategoryNameUniquePerUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "식비"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{UserID: "u1", Name: "식비"}); !errors.Is(err, store.ErrDuplicateCategory) {
		t.Errorf("duplicate: %v, want ErrDuplicateCategory", err)
	}
	// Same name under another user is fine.
	if _, err := s.CreateCategory(ctx, core.Category{UserID: "u2", Name: "식비"}); err != nil {
		t.Errorf("other user: %v", err)
	}
}

func TestBudgetSlotFindAndUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	start := core.NewDate(2025, 3, 1)

	b, err := s.CreateBudget(ctx, core.Budget{UserID: "u1", PeriodType: core.Monthly, StartDate: start, Amount: 100000})
	if err != nil {
		t.Fatal(err)
	}

	found, err := s.FindBudget(ctx, "u1", core.Monthly, start, nil)
	if err != nil || found.ID != b.ID {
		t.Fatalf("find: %v, %+v", err, found)
	}

	cat := "c1"
	if _, err := s.FindBudget(ctx, "u1", core.Monthly, start, &cat); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("category slot should be empty: %v", err)
	}

	updated, err := s.UpdateBudgetAmount(ctx, "u1", b.ID, 150000)
	if err != nil || updated.Amount != 150000 {
		t.Fatalf("update: %v, %+v", err, updated)
	}
}
