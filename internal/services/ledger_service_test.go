package services

import (
	"context"
	"testing"

	"gagyebu/internal/core"
	"gagyebu/internal/store/memory"
)

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) PublishExport(_ context.Context, transactionID, _ string) error {
	f.published = append(f.published, transactionID)
	return nil
}

func TestCreateTransactionRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	pub := &fakePublisher{}
	svc := NewLedgerService(mem, pub)

	got, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID:      "u1",
		Date:        core.NewDate(2025, 3, 10),
		Place:       "이마트",
		TotalAmount: 99999, // caller-supplied total is ignored
	}, []core.TransactionItem{
		{ProductName: "우유", Quantity: 2, UnitPrice: 1300},
		{ProductName: "식빵", Quantity: 1, UnitPrice: 2600},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Transaction.TotalAmount != 5200 {
		t.Errorf("total = %d, want 5200", got.Transaction.TotalAmount)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d", len(got.Items))
	}
	for _, item := range got.Items {
		if item.TotalPrice != item.Quantity*item.UnitPrice {
			t.Errorf("item %s total = %d", item.ProductName, item.TotalPrice)
		}
	}
	if len(pub.published) != 1 || pub.published[0] != got.Transaction.ID {
		t.Errorf("published = %v", pub.published)
	}
}

func TestCreateTransactionRollsBackOnItemFailure(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.FailItems = true
	svc := NewLedgerService(mem, nil)

	_, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 10), Place: "GS25",
	}, []core.TransactionItem{
		{ProductName: "삼각김밥", Quantity: 1, UnitPrice: 1500},
	})
	if err == nil {
		t.Fatal("expected item write failure")
	}

	mem.FailItems = false
	txs, _ := svc.ListTransactions(ctx, "u1", core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31))
	if len(txs) != 0 {
		t.Errorf("transaction row survived failed item write: %d", len(txs))
	}
}

func TestCreateTransactionRejectsEmptyItems(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil)
	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 10), Place: "GS25",
	}, nil)
	if err == nil {
		t.Fatal("expected error for empty items")
	}
}

func TestUpsertBudget(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil)
	start := core.NewDate(2025, 3, 1)

	first, err := svc.UpsertBudget(ctx, core.Budget{
		UserID: "u1", PeriodType: core.Monthly, StartDate: start, Amount: 100000,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := svc.UpsertBudget(ctx, core.Budget{
		UserID: "u1", PeriodType: core.Monthly, StartDate: start, Amount: 150000,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a second budget for the same slot")
	}
	if second.Amount != 150000 {
		t.Errorf("amount = %d, want 150000", second.Amount)
	}

	budgets, _ := svc.ListBudgets(ctx, "u1")
	if len(budgets) != 1 {
		t.Errorf("budgets = %d, want 1", len(budgets))
	}

	// A category-scoped budget for the same window is its own slot.
	cat := "c1"
	third, err := svc.UpsertBudget(ctx, core.Budget{
		UserID: "u1", PeriodType: core.Monthly, StartDate: start, CategoryID: &cat, Amount: 30000,
	})
	if err != nil {
		t.Fatalf("category upsert: %v", err)
	}
	if third.ID == first.ID {
		t.Error("category budget should not collide with the whole-period slot")
	}
}

func TestListTransactionsAttachesItems(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil)
	created, err := svc.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 10), Place: "이마트",
	}, []core.TransactionItem{{ProductName: "우유", Quantity: 1, UnitPrice: 1300}})
	if err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListTransactions(ctx, "u1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || len(list[0].Items) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Transaction.ID != created.Transaction.ID {
		t.Error("wrong transaction returned")
	}
}
