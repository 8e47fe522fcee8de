package worker

import (
	"context"
	"errors"
	"testing"

	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/store/memory"
)

type fakeLedger struct {
	appended int
	lastTx   core.Transaction
	lastN    int
	err      error
}

func (f *fakeLedger) AppendTransaction(_ context.Context, t core.Transaction, items []core.TransactionItem) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended++
	f.lastTx = t
	f.lastN = len(items)
	return "Ledger!A1:G2", nil
}

func TestHandleExportMessage(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	tx, _ := mem.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 10), Place: "이마트", TotalAmount: 3900,
	})
	mem.CreateItems(ctx, tx.ID, []core.TransactionItem{
		{ProductName: "우유", Quantity: 3, UnitPrice: 1300, TotalPrice: 3900},
	})

	ledger := &fakeLedger{}
	w := NewExportWorker(mem, ledger)

	if err := w.HandleExportMessage(ctx, amqp.NewExportMessage(tx.ID, "u1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ledger.appended != 1 || ledger.lastTx.ID != tx.ID || ledger.lastN != 1 {
		t.Errorf("ledger = %+v", ledger)
	}
}

func TestHandleExportMessageMissingTransactionIsSkipped(t *testing.T) {
	ledger := &fakeLedger{}
	w := NewExportWorker(memory.New(), ledger)

	err := w.HandleExportMessage(context.Background(), amqp.NewExportMessage("no-such-id", "u1"))
	if err != nil {
		t.Fatalf("missing transaction should not error: %v", err)
	}
	if ledger.appended != 0 {
		t.Error("nothing should be exported")
	}
}

func TestHandleExportMessageLedgerFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	tx, _ := mem.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 10), Place: "GS25", TotalAmount: 1500,
	})

	ledger := &fakeLedger{err: errors.New("quota exceeded")}
	w := NewExportWorker(mem, ledger)

	if err := w.HandleExportMessage(ctx, amqp.NewExportMessage(tx.ID, "u1")); err == nil {
		t.Fatal("ledger failure should propagate so the message is requeued")
	}
}
