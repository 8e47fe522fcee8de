// Package worker runs the background export consumer.
package worker

import (
	"context"
	"errors"
	"fmt"

	"gagyebu/internal/amqp"
	"gagyebu/internal/export"
	applog "gagyebu/internal/log"
	"gagyebu/internal/store"
)

// ExportWorker moves confirmed transactions from the store into the
// external ledger, one AMQP message at a time.
type ExportWorker struct {
	store  store.Store
	ledger export.LedgerWriter
	logger *applog.Logger
}

func NewExportWorker(s store.Store, ledger export.LedgerWriter) *ExportWorker {
	return &ExportWorker{
		store:  s,
		ledger: ledger,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker),
	}
}

// HandleExportMessage loads the transaction named by the message and
// appends it to the ledger. A transaction deleted between publish and
// consume is acked and skipped, not retried.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	w.logger.InfoContext(ctx, "processing export message",
		applog.FieldTransactionID, msg.TransactionID,
		applog.FieldUserID, msg.UserID)

	t, err := w.store.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.logger.WarnContext(ctx, "transaction gone before export, skipping",
				applog.FieldTransactionID, msg.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction: %w", err)
	}

	items, err := w.store.ListItemsByTransaction(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	ref, err := w.ledger.AppendTransaction(ctx, t, items)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpExport).
		WithTransaction(t.ID, t.UserID, t.Place, t.TotalAmount, len(items))
	fields[applog.FieldLedgerRef] = ref
	w.logger.InfoContext(ctx, "transaction exported", fields.ToSlice()...)
	return nil
}
