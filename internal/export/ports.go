// Package export defines the outbound port for exporting confirmed
// transactions to an external ledger.
package export

import (
	"context"

	"gagyebu/internal/core"
)

// LedgerWriter appends a transaction and its items to the ledger and
// returns a reference to the written range.
type LedgerWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction, items []core.TransactionItem) (rowRef string, err error)
}
