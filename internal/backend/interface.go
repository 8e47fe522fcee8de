// Package backend selects and wires a persistence backend at startup.
package backend

import (
	"context"

	"gagyebu/internal/store"
)

// Type names a persistence backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	SupabaseBackend Type = "supabase"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, SupabaseBackend:
		return true
	}
	return false
}

// Result is a wired backend. Receipts is nil when the backend has no image
// storage; /api/ocr then returns candidates without a stored receipt URL.
type Result struct {
	Store    store.Store
	Receipts store.ReceiptStore
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
