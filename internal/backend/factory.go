package backend

import (
	"context"
	"fmt"

	applog "gagyebu/internal/log"
	"gagyebu/internal/store/memory"
	"gagyebu/internal/store/sqlite"
	"gagyebu/internal/store/supabase"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SupabaseBackend:
		return f.createSupabaseBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
	}

	f.logger.Info("initialized sqlite backend", "db_path", config.SQLiteDBPath)

	// SQLite has no image storage; receipt uploads are skipped.
	return &Result{Store: repo}, nil
}

func (f *DefaultFactory) createSupabaseBackend(config Config) (*Result, error) {
	repo, err := supabase.New(config.SupabaseURL, config.SupabaseKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize supabase store: %w", err)
	}

	f.logger.Info("initialized supabase backend", "url", config.SupabaseURL)

	return &Result{Store: repo, Receipts: repo}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	st := memory.New()

	f.logger.Info("initialized memory backend")

	return &Result{Store: st, Receipts: st}, nil
}
