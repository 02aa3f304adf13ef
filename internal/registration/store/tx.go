package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	txcontext "confreg/pkg/platform/tx"
)

// SQLTransactor runs a unit of work inside one database transaction. Stores
// reached through the returned context join that transaction via
// pkg/platform/tx, so a status update and its history row commit or roll back
// together.
type SQLTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

func (t *SQLTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: join it, the outermost caller commits.
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InMemoryTransactor is the transactional boundary for the in-memory stores:
// a coarse lock serializing units of work. In-memory writes are not rolled
// back on failure; the memory stores back development and tests only.
type InMemoryTransactor struct {
	mu sync.Mutex
}

func NewInMemoryTransactor() *InMemoryTransactor {
	return &InMemoryTransactor{}
}

func (t *InMemoryTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
