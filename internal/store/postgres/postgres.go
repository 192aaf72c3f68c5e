// Package postgres implements the store contract over database/sql. Every
// sub-store works against a querier, which both *sql.DB and *sql.Tx satisfy,
// so the same code serves reads outside and inside a unit of work.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tobenna/bankcore/internal/store"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Accounts() store.AccountStore         { return &accountStore{q: s.db} }
func (s *Store) Transactions() store.TransactionStore { return &transactionStore{q: s.db} }
func (s *Store) Directory() store.DirectoryStore      { return &directoryStore{q: s.db} }

// WithinTx runs fn inside a database transaction. The lock coordinator
// already serializes writers per account, so the default isolation level is
// enough; the transaction only has to make the grouped writes atomic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, txView{q: dbTx}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

type txView struct {
	q *sql.Tx
}

func (v txView) Accounts() store.AccountStore         { return &accountStore{q: v.q} }
func (v txView) Transactions() store.TransactionStore { return &transactionStore{q: v.q} }
func (v txView) Directory() store.DirectoryStore      { return &directoryStore{q: v.q} }
