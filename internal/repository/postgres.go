package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/riteshkumar/bank-ledger/internal/errors"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore implements Store on a Postgres database. Outside RunAtomic it
// runs statements on the connection pool; inside, on the scope's transaction.
type PostgresStore struct {
	db *sql.DB
	q  querier
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// RunAtomic executes fn against a serializable transaction. A nested call
// joins the enclosing scope rather than opening a second transaction.
func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.NewStoreError("begin", err)
	}

	// Ensure rollback on error
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	bound := &PostgresStore{q: tx}
	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit", err)
	}

	// Nullify tx to avoid rollback in defer
	tx = nil
	return nil
}

// storeError wraps a driver failure, flagging serialization conflicts and
// deadlocks as retryable.
func storeError(operation string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01":
			return errors.NewRetryableStoreError(operation, err)
		}
	}
	return errors.NewStoreError(operation, err)
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505" && pqErr.Constraint == constraint
}
