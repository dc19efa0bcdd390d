package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/models"
)

func (s *PostgresStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	// clock_timestamp(), not CURRENT_TIMESTAMP: per-account timestamps must be
	// non-decreasing in append order even when the writing transaction spent
	// time waiting on the account row lock.
	query := `INSERT INTO transactions (id, account_id, type, amount, balance_after, description, related_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
		RETURNING created_at`

	err := s.q.QueryRowContext(ctx, query,
		transaction.ID,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount,
		transaction.BalanceAfter,
		transaction.Description,
		transaction.RelatedAccountID,
	).Scan(&transaction.CreatedAt)

	if err != nil {
		return storeError("create transaction", err)
	}
	return nil
}

func (s *PostgresStore) ListTransactionsByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	query := `SELECT id, account_id, type, amount, balance_after, description, related_account_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC`
	return s.listTransactions(ctx, query, accountID)
}

func (s *PostgresStore) ListRecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	query := `SELECT id, account_id, type, amount, balance_after, description, related_account_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2`
	return s.listTransactions(ctx, query, accountID, limit)
}

func (s *PostgresStore) listTransactions(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		transaction := &models.Transaction{}
		err := rows.Scan(
			&transaction.ID,
			&transaction.AccountID,
			&transaction.Type,
			&transaction.Amount,
			&transaction.BalanceAfter,
			&transaction.Description,
			&transaction.RelatedAccountID,
			&transaction.CreatedAt,
		)
		if err != nil {
			return nil, storeError("scan transaction", err)
		}
		transactions = append(transactions, transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("list transactions", err)
	}
	return transactions, nil
}
