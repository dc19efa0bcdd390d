package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

const accountColumns = `id, customer_id, account_number, account_type, balance, status, created_at, updated_at`

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	query := `INSERT INTO accounts (id, customer_id, account_number, account_type, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`

	err := s.q.QueryRowContext(ctx, query,
		account.ID,
		account.CustomerID,
		account.AccountNumber,
		account.AccountType,
		account.Balance,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "accounts_account_number_key") {
			return errors.NewDuplicateAccountNumber(account.AccountNumber)
		}
		return storeError("create account", err)
	}
	return nil
}

func (s *PostgresStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanAccount(s.q.QueryRowContext(ctx, query, id), id)
}

func (s *PostgresStore) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return s.scanAccount(s.q.QueryRowContext(ctx, query, number), number)
}

func (s *PostgresStore) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return s.scanAccount(s.q.QueryRowContext(ctx, query, id), id)
}

func (s *PostgresStore) scanAccount(row *sql.Row, ref string) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.CustomerID,
		&account.AccountNumber,
		&account.AccountType,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewAccountNotFound(ref)
		}
		return nil, storeError("get account", err)
	}
	return account, nil
}

func (s *PostgresStore) UpdateAccountBalance(ctx context.Context, id string, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := s.q.ExecContext(ctx, query, newBalance, id)
	if err != nil {
		return storeError("update account balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("update account balance", fmt.Errorf("rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return errors.NewAccountNotFound(id)
	}
	return nil
}

func (s *PostgresStore) UpdateAccountStatus(ctx context.Context, id string, status models.AccountStatus) error {
	query := `UPDATE accounts SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := s.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return storeError("update account status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("update account status", fmt.Errorf("rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return errors.NewAccountNotFound(id)
	}
	return nil
}

func (s *PostgresStore) ListAccountsByCustomer(ctx context.Context, customerID string) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY created_at`

	rows, err := s.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, storeError("list accounts by customer", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		err := rows.Scan(
			&account.ID,
			&account.CustomerID,
			&account.AccountNumber,
			&account.AccountType,
			&account.Balance,
			&account.Status,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, storeError("scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("list accounts by customer", err)
	}
	return accounts, nil
}

func (s *PostgresStore) CountAccountsByCustomer(ctx context.Context, customerID string) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE customer_id = $1`

	var count int
	if err := s.q.QueryRowContext(ctx, query, customerID).Scan(&count); err != nil {
		return 0, storeError("count accounts by customer", err)
	}
	return count, nil
}
