package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

const customerColumns = `id, first_name, last_name, email, phone, address, date_of_birth, created_at, updated_at`

func (s *PostgresStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}

	query := `INSERT INTO customers (id, first_name, last_name, email, phone, address, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`

	err := s.q.QueryRowContext(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.DateOfBirth,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return errors.NewDuplicateEmail(customer.Email)
		}
		return storeError("create customer", err)
	}
	return nil
}

func (s *PostgresStore) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return s.scanCustomer(s.q.QueryRowContext(ctx, query, id), id)
}

func (s *PostgresStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return s.scanCustomer(s.q.QueryRowContext(ctx, query, email), email)
}

func (s *PostgresStore) scanCustomer(row *sql.Row, ref string) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.DateOfBirth,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCustomerNotFound(ref)
		}
		return nil, storeError("get customer", err)
	}
	return customer, nil
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `UPDATE customers
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, date_of_birth = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7`

	result, err := s.q.ExecContext(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.DateOfBirth,
		customer.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return errors.NewDuplicateEmail(customer.Email)
		}
		return storeError("update customer", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("update customer", fmt.Errorf("rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return errors.NewCustomerNotFound(customer.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteCustomer(ctx context.Context, id string) error {
	query := `DELETE FROM customers WHERE id = $1`

	result, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return storeError("delete customer", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("delete customer", fmt.Errorf("rows affected: %w", err))
	}
	if rowsAffected == 0 {
		return errors.NewCustomerNotFound(id)
	}
	return nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("list customers", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		err := rows.Scan(
			&customer.ID,
			&customer.FirstName,
			&customer.LastName,
			&customer.Email,
			&customer.Phone,
			&customer.Address,
			&customer.DateOfBirth,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		)
		if err != nil {
			return nil, storeError("scan customer", err)
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("list customers", err)
	}
	return customers, nil
}
