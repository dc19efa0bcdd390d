package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/models"
)

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	// GetAccountForUpdate locks the account row for the duration of the
	// enclosing atomic scope. Only meaningful inside RunAtomic.
	GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error)
	UpdateAccountBalance(ctx context.Context, id string, newBalance decimal.Decimal) error
	UpdateAccountStatus(ctx context.Context, id string, status models.AccountStatus) error
	ListAccountsByCustomer(ctx context.Context, customerID string) ([]*models.Account, error)
	CountAccountsByCustomer(ctx context.Context, customerID string) (int, error)
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error)
	ListRecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)
}

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogsByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error)
}

// Store is the ledger store consumed by the services: the four record
// repositories plus the atomic unit-of-work. The Store passed to the RunAtomic
// callback is bound to the unit; every write made through it commits fully or
// not at all.
type Store interface {
	CustomerRepository
	AccountRepository
	TransactionRepository
	AuditRepository
	RunAtomic(ctx context.Context, fn func(tx Store) error) error
}
