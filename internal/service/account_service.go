package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// AccountService is the account registry: it gates account creation on
// customer existence and number uniqueness, and owns status transitions.
type AccountService interface {
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	GetCustomerAccounts(ctx context.Context, customerID string) ([]*models.Account, error)
	GetBalance(ctx context.Context, id string) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error
	CloseAccount(ctx context.Context, id string) error
}

type AccountServiceImpl struct {
	store  repository.Store
	logger *slog.Logger
}

func NewAccountService(store repository.Store, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *AccountServiceImpl) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if err := s.validateCreateRequest(req); err != nil {
		s.logger.Warn("invalid create account request",
			"account_number", req.AccountNumber,
			"error", err.Error(),
		)
		return nil, err
	}

	account := &models.Account{
		CustomerID:    req.CustomerID,
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
		Balance:       decimal.Zero,
		Status:        models.AccountStatusActive,
	}

	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		if _, err := tx.GetCustomerByID(ctx, req.CustomerID); err != nil {
			return err
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}

		newValue, err := json.Marshal(models.AccountBalanceSnapshot{ID: account.ID, Balance: account.Balance})
		if err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &models.AuditLog{
			EntityType: models.EntityTypeAccount,
			EntityID:   account.ID,
			Action:     models.AuditActionCreate,
			NewValue:   newValue,
		})
	})
	if err != nil {
		if errors.IsStoreError(err) {
			s.logger.Error("failed to create account",
				"account_number", req.AccountNumber,
				"error", err.Error(),
			)
		} else {
			s.logger.Warn("create account rejected",
				"account_number", req.AccountNumber,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("account created successfully",
		"account_id", account.ID,
		"account_number", account.AccountNumber,
		"customer_id", account.CustomerID,
	)
	return account, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if id == "" {
		return nil, errors.NewInvalidField("id", "must be non-empty")
	}
	return s.store.GetAccountByID(ctx, id)
}

func (s *AccountServiceImpl) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	if number == "" {
		return nil, errors.NewInvalidField("account_number", "must be non-empty")
	}
	return s.store.GetAccountByNumber(ctx, number)
}

func (s *AccountServiceImpl) GetCustomerAccounts(ctx context.Context, customerID string) ([]*models.Account, error) {
	if _, err := s.store.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.ListAccountsByCustomer(ctx, customerID)
}

func (s *AccountServiceImpl) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// UpdateStatus applies an administrative status transition. CLOSED is
// terminal: once an account is closed its status cannot change again.
func (s *AccountServiceImpl) UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error {
	if !status.Valid() {
		return errors.NewInvalidField("status", "must be one of ACTIVE, INACTIVE, CLOSED")
	}

	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		account, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if account.Status == models.AccountStatusClosed {
			return errors.NewAccountClosed(account.ID)
		}
		if account.Status == status {
			return nil
		}
		if err := tx.UpdateAccountStatus(ctx, account.ID, status); err != nil {
			return err
		}

		oldValue, err := json.Marshal(map[string]string{"id": account.ID, "status": string(account.Status)})
		if err != nil {
			return err
		}
		newValue, err := json.Marshal(map[string]string{"id": account.ID, "status": string(status)})
		if err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &models.AuditLog{
			EntityType: models.EntityTypeAccount,
			EntityID:   account.ID,
			Action:     models.AuditActionUpdate,
			OldValue:   oldValue,
			NewValue:   newValue,
		})
	})
	if err != nil {
		s.logger.Warn("account status update failed",
			"account_id", id,
			"status", string(status),
			"error", err.Error(),
		)
		return err
	}

	s.logger.Info("account status updated",
		"account_id", id,
		"status", string(status),
	)
	return nil
}

func (s *AccountServiceImpl) CloseAccount(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, models.AccountStatusClosed)
}

func (s *AccountServiceImpl) validateCreateRequest(req *models.CreateAccountRequest) error {
	if req.CustomerID == "" {
		return errors.NewInvalidField("customer_id", "must be non-empty")
	}
	if req.AccountNumber == "" {
		return errors.NewInvalidField("account_number", "must be non-empty")
	}
	if !req.AccountType.Valid() {
		return errors.NewInvalidField("account_type", "must be one of SAVINGS, CURRENT, FIXED_DEPOSIT")
	}
	return nil
}
