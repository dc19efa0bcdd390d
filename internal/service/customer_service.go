package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

const dateOfBirthLayout = "2006-01-02"

// CustomerService is the customer directory: registration with email
// uniqueness, lookups, updates and deletion.
type CustomerService interface {
	Register(ctx context.Context, req *models.RegisterCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id string, req *models.UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
}

type CustomerServiceImpl struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCustomerService(store repository.Store, logger *slog.Logger) *CustomerServiceImpl {
	return &CustomerServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *CustomerServiceImpl) Register(ctx context.Context, req *models.RegisterCustomerRequest) (*models.Customer, error) {
	dateOfBirth, err := validateCustomerFields(req.FirstName, req.LastName, req.Email, req.DateOfBirth)
	if err != nil {
		s.logger.Warn("invalid register customer request",
			"email", req.Email,
			"error", err.Error(),
		)
		return nil, err
	}

	customer := &models.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: dateOfBirth,
	}

	err = s.store.RunAtomic(ctx, func(tx repository.Store) error {
		if _, err := tx.GetCustomerByEmail(ctx, req.Email); err == nil {
			return errors.NewDuplicateEmail(req.Email)
		} else if !errors.IsNotFound(err) {
			return err
		}
		if err := tx.CreateCustomer(ctx, customer); err != nil {
			return err
		}

		newValue, err := json.Marshal(customer)
		if err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &models.AuditLog{
			EntityType: models.EntityTypeCustomer,
			EntityID:   customer.ID,
			Action:     models.AuditActionCreate,
			NewValue:   newValue,
		})
	})
	if err != nil {
		if errors.IsStoreError(err) {
			s.logger.Error("failed to register customer",
				"email", req.Email,
				"error", err.Error(),
			)
		} else {
			s.logger.Warn("register customer rejected",
				"email", req.Email,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	s.logger.Info("customer registered successfully",
		"customer_id", customer.ID,
		"email", customer.Email,
	)
	return customer, nil
}

func (s *CustomerServiceImpl) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if id == "" {
		return nil, errors.NewInvalidField("id", "must be non-empty")
	}
	return s.store.GetCustomerByID(ctx, id)
}

func (s *CustomerServiceImpl) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	if email == "" {
		return nil, errors.NewInvalidField("email", "must be non-empty")
	}
	return s.store.GetCustomerByEmail(ctx, email)
}

func (s *CustomerServiceImpl) UpdateCustomer(ctx context.Context, id string, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	dateOfBirth, err := validateCustomerFields(req.FirstName, req.LastName, req.Email, req.DateOfBirth)
	if err != nil {
		s.logger.Warn("invalid update customer request",
			"customer_id", id,
			"error", err.Error(),
		)
		return nil, err
	}

	var updated *models.Customer
	err = s.store.RunAtomic(ctx, func(tx repository.Store) error {
		existing, err := tx.GetCustomerByID(ctx, id)
		if err != nil {
			return err
		}

		customer := &models.Customer{
			ID:          existing.ID,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Phone:       req.Phone,
			Address:     req.Address,
			DateOfBirth: dateOfBirth,
			CreatedAt:   existing.CreatedAt,
		}
		if err := tx.UpdateCustomer(ctx, customer); err != nil {
			return err
		}

		oldValue, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		newValue, err := json.Marshal(customer)
		if err != nil {
			return err
		}
		if err := tx.CreateAuditLog(ctx, &models.AuditLog{
			EntityType: models.EntityTypeCustomer,
			EntityID:   customer.ID,
			Action:     models.AuditActionUpdate,
			OldValue:   oldValue,
			NewValue:   newValue,
		}); err != nil {
			return err
		}

		updated = customer
		return nil
	})
	if err != nil {
		s.logger.Warn("update customer failed",
			"customer_id", id,
			"error", err.Error(),
		)
		return nil, err
	}

	s.logger.Info("customer updated successfully", "customer_id", id)
	return updated, nil
}

// DeleteCustomer removes a customer record. Deletion is refused while any
// account still references the customer; account history must stay
// reconstructable against an existing owner.
func (s *CustomerServiceImpl) DeleteCustomer(ctx context.Context, id string) error {
	if id == "" {
		return errors.NewInvalidField("id", "must be non-empty")
	}

	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		existing, err := tx.GetCustomerByID(ctx, id)
		if err != nil {
			return err
		}

		count, err := tx.CountAccountsByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.NewCustomerHasAccounts(id, count)
		}

		if err := tx.DeleteCustomer(ctx, id); err != nil {
			return err
		}

		oldValue, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &models.AuditLog{
			EntityType: models.EntityTypeCustomer,
			EntityID:   id,
			Action:     models.AuditActionDelete,
			OldValue:   oldValue,
			NewValue:   json.RawMessage(`null`),
		})
	})
	if err != nil {
		s.logger.Warn("delete customer failed",
			"customer_id", id,
			"error", err.Error(),
		)
		return err
	}

	s.logger.Info("customer deleted successfully", "customer_id", id)
	return nil
}

func (s *CustomerServiceImpl) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func validateCustomerFields(firstName, lastName, email, dateOfBirth string) (time.Time, error) {
	if firstName == "" {
		return time.Time{}, errors.NewInvalidField("first_name", "must be non-empty")
	}
	if lastName == "" {
		return time.Time{}, errors.NewInvalidField("last_name", "must be non-empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return time.Time{}, errors.NewInvalidField("email", "must be a valid email address")
	}
	if dateOfBirth == "" {
		return time.Time{}, errors.NewInvalidField("date_of_birth", "must be non-empty")
	}
	parsed, err := time.Parse(dateOfBirthLayout, dateOfBirth)
	if err != nil {
		return time.Time{}, errors.NewInvalidField("date_of_birth", "must be in YYYY-MM-DD format")
	}
	return parsed, nil
}
