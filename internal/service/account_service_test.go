package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

func (e *testEnv) registerTestCustomer(t *testing.T, email string) *models.Customer {
	t.Helper()
	customer, err := e.customers.Register(context.Background(), &models.RegisterCustomerRequest{
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       email,
		DateOfBirth: "1985-12-09",
	})
	if err != nil {
		t.Fatalf("register customer: %v", err)
	}
	return customer
}

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	customer := env.registerTestCustomer(t, "grace@example.com")

	account, err := env.accounts.CreateAccount(context.Background(), &models.CreateAccountRequest{
		CustomerID:    customer.ID,
		AccountNumber: "ACC-200",
		AccountType:   models.AccountTypeCurrent,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if account.ID == "" {
		t.Error("account must get an assigned id")
	}
	if !account.Balance.IsZero() {
		t.Errorf("new account balance = %s, want 0", account.Balance)
	}
	if account.Status != models.AccountStatusActive {
		t.Errorf("new account status = %s, want ACTIVE", account.Status)
	}

	byNumber, err := env.accounts.GetAccountByNumber(context.Background(), "ACC-200")
	if err != nil {
		t.Fatalf("lookup by number: %v", err)
	}
	if byNumber.ID != account.ID {
		t.Errorf("lookup by number returned %s, want %s", byNumber.ID, account.ID)
	}
}

func TestCreateAccountDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	customer := env.registerTestCustomer(t, "dup-number@example.com")
	ctx := context.Background()

	req := &models.CreateAccountRequest{
		CustomerID:    customer.ID,
		AccountNumber: "ACC-201",
		AccountType:   models.AccountTypeSavings,
	}
	if _, err := env.accounts.CreateAccount(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := env.accounts.CreateAccount(ctx, req); !errors.IsConflict(err) {
		t.Fatalf("second create: got %v, want conflict error", err)
	}
}

func TestCreateAccountUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.CreateAccount(context.Background(), &models.CreateAccountRequest{
		CustomerID:    "no-such-customer",
		AccountNumber: "ACC-202",
		AccountType:   models.AccountTypeSavings,
	})
	if !errors.IsNotFound(err) {
		t.Fatalf("got %v, want not-found error", err)
	}
}

func TestCreateAccountInvalidType(t *testing.T) {
	env := newTestEnv(t)
	customer := env.registerTestCustomer(t, "bad-type@example.com")

	_, err := env.accounts.CreateAccount(context.Background(), &models.CreateAccountRequest{
		CustomerID:    customer.ID,
		AccountNumber: "ACC-203",
		AccountType:   "CHECKING",
	})
	if !errors.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	account := env.newTestAccount(t, "ACC-204", 0)
	ctx := context.Background()

	if err := env.accounts.UpdateStatus(ctx, account.ID, models.AccountStatusInactive); err != nil {
		t.Fatalf("to INACTIVE: %v", err)
	}
	if err := env.accounts.UpdateStatus(ctx, account.ID, models.AccountStatusActive); err != nil {
		t.Fatalf("back to ACTIVE: %v", err)
	}

	got, err := env.accounts.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.AccountStatusActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}
}

// TestClosedIsTerminal: once CLOSED, an account's status never changes again.
func TestClosedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	account := env.newTestAccount(t, "ACC-205", 0)
	ctx := context.Background()

	if err := env.accounts.CloseAccount(ctx, account.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, status := range []models.AccountStatus{models.AccountStatusActive, models.AccountStatusInactive, models.AccountStatusClosed} {
		if err := env.accounts.UpdateStatus(ctx, account.ID, status); !errors.IsState(err) {
			t.Errorf("transition CLOSED->%s: got %v, want state error", status, err)
		}
	}
}

func TestGetBalance(t *testing.T) {
	env := newTestEnv(t)
	account := env.newTestAccount(t, "ACC-206", 420)

	got, err := env.accounts.GetBalance(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(420)) {
		t.Errorf("balance = %s, want 420", got)
	}
}

func TestGetCustomerAccounts(t *testing.T) {
	env := newTestEnv(t)
	customer := env.registerTestCustomer(t, "many-accounts@example.com")
	ctx := context.Background()

	for _, number := range []string{"ACC-207", "ACC-208"} {
		if _, err := env.accounts.CreateAccount(ctx, &models.CreateAccountRequest{
			CustomerID:    customer.ID,
			AccountNumber: number,
			AccountType:   models.AccountTypeSavings,
		}); err != nil {
			t.Fatalf("create %s: %v", number, err)
		}
	}

	accounts, err := env.accounts.GetCustomerAccounts(ctx, customer.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}

	if _, err := env.accounts.GetCustomerAccounts(ctx, "no-such-customer"); !errors.IsNotFound(err) {
		t.Errorf("unknown customer: got %v, want not-found error", err)
	}
}
