package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

func seedAccount(t *testing.T, store *MemoryStore, number string, balance int64) *models.Account {
	t.Helper()
	ctx := context.Background()

	customer := &models.Customer{
		FirstName: "Test",
		LastName:  "Customer",
		Email:     number + "@example.com",
	}
	if err := store.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	account := &models.Account{
		CustomerID:    customer.ID,
		AccountNumber: number,
		AccountType:   models.AccountTypeSavings,
		Balance:       decimal.NewFromInt(balance),
		Status:        models.AccountStatusActive,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

// TestRunAtomicRollback: a failed atomic unit leaves no partial effect, even
// when some of its writes had already been applied.
func TestRunAtomicRollback(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store, "MEM-001", 100)
	ctx := context.Background()

	boom := fmt.Errorf("unit failed")
	err := store.RunAtomic(ctx, func(tx Store) error {
		if err := tx.UpdateAccountBalance(ctx, account.ID, decimal.NewFromInt(999)); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       decimal.NewFromInt(899),
			BalanceAfter: decimal.NewFromInt(999),
		}); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("RunAtomic error = %v, want %v", err, boom)
	}

	got, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100 (rolled back)", got.Balance)
	}
	transactions, err := store.ListTransactionsByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 0 {
		t.Errorf("transactions = %d, want 0 (rolled back)", len(transactions))
	}
}

func TestRunAtomicCommit(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store, "MEM-002", 0)
	ctx := context.Background()

	err := store.RunAtomic(ctx, func(tx Store) error {
		if err := tx.UpdateAccountBalance(ctx, account.ID, decimal.NewFromInt(40)); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       decimal.NewFromInt(40),
			BalanceAfter: decimal.NewFromInt(40),
		})
	})
	if err != nil {
		t.Fatalf("RunAtomic: %v", err)
	}

	got, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("balance = %s, want 40", got.Balance)
	}
}

func TestRunAtomicNested(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store, "MEM-003", 0)
	ctx := context.Background()

	err := store.RunAtomic(ctx, func(tx Store) error {
		return tx.RunAtomic(ctx, func(inner Store) error {
			return inner.UpdateAccountBalance(ctx, account.ID, decimal.NewFromInt(7))
		})
	})
	if err != nil {
		t.Fatalf("nested RunAtomic: %v", err)
	}

	got, _ := store.GetAccountByID(ctx, account.ID)
	if !got.Balance.Equal(decimal.NewFromInt(7)) {
		t.Errorf("balance = %s, want 7", got.Balance)
	}
}

func TestDuplicateConstraints(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.CreateCustomer(ctx, &models.Customer{FirstName: "A", LastName: "B", Email: "same@example.com"}); err != nil {
		t.Fatalf("first customer: %v", err)
	}
	err := store.CreateCustomer(ctx, &models.Customer{FirstName: "C", LastName: "D", Email: "same@example.com"})
	if errors.CodeOf(err) != errors.CodeDuplicateEmail {
		t.Errorf("duplicate email: got %v", err)
	}

	account := seedAccount(t, store, "MEM-004", 0)
	err = store.CreateAccount(ctx, &models.Account{
		CustomerID:    account.CustomerID,
		AccountNumber: "MEM-004",
		AccountType:   models.AccountTypeSavings,
		Status:        models.AccountStatusActive,
	})
	if errors.CodeOf(err) != errors.CodeDuplicateAccountNumber {
		t.Errorf("duplicate number: got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store, "MEM-005", 10)
	ctx := context.Background()

	got, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Balance = decimal.NewFromInt(9999)

	again, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if !again.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("mutating a returned record leaked into the store: balance = %s", again.Balance)
	}
}

func TestTransactionListOrderAndLimit(t *testing.T) {
	store := NewMemoryStore()
	account := seedAccount(t, store, "MEM-006", 0)
	other := seedAccount(t, store, "MEM-007", 0)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := store.CreateTransaction(ctx, &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       decimal.NewFromInt(int64(i)),
			BalanceAfter: decimal.NewFromInt(int64(i)),
		}); err != nil {
			t.Fatalf("create transaction %d: %v", i, err)
		}
	}
	if err := store.CreateTransaction(ctx, &models.Transaction{
		AccountID:    other.ID,
		Type:         models.TransactionTypeDeposit,
		Amount:       decimal.NewFromInt(99),
		BalanceAfter: decimal.NewFromInt(99),
	}); err != nil {
		t.Fatalf("create other transaction: %v", err)
	}

	all, err := store.ListTransactionsByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list length = %d, want 3 (other account's records excluded)", len(all))
	}
	if !all[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("first record amount = %s, want most recent 3", all[0].Amount)
	}

	recent, err := store.ListRecentTransactions(ctx, account.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("recent length = %d, want 2", len(recent))
	}
}
