package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// LedgerService is the sole writer of balances and transaction history. Every
// mutation runs as one atomic unit: balance update, transaction record and
// audit entries commit together or not at all.
type LedgerService interface {
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) (*models.Transaction, error)
	TransactionHistory(ctx context.Context, accountID string) ([]*models.Transaction, error)
	RecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)
}

type LedgerServiceImpl struct {
	store  repository.Store
	logger *slog.Logger
}

func NewLedgerService(store repository.Store, logger *slog.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *LedgerServiceImpl) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		s.logger.Warn("invalid deposit amount",
			"account_id", accountID,
			"amount", amount.String(),
		)
		return nil, errors.NewInvalidAmount(amount.String())
	}
	if description == "" {
		description = "Deposit"
	}

	var created *models.Transaction
	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Status != models.AccountStatusActive {
			return errors.NewAccountInactive(account.ID, string(account.Status))
		}

		newBalance := account.Balance.Add(amount)
		if err := tx.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}

		transaction := &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       amount,
			BalanceAfter: newBalance,
			Description:  description,
		}
		if err := tx.CreateTransaction(ctx, transaction); err != nil {
			return err
		}

		if err := createBalanceAuditLog(ctx, tx, account.ID, models.AuditActionCredit, account.Balance, newBalance); err != nil {
			return err
		}

		created = transaction
		return nil
	})
	if err != nil {
		s.logFailure("deposit", err, "account_id", accountID, "amount", amount.String())
		return nil, err
	}

	s.logger.Info("deposit applied",
		"account_id", accountID,
		"transaction_id", created.ID,
		"amount", amount.String(),
		"balance_after", created.BalanceAfter.String(),
	)
	return created, nil
}

func (s *LedgerServiceImpl) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		s.logger.Warn("invalid withdrawal amount",
			"account_id", accountID,
			"amount", amount.String(),
		)
		return nil, errors.NewInvalidAmount(amount.String())
	}
	if description == "" {
		description = "Withdrawal"
	}

	var created *models.Transaction
	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Status != models.AccountStatusActive {
			return errors.NewAccountInactive(account.ID, string(account.Status))
		}
		if account.Balance.LessThan(amount) {
			return errors.NewInsufficientBalance(account.Balance, amount)
		}

		newBalance := account.Balance.Sub(amount)
		if err := tx.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}

		transaction := &models.Transaction{
			AccountID:    account.ID,
			Type:         models.TransactionTypeWithdrawal,
			Amount:       amount,
			BalanceAfter: newBalance,
			Description:  description,
		}
		if err := tx.CreateTransaction(ctx, transaction); err != nil {
			return err
		}

		if err := createBalanceAuditLog(ctx, tx, account.ID, models.AuditActionDebit, account.Balance, newBalance); err != nil {
			return err
		}

		created = transaction
		return nil
	})
	if err != nil {
		s.logFailure("withdraw", err, "account_id", accountID, "amount", amount.String())
		return nil, err
	}

	s.logger.Info("withdrawal applied",
		"account_id", accountID,
		"transaction_id", created.ID,
		"amount", amount.String(),
		"balance_after", created.BalanceAfter.String(),
	)
	return created, nil
}

// Transfer moves amount between two accounts as one atomic unit of four
// effects: debit source, TRANSFER_OUT record, credit destination, TRANSFER_IN
// record. It returns the TRANSFER_IN transaction.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		s.logger.Warn("invalid transfer amount",
			"from_account_id", fromAccountID,
			"to_account_id", toAccountID,
			"amount", amount.String(),
		)
		return nil, errors.NewInvalidAmount(amount.String())
	}
	if fromAccountID == toAccountID {
		return nil, errors.NewSameAccountTransfer()
	}

	var created *models.Transaction
	err := s.store.RunAtomic(ctx, func(tx repository.Store) error {
		source, destination, err := lockTransferPair(ctx, tx, fromAccountID, toAccountID)
		if err != nil {
			return err
		}

		if source.Status != models.AccountStatusActive {
			return fmt.Errorf("source account: %w", errors.NewAccountInactive(source.ID, string(source.Status)))
		}
		if destination.Status != models.AccountStatusActive {
			return fmt.Errorf("destination account: %w", errors.NewAccountInactive(destination.ID, string(destination.Status)))
		}
		if source.Balance.LessThan(amount) {
			return errors.NewInsufficientBalance(source.Balance, amount)
		}

		newSourceBalance := source.Balance.Sub(amount)
		newDestinationBalance := destination.Balance.Add(amount)

		if err := tx.UpdateAccountBalance(ctx, source.ID, newSourceBalance); err != nil {
			return err
		}

		outDescription := description
		if outDescription == "" {
			outDescription = "Transfer to " + destination.AccountNumber
		}
		outTransaction := &models.Transaction{
			AccountID:        source.ID,
			Type:             models.TransactionTypeTransferOut,
			Amount:           amount,
			BalanceAfter:     newSourceBalance,
			Description:      outDescription,
			RelatedAccountID: &destination.ID,
		}
		if err := tx.CreateTransaction(ctx, outTransaction); err != nil {
			return err
		}

		if err := tx.UpdateAccountBalance(ctx, destination.ID, newDestinationBalance); err != nil {
			return err
		}

		inDescription := description
		if inDescription == "" {
			inDescription = "Transfer from " + source.AccountNumber
		}
		inTransaction := &models.Transaction{
			AccountID:        destination.ID,
			Type:             models.TransactionTypeTransferIn,
			Amount:           amount,
			BalanceAfter:     newDestinationBalance,
			Description:      inDescription,
			RelatedAccountID: &source.ID,
		}
		if err := tx.CreateTransaction(ctx, inTransaction); err != nil {
			return err
		}

		if err := createBalanceAuditLog(ctx, tx, source.ID, models.AuditActionDebit, source.Balance, newSourceBalance); err != nil {
			return err
		}
		if err := createBalanceAuditLog(ctx, tx, destination.ID, models.AuditActionCredit, destination.Balance, newDestinationBalance); err != nil {
			return err
		}
		if err := createTransferAuditLog(ctx, tx, outTransaction, inTransaction); err != nil {
			return err
		}

		created = inTransaction
		return nil
	})
	if err != nil {
		s.logFailure("transfer", err,
			"from_account_id", fromAccountID,
			"to_account_id", toAccountID,
			"amount", amount.String(),
		)
		return nil, err
	}

	s.logger.Info("transfer applied",
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"transaction_id", created.ID,
		"amount", amount.String(),
	)
	return created, nil
}

func (s *LedgerServiceImpl) TransactionHistory(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	if _, err := s.store.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByAccount(ctx, accountID)
}

func (s *LedgerServiceImpl) RecentTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		return nil, errors.NewInvalidField("limit", "must be greater than zero")
	}
	if _, err := s.store.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListRecentTransactions(ctx, accountID, limit)
}

// lockTransferPair locks both accounts in ascending id order regardless of
// transfer direction, so two opposite transfers between the same pair cannot
// deadlock.
func lockTransferPair(ctx context.Context, tx repository.Store, fromAccountID, toAccountID string) (source, destination *models.Account, err error) {
	firstID, secondID := fromAccountID, toAccountID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := tx.GetAccountForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, wrapTransferSide(firstID == fromAccountID, err)
	}
	second, err := tx.GetAccountForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, wrapTransferSide(secondID == fromAccountID, err)
	}

	if first.ID == fromAccountID {
		return first, second, nil
	}
	return second, first, nil
}

func wrapTransferSide(isSource bool, err error) error {
	if !errors.IsNotFound(err) {
		return err
	}
	if isSource {
		return fmt.Errorf("source account: %w", err)
	}
	return fmt.Errorf("destination account: %w", err)
}

func (s *LedgerServiceImpl) logFailure(operation string, err error, fields ...any) {
	fields = append(fields, "error", err.Error())
	if errors.IsStoreError(err) {
		s.logger.Error("failed to "+operation, fields...)
		return
	}
	s.logger.Warn(operation+" rejected", fields...)
}

func createBalanceAuditLog(ctx context.Context, tx repository.Store, accountID, action string, oldBalance, newBalance decimal.Decimal) error {
	oldValue, err := json.Marshal(models.AccountBalanceSnapshot{ID: accountID, Balance: oldBalance})
	if err != nil {
		return err
	}
	newValue, err := json.Marshal(models.AccountBalanceSnapshot{ID: accountID, Balance: newBalance})
	if err != nil {
		return err
	}

	return tx.CreateAuditLog(ctx, &models.AuditLog{
		EntityType: models.EntityTypeAccount,
		EntityID:   accountID,
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

func createTransferAuditLog(ctx context.Context, tx repository.Store, out, in *models.Transaction) error {
	snapshot := struct {
		OutTransactionID string          `json:"out_transaction_id"`
		InTransactionID  string          `json:"in_transaction_id"`
		SourceAccountID  string          `json:"source_account_id"`
		DestAccountID    string          `json:"destination_account_id"`
		Amount           decimal.Decimal `json:"amount"`
	}{
		OutTransactionID: out.ID,
		InTransactionID:  in.ID,
		SourceAccountID:  out.AccountID,
		DestAccountID:    in.AccountID,
		Amount:           in.Amount,
	}

	value, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return tx.CreateAuditLog(ctx, &models.AuditLog{
		EntityType: models.EntityTypeTransaction,
		EntityID:   in.ID,
		Action:     models.AuditActionCreate,
		NewValue:   value,
	})
}
