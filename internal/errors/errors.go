package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind partitions domain errors into the categories callers branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindState      Kind = "state"
	KindConflict   Kind = "conflict"
)

// Codes identify the specific failure within a kind.
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeSameAccountTransfer    = "SAME_ACCOUNT_TRANSFER"
	CodeInvalidField           = "INVALID_FIELD"
	CodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	CodeCustomerNotFound       = "CUSTOMER_NOT_FOUND"
	CodeAccountInactive        = "ACCOUNT_INACTIVE"
	CodeAccountClosed          = "ACCOUNT_CLOSED"
	CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	CodeDuplicateAccountNumber = "DUPLICATE_ACCOUNT_NUMBER"
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeCustomerHasAccounts    = "CUSTOMER_HAS_ACCOUNTS"
)

// Error is the flat domain error type: a kind for category branching, a code
// for the specific rule, and a human-readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewInvalidAmount(detail string) error {
	return &Error{Kind: KindValidation, Code: CodeInvalidAmount, Message: "amount must be greater than zero: " + detail}
}

func NewSameAccountTransfer() error {
	return &Error{Kind: KindValidation, Code: CodeSameAccountTransfer, Message: "source and destination accounts cannot be the same"}
}

func NewInvalidField(field, detail string) error {
	return &Error{Kind: KindValidation, Code: CodeInvalidField, Message: fmt.Sprintf("invalid field '%s': %s", field, detail)}
}

func NewAccountNotFound(id string) error {
	return &Error{Kind: KindNotFound, Code: CodeAccountNotFound, Message: "account " + id + " not found"}
}

func NewCustomerNotFound(id string) error {
	return &Error{Kind: KindNotFound, Code: CodeCustomerNotFound, Message: "customer " + id + " not found"}
}

func NewAccountInactive(id, status string) error {
	return &Error{Kind: KindState, Code: CodeAccountInactive, Message: fmt.Sprintf("account %s is %s, balance mutations require ACTIVE", id, status)}
}

func NewAccountClosed(id string) error {
	return &Error{Kind: KindState, Code: CodeAccountClosed, Message: "account " + id + " is closed, closed accounts cannot change status"}
}

func NewInsufficientBalance(current, required decimal.Decimal) error {
	return &Error{
		Kind:    KindState,
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient balance: current balance %s, required %s", current.String(), required.String()),
	}
}

func NewDuplicateAccountNumber(number string) error {
	return &Error{Kind: KindConflict, Code: CodeDuplicateAccountNumber, Message: "account number " + number + " already exists"}
}

func NewDuplicateEmail(email string) error {
	return &Error{Kind: KindConflict, Code: CodeDuplicateEmail, Message: "customer with email " + email + " already exists"}
}

func NewCustomerHasAccounts(id string, count int) error {
	return &Error{Kind: KindConflict, Code: CodeCustomerHasAccounts, Message: fmt.Sprintf("customer %s still owns %d account(s)", id, count)}
}

// StoreError wraps a failure from the ledger store. It is guaranteed by the
// services to carry no partial effect: the atomic unit either committed fully
// before the failure or not at all.
type StoreError struct {
	Operation string
	Retryable bool
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during '%s': %v", e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func NewStoreError(operation string, cause error) error {
	return &StoreError{Operation: operation, Cause: cause}
}

// NewRetryableStoreError marks transient store failures (serialization
// conflicts, deadlocks) the caller may re-invoke the operation for.
func NewRetryableStoreError(operation string, cause error) error {
	return &StoreError{Operation: operation, Retryable: true, Cause: cause}
}

// KindOf returns the domain kind of err, or "" for non-domain errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsState(err error) bool {
	return KindOf(err) == KindState
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsInsufficientBalance(err error) bool {
	return CodeOf(err) == CodeInsufficientBalance
}

func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

func IsRetryable(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Retryable
}
