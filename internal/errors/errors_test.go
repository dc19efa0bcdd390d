package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKindsAndCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
		code string
	}{
		{"invalid amount", NewInvalidAmount("-1"), KindValidation, CodeInvalidAmount},
		{"same account", NewSameAccountTransfer(), KindValidation, CodeSameAccountTransfer},
		{"account not found", NewAccountNotFound("a1"), KindNotFound, CodeAccountNotFound},
		{"customer not found", NewCustomerNotFound("c1"), KindNotFound, CodeCustomerNotFound},
		{"inactive", NewAccountInactive("a1", "INACTIVE"), KindState, CodeAccountInactive},
		{"closed", NewAccountClosed("a1"), KindState, CodeAccountClosed},
		{"insufficient", NewInsufficientBalance(decimal.NewFromInt(5), decimal.NewFromInt(9)), KindState, CodeInsufficientBalance},
		{"duplicate number", NewDuplicateAccountNumber("n1"), KindConflict, CodeDuplicateAccountNumber},
		{"duplicate email", NewDuplicateEmail("e@x.y"), KindConflict, CodeDuplicateEmail},
		{"has accounts", NewCustomerHasAccounts("c1", 2), KindConflict, CodeCustomerHasAccounts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.kind {
				t.Errorf("KindOf = %s, want %s", got, tc.kind)
			}
			if got := CodeOf(tc.err); got != tc.code {
				t.Errorf("CodeOf = %s, want %s", got, tc.code)
			}
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("source account: %w", NewAccountNotFound("a1"))
	if !IsNotFound(err) {
		t.Error("wrapped not-found error lost its kind")
	}
	if CodeOf(err) != CodeAccountNotFound {
		t.Error("wrapped error lost its code")
	}
}

func TestInsufficientBalanceMessage(t *testing.T) {
	err := NewInsufficientBalance(decimal.RequireFromString("12.50"), decimal.NewFromInt(40))
	want := "insufficient balance: current balance 12.5, required 40"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("commit", cause)

	if !IsStoreError(err) {
		t.Error("IsStoreError = false")
	}
	if IsRetryable(err) {
		t.Error("plain store error must not be retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("store error must unwrap to its cause")
	}
	if KindOf(err) != "" {
		t.Error("store errors are not domain errors")
	}

	retryable := NewRetryableStoreError("commit", cause)
	if !IsRetryable(retryable) {
		t.Error("IsRetryable = false for retryable store error")
	}
}
