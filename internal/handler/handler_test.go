package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
	"github.com/riteshkumar/bank-ledger/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := repository.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	customerService := service.NewCustomerService(store, logger)
	accountService := service.NewAccountService(store, logger)
	ledgerService := service.NewLedgerService(store, logger)

	router := mux.NewRouter()
	NewCustomerHandler(customerService, accountService, logger).RegisterRoutes(router)
	NewAccountHandler(accountService, logger).RegisterRoutes(router)
	NewLedgerHandler(ledgerService, logger).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func registerCustomer(t *testing.T, baseURL, email string) models.Customer {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, baseURL+"/customers", models.RegisterCustomerRequest{
		FirstName:   "Test",
		LastName:    "Customer",
		Email:       email,
		DateOfBirth: "1990-01-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register customer: status %d, body %s", resp.StatusCode, raw)
	}
	var customer models.Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		t.Fatalf("decode customer: %v", err)
	}
	return customer
}

func createAccount(t *testing.T, baseURL, customerID, number string) models.AccountResponse {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, baseURL+"/accounts", models.CreateAccountRequest{
		CustomerID:    customerID,
		AccountNumber: number,
		AccountType:   models.AccountTypeSavings,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create account: status %d, body %s", resp.StatusCode, raw)
	}
	var account models.AccountResponse
	if err := json.Unmarshal(raw, &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return account
}

func TestCustomerEndpoints(t *testing.T) {
	server := newTestServer(t)
	customer := registerCustomer(t, server.URL, "api@example.com")

	resp, raw := doJSON(t, http.MethodGet, server.URL+"/customers/"+customer.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get customer: status %d, body %s", resp.StatusCode, raw)
	}

	// Duplicate email registration conflicts.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/customers", models.RegisterCustomerRequest{
		FirstName:   "Other",
		LastName:    "Customer",
		Email:       "api@example.com",
		DateOfBirth: "1991-02-02",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/customers/unknown-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown customer: status %d, want 404", resp.StatusCode)
	}
}

func TestAccountEndpoints(t *testing.T) {
	server := newTestServer(t)
	customer := registerCustomer(t, server.URL, "accounts@example.com")
	account := createAccount(t, server.URL, customer.ID, "ACC-API-1")

	resp, raw := doJSON(t, http.MethodGet, server.URL+"/accounts/number/ACC-API-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get by number: status %d, body %s", resp.StatusCode, raw)
	}
	var byNumber models.AccountResponse
	if err := json.Unmarshal(raw, &byNumber); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if byNumber.ID != account.ID {
		t.Errorf("get by number returned %s, want %s", byNumber.ID, account.ID)
	}

	// Deleting the owner while the account exists conflicts.
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/customers/"+customer.ID, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("delete owner: status %d, want 409", resp.StatusCode)
	}

	// Closing the account makes further status changes unprocessable.
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/accounts/"+account.ID+"/status", models.UpdateAccountStatusRequest{Status: models.AccountStatusClosed})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close account: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/accounts/"+account.ID+"/status", models.UpdateAccountStatusRequest{Status: models.AccountStatusActive})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("reopen closed account: status %d, want 422", resp.StatusCode)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	server := newTestServer(t)
	customer := registerCustomer(t, server.URL, "ledger@example.com")
	source := createAccount(t, server.URL, customer.ID, "ACC-API-2")
	destination := createAccount(t, server.URL, customer.ID, "ACC-API-3")

	resp, raw := doJSON(t, http.MethodPost, server.URL+"/accounts/"+source.ID+"/deposit", map[string]any{"amount": "500"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("deposit: status %d, body %s", resp.StatusCode, raw)
	}
	var deposit models.TransactionResponse
	if err := json.Unmarshal(raw, &deposit); err != nil {
		t.Fatalf("decode deposit: %v", err)
	}
	if deposit.Type != models.TransactionTypeDeposit || deposit.BalanceAfter.String() != "500" {
		t.Errorf("deposit = %s/%s, want DEPOSIT/500", deposit.Type, deposit.BalanceAfter)
	}

	// Withdrawal above balance is a state failure.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/accounts/"+source.ID+"/withdraw", map[string]any{"amount": "9999"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("over-withdraw: status %d, want 422", resp.StatusCode)
	}

	// Zero amount is a validation failure.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/accounts/"+source.ID+"/deposit", map[string]any{"amount": "0"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero deposit: status %d, want 400", resp.StatusCode)
	}

	resp, raw = doJSON(t, http.MethodPost, server.URL+"/transfers", map[string]any{
		"from_account_id": source.ID,
		"to_account_id":   destination.ID,
		"amount":          "125.75",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("transfer: status %d, body %s", resp.StatusCode, raw)
	}
	var transfer models.TransactionResponse
	if err := json.Unmarshal(raw, &transfer); err != nil {
		t.Fatalf("decode transfer: %v", err)
	}
	if transfer.Type != models.TransactionTypeTransferIn {
		t.Errorf("transfer response type = %s, want TRANSFER_IN", transfer.Type)
	}

	// Same-account transfer is a validation failure.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/transfers", map[string]any{
		"from_account_id": source.ID,
		"to_account_id":   source.ID,
		"amount":          "1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("same-account transfer: status %d, want 400", resp.StatusCode)
	}

	resp, raw = doJSON(t, http.MethodGet, fmt.Sprintf("%s/accounts/%s/transactions?limit=1", server.URL, source.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recent transactions: status %d, body %s", resp.StatusCode, raw)
	}
	var recent []models.TransactionResponse
	if err := json.Unmarshal(raw, &recent); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Type != models.TransactionTypeTransferOut {
		t.Errorf("recent = %+v, want one TRANSFER_OUT", recent)
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/accounts/unknown/deposit", map[string]any{"amount": "5"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deposit to unknown account: status %d, want 404", resp.StatusCode)
	}
}
