package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/service"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

type CustomerHandler struct {
	customerService service.CustomerService
	accountService  service.AccountService
	logger          *slog.Logger
}

func NewCustomerHandler(customerService service.CustomerService, accountService service.AccountService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		accountService:  accountService,
		logger:          logger,
	}
}

func (h *CustomerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customers", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/customers", h.List).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}", h.Update).Methods(http.MethodPut)
	router.HandleFunc("/customers/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/customers/{id}/accounts", h.Accounts).Methods(http.MethodGet)
}

func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register customer request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	customer, err := h.customerService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "register customer")
		return
	}

	u.WriteJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list customers")
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	u.WriteJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customerService.GetCustomer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, "get customer")
		return
	}
	u.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid update customer request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	customer, err := h.customerService.UpdateCustomer(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update customer")
		return
	}
	u.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.customerService.DeleteCustomer(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err, "delete customer")
		return
	}
	u.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *CustomerHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetCustomerAccounts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, "get customer accounts")
		return
	}

	responses := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, models.NewAccountResponse(account))
	}
	u.WriteJSON(w, http.StatusOK, responses)
}
