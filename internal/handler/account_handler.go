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

type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

func NewAccountHandler(accountService service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	router.HandleFunc("/accounts/number/{number}", h.GetAccountByNumber).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}/status", h.UpdateStatus).Methods(http.MethodPut)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create account request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create account")
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.NewAccountResponse(account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, "get account")
		return
	}
	u.WriteJSON(w, http.StatusOK, models.NewAccountResponse(account))
}

func (h *AccountHandler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetAccountByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		writeServiceError(w, h.logger, err, "get account by number")
		return
	}
	u.WriteJSON(w, http.StatusOK, models.NewAccountResponse(account))
}

func (h *AccountHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid update account status request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.accountService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, h.logger, err, "update account status")
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "update account status")
		return
	}
	u.WriteJSON(w, http.StatusOK, models.NewAccountResponse(account))
}
