package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/service"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

func NewLedgerHandler(ledgerService service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

func (h *LedgerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/{id}/deposit", h.Deposit).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}/withdraw", h.Withdraw).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}/transactions", h.Transactions).Methods(http.MethodGet)
	router.HandleFunc("/transfers", h.Transfer).Methods(http.MethodPost)
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req models.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid deposit request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	transaction, err := h.ledgerService.Deposit(r.Context(), mux.Vars(r)["id"], req.Amount, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "deposit")
		return
	}
	u.WriteJSON(w, http.StatusCreated, models.NewTransactionResponse(transaction))
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req models.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid withdraw request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	transaction, err := h.ledgerService.Withdraw(r.Context(), mux.Vars(r)["id"], req.Amount, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "withdraw")
		return
	}
	u.WriteJSON(w, http.StatusCreated, models.NewTransactionResponse(transaction))
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid transfer request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	transaction, err := h.ledgerService.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "transfer")
		return
	}
	u.WriteJSON(w, http.StatusCreated, models.NewTransactionResponse(transaction))
}

func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]

	var (
		transactions []*models.Transaction
		err          error
	)
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, parseErr := strconv.Atoi(rawLimit)
		if parseErr != nil {
			u.WriteError(w, http.StatusBadRequest, "invalid limit", "limit must be an integer")
			return
		}
		transactions, err = h.ledgerService.RecentTransactions(r.Context(), accountID, limit)
	} else {
		transactions, err = h.ledgerService.TransactionHistory(r.Context(), accountID)
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "list transactions")
		return
	}

	responses := make([]models.TransactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		responses = append(responses, models.NewTransactionResponse(transaction))
	}
	u.WriteJSON(w, http.StatusOK, responses)
}
