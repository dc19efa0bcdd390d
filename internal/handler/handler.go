package handler

import (
	"log/slog"
	"net/http"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

// writeServiceError maps domain error kinds to HTTP statuses. Retryable store
// failures return 503 so clients can distinguish them from hard failures.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, operation string) {
	switch {
	case errors.IsValidation(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "not found", err.Error())
	case errors.IsState(err):
		u.WriteError(w, http.StatusUnprocessableEntity, "operation not permitted", err.Error())
	case errors.IsConflict(err):
		u.WriteError(w, http.StatusConflict, "conflict", err.Error())
	case errors.IsRetryable(err):
		logger.Error("retryable store error during "+operation, "error", err.Error())
		u.WriteError(w, http.StatusServiceUnavailable, "temporarily unavailable", "the operation can be retried")
	default:
		logger.Error("internal server error during "+operation, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
