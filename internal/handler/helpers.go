package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseMonths reads ?months=N, falling back to def when absent.
func parseMonths(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("months")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "months", Message: "must be an integer"}
	}
	return n, nil
}

// writeForecastFailure answers a failed forecast. Error descriptors are
// returned as-is so callers still receive the default forecast.
func writeForecastFailure(w http.ResponseWriter, result *domain.ForecastResult, err error, logger *zap.Logger) {
	if result != nil && result.Failed() {
		logger.Debug("forecast descriptor returned",
			zap.String("error", result.Error),
			zap.Int("months_of_data", result.MonthsOfData),
		)
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	handleServiceError(w, err, logger)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var invalidInput *domain.ErrInvalidInput
	var noExpense *domain.ErrNoExpenseData
	var insufficient *domain.ErrInsufficientData
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidInput):
		logger.Debug("invalid transactions", zap.String("reason", invalidInput.Reason))
		writeError(w, http.StatusBadRequest, invalidInput.Error())
	case errors.As(err, &noExpense):
		writeError(w, http.StatusBadRequest, noExpense.Error())
	case errors.As(err, &insufficient):
		logger.Debug("insufficient history", zap.Int("months", insufficient.Months))
		writeError(w, http.StatusBadRequest, insufficient.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
