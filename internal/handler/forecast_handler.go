package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// POST /api/v1/predictions/expense/advanced
// ============================================================

func advancedForecastHandler(svc port.ExpenseForecaster, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/v1/predictions/expense/advanced")
		defer span.End()

		var req domain.AdvancedForecastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.Int("user.id", req.UserID),
			attribute.Int("transactions.count", len(req.Transactions)),
		)

		months := svc.DefaultMonths()
		if req.ForecastMonths != nil {
			months = *req.ForecastMonths
		}

		result, err := svc.ForecastTransactions(ctx, req.Transactions, months)
		if err != nil {
			writeForecastFailure(w, result, err, logger)
			return
		}

		resp := domain.NewForecastResponse(uuid.New().String(), result)
		resp.UserID = req.UserID
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// GET /v1/customers/{customerId}/expenses/forecast
// ============================================================

func customerForecastHandler(svc port.ExpenseForecaster, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}/expenses/forecast")
		defer span.End()

		customerID := chi.URLParam(r, "customerId")
		if customerID == "" {
			writeError(w, http.StatusBadRequest, "customer_id is required")
			return
		}
		span.SetAttributes(attribute.String("customer.id", customerID))

		months, err := parseMonths(r, svc.DefaultMonths())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.ForecastCustomer(ctx, customerID, months)
		if err != nil {
			writeForecastFailure(w, result, err, logger)
			return
		}

		resp := domain.NewForecastResponse(uuid.New().String(), result)
		resp.CustomerID = customerID
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// POST /v1/forecasts/batch
// ============================================================

func batchForecastHandler(svc port.ExpenseForecaster, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/forecasts/batch")
		defer span.End()

		var req domain.BatchForecastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ForecastMonths == 0 {
			req.ForecastMonths = svc.DefaultMonths()
		}
		span.SetAttributes(attribute.Int("batch.size", len(req.CustomerIDs)))

		items, err := svc.ForecastBatch(ctx, req.CustomerIDs, req.ForecastMonths)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := domain.BatchForecastResponse{
			RequestID: uuid.New().String(),
			Items:     items,
		}
		for _, item := range items {
			if item.Error == "" {
				resp.Succeeded++
			} else {
				resp.Failed++
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
