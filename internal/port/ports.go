package port

import (
	"context"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
)

// ============================================================
// Driven ports (outbound): external dependencies
// ============================================================

// TransactionsFetcher retrieves customer transaction data.
type TransactionsFetcher interface {
	GetTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error)
}

// ============================================================
// Driving port (inbound): used by the HTTP layer
// ============================================================

// ExpenseForecaster produces expense forecasts for API callers.
//
// The returned result is never nil. When it is an error descriptor the
// error is its typed cause; fetch and validation failures return a nil
// result.
type ExpenseForecaster interface {
	ForecastTransactions(ctx context.Context, txns []domain.Transaction, months int) (*domain.ForecastResult, error)
	ForecastCustomer(ctx context.Context, customerID string, months int) (*domain.ForecastResult, error)
	ForecastBatch(ctx context.Context, customerIDs []string, months int) ([]domain.BatchForecastItem, error)
	DefaultMonths() int
}
