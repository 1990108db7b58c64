package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/forecast"
	"github.com/boddenberg/expense-forecast-go/internal/infra/observability"
	"github.com/boddenberg/expense-forecast-go/internal/infra/resilience"
	"github.com/boddenberg/expense-forecast-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/forecast")

// Options tunes the forecast service.
type Options struct {
	MinTrainingMonths     int
	MaxForecastMonths     int
	DefaultForecastMonths int
	// MaxConcurrency bounds simultaneous model fits across all requests.
	MaxConcurrency int
	// BatchConcurrency bounds customers fetched in parallel by one batch.
	BatchConcurrency int
}

func (o Options) withDefaults() Options {
	if o.MinTrainingMonths < domain.MinForecastMonths {
		o.MinTrainingMonths = domain.MinForecastMonths
	}
	if o.MaxForecastMonths < 1 {
		o.MaxForecastMonths = 12
	}
	if o.DefaultForecastMonths < 1 || o.DefaultForecastMonths > o.MaxForecastMonths {
		o.DefaultForecastMonths = 1
	}
	if o.MaxConcurrency < 1 {
		o.MaxConcurrency = 50
	}
	if o.BatchConcurrency < 1 {
		o.BatchConcurrency = 8
	}
	return o
}

// ForecastService runs expense forecasts for raw transaction lists and for
// customers whose history lives in the Transactions API.
type ForecastService struct {
	transactions port.TransactionsFetcher
	bulkhead     *resilience.Bulkhead
	metrics      *observability.Metrics
	logger       *zap.Logger
	opts         Options
}

var _ port.ExpenseForecaster = (*ForecastService)(nil)

// NewForecastService creates the forecast service with all dependencies injected.
func NewForecastService(
	transactions port.TransactionsFetcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *ForecastService {
	opts = opts.withDefaults()
	return &ForecastService{
		transactions: transactions,
		bulkhead:     resilience.NewBulkhead(opts.MaxConcurrency),
		metrics:      metrics,
		logger:       logger,
		opts:         opts,
	}
}

// DefaultMonths is the horizon used when a caller does not ask for one.
func (s *ForecastService) DefaultMonths() int {
	return s.opts.DefaultForecastMonths
}

func (s *ForecastService) validateMonths(months int) error {
	if months < 1 || months > s.opts.MaxForecastMonths {
		return &domain.ErrValidation{
			Field:   "forecast_months",
			Message: fmt.Sprintf("must be between 1 and %d", s.opts.MaxForecastMonths),
		}
	}
	return nil
}

// ForecastTransactions forecasts the next months of expenses from txns.
// When the forecaster answers with an error descriptor, the descriptor is
// returned together with its typed cause.
func (s *ForecastService) ForecastTransactions(ctx context.Context, txns []domain.Transaction, months int) (*domain.ForecastResult, error) {
	ctx, span := tracer.Start(ctx, "ForecastService.ForecastTransactions",
		trace.WithAttributes(
			attribute.Int("transactions.count", len(txns)),
			attribute.Int("forecast.months", months),
		),
	)
	defer span.End()

	if err := s.validateMonths(months); err != nil {
		return nil, err
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.ErrTimeout{Operation: "forecast"}
		}
		return nil, fmt.Errorf("forecast bulkhead: %w", err)
	}
	defer s.bulkhead.Release()

	f := forecast.New(
		forecast.WithLogger(s.logger),
		forecast.WithMinMonths(s.opts.MinTrainingMonths),
	)

	start := time.Now()
	result := f.Forecast(txns, months)
	s.metrics.RecordForecast(result, time.Since(start))

	if result.Failed() {
		span.SetStatus(codes.Error, result.Error)
		s.logger.Debug("forecast rejected",
			zap.String("reason", observability.RejectionReason(result.Err())),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Int("months_of_data", result.MonthsOfData),
		)
		return result, result.Err()
	}

	span.SetAttributes(
		attribute.String("forecast.model", string(result.ModelType)),
		attribute.String("forecast.selected_model", string(result.SelectedModel)),
		attribute.Int("forecast.months_of_data", result.MonthsOfData),
	)
	if result.FellBack() {
		s.logger.Info("forecast fell back to simpler model",
			zap.String("selected", string(result.SelectedModel)),
			zap.String("used", string(result.ModelType)),
			zap.Int("months_of_data", result.MonthsOfData),
		)
	}
	return result, nil
}

// ForecastCustomer fetches a customer's transactions and forecasts them.
func (s *ForecastService) ForecastCustomer(ctx context.Context, customerID string, months int) (*domain.ForecastResult, error) {
	ctx, span := tracer.Start(ctx, "ForecastService.ForecastCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	if customerID == "" {
		return nil, &domain.ErrValidation{Field: "customer_id", Message: "required"}
	}
	if err := s.validateMonths(months); err != nil {
		return nil, err
	}

	txns, err := s.transactions.GetTransactions(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to fetch transactions",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("transactions")
		span.RecordError(err)
		return nil, fmt.Errorf("transactions fetch: %w", err)
	}

	return s.ForecastTransactions(ctx, txns, months)
}

// ForecastBatch forecasts several customers concurrently. A failing
// customer is reported in its item and does not abort the batch; items keep
// the order of customerIDs.
func (s *ForecastService) ForecastBatch(ctx context.Context, customerIDs []string, months int) ([]domain.BatchForecastItem, error) {
	ctx, span := tracer.Start(ctx, "ForecastService.ForecastBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(customerIDs)))

	if len(customerIDs) == 0 {
		return nil, &domain.ErrValidation{Field: "customer_ids", Message: "at least one customer is required"}
	}
	if err := s.validateMonths(months); err != nil {
		return nil, err
	}

	items := make([]domain.BatchForecastItem, len(customerIDs))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, id := range customerIDs {
		i, id := i, id
		g.Go(func() error {
			item := domain.BatchForecastItem{CustomerID: id}
			result, err := s.ForecastCustomer(ctx, id, months)
			item.Result = result
			if err != nil {
				item.Error = err.Error()
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return items, nil
}
