package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/infra/observability"
	"github.com/boddenberg/expense-forecast-go/internal/sampledata"
	"github.com/boddenberg/expense-forecast-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockTransactionsClient struct {
	mu         sync.Mutex
	byCustomer map[string][]domain.Transaction
	errs       map[string]error
	calls      []string
}

func (m *mockTransactionsClient) GetTransactions(_ context.Context, customerID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	m.calls = append(m.calls, customerID)
	m.mu.Unlock()

	if err, ok := m.errs[customerID]; ok {
		return nil, err
	}
	return m.byCustomer[customerID], nil
}

func history(months int) []domain.Transaction {
	opts := sampledata.DefaultOptions()
	opts.Months = months
	opts.Start = time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	return sampledata.Generate(opts)
}

func newService(client *mockTransactionsClient, metrics *observability.Metrics) *service.ForecastService {
	if client == nil {
		client = &mockTransactionsClient{}
	}
	return service.NewForecastService(client, metrics, zap.NewNop(), service.Options{
		MaxForecastMonths:     12,
		DefaultForecastMonths: 1,
		MaxConcurrency:        4,
		BatchConcurrency:      2,
	})
}

// --- Tests ---

func TestForecastTransactions_Success(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := newService(nil, metrics)

	result, err := svc.ForecastTransactions(context.Background(), history(4), 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ModelType != domain.ModelLinear {
		t.Errorf("expected linear model for 4 months, got %s", result.ModelType)
	}
	if len(result.Forecast) != 3 {
		t.Errorf("expected 3 forecast values, got %d", len(result.Forecast))
	}

	snap := metrics.GetForecastSnapshot()
	if snap.ByModel["linear"] != 1 || snap.TotalForecasts != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestForecastTransactions_DescriptorCarriesCause(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := newService(nil, metrics)

	result, err := svc.ForecastTransactions(context.Background(), history(2), 2)

	var insufficient *domain.ErrInsufficientData
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if insufficient.Months != 2 {
		t.Errorf("expected 2 months, got %d", insufficient.Months)
	}
	if result == nil || !result.Failed() {
		t.Fatal("expected an error descriptor result")
	}
	if len(result.Forecast) != 2 {
		t.Errorf("expected descriptor forecast of length 2, got %d", len(result.Forecast))
	}

	snap := metrics.GetForecastSnapshot()
	if snap.Rejections[observability.ReasonInsufficientData] != 1 {
		t.Errorf("expected one insufficient_data rejection, got %+v", snap.Rejections)
	}
}

func TestForecastTransactions_ValidatesMonths(t *testing.T) {
	svc := newService(nil, observability.NewMetrics())

	for _, months := range []int{0, -1, 13} {
		result, err := svc.ForecastTransactions(context.Background(), history(4), months)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("months=%d: expected ErrValidation, got %v", months, err)
		}
		if result != nil {
			t.Errorf("months=%d: expected nil result", months)
		}
	}
}

func TestForecastTransactions_CancelledWhileWaiting(t *testing.T) {
	svc := service.NewForecastService(&mockTransactionsClient{}, observability.NewMetrics(), zap.NewNop(), service.Options{MaxConcurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A free slot is taken immediately even on a cancelled context, so only
	// check that the call returns without hanging.
	done := make(chan struct{})
	go func() {
		svc.ForecastTransactions(ctx, history(4), 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("forecast did not return")
	}
}

func TestForecastCustomer_FetchError(t *testing.T) {
	metrics := observability.NewMetrics()
	client := &mockTransactionsClient{
		errs: map[string]error{"cust-1": &domain.ErrCircuitOpen{Service: "transactions"}},
	}
	svc := newService(client, metrics)

	_, err := svc.ForecastCustomer(context.Background(), "cust-1", 1)

	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestForecastCustomer_RequiresID(t *testing.T) {
	svc := newService(nil, observability.NewMetrics())

	_, err := svc.ForecastCustomer(context.Background(), "", 1)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) || validation.Field != "customer_id" {
		t.Fatalf("expected customer_id validation error, got %v", err)
	}
}

func TestForecastBatch_MixedOutcomes(t *testing.T) {
	client := &mockTransactionsClient{
		byCustomer: map[string][]domain.Transaction{
			"ok":    history(5),
			"short": history(1),
		},
		errs: map[string]error{
			"missing": &domain.ErrNotFound{Resource: "transactions", ID: "missing"},
		},
	}
	svc := newService(client, observability.NewMetrics())

	items, err := svc.ForecastBatch(context.Background(), []string{"ok", "missing", "short"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].CustomerID != "ok" || items[0].Error != "" || items[0].Result == nil || items[0].Result.Failed() {
		t.Errorf("expected success for ok, got %+v", items[0])
	}
	if items[1].CustomerID != "missing" || items[1].Error == "" || items[1].Result != nil {
		t.Errorf("expected fetch failure for missing, got %+v", items[1])
	}
	if items[2].CustomerID != "short" || items[2].Result == nil || !items[2].Result.Failed() {
		t.Errorf("expected descriptor for short, got %+v", items[2])
	}
	if items[2].Error != "Insufficient data (minimum 3 months required)" {
		t.Errorf("unexpected error message %q", items[2].Error)
	}
	if len(client.calls) != 3 {
		t.Errorf("expected 3 fetches, got %d", len(client.calls))
	}
}

func TestForecastBatch_Validation(t *testing.T) {
	svc := newService(nil, observability.NewMetrics())

	if _, err := svc.ForecastBatch(context.Background(), nil, 1); err == nil {
		t.Error("expected error for empty batch")
	}
	if _, err := svc.ForecastBatch(context.Background(), []string{"a"}, 99); err == nil {
		t.Error("expected error for out-of-range months")
	}
}

func TestDefaultMonths(t *testing.T) {
	svc := service.NewForecastService(&mockTransactionsClient{}, observability.NewMetrics(), zap.NewNop(), service.Options{
		MaxForecastMonths:     6,
		DefaultForecastMonths: 9,
	})
	if got := svc.DefaultMonths(); got != 1 {
		t.Errorf("expected out-of-range default to reset to 1, got %d", got)
	}
}
