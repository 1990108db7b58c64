package forecast_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/forecast"
	"github.com/boddenberg/expense-forecast-go/internal/sampledata"

	"go.uber.org/zap"
)

func assertResultShape(t *testing.T, r *domain.ForecastResult, horizon int) {
	t.Helper()
	if r.Failed() {
		t.Fatalf("unexpected error descriptor: %s", r.Error)
	}
	if len(r.Forecast) != horizon || len(r.ConfidenceIntervalLower) != horizon || len(r.ConfidenceIntervalUpper) != horizon {
		t.Fatalf("expected %d points, got forecast=%d lower=%d upper=%d",
			horizon, len(r.Forecast), len(r.ConfidenceIntervalLower), len(r.ConfidenceIntervalUpper))
	}
	for i := range r.Forecast {
		if !(r.ConfidenceIntervalLower[i] <= r.Forecast[i] && r.Forecast[i] <= r.ConfidenceIntervalUpper[i]) {
			t.Errorf("step %d: band [%v, %v] does not contain %v",
				i, r.ConfidenceIntervalLower[i], r.ConfidenceIntervalUpper[i], r.Forecast[i])
		}
	}
	if r.ConfidenceLevel != 0.95 {
		t.Errorf("expected confidence level 0.95, got %v", r.ConfidenceLevel)
	}
}

func TestForecast_HorizonAndIntervals(t *testing.T) {
	tests := []struct {
		name   string
		months int
	}{
		{"linear", 4},
		{"arima", 8},
		{"holt-winters", 18},
	}
	for _, tt := range tests {
		for _, horizon := range []int{1, 3, 6, 12} {
			r := forecast.New().Forecast(monthlyTxns(seasonalSeries(tt.months)...), horizon)
			assertResultShape(t, r, horizon)
			if r.MonthsOfData != tt.months {
				t.Errorf("%s: expected %d months of data, got %d", tt.name, tt.months, r.MonthsOfData)
			}
		}
	}
}

func TestForecast_Metadata(t *testing.T) {
	fixed := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	f := forecast.New(forecast.WithClock(func() time.Time { return fixed }))

	r := f.Forecast(monthlyTxns(1000, 1200, 1400, 1600), 2)

	assertResultShape(t, r, 2)
	if r.ModelType != domain.ModelLinear {
		t.Errorf("expected linear, got %s", r.ModelType)
	}
	if r.MonthsOfData != 4 {
		t.Errorf("expected 4 months, got %d", r.MonthsOfData)
	}
	if r.LastMonthExpense != 1600 {
		t.Errorf("expected last month 1600, got %v", r.LastMonthExpense)
	}
	if r.AverageMonthlyExpense != 1300 {
		t.Errorf("expected average 1300, got %v", r.AverageMonthlyExpense)
	}
	if !r.TrainedAt.Equal(fixed) {
		t.Errorf("expected trained_at %v, got %v", fixed, r.TrainedAt)
	}
	if r.Order != nil {
		t.Errorf("expected no order outside arima, got %v", *r.Order)
	}
}

func TestForecast_ArimaCarriesOrder(t *testing.T) {
	r := forecast.New().Forecast(monthlyTxns(seasonalSeries(9)...), 2)
	assertResultShape(t, r, 2)
	if r.ModelType == domain.ModelARIMA && r.Order == nil {
		t.Error("expected order on arima result")
	}
	if r.SelectedModel != domain.ModelARIMA {
		t.Errorf("expected arima to be selected, got %s", r.SelectedModel)
	}
}

func TestForecast_ConstantSeriesDegrades(t *testing.T) {
	r := forecast.New(forecast.WithLogger(zap.NewNop())).Forecast(monthlyTxns(constantSeries(12, 800)...), 3)

	assertResultShape(t, r, 3)
	if r.ModelType != domain.ModelARIMA && r.ModelType != domain.ModelLinear {
		t.Fatalf("expected arima or linear after fallback, got %s", r.ModelType)
	}
	if r.SelectedModel != domain.ModelHoltWinters {
		t.Errorf("expected holt_winters to be selected first, got %s", r.SelectedModel)
	}
	if !r.FellBack() {
		t.Error("expected result to report a fallback")
	}
	for i, v := range r.Forecast {
		if diff := v - 800; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("step %d: expected 800, got %v", i, v)
		}
	}
}

func TestForecast_InsufficientData(t *testing.T) {
	r := forecast.New().Forecast(monthlyTxns(1000, 2000), 4)

	if !r.Failed() {
		t.Fatal("expected error descriptor")
	}
	if r.Error != "Insufficient data (minimum 3 months required)" {
		t.Errorf("unexpected error %q", r.Error)
	}
	if len(r.Forecast) != 4 {
		t.Fatalf("expected 4 default points, got %d", len(r.Forecast))
	}
	for i, v := range r.Forecast {
		if v != 1500 {
			t.Errorf("step %d: expected series mean 1500, got %v", i, v)
		}
	}
	if r.MonthsOfData != 2 {
		t.Errorf("expected months_of_data 2, got %d", r.MonthsOfData)
	}

	var insufficient *domain.ErrInsufficientData
	if !errors.As(r.Err(), &insufficient) {
		t.Fatalf("expected ErrInsufficientData cause, got %T", r.Err())
	}
	if insufficient.Months != 2 {
		t.Errorf("expected 2 months on error, got %d", insufficient.Months)
	}
}

func TestForecast_MinMonthsOption(t *testing.T) {
	f := forecast.New(forecast.WithMinMonths(6))
	r := f.Forecast(monthlyTxns(seasonalSeries(5)...), 1)
	if r.Error != "Insufficient data (minimum 6 months required)" {
		t.Errorf("unexpected error %q", r.Error)
	}

	// Values below three are ignored.
	f = forecast.New(forecast.WithMinMonths(1))
	r = f.Forecast(monthlyTxns(100, 200), 1)
	if !r.Failed() {
		t.Error("expected two months to be rejected")
	}
}

func TestForecast_Deterministic(t *testing.T) {
	for _, months := range []int{4, 8, 15} {
		txns := monthlyTxns(seasonalSeries(months)...)
		a := forecast.New().Forecast(txns, 3)
		b := forecast.New().Forecast(txns, 3)

		if a.ModelType != b.ModelType {
			t.Errorf("%d months: model changed %s → %s", months, a.ModelType, b.ModelType)
		}
		if !reflect.DeepEqual(a.Forecast, b.Forecast) ||
			!reflect.DeepEqual(a.ConfidenceIntervalLower, b.ConfidenceIntervalLower) ||
			!reflect.DeepEqual(a.ConfidenceIntervalUpper, b.ConfidenceIntervalUpper) {
			t.Errorf("%d months: forecast changed between identical calls", months)
		}
	}
}

func TestForecast_InvalidHorizon(t *testing.T) {
	r := forecast.New().Forecast(monthlyTxns(1, 2, 3), 0)
	if r.Error != "Invalid transaction data" {
		t.Errorf("unexpected error %q", r.Error)
	}
	if len(r.Forecast) != 0 {
		t.Errorf("expected empty forecast, got %v", r.Forecast)
	}
}

func TestForecast_ModelInfo(t *testing.T) {
	f := forecast.New()

	info := f.ModelInfo()
	if info.IsFitted || info.ModelType != "" || info.LastTrained != nil {
		t.Errorf("expected empty info before first fit, got %+v", info)
	}

	f.Forecast(monthlyTxns(100, 120, 140), 1)
	info = f.ModelInfo()
	if !info.IsFitted || info.ModelType != domain.ModelLinear || info.DataMonths != 3 || info.LastTrained == nil {
		t.Errorf("unexpected info after fit: %+v", info)
	}

	// Error descriptors leave the previous fit in place.
	f.Forecast(nil, 1)
	if again := f.ModelInfo(); again.DataMonths != 3 || !again.IsFitted {
		t.Errorf("expected info to survive a rejected call, got %+v", again)
	}
}

// ============================================================
// End-to-end scenarios
// ============================================================

func TestForecast_FifteenMonthsOfSampleData(t *testing.T) {
	opts := sampledata.DefaultOptions()
	opts.Months = 15
	opts.Start = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	r := forecast.New().Forecast(sampledata.Generate(opts), 3)

	assertResultShape(t, r, 3)
	switch r.ModelType {
	case domain.ModelHoltWinters, domain.ModelARIMA, domain.ModelLinear:
	default:
		t.Errorf("unexpected model type %q", r.ModelType)
	}
	if r.MonthsOfData != 15 {
		t.Errorf("expected 15 months, got %d", r.MonthsOfData)
	}
}

func TestForecast_FourMonthsIsLinear(t *testing.T) {
	r := forecast.New().Forecast(monthlyTxns(900, 950, 1010, 1040), 1)

	assertResultShape(t, r, 1)
	if r.ModelType != domain.ModelLinear {
		t.Errorf("expected linear, got %s", r.ModelType)
	}
}

func TestForecast_EmptyTransactions(t *testing.T) {
	r := forecast.New().Forecast([]domain.Transaction{}, 1)

	body, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"error":"Invalid transaction data","forecast":[0]}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestForecast_OnlyIncome(t *testing.T) {
	txns := []domain.Transaction{
		{Date: "2024-01-05", Amount: amount(5000), Type: "income"},
		{Date: "2024-02-05", Amount: amount(5000), Type: "income"},
		{Date: "2024-03-05", Amount: amount(5000), Type: "income"},
	}
	r := forecast.New().Forecast(txns, 2)

	if r.Error != "No expense data available" {
		t.Errorf("unexpected error %q", r.Error)
	}
	if !reflect.DeepEqual(r.Forecast, []float64{0, 0}) {
		t.Errorf("expected zero forecast, got %v", r.Forecast)
	}
}

func TestForecastResult_SuccessJSON(t *testing.T) {
	r := forecast.New().Forecast(monthlyTxns(100, 110, 120), 1)

	body, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{
		"model_type", "forecast", "confidence_interval_lower", "confidence_interval_upper",
		"confidence_level", "months_of_data", "last_month_expense", "average_monthly_expense", "trained_at",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, body)
		}
	}
	for _, key := range []string{"error", "order"} {
		if _, ok := m[key]; ok {
			t.Errorf("unexpected key %q in %s", key, body)
		}
	}
}
