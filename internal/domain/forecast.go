package domain

import (
	"encoding/json"
	"time"
)

// ============================================================
// Forecast models
// ============================================================

// ModelType names a forecasting strategy.
type ModelType string

const (
	ModelLinear      ModelType = "linear"
	ModelARIMA       ModelType = "arima"
	ModelHoltWinters ModelType = "holt_winters"
)

// ARIMAOrder is the (p, d, q) order of an ARIMA model. It serializes as a
// three-element JSON array.
type ARIMAOrder [3]int

func (o ARIMAOrder) P() int { return o[0] }
func (o ARIMAOrder) D() int { return o[1] }
func (o ARIMAOrder) Q() int { return o[2] }

// DefaultConfidenceLevel is the nominal coverage of every forecast band.
const DefaultConfidenceLevel = 0.95

// ForecastResult is produced once per forecast call and never mutated after.
//
// When Error is set the result is an error descriptor: only Forecast (filled
// with default values) and, when known, MonthsOfData are meaningful.
type ForecastResult struct {
	ModelType               ModelType   `json:"model_type"`
	Order                   *ARIMAOrder `json:"order,omitempty"`
	Forecast                []float64   `json:"forecast"`
	ConfidenceIntervalLower []float64   `json:"confidence_interval_lower"`
	ConfidenceIntervalUpper []float64   `json:"confidence_interval_upper"`
	ConfidenceLevel         float64     `json:"confidence_level"`
	MonthsOfData            int         `json:"months_of_data"`
	LastMonthExpense        float64     `json:"last_month_expense"`
	AverageMonthlyExpense   float64     `json:"average_monthly_expense"`
	TrainedAt               time.Time   `json:"trained_at"`

	// SelectedModel is what the selector picked before any fallback.
	SelectedModel ModelType `json:"-"`

	Error string `json:"-"`
	Cause error  `json:"-"`
}

// Failed reports whether the result is an error descriptor.
func (r *ForecastResult) Failed() bool {
	return r != nil && r.Error != ""
}

// FellBack reports whether a fitting failure degraded the selected model.
func (r *ForecastResult) FellBack() bool {
	return !r.Failed() && r.SelectedModel != "" && r.SelectedModel != r.ModelType
}

// Err returns the typed cause of an error descriptor, or nil on success.
func (r *ForecastResult) Err() error {
	if !r.Failed() {
		return nil
	}
	return r.Cause
}

type forecastErrorJSON struct {
	Error        string    `json:"error"`
	Forecast     []float64 `json:"forecast"`
	MonthsOfData int       `json:"months_of_data,omitempty"`
}

// MarshalJSON emits the success shape, or {error, forecast} for descriptors.
func (r ForecastResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(forecastErrorJSON{
			Error:        r.Error,
			Forecast:     r.Forecast,
			MonthsOfData: r.MonthsOfData,
		})
	}
	type plain ForecastResult
	return json.Marshal(plain(r))
}

// ModelInfo describes the most recent fit of a forecaster instance.
type ModelInfo struct {
	ModelType   ModelType  `json:"model_type,omitempty"`
	DataMonths  int        `json:"data_months"`
	LastTrained *time.Time `json:"last_trained"`
	IsFitted    bool       `json:"is_fitted"`
}

// ============================================================
// Forecast API types
// ============================================================

// AdvancedForecastRequest is the body of POST /api/v1/predictions/expense/advanced.
type AdvancedForecastRequest struct {
	UserID         int           `json:"user_id"`
	Transactions   []Transaction `json:"transactions"`
	ForecastMonths *int          `json:"forecast_months,omitempty"`
}

// ForecastResponse is the successful forecast envelope returned over HTTP.
type ForecastResponse struct {
	Success                 bool        `json:"success"`
	RequestID               string      `json:"request_id"`
	UserID                  int         `json:"user_id,omitempty"`
	CustomerID              string      `json:"customer_id,omitempty"`
	ModelType               ModelType   `json:"model_type"`
	Order                   *ARIMAOrder `json:"order,omitempty"`
	Forecast                []float64   `json:"forecast"`
	ConfidenceIntervalLower []float64   `json:"confidence_interval_lower"`
	ConfidenceIntervalUpper []float64   `json:"confidence_interval_upper"`
	ConfidenceLevel         float64     `json:"confidence_level"`
	MonthsOfData            int         `json:"months_of_data"`
	LastMonthExpense        float64     `json:"last_month_expense"`
	AverageMonthlyExpense   float64     `json:"average_monthly_expense"`
	TrainedAt               string      `json:"trained_at"`
}

// NewForecastResponse copies a successful result into the HTTP envelope.
func NewForecastResponse(requestID string, r *ForecastResult) *ForecastResponse {
	return &ForecastResponse{
		Success:                 true,
		RequestID:               requestID,
		ModelType:               r.ModelType,
		Order:                   r.Order,
		Forecast:                r.Forecast,
		ConfidenceIntervalLower: r.ConfidenceIntervalLower,
		ConfidenceIntervalUpper: r.ConfidenceIntervalUpper,
		ConfidenceLevel:         r.ConfidenceLevel,
		MonthsOfData:            r.MonthsOfData,
		LastMonthExpense:        r.LastMonthExpense,
		AverageMonthlyExpense:   r.AverageMonthlyExpense,
		TrainedAt:               r.TrainedAt.Format(time.RFC3339Nano),
	}
}

// BatchForecastRequest is the body of POST /v1/forecasts/batch.
type BatchForecastRequest struct {
	CustomerIDs    []string `json:"customer_ids"`
	ForecastMonths int      `json:"forecast_months"`
}

// BatchForecastItem is the per-customer outcome of a batch forecast.
type BatchForecastItem struct {
	CustomerID string          `json:"customer_id"`
	Result     *ForecastResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// BatchForecastResponse wraps the items in request order.
type BatchForecastResponse struct {
	RequestID string              `json:"request_id"`
	Items     []BatchForecastItem `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}
