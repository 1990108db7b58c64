package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Rejection reasons used as metric labels.
const (
	ReasonInvalidInput     = "invalid_input"
	ReasonNoExpenseData    = "no_expense_data"
	ReasonInsufficientData = "insufficient_data"
	ReasonOther            = "other"
)

var (
	modelTypes = []domain.ModelType{domain.ModelHoltWinters, domain.ModelARIMA, domain.ModelLinear}
	reasons    = []string{ReasonInvalidInput, ReasonNoExpenseData, ReasonInsufficientData, ReasonOther}
)

// Metrics holds all Prometheus metrics for the forecaster.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	httpDuration     *prometheus.HistogramVec
	forecastDuration *prometheus.HistogramVec
	forecastsTotal   *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	rejectionsTotal  *prometheus.CounterVec
	externalErrors   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forecaster_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		forecastDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forecaster_fit_duration_seconds",
				Help:    "Duration of forecast calls by resulting model.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"model"},
		),
		forecastsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_forecasts_total",
				Help: "Successful forecasts by resulting model.",
			},
			[]string{"model"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_fallbacks_total",
				Help: "Forecasts that degraded from the selected model.",
			},
			[]string{"from", "to"},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_rejections_total",
				Help: "Forecast requests answered with an error descriptor.",
			},
			[]string{"reason"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
	}
}

// RecordHTTPRequest records the duration of a served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordForecast counts a forecast outcome: the model used, any fallback,
// or the rejection reason of an error descriptor.
func (m *Metrics) RecordForecast(r *domain.ForecastResult, d time.Duration) {
	if r.Failed() {
		m.rejectionsTotal.WithLabelValues(RejectionReason(r.Err())).Inc()
		return
	}
	model := string(r.ModelType)
	m.forecastsTotal.WithLabelValues(model).Inc()
	m.forecastDuration.WithLabelValues(model).Observe(d.Seconds())
	if r.FellBack() {
		m.fallbacksTotal.WithLabelValues(string(r.SelectedModel), model).Inc()
	}
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// RejectionReason maps a descriptor cause onto a metric label.
func RejectionReason(err error) string {
	var invalid *domain.ErrInvalidInput
	var noExpense *domain.ErrNoExpenseData
	var insufficient *domain.ErrInsufficientData
	switch {
	case errors.As(err, &invalid):
		return ReasonInvalidInput
	case errors.As(err, &noExpense):
		return ReasonNoExpenseData
	case errors.As(err, &insufficient):
		return ReasonInsufficientData
	default:
		return ReasonOther
	}
}

// GetForecastSnapshot returns a snapshot of forecast metrics suitable for the
// GET /v1/metrics/forecast endpoint.
func (m *Metrics) GetForecastSnapshot() *domain.ForecastMetrics {
	// Prometheus counters expose cumulative values.
	byModel := make(map[string]int64, len(modelTypes))
	var succeeded float64
	for _, mt := range modelTypes {
		v := getCounterValue(m.forecastsTotal, string(mt))
		byModel[string(mt)] = int64(v)
		succeeded += v
	}

	rejections := make(map[string]int64, len(reasons))
	var rejected float64
	for _, reason := range reasons {
		v := getCounterValue(m.rejectionsTotal, reason)
		rejections[reason] = int64(v)
		rejected += v
	}

	fallbacks := getCounterValue(m.fallbacksTotal, string(domain.ModelHoltWinters), string(domain.ModelARIMA)) +
		getCounterValue(m.fallbacksTotal, string(domain.ModelHoltWinters), string(domain.ModelLinear)) +
		getCounterValue(m.fallbacksTotal, string(domain.ModelARIMA), string(domain.ModelLinear))

	fallbackRate := float64(0)
	rejectionRate := float64(0)
	if succeeded > 0 {
		fallbackRate = fallbacks / succeeded
	}
	if total := succeeded + rejected; total > 0 {
		rejectionRate = rejected / total
	}

	return &domain.ForecastMetrics{
		TotalForecasts: int64(succeeded + rejected),
		ByModel:        byModel,
		Fallbacks:      int64(fallbacks),
		FallbackRate:   fallbackRate,
		Rejections:     rejections,
		RejectionRate:  rejectionRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// routePattern returns the matched chi route pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
