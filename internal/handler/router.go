package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/infra/observability"
	"github.com/boddenberg/expense-forecast-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// breaker may be nil when no Transactions API is configured.
func NewRouter(svc port.ExpenseForecaster, breaker *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(breaker))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Prediction API (body-supplied transactions) ---
	r.Post("/api/v1/predictions/expense/advanced", advancedForecastHandler(svc, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// GET /v1/customers/{customerId}/expenses/forecast?months=N
		r.Get("/customers/{customerId}/expenses/forecast", customerForecastHandler(svc, logger))

		// POST /v1/forecasts/batch
		r.Post("/forecasts/batch", batchForecastHandler(svc, logger))

		// GET /v1/metrics/forecast
		r.Get("/metrics/forecast", forecastMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(breaker *gobreaker.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "forecaster", Status: "healthy", LastChecked: now},
		}

		if breaker != nil {
			status := "healthy"
			switch breaker.State() {
			case gobreaker.StateHalfOpen:
				status = "degraded"
			case gobreaker.StateOpen:
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "transactions-api", Status: status, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		// The forecaster itself works without the upstream, so an open
		// breaker degrades the report but never fails the probe.
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func forecastMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetForecastSnapshot())
	}
}
