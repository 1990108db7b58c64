package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastChecked string `json:"lastChecked"`
}

// ForecastMetrics is returned by GET /v1/metrics/forecast.
type ForecastMetrics struct {
	TotalForecasts int64            `json:"totalForecasts"`
	ByModel        map[string]int64 `json:"byModel"`
	Fallbacks      int64            `json:"fallbacks"`
	FallbackRate   float64          `json:"fallbackRate"`
	Rejections     map[string]int64 `json:"rejections"`
	RejectionRate  float64          `json:"rejectionRate"`
	Period         string           `json:"period"`
}
