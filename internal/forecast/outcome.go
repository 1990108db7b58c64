package forecast

import (
	"fmt"
	"math"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"gonum.org/v1/gonum/stat"
)

// residualBandZ is the normal quantile used for the residual-based bands.
const residualBandZ = 1.96

// Fit is a fitted model's forecast over the requested horizon.
type Fit struct {
	Model    domain.ModelType
	Order    *domain.ARIMAOrder // ARIMA only
	AIC      float64            // ARIMA only
	Forecast []float64
	Lower    []float64
	Upper    []float64
}

// FitOutcome is either Fitted or Failed. Fallback decisions branch on it
// instead of recovering from panics or inspecting errors.
type FitOutcome struct {
	fit    *Fit
	reason string
}

// Fitted wraps a successful fit.
func Fitted(f *Fit) FitOutcome {
	return FitOutcome{fit: f}
}

// Failed records why a fit could not be produced.
func Failed(format string, args ...any) FitOutcome {
	return FitOutcome{reason: fmt.Sprintf(format, args...)}
}

// OK reports whether the outcome carries a fit.
func (o FitOutcome) OK() bool { return o.fit != nil }

// Fit returns the fit, or nil for a failed outcome.
func (o FitOutcome) Fit() *Fit { return o.fit }

// Reason returns the failure reason, or "" for a fitted outcome.
func (o FitOutcome) Reason() string { return o.reason }

// residualBand builds a constant-width band of ±1.96σ around every point.
// The width does not grow with the horizon.
func residualBand(model domain.ModelType, forecast []float64, sigma float64) *Fit {
	lower := make([]float64, len(forecast))
	upper := make([]float64, len(forecast))
	for i, v := range forecast {
		lower[i] = v - residualBandZ*sigma
		upper[i] = v + residualBandZ*sigma
	}
	return &Fit{Model: model, Forecast: forecast, Lower: lower, Upper: upper}
}

// residualSigma is the population standard deviation of the residuals,
// clamped at zero against rounding.
func residualSigma(residuals []float64) float64 {
	v := stat.PopVariance(residuals, nil)
	if !(v > 0) {
		return 0
	}
	return math.Sqrt(v)
}

func allFinite(slices ...[]float64) bool {
	for _, s := range slices {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
