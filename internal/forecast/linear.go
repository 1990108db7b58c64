package forecast

import (
	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"gonum.org/v1/gonum/stat"
)

// FitLinear fits ordinary least squares of value against 0-based month index
// and extrapolates the line. It needs at least two points and cannot fail
// beyond that, which makes it the terminal fallback.
func FitLinear(series []float64, horizon int) *Fit {
	n := len(series)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(x, series, nil, false)

	residuals := make([]float64, n)
	for i := range series {
		residuals[i] = intercept + slope*x[i] - series[i]
	}
	sigma := residualSigma(residuals)

	forecast := make([]float64, horizon)
	for h := range forecast {
		forecast[h] = intercept + slope*float64(n+h)
	}
	return residualBand(domain.ModelLinear, forecast, sigma)
}
