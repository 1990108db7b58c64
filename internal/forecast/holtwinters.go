package forecast

import (
	"math"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	defaultSeasonalPeriod = 12
	minSeasonalPeriod     = 4
)

// seasonalPeriod shrinks the nominal yearly period when the series holds
// fewer than two full seasons.
func seasonalPeriod(n int) int {
	if n < 2*defaultSeasonalPeriod {
		return max(minSeasonalPeriod, n/2)
	}
	return defaultSeasonalPeriod
}

// holtWinters is an additive-trend, additive-season exponential smoothing
// model over a fixed series.
type holtWinters struct {
	y      []float64
	period int

	level0  float64
	trend0  float64
	season0 []float64
}

func newHoltWinters(y []float64, period int) *holtWinters {
	m := period
	first := floats.Sum(y[:m]) / float64(m)
	second := floats.Sum(y[m:2*m]) / float64(m)

	season := make([]float64, m)
	for i := range season {
		season[i] = y[i] - first
	}
	return &holtWinters{
		y:       y,
		period:  m,
		level0:  first,
		trend0:  (second - first) / float64(m),
		season0: season,
	}
}

// hwState is the result of one smoothing pass.
type hwState struct {
	sse    float64
	fitted []float64
	level  float64
	trend  float64
	season []float64 // len(y)+period; the last period entries are current
}

func (hw *holtWinters) smooth(alpha, beta, gamma float64) hwState {
	n, m := len(hw.y), hw.period
	season := make([]float64, n+m)
	copy(season, hw.season0)
	fitted := make([]float64, n)

	level, trend := hw.level0, hw.trend0
	var sse float64
	for t, obs := range hw.y {
		s := season[t]
		fitted[t] = level + trend + s

		prevLevel, prevTrend := level, trend
		level = alpha*(obs-s) + (1-alpha)*(prevLevel+prevTrend)
		trend = beta*(level-prevLevel) + (1-beta)*prevTrend
		season[t+m] = gamma*(obs-prevLevel-prevTrend) + (1-gamma)*s

		e := obs - fitted[t]
		sse += e * e
	}
	return hwState{sse: sse, fitted: fitted, level: level, trend: trend, season: season}
}

func (hw *holtWinters) forecast(st hwState, horizon int) []float64 {
	n, m := len(hw.y), hw.period
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = st.level + float64(h)*st.trend + st.season[n+(h-1)%m]
	}
	return out
}

// smoothingParams maps unconstrained optimiser coordinates into (0, 1).
func smoothingParams(x []float64) (alpha, beta, gamma float64) {
	return logistic(x[0]), logistic(x[1]), logistic(x[2])
}

func logistic(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

// FitHoltWinters fits the seasonal smoothing model with parameters chosen
// by minimising the in-sample squared error. The band is ±1.96σ of the
// in-sample residuals.
func FitHoltWinters(series []float64, horizon int) FitOutcome {
	n := len(series)
	m := seasonalPeriod(n)
	if n < 2*m {
		return Failed("holt-winters: %d observations cannot cover two seasons of %d", n, m)
	}
	if floats.Max(series) == floats.Min(series) {
		return Failed("holt-winters: constant series")
	}

	hw := newHoltWinters(series, m)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, b, g := smoothingParams(x)
			sse := hw.smooth(a, b, g).sse
			if !isFinite(sse) {
				return math.Inf(1)
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 1000,
		FuncEvaluations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}
	x0 := []float64{logit(0.3), logit(0.1), logit(0.1)}

	// Hitting an iteration limit still yields the best point seen.
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: 1})
	if res == nil || !allFinite(res.X) || !isFinite(res.F) {
		return Failed("holt-winters: optimiser: %v", err)
	}

	alpha, beta, gamma := smoothingParams(res.X)
	st := hw.smooth(alpha, beta, gamma)
	forecast := hw.forecast(st, horizon)

	residuals := make([]float64, n)
	for i := range series {
		residuals[i] = st.fitted[i] - series[i]
	}
	if !allFinite(forecast, residuals) {
		return Failed("holt-winters: non-finite forecast")
	}
	return Fitted(residualBand(domain.ModelHoltWinters, forecast, residualSigma(residuals)))
}
