package forecast

import (
	"errors"
	"math"
	"runtime"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ARIMAAlpha is the significance level of the ARIMA prediction interval.
const ARIMAAlpha = 0.05

// DefaultARIMAOrder is kept when no grid order fits.
var DefaultARIMAOrder = domain.ARIMAOrder{1, 1, 1}

// arimaGrid lists candidate orders in search order; ties on AIC keep the
// earlier entry.
func arimaGrid() []domain.ARIMAOrder {
	grid := make([]domain.ARIMAOrder, 0, 18)
	for p := 0; p <= 2; p++ {
		for d := 0; d <= 1; d++ {
			for q := 0; q <= 2; q++ {
				grid = append(grid, domain.ARIMAOrder{p, d, q})
			}
		}
	}
	return grid
}

// FitARIMA searches the order grid by AIC and forecasts with the best order.
// Orders that fail to fit are skipped. If every order fails, the default
// (1,1,1) is attempted anyway.
func FitARIMA(series []float64, horizon int) FitOutcome {
	grid := arimaGrid()
	outcomes := make([]FitOutcome, len(grid))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, order := range grid {
		i, order := i, order
		g.Go(func() error {
			outcomes[i] = fitARIMAOrder(series, order, horizon)
			return nil
		})
	}
	_ = g.Wait()

	best := DefaultARIMAOrder
	bestAIC := math.Inf(1)
	var bestOutcome FitOutcome
	for i, out := range outcomes {
		if !out.OK() {
			continue
		}
		if out.Fit().AIC < bestAIC {
			best, bestAIC, bestOutcome = grid[i], out.Fit().AIC, out
		}
	}

	if bestOutcome.OK() {
		return bestOutcome
	}
	return fitARIMAOrder(series, best, horizon)
}

// arimaModel is ARIMA(p,d,q) estimated by conditional sum of squares on the
// d-times differenced series, scaled to unit variance.
type arimaModel struct {
	order domain.ARIMAOrder

	levels [][]float64 // levels[k] is the series differenced k times
	w      []float64   // levels[d] / scale
	scale  float64

	hasMean bool
}

func newARIMAModel(series []float64, order domain.ARIMAOrder) (*arimaModel, error) {
	d := order.D()
	levels := make([][]float64, d+1)
	levels[0] = series
	for k := 1; k <= d; k++ {
		levels[k] = difference(levels[k-1])
	}

	diffed := levels[d]
	scale := stat.PopStdDev(diffed, nil)
	if !(scale > 0) || !isFinite(scale) {
		return nil, errors.New("zero-variance series")
	}

	w := make([]float64, len(diffed))
	for i, v := range diffed {
		w[i] = v / scale
	}
	return &arimaModel{
		order:   order,
		levels:  levels,
		w:       w,
		scale:   scale,
		hasMean: d == 0,
	}, nil
}

func difference(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	out := make([]float64, len(y)-1)
	for i := range out {
		out[i] = y[i+1] - y[i]
	}
	return out
}

// arimaParams are the model coefficients in scaled units.
type arimaParams struct {
	mean  float64
	phi   []float64
	theta []float64
}

func (m *arimaModel) dim() int {
	n := m.order.P() + m.order.Q()
	if m.hasMean {
		n++
	}
	return n
}

// unpack maps unconstrained coordinates onto stationary AR and invertible
// MA polynomials.
func (m *arimaModel) unpack(x []float64) arimaParams {
	var p arimaParams
	if m.hasMean {
		p.mean, x = x[0], x[1:]
	}
	p.phi = constrainPolynomial(x[:m.order.P()])
	ma := constrainPolynomial(x[m.order.P():])
	p.theta = make([]float64, len(ma))
	for i, v := range ma {
		p.theta[i] = -v
	}
	return p
}

// constrainPolynomial treats tanh(x) as partial autocorrelations and runs
// the Durbin-Levinson recursion, yielding coefficients of a polynomial with
// all roots outside the unit circle.
func constrainPolynomial(x []float64) []float64 {
	a := make([]float64, len(x))
	prev := make([]float64, len(x))
	for k := range x {
		r := math.Tanh(x[k])
		copy(prev, a[:k])
		for j := 0; j < k; j++ {
			a[j] = prev[j] - r*prev[k-1-j]
		}
		a[k] = r
	}
	return a
}

// residuals returns the conditional one-step errors for t >= p; pre-sample
// errors are zero.
func (m *arimaModel) residuals(p arimaParams) []float64 {
	start := m.order.P()
	e := make([]float64, len(m.w))
	for t := start; t < len(m.w); t++ {
		v := m.w[t] - p.mean
		for i, phi := range p.phi {
			v -= phi * (m.w[t-1-i] - p.mean)
		}
		for j, theta := range p.theta {
			if t-1-j >= start {
				v -= theta * e[t-1-j]
			}
		}
		e[t] = v
	}
	return e[start:]
}

func (m *arimaModel) css(p arimaParams) float64 {
	var sum float64
	for _, v := range m.residuals(p) {
		sum += v * v
	}
	return sum
}

func (m *arimaModel) initial() []float64 {
	x := make([]float64, m.dim())
	i := 0
	if m.hasMean {
		x[0] = stat.Mean(m.w, nil)
		i = 1
	}
	for ; i < len(x); i++ {
		x[i] = 0.1
	}
	return x
}

// fitARIMAOrder estimates one order and forecasts the horizon with the
// model's own interval.
func fitARIMAOrder(series []float64, order domain.ARIMAOrder, horizon int) FitOutcome {
	m, err := newARIMAModel(series, order)
	if err != nil {
		return Failed("arima%v: %v", order, err)
	}

	nEff := len(m.w) - order.P()
	k := m.dim() + 1 // sigma² counts as a parameter
	if nEff <= k {
		return Failed("arima%v: %d usable observations for %d parameters", order, nEff, k)
	}

	x := m.initial()
	if len(x) > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				v := m.css(m.unpack(x))
				if !isFinite(v) {
					return math.Inf(1)
				}
				return v
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
		res, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{})
		if res == nil || !allFinite(res.X) {
			return Failed("arima%v: optimiser: %v", order, err)
		}
		x = res.X
	}

	params := m.unpack(x)
	sigma2 := m.css(params) / float64(nEff) * m.scale * m.scale
	if !isFinite(sigma2) || sigma2 <= 1e-12*m.scale*m.scale {
		return Failed("arima%v: degenerate residual variance", order)
	}

	logLik := -float64(nEff) / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	aic := 2*float64(k) - 2*logLik

	forecast := m.forecast(params, horizon)
	z := distuv.UnitNormal.Quantile(1 - ARIMAAlpha/2)
	psi := psiWeights(params.phi, params.theta, order.D(), horizon)

	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	var cum float64
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		half := z * math.Sqrt(sigma2*cum)
		lower[h] = forecast[h] - half
		upper[h] = forecast[h] + half
	}

	if !isFinite(aic) || !allFinite(forecast, lower, upper) {
		return Failed("arima%v: non-finite forecast", order)
	}

	o := order
	return Fitted(&Fit{
		Model:    domain.ModelARIMA,
		Order:    &o,
		AIC:      aic,
		Forecast: forecast,
		Lower:    lower,
		Upper:    upper,
	})
}

// forecast runs the recursion forward with zero future errors, then
// integrates back through each differencing level.
func (m *arimaModel) forecast(p arimaParams, horizon int) []float64 {
	n := len(m.w)
	start := m.order.P()
	w := make([]float64, n, n+horizon)
	copy(w, m.w)

	e := make([]float64, n+horizon)
	copy(e[start:], m.residuals(p))

	for t := n; t < n+horizon; t++ {
		v := p.mean
		for i, phi := range p.phi {
			v += phi * (w[t-1-i] - p.mean)
		}
		for j, theta := range p.theta {
			if t-1-j >= start {
				v += theta * e[t-1-j]
			}
		}
		w = append(w, v)
	}

	out := make([]float64, horizon)
	for h := range out {
		out[h] = w[n+h] * m.scale
	}
	for k := m.order.D() - 1; k >= 0; k-- {
		last := m.levels[k][len(m.levels[k])-1]
		for h := range out {
			last += out[h]
			out[h] = last
		}
	}
	return out
}

// psiWeights expands theta(B) / (phi(B)(1-B)^d) into its first n MA(∞)
// coefficients.
func psiWeights(phi, theta []float64, d, n int) []float64 {
	ar := make([]float64, len(phi)+1)
	ar[0] = 1
	for i, v := range phi {
		ar[i+1] = -v
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(ar)+1)
		for i, v := range ar {
			next[i] += v
			next[i+1] -= v
		}
		ar = next
	}

	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		if j == 0 {
			psi[0] = 1
			continue
		}
		var v float64
		if j <= len(theta) {
			v = theta[j-1]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			v -= ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
