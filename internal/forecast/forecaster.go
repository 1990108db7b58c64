package forecast

import (
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"go.uber.org/zap"
)

// fitFunc fits one seasonal or autoregressive strategy.
type fitFunc func(series []float64, horizon int) FitOutcome

// Forecaster produces monthly expense forecasts. It keeps the most recent
// fit for introspection only; Forecast itself holds no state across calls.
// Safe for concurrent use, though callers normally create one per request.
type Forecaster struct {
	logger    *zap.Logger
	minMonths int
	now       func() time.Time

	holtWinters fitFunc
	arima       fitFunc

	mu          sync.Mutex
	model       *Fit
	dataMonths  int
	lastTrained time.Time
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Forecaster) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMinMonths raises the minimum history required. Values below three are
// ignored.
func WithMinMonths(n int) Option {
	return func(f *Forecaster) {
		if n > f.minMonths {
			f.minMonths = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) {
		if now != nil {
			f.now = now
		}
	}
}

// New creates a Forecaster.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{
		logger:      zap.NewNop(),
		minMonths:   domain.MinForecastMonths,
		now:         time.Now,
		holtWinters: FitHoltWinters,
		arima:       FitARIMA,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast predicts total expenses for the next horizon months. It never
// fails: invalid or insufficient input yields an error descriptor with a
// default forecast, and fitting failures degrade to a simpler model.
func (f *Forecaster) Forecast(txns []domain.Transaction, horizon int) *domain.ForecastResult {
	if horizon < 1 {
		return errorResult(&domain.ErrInvalidInput{Reason: fmt.Sprintf("forecast horizon %d", horizon)}, 0, nil)
	}

	series, err := AggregateMonthly(txns)
	if err != nil {
		return errorResult(err, horizon, nil)
	}
	if len(series) < f.minMonths {
		return errorResult(&domain.ErrInsufficientData{Months: len(series), Required: f.minMonths}, horizon, series)
	}

	selected := SelectModel(len(series))
	fit := f.fit(selected, series.Values(), horizon)
	trainedAt := f.now()

	result := assembleReport(fit, series, trainedAt)
	result.SelectedModel = selected

	f.mu.Lock()
	f.model = fit
	f.dataMonths = len(series)
	f.lastTrained = trainedAt
	f.mu.Unlock()

	return result
}

// fit runs the selected strategy and its fallback chain:
// holt_winters → arima → linear.
func (f *Forecaster) fit(selected domain.ModelType, series []float64, horizon int) *Fit {
	if selected == domain.ModelHoltWinters {
		out := f.holtWinters(series, horizon)
		if out.OK() {
			return out.Fit()
		}
		f.logger.Debug("holt-winters fit failed, falling back to arima",
			zap.String("reason", out.Reason()),
			zap.Int("months", len(series)),
		)
		selected = domain.ModelARIMA
	}

	if selected == domain.ModelARIMA {
		out := f.arima(series, horizon)
		if out.OK() {
			return out.Fit()
		}
		f.logger.Debug("arima fit failed, falling back to linear",
			zap.String("reason", out.Reason()),
			zap.Int("months", len(series)),
		)
	}

	return FitLinear(series, horizon)
}

// ModelInfo describes the most recent successful fit.
func (f *Forecaster) ModelInfo() domain.ModelInfo {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.model == nil {
		return domain.ModelInfo{}
	}
	trained := f.lastTrained
	return domain.ModelInfo{
		ModelType:   f.model.Model,
		DataMonths:  f.dataMonths,
		LastTrained: &trained,
		IsFitted:    true,
	}
}
