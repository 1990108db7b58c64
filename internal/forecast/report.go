package forecast

import (
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
)

// assembleReport merges a fit with the series metadata.
func assembleReport(fit *Fit, series domain.MonthlySeries, trainedAt time.Time) *domain.ForecastResult {
	return &domain.ForecastResult{
		ModelType:               fit.Model,
		Order:                   fit.Order,
		Forecast:                fit.Forecast,
		ConfidenceIntervalLower: fit.Lower,
		ConfidenceIntervalUpper: fit.Upper,
		ConfidenceLevel:         domain.DefaultConfidenceLevel,
		MonthsOfData:            len(series),
		LastMonthExpense:        series.Last(),
		AverageMonthlyExpense:   series.Mean(),
		TrainedAt:               trainedAt,
	}
}

// errorResult builds an error descriptor. The default forecast is the
// series mean when any monthly data exists, zeros otherwise.
func errorResult(err error, horizon int, series domain.MonthlySeries) *domain.ForecastResult {
	if horizon < 0 {
		horizon = 0
	}
	fill := series.Mean()
	forecast := make([]float64, horizon)
	for i := range forecast {
		forecast[i] = fill
	}
	return &domain.ForecastResult{
		Forecast:     forecast,
		MonthsOfData: len(series),
		Error:        err.Error(),
		Cause:        err,
	}
}
