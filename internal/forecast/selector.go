package forecast

import "github.com/boddenberg/expense-forecast-go/internal/domain"

const (
	holtWintersMinMonths = 12
	arimaMinMonths       = 6
)

// SelectModel picks a strategy from the number of monthly observations.
// Callers reject series shorter than the minimum before selecting.
func SelectModel(monthsAvailable int) domain.ModelType {
	switch {
	case monthsAvailable >= holtWintersMinMonths:
		return domain.ModelHoltWinters
	case monthsAvailable >= arimaMinMonths:
		return domain.ModelARIMA
	default:
		return domain.ModelLinear
	}
}
