// Package forecast turns raw transactions into a monthly expense forecast,
// choosing between Holt-Winters, ARIMA and linear models by data volume and
// degrading to a simpler model whenever a fit fails.
package forecast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"github.com/shopspring/decimal"
)

// AggregateMonthly groups expense transactions into calendar-month totals,
// sorted ascending by month. Amounts are summed exactly and converted to
// float64 once per month.
//
// A series shorter than the minimum forecasting window is not an error here.
func AggregateMonthly(txns []domain.Transaction) (domain.MonthlySeries, error) {
	if len(txns) == 0 {
		return nil, &domain.ErrInvalidInput{Reason: "empty transaction list"}
	}

	sums := make(map[domain.MonthKey]decimal.Decimal)
	for i, t := range txns {
		if strings.TrimSpace(t.Date) == "" || t.Amount == nil {
			return nil, &domain.ErrInvalidInput{Reason: fmt.Sprintf("record %d is missing date or amount", i)}
		}
		date, err := domain.ParseTransactionDate(t.Date)
		if err != nil {
			return nil, &domain.ErrInvalidInput{Reason: fmt.Sprintf("record %d: %v", i, err)}
		}
		if !t.IsExpense() {
			continue
		}
		key := domain.MonthKeyOf(date)
		sums[key] = sums[key].Add(*t.Amount)
	}

	if len(sums) == 0 {
		return nil, &domain.ErrNoExpenseData{}
	}

	series := make(domain.MonthlySeries, 0, len(sums))
	for key, total := range sums {
		series = append(series, domain.MonthlyTotal{Month: key, Total: total.InexactFloat64()})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month.Before(series[j].Month)
	})
	return series, nil
}
