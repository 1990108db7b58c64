package forecast_test

import (
	"math"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"github.com/shopspring/decimal"
)

var testStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

func amount(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// monthlyTxns spreads each month's total over three expense records and adds
// an income record that must be ignored.
func monthlyTxns(values ...float64) []domain.Transaction {
	var txns []domain.Transaction
	for i, v := range values {
		month := testStart.AddDate(0, i, 0)
		txns = append(txns,
			domain.Transaction{Date: month.AddDate(0, 0, 2).Format("2006-01-02"), Amount: amount(v / 2), Type: "expense"},
			domain.Transaction{Date: month.AddDate(0, 0, 11).Format("2006-01-02"), Amount: amount(v / 4), Type: "Expense"},
			domain.Transaction{Date: month.AddDate(0, 0, 24).Format("2006-01-02"), Amount: amount(v / 4), Type: "EXPENSE"},
			domain.Transaction{Date: month.AddDate(0, 0, 5).Format("2006-01-02"), Amount: amount(5000), Type: "income"},
		)
	}
	return txns
}

// seasonalSeries has trend, yearly seasonality and deterministic wobble.
func seasonalSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 1000 + 15*x + 120*math.Sin(2*math.Pi*x/12) + 25*math.Cos(1.7*x)
	}
	return out
}

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
