// Package sampledata generates synthetic transaction histories for local
// runs, demos and tests.
package sampledata

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Category is an expense category with its typical monthly spending range.
type Category struct {
	Name string
	Min  float64
	Max  float64
}

// Categories lists the generated expense categories in a fixed order.
var Categories = []Category{
	{Name: "Food", Min: 200, Max: 600},
	{Name: "Transport", Min: 100, Max: 300},
	{Name: "Shopping", Min: 150, Max: 500},
	{Name: "Entertainment", Min: 50, Max: 200},
	{Name: "Utilities", Min: 100, Max: 250},
	{Name: "Healthcare", Min: 50, Max: 300},
	{Name: "Education", Min: 0, Max: 400},
	{Name: "Other", Min: 50, Max: 200},
}

// Options controls the generated history.
type Options struct {
	Months            int
	Start             time.Time // zero → Months months before now
	BaseIncome        float64
	IncomeGrowthRate  float64 // per month
	ExpenseTrend      float64 // per month, relative to the category midpoint
	ExpenseVolatility float64
	Seed              int64
}

// DefaultOptions returns a year of data with the stock parameters.
func DefaultOptions() Options {
	return Options{
		Months:            12,
		BaseIncome:        5000,
		IncomeGrowthRate:  0.02,
		ExpenseTrend:      0.01,
		ExpenseVolatility: 0.15,
		Seed:              42,
	}
}

// Generate returns one income record plus 1–5 expense records per category
// for every month, sorted by date. Each month's records fall on days 1–28
// of that calendar month. Output is deterministic for a fixed seed and start.
func Generate(opts Options) []domain.Transaction {
	if opts.Months <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	start := opts.Start
	if start.IsZero() {
		start = time.Now().AddDate(0, -opts.Months, 0)
	}
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	type dated struct {
		at time.Time
		tx domain.Transaction
	}
	var out []dated

	for idx := 0; idx < opts.Months; idx++ {
		month := start.AddDate(0, idx, 0)

		income := opts.BaseIncome * math.Pow(1+opts.IncomeGrowthRate, float64(idx))
		income += rng.NormFloat64() * income * 0.05
		out = append(out, dated{at: month, tx: record(month, "Income", domain.TransactionIncome, income)})

		for _, cat := range Categories {
			base := (cat.Min + cat.Max) / 2
			amount := (base + base*opts.ExpenseTrend*float64(idx)) * seasonalFactor(cat.Name, month.Month())
			amount += rng.NormFloat64() * amount * opts.ExpenseVolatility
			amount = math.Max(0, amount)

			for _, share := range splitShares(rng, 1+rng.Intn(5)) {
				at := month.AddDate(0, 0, rng.Intn(28))
				out = append(out, dated{at: at, tx: record(at, cat.Name, domain.TransactionExpense, amount*share)})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })

	txns := make([]domain.Transaction, len(out))
	for i, d := range out {
		txns[i] = d.tx
	}
	return txns
}

// seasonalFactor bumps holiday shopping, summer entertainment and winter
// utilities.
func seasonalFactor(category string, m time.Month) float64 {
	switch {
	case category == "Shopping" && (m == time.November || m == time.December):
		return 1.3
	case category == "Entertainment" && m >= time.June && m <= time.August:
		return 1.2
	case category == "Utilities" && (m == time.January || m == time.February || m == time.December):
		return 1.15
	}
	return 1.0
}

// splitShares draws n proportions summing to one from a flat Dirichlet.
func splitShares(rng *rand.Rand, n int) []float64 {
	shares := make([]float64, n)
	var sum float64
	for i := range shares {
		shares[i] = rng.ExpFloat64()
		sum += shares[i]
	}
	for i := range shares {
		shares[i] /= sum
	}
	return shares
}

func record(at time.Time, category string, typ domain.TransactionType, amount float64) domain.Transaction {
	a := decimal.NewFromFloat(amount).Round(2)
	return domain.Transaction{
		Date:     at.Format("2006-01-02"),
		Amount:   &a,
		Type:     string(typ),
		Category: category,
	}
}
