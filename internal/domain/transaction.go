package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transactions
// ============================================================

// TransactionType classifies a transaction record.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
	TransactionSavings TransactionType = "savings"
)

// Transaction is a raw record as sent by callers or the Transactions API.
// Only Date, Amount and Type are used for forecasting; the rest is carried
// through untouched.
type Transaction struct {
	Date        string           `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        string           `json:"type"`
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
}

// IsExpense reports whether the record is an expense (case-insensitive).
func (t Transaction) IsExpense() bool {
	return strings.EqualFold(strings.TrimSpace(t.Type), string(TransactionExpense))
}

var transactionDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTransactionDate accepts an ISO calendar date or an ISO timestamp.
func ParseTransactionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range transactionDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ============================================================
// Monthly series
// ============================================================

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the calendar month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Before orders month keys chronologically.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// String formats the key as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// MonthlyTotal is the summed expense amount of a single month.
type MonthlyTotal struct {
	Month MonthKey
	Total float64
}

// MonthlySeries is ordered ascending by month with no duplicate keys.
type MonthlySeries []MonthlyTotal

// Values returns the totals in month order.
func (s MonthlySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, m := range s {
		out[i] = m.Total
	}
	return out
}

// Mean returns the average monthly total, or zero for an empty series.
func (s MonthlySeries) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, m := range s {
		sum += m.Total
	}
	return sum / float64(len(s))
}

// Last returns the most recent month's total, or zero for an empty series.
func (s MonthlySeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Total
}
