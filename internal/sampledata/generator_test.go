package sampledata_test

import (
	"testing"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/sampledata"
)

func TestGenerate_Deterministic(t *testing.T) {
	opts := sampledata.DefaultOptions()
	opts.Start = time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)

	a := sampledata.Generate(opts)
	b := sampledata.Generate(opts)

	if len(a) != len(b) {
		t.Fatalf("expected equal lengths, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Date != b[i].Date || !a[i].Amount.Equal(*b[i].Amount) || a[i].Type != b[i].Type {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerate_MonthCoverage(t *testing.T) {
	opts := sampledata.DefaultOptions()
	opts.Months = 15
	opts.Start = time.Date(2022, time.October, 20, 0, 0, 0, 0, time.UTC)

	txns := sampledata.Generate(opts)

	months := make(map[domain.MonthKey]bool)
	incomes := 0
	for _, tx := range txns {
		d, err := domain.ParseTransactionDate(tx.Date)
		if err != nil {
			t.Fatalf("unparseable date %q: %v", tx.Date, err)
		}
		months[domain.MonthKeyOf(d)] = true
		if tx.Type == string(domain.TransactionIncome) {
			incomes++
		}
		if tx.Amount.IsNegative() {
			t.Errorf("negative amount %s", tx.Amount)
		}
		if tx.Amount.Exponent() < -2 {
			t.Errorf("amount %s not rounded to cents", tx.Amount)
		}
	}

	if len(months) != 15 {
		t.Errorf("expected 15 distinct months, got %d", len(months))
	}
	if incomes != 15 {
		t.Errorf("expected one income per month, got %d", incomes)
	}
	first, _ := domain.ParseTransactionDate(txns[0].Date)
	if first.Month() != time.October || first.Day() != 1 {
		t.Errorf("expected history to start on 2022-10-01, got %s", txns[0].Date)
	}
}

func TestGenerate_SortedByDate(t *testing.T) {
	opts := sampledata.DefaultOptions()
	opts.Start = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	txns := sampledata.Generate(opts)
	for i := 1; i < len(txns); i++ {
		if txns[i].Date < txns[i-1].Date {
			t.Fatalf("records out of order at %d: %s after %s", i, txns[i].Date, txns[i-1].Date)
		}
	}
}

func TestGenerate_ZeroMonths(t *testing.T) {
	opts := sampledata.DefaultOptions()
	opts.Months = 0
	if got := sampledata.Generate(opts); got != nil {
		t.Errorf("expected nil, got %d records", len(got))
	}
}
