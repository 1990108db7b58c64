// Command forecast-cli forecasts monthly expenses from a JSON file of
// transactions or from generated sample data, printing the result as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/forecast"
	"github.com/boddenberg/expense-forecast-go/internal/infra/observability"
	"github.com/boddenberg/expense-forecast-go/internal/sampledata"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns 0 on success, 1 when the forecaster answered with an error
// descriptor and 2 on usage or I/O errors.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("forecast-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	input := fs.String("input", "", "path to a JSON array of transactions")
	generate := fs.Int("generate", 0, "generate N months of sample transactions instead of reading -input")
	months := fs.Int("months", 1, "number of months to forecast")
	seed := fs.Int64("seed", 42, "random seed for -generate")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := observability.NewLogger(*logLevel)
	defer logger.Sync()

	txns, err := loadTransactions(*input, *generate, *seed)
	if err != nil {
		fmt.Fprintf(stderr, "forecast-cli: %v\n", err)
		return 2
	}
	logger.Debug("transactions loaded", zap.Int("count", len(txns)))

	f := forecast.New(forecast.WithLogger(logger))
	result := f.Forecast(txns, *months)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "forecast-cli: encode result: %v\n", err)
		return 2
	}

	if result.Failed() {
		return 1
	}
	if result.FellBack() {
		logger.Info("forecast fell back",
			zap.String("selected", string(result.SelectedModel)),
			zap.String("used", string(result.ModelType)),
		)
	}
	return 0
}

func loadTransactions(path string, generate int, seed int64) ([]domain.Transaction, error) {
	switch {
	case path != "" && generate > 0:
		return nil, errors.New("-input and -generate are mutually exclusive")
	case generate > 0:
		opts := sampledata.DefaultOptions()
		opts.Months = generate
		opts.Seed = seed
		return sampledata.Generate(opts), nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		var txns []domain.Transaction
		if err := json.Unmarshal(data, &txns); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		return txns, nil
	default:
		return nil, errors.New("one of -input or -generate is required")
	}
}
