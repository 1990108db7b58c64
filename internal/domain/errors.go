package domain

import "fmt"

// Error types for consistent error handling across the forecaster and its API.

// MinForecastMonths is the smallest history the forecaster accepts.
const MinForecastMonths = 3

// ErrInvalidInput indicates the transaction payload is empty or malformed.
type ErrInvalidInput struct {
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	return "Invalid transaction data"
}

// ErrNoExpenseData indicates no transaction was of type expense.
type ErrNoExpenseData struct{}

func (e *ErrNoExpenseData) Error() string {
	return "No expense data available"
}

// ErrInsufficientData indicates fewer distinct expense months than required.
type ErrInsufficientData struct {
	Months   int
	Required int
}

func (e *ErrInsufficientData) Error() string {
	required := e.Required
	if required == 0 {
		required = MinForecastMonths
	}
	return fmt.Sprintf("Insufficient data (minimum %d months required)", required)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}
