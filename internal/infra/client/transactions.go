package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/expense-forecast-go/internal/domain"
	"github.com/boddenberg/expense-forecast-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("client")

const transactionsService = "transactions"

// TransactionsClient fetches transaction data from the Transactions API.
type TransactionsClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewTransactionsClient creates a new TransactionsClient.
func NewTransactionsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *TransactionsClient {
	return &TransactionsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// transactionsEnvelope accepts both a bare array and {"transactions": [...]}.
type transactionsEnvelope struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// GetTransactions fetches customer transactions with retry, circuit breaker, and tracing.
func (c *TransactionsClient) GetTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionsClient.GetTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	txns, err := resilience.Execute(ctx, c.cb, c.cfg, transactionsService, func(ctx context.Context) ([]domain.Transaction, error) {
		endpoint := fmt.Sprintf("%s/v1/customers/%s/transactions", c.baseURL, url.PathEscape(customerID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "transactions", ID: customerID})
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("transactions API returned status %d", resp.StatusCode)
		}

		return decodeTransactions(resp)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("transactions.count", len(txns)))
	return txns, nil
}

func decodeTransactions(resp *http.Response) ([]domain.Transaction, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode transactions: %w", err))
	}

	var list []domain.Transaction
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var env transactionsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode transactions: %w", err))
	}
	return env.Transactions, nil
}
