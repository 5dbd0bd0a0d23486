package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Result is the terminal outcome of a verification attempt.
type Result struct {
	Outcome Outcome
	TxID    string
}

// Poller checks an external ledger for an incoming payment matching a quote.
// Poll blocks until the outcome is known or ctx is cancelled; a ctx error is
// the only error it returns.
type Poller interface {
	Poll(ctx context.Context, quote Quote) (Result, error)
}

// SimulatedPoller reports not-detected after a fixed delay. This reproduces
// the storefront's stubbed verification and is the default wiring when no
// oracle is configured.
type SimulatedPoller struct {
	Delay time.Duration
}

func (p SimulatedPoller) Poll(ctx context.Context, _ Quote) (Result, error) {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
		return Result{Outcome: OutcomeNotDetected}, nil
	}
}

// OraclePoller queries a payment oracle for an incoming transaction matching
// the quoted amount. Polls are idempotent GETs retried with exponential
// backoff; transient oracle failures are retried, and once the deadline
// passes the attempt resolves to timeout instead of spinning.
type OraclePoller struct {
	client   *http.Client
	baseURL  string
	interval time.Duration
	deadline time.Duration
	logger   *zap.Logger
}

// NewOraclePoller creates a poller against the oracle at baseURL.
func NewOraclePoller(baseURL string, interval, deadline time.Duration, logger *zap.Logger) *OraclePoller {
	return &OraclePoller{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		interval: interval,
		deadline: deadline,
		logger:   logger,
	}
}

var errNotYetDetected = errors.New("payment not yet detected")

type oracleResponse struct {
	Status string `json:"status"` // confirmed or pending
	TxID   string `json:"tx_id"`
}

func (p *OraclePoller) Poll(ctx context.Context, quote Quote) (Result, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	var result Result
	backoff := retry.WithMaxDuration(p.deadline, retry.NewExponential(p.interval))

	err := retry.Do(pollCtx, backoff, func(ctx context.Context) error {
		status, txID, err := p.query(ctx, quote)
		if err != nil {
			p.logger.Warn("Oracle query failed, will retry",
				zap.Error(err),
				zap.String("address", quote.DisplayAddress),
			)
			return retry.RetryableError(err)
		}

		if status == "confirmed" {
			result = Result{Outcome: OutcomeDetected, TxID: txID}
			return nil
		}
		return retry.RetryableError(errNotYetDetected)
	})

	// A cancelled parent means the session was reset; report that upward.
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	if err != nil {
		// Deadline exhausted without a confirmed transaction.
		return Result{Outcome: OutcomeTimeout}, nil
	}

	return result, nil
}

func (p *OraclePoller) query(ctx context.Context, quote Quote) (status, txID string, err error) {
	endpoint := fmt.Sprintf("%s/v1/transactions?%s", p.baseURL, url.Values{
		"address":  {quote.Address},
		"amount":   {quote.Amount},
		"currency": {string(quote.Currency)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build oracle request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var body oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("failed to decode oracle response: %w", err)
	}

	return body.Status, body.TxID, nil
}
