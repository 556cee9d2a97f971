package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"livewall-backend-go/internal/models"
	"livewall-backend-go/internal/paddle"
)

// TransactionAPI is the subset of the payment client the hosted provider needs.
type TransactionAPI interface {
	Ping(ctx context.Context) error
	CreateTransaction(ctx context.Context, req models.CheckoutTransactionRequest) (*models.CheckoutTransaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.CheckoutTransaction, error)
}

// maxPollFailures is how many consecutive status reads may fail before the checkout is
// reported as failed.
const maxPollFailures = 3

// HostedProvider opens provider-hosted checkouts and watches the transaction status
// until it settles.
type HostedProvider struct {
	api          TransactionAPI
	pollInterval time.Duration
}

// NewHostedProvider wraps a payment API client. pollInterval defaults to 3s.
func NewHostedProvider(api TransactionAPI, pollInterval time.Duration) *HostedProvider {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &HostedProvider{api: api, pollInterval: pollInterval}
}

func (p *HostedProvider) Initialize(ctx context.Context) error {
	return p.api.Ping(ctx)
}

func (p *HostedProvider) Open(ctx context.Context, req Request) (Handle, error) {
	txn, err := p.api.CreateTransaction(ctx, models.CheckoutTransactionRequest{
		Items:         []models.CheckoutItem{{PriceID: req.PriceID, Quantity: 1}},
		CustomerEmail: req.CustomerEmail,
		CustomData:    req.CustomData,
	})
	if err != nil {
		return nil, err
	}
	if txn.CheckoutURL == "" {
		return nil, fmt.Errorf("transaction %s has no checkout URL", txn.TransactionID)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	h := &hostedHandle{
		url:      txn.CheckoutURL,
		outcomes: make(chan Outcome, 1),
		cancel:   cancel,
	}
	go h.watch(watchCtx, p.api, txn.TransactionID, p.pollInterval)
	return h, nil
}

type hostedHandle struct {
	url      string
	outcomes chan Outcome
	cancel   context.CancelFunc
	once     sync.Once
}

func (h *hostedHandle) CheckoutURL() string       { return h.url }
func (h *hostedHandle) Outcomes() <-chan Outcome { return h.outcomes }
func (h *hostedHandle) Close()                   { h.once.Do(h.cancel) }

func (h *hostedHandle) watch(ctx context.Context, api TransactionAPI, transactionID string, interval time.Duration) {
	defer close(h.outcomes)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			h.outcomes <- Outcome{Kind: OutcomeClosed, TransactionID: transactionID}
			return
		case <-ticker.C:
		}

		txn, err := api.GetTransaction(ctx, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			failures++
			if failures < maxPollFailures {
				continue
			}
			h.outcomes <- Outcome{Kind: OutcomeFailed, TransactionID: transactionID, Err: fmt.Errorf("transaction %s status unavailable: %w", transactionID, err)}
			return
		}
		failures = 0
		switch txn.Status {
		case paddle.StatusPaid, paddle.StatusCompleted, paddle.StatusBilled:
			h.outcomes <- Outcome{Kind: OutcomeCompleted, TransactionID: transactionID}
			return
		case paddle.StatusCanceled:
			h.outcomes <- Outcome{Kind: OutcomeClosed, TransactionID: transactionID}
			return
		case paddle.StatusPastDue:
			h.outcomes <- Outcome{Kind: OutcomeFailed, TransactionID: transactionID, Err: fmt.Errorf("transaction %s is past due", transactionID)}
			return
		}
	}
}
