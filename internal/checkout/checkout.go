// Package checkout drives a hosted payment checkout from the client side: it opens the
// provider's checkout surface, waits for its typed outcome and pings the order
// completion endpoint. The billing webhook remains the source of truth.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"livewall-backend-go/internal/metrics"
)

var (
	// ErrCheckoutUnavailable means the hosted checkout could not be initialized or opened.
	// Retryable.
	ErrCheckoutUnavailable = errors.New("checkout unavailable")
	// ErrCheckoutFailed means the hosted checkout reported an error. Retryable.
	ErrCheckoutFailed = errors.New("checkout failed")
)

// OutcomeKind is the terminal state reported by a hosted checkout.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeClosed    OutcomeKind = "closed"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is what the hosted checkout reported.
type Outcome struct {
	Kind          OutcomeKind
	TransactionID string
	Err           error
}

// Request describes one checkout.
type Request struct {
	PriceID       string
	CustomerEmail string
	// CustomData is the opaque correlation payload (userId, orderId).
	CustomData map[string]string
	// OrderReferenceID, when set, is reported to the completion endpoint.
	OrderReferenceID string
	// Present is called with the hosted checkout URL once it is open.
	Present func(checkoutURL string)
}

// Handle is an opened hosted checkout.
type Handle interface {
	CheckoutURL() string
	// Outcomes delivers exactly one Outcome and is then closed.
	Outcomes() <-chan Outcome
	Close()
}

// Provider opens hosted checkouts.
type Provider interface {
	Initialize(ctx context.Context) error
	Open(ctx context.Context, req Request) (Handle, error)
}

// Notifier tells the backend the client saw the checkout complete.
type Notifier interface {
	NotifyCompletion(ctx context.Context, orderReferenceID, transactionID string) error
}

// Orchestrator is a ready-to-use checkout driver. Construct it with New.
type Orchestrator struct {
	provider Provider
	notifier Notifier
	logger   *zap.Logger
}

// New initializes the provider and returns a ready Orchestrator. notifier may be nil.
func New(ctx context.Context, provider Provider, notifier Notifier, logger *zap.Logger) (*Orchestrator, error) {
	if err := provider.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrCheckoutUnavailable, err)
	}
	return &Orchestrator{provider: provider, notifier: notifier, logger: logger}, nil
}

// Checkout opens a hosted checkout and blocks until it reports an outcome or ctx ends.
// A closed checkout is not an error.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (Outcome, error) {
	handle, err := o.provider.Open(ctx, req)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: open: %v", ErrCheckoutUnavailable, err)
	}
	defer handle.Close()

	if req.Present != nil {
		req.Present(handle.CheckoutURL())
	}

	var outcome Outcome
	select {
	case <-ctx.Done():
		outcome = Outcome{Kind: OutcomeClosed, Err: ctx.Err()}
	case got, ok := <-handle.Outcomes():
		if !ok {
			got = Outcome{Kind: OutcomeClosed}
		}
		outcome = got
	}
	metrics.CheckoutOutcomes.WithLabelValues(string(outcome.Kind)).Inc()

	switch outcome.Kind {
	case OutcomeCompleted:
		o.notify(ctx, req.OrderReferenceID, outcome.TransactionID)
		return outcome, nil
	case OutcomeFailed:
		return outcome, fmt.Errorf("%w: %v", ErrCheckoutFailed, outcome.Err)
	default:
		return outcome, nil
	}
}

func (o *Orchestrator) notify(ctx context.Context, orderReferenceID, transactionID string) {
	if o.notifier == nil || orderReferenceID == "" {
		return
	}
	if err := o.notifier.NotifyCompletion(context.WithoutCancel(ctx), orderReferenceID, transactionID); err != nil {
		o.logger.Warn("Order completion ping failed; the billing webhook will reconcile",
			zap.String("orderReferenceId", orderReferenceID), zap.String("transactionId", transactionID), zap.Error(err))
	}
}
