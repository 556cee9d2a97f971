package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livewall-backend-go/internal/models"
	"livewall-backend-go/internal/paddle"
)

type fakeAPI struct {
	mu        sync.Mutex
	pingErr   error
	createErr error
	statuses  []string
	pollErrs  []error
	polls     int
	created   models.CheckoutTransactionRequest
}

func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }

func (f *fakeAPI) CreateTransaction(_ context.Context, req models.CheckoutTransactionRequest) (*models.CheckoutTransaction, error) {
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.CheckoutTransaction{TransactionID: "txn_1", Status: paddle.StatusReady, CheckoutURL: "https://pay.example.com/?_ptxn=txn_1"}, nil
}

func (f *fakeAPI) GetTransaction(_ context.Context, id string) (*models.CheckoutTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.polls < len(f.pollErrs) && f.pollErrs[f.polls] != nil {
		f.polls++
		return nil, f.pollErrs[f.polls-1]
	}
	status := f.statuses[len(f.statuses)-1]
	if f.polls < len(f.statuses) {
		status = f.statuses[f.polls]
	}
	f.polls++
	return &models.CheckoutTransaction{TransactionID: id, Status: status}, nil
}

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) NotifyCompletion(_ context.Context, orderID, txnID string) error {
	n.calls = append(n.calls, orderID+"/"+txnID)
	return n.err
}

func TestNewFailsWhenProviderUnavailable(t *testing.T) {
	_, err := New(context.Background(), NewHostedProvider(&fakeAPI{pingErr: errors.New("dns")}, time.Millisecond), nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrCheckoutUnavailable)
}

func TestCheckoutCompletedNotifies(t *testing.T) {
	api := &fakeAPI{statuses: []string{paddle.StatusReady, paddle.StatusCompleted}}
	notifier := &recordingNotifier{err: errors.New("offline")}
	o, err := New(context.Background(), NewHostedProvider(api, time.Millisecond), notifier, zap.NewNop())
	require.NoError(t, err)

	var presented string
	outcome, err := o.Checkout(context.Background(), Request{
		PriceID:          "pri_1",
		CustomerEmail:    "jane@example.com",
		CustomData:       map[string]string{"userId": "u1", "orderId": "ord_1"},
		OrderReferenceID: "ord_1",
		Present:          func(u string) { presented = u },
	})
	require.NoError(t, err, "completion ping failures are not surfaced")
	assert.Equal(t, OutcomeCompleted, outcome.Kind)
	assert.Equal(t, "txn_1", outcome.TransactionID)
	assert.Equal(t, "https://pay.example.com/?_ptxn=txn_1", presented)
	assert.Equal(t, []string{"ord_1/txn_1"}, notifier.calls)
	assert.Equal(t, "pri_1", api.created.Items[0].PriceID)
}

func TestCheckoutOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		kind    OutcomeKind
		wantErr error
	}{
		{"canceled closes", paddle.StatusCanceled, OutcomeClosed, nil},
		{"past due fails", paddle.StatusPastDue, OutcomeFailed, ErrCheckoutFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			o, err := New(context.Background(), NewHostedProvider(&fakeAPI{statuses: []string{tt.status}}, time.Millisecond), notifier, zap.NewNop())
			require.NoError(t, err)

			outcome, err := o.Checkout(context.Background(), Request{PriceID: "pri_1", OrderReferenceID: "ord_1"})
			assert.Equal(t, tt.kind, outcome.Kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, notifier.calls)
		})
	}
}

func TestCheckoutToleratesTransientPollErrors(t *testing.T) {
	blip := errors.New("connection reset")
	api := &fakeAPI{
		statuses: []string{paddle.StatusReady, paddle.StatusReady, paddle.StatusReady, paddle.StatusPaid},
		pollErrs: []error{blip, blip, nil, blip},
	}
	notifier := &recordingNotifier{}
	o, err := New(context.Background(), NewHostedProvider(api, time.Millisecond), notifier, zap.NewNop())
	require.NoError(t, err)

	outcome, err := o.Checkout(context.Background(), Request{PriceID: "pri_1", OrderReferenceID: "ord_1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome.Kind)
	assert.Equal(t, []string{"ord_1/txn_1"}, notifier.calls)
}

func TestCheckoutFailsAfterRepeatedPollErrors(t *testing.T) {
	down := errors.New("provider down")
	api := &fakeAPI{
		statuses: []string{paddle.StatusPaid},
		pollErrs: []error{down, down, down},
	}
	o, err := New(context.Background(), NewHostedProvider(api, time.Millisecond), nil, zap.NewNop())
	require.NoError(t, err)

	outcome, err := o.Checkout(context.Background(), Request{PriceID: "pri_1"})
	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, down)
}

func TestCheckoutOpenFailureAndCancel(t *testing.T) {
	o, err := New(context.Background(), NewHostedProvider(&fakeAPI{createErr: errors.New("500")}, time.Millisecond), nil, zap.NewNop())
	require.NoError(t, err)
	_, err = o.Checkout(context.Background(), Request{PriceID: "pri_1"})
	assert.ErrorIs(t, err, ErrCheckoutUnavailable)

	o, err = New(context.Background(), NewHostedProvider(&fakeAPI{statuses: []string{paddle.StatusReady}}, time.Millisecond), nil, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	outcome, err := o.Checkout(ctx, Request{PriceID: "pri_1"})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeClosed, outcome.Kind)
}

func TestHTTPNotifier(t *testing.T) {
	var got models.CompleteOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/complete", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPNotifier(srv.URL, "tok").NotifyCompletion(context.Background(), "ord_1", "txn_1"))
	assert.Equal(t, models.CompleteOrderRequest{OrderReferenceID: "ord_1", TransactionID: "txn_1"}, got)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()
	assert.Error(t, NewHTTPNotifier(failing.URL, "tok").NotifyCompletion(context.Background(), "ord_1", "txn_1"))
}
