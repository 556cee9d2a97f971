package paddle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livewall-backend-go/internal/models"
)

// fakeProvider serves the customer and transaction endpoints.
type fakeProvider struct {
	customers     []customer
	createdEmails []string
	conflictOnce  bool
	transaction   createTransactionRequest
}

func (f *fakeProvider) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key_123", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			email := r.URL.Query().Get("email")
			matched := []customer{}
			for _, c := range f.customers {
				if c.Email == email {
					matched = append(matched, c)
				}
			}
			_ = json.NewEncoder(w).Encode(customerListEnvelope{Data: matched})
		case http.MethodPost:
			var body customer
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.createdEmails = append(f.createdEmails, body.Email)
			if f.conflictOnce {
				f.conflictOnce = false
				f.customers = append(f.customers, customer{ID: "ctm_race", Email: body.Email})
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":{"type":"request_error","code":"customer_already_exists","detail":"exists"}}`))
				return
			}
			created := customer{ID: "ctm_new", Email: body.Email}
			f.customers = append(f.customers, created)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(customerEnvelope{Data: created})
		}
	})
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key_123", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.transaction))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"txn_1","status":"ready","checkout":{"url":"https://pay.example.com/?_ptxn=txn_1"}}}`))
	})
	return mux
}

func TestCreateTransactionBindsExistingCustomer(t *testing.T) {
	fake := &fakeProvider{customers: []customer{{ID: "ctm_jane", Email: "jane@example.com"}}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key_123")
	txn, err := c.CreateTransaction(context.Background(), models.CheckoutTransactionRequest{
		Items:         []models.CheckoutItem{{PriceID: "pri_1"}},
		CustomerEmail: "jane@example.com",
		CustomData:    map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, &models.CheckoutTransaction{TransactionID: "txn_1", Status: "ready", CheckoutURL: "https://pay.example.com/?_ptxn=txn_1"}, txn)

	assert.Empty(t, fake.createdEmails)
	assert.Equal(t, "ctm_jane", fake.transaction.CustomerID)
	assert.Equal(t, []transactionItem{{PriceID: "pri_1", Quantity: 1}}, fake.transaction.Items)
	assert.Equal(t, "u1", fake.transaction.CustomData["userId"])
	assert.Equal(t, "jane@example.com", fake.transaction.CustomData["customerEmail"])
}

func TestCreateTransactionCreatesMissingCustomer(t *testing.T) {
	fake := &fakeProvider{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key_123").CreateTransaction(context.Background(), models.CheckoutTransactionRequest{
		Items:         []models.CheckoutItem{{PriceID: "pri_1", Quantity: 2}},
		CustomerEmail: "new@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new@example.com"}, fake.createdEmails)
	assert.Equal(t, "ctm_new", fake.transaction.CustomerID)
}

func TestResolveCustomerAfterConcurrentCreate(t *testing.T) {
	fake := &fakeProvider{conflictOnce: true}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	id, err := NewClient(srv.URL, "key_123").ResolveCustomer(context.Background(), "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ctm_race", id)
}

func TestCreateTransactionWithoutEmailSkipsCustomer(t *testing.T) {
	fake := &fakeProvider{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key_123").CreateTransaction(context.Background(), models.CheckoutTransactionRequest{
		Items: []models.CheckoutItem{{PriceID: "pri_1"}},
	})
	require.NoError(t, err)
	assert.Empty(t, fake.createdEmails)
	assert.Empty(t, fake.transaction.CustomerID)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"type":"request_error","code":"forbidden","detail":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	err := c.Ping(context.Background())
	var apiErr *ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden", apiErr.Err.Code)
	assert.Contains(t, err.Error(), "bad key")

	_, err = c.CreateTransaction(context.Background(), models.CheckoutTransactionRequest{})
	assert.Error(t, err)
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/txn_9", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"txn_9","status":"completed"}}`))
	}))
	defer srv.Close()

	txn, err := NewClient(srv.URL, "k").GetTransaction(context.Background(), "txn_9")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.Empty(t, txn.CheckoutURL)
}
