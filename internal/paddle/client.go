// Package paddle is a small client for the payment provider's Billing REST API:
// readiness checks, customers and checkout transactions.
package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"livewall-backend-go/internal/models"
)

// Transaction statuses reported by the provider.
const (
	StatusDraft     = "draft"
	StatusReady     = "ready"
	StatusBilled    = "billed"
	StatusPaid      = "paid"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusPastDue   = "past_due"
)

// Client is a client for the payment provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new payment provider API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type transactionItem struct {
	PriceID  string `json:"price_id"`
	Quantity int    `json:"quantity"`
}

type createTransactionRequest struct {
	Items      []transactionItem `json:"items"`
	CustomerID string            `json:"customer_id,omitempty"`
	CustomData map[string]string `json:"custom_data,omitempty"`
}

type customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type customerEnvelope struct {
	Data customer `json:"data"`
}

type customerListEnvelope struct {
	Data []customer `json:"data"`
}

const errCodeCustomerExists = "customer_already_exists"

type transactionEnvelope struct {
	Data struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Checkout *struct {
			URL string `json:"url"`
		} `json:"checkout"`
		CustomData map[string]string `json:"custom_data"`
	} `json:"data"`
}

// ErrorResponse represents an error from the provider API.
type ErrorResponse struct {
	StatusCode int `json:"-"`
	Err        struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Code != "" {
		return fmt.Sprintf("payment api error (%d): %s - %s", e.StatusCode, e.Err.Code, e.Err.Detail)
	}
	return fmt.Sprintf("payment api error (%d)", e.StatusCode)
}

// Ping checks credentials and reachability with a cheap authenticated read.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/event-types", nil, nil)
}

// ResolveCustomer returns the provider customer ID for email, creating the customer when
// none exists yet.
func (c *Client) ResolveCustomer(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("customer email is required")
	}
	id, err := c.findCustomer(ctx, email)
	if err != nil || id != "" {
		return id, err
	}

	var created customerEnvelope
	err = c.do(ctx, http.MethodPost, "/customers", customer{Email: email}, &created)
	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Err.Code == errCodeCustomerExists {
		// Created concurrently since the lookup.
		return c.findCustomer(ctx, email)
	}
	if err != nil {
		return "", err
	}
	return created.Data.ID, nil
}

func (c *Client) findCustomer(ctx context.Context, email string) (string, error) {
	var list customerListEnvelope
	if err := c.do(ctx, http.MethodGet, "/customers?email="+url.QueryEscape(email), nil, &list); err != nil {
		return "", err
	}
	for _, cust := range list.Data {
		if strings.EqualFold(cust.Email, email) {
			return cust.ID, nil
		}
	}
	return "", nil
}

// CreateTransaction creates a checkout transaction. When a customer email is given the
// transaction is bound to that provider customer, so the hosted checkout and later
// subscription events carry the same email.
func (c *Client) CreateTransaction(ctx context.Context, req models.CheckoutTransactionRequest) (*models.CheckoutTransaction, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("transaction needs at least one item")
	}
	payload := createTransactionRequest{CustomData: map[string]string{}}
	if req.CustomerEmail != "" {
		customerID, err := c.ResolveCustomer(ctx, req.CustomerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve customer: %w", err)
		}
		payload.CustomerID = customerID
	}
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		payload.Items = append(payload.Items, transactionItem{PriceID: item.PriceID, Quantity: quantity})
	}
	for k, v := range req.CustomData {
		payload.CustomData[k] = v
	}
	if req.CustomerEmail != "" {
		payload.CustomData["customerEmail"] = req.CustomerEmail
	}

	var out transactionEnvelope
	if err := c.do(ctx, http.MethodPost, "/transactions", payload, &out); err != nil {
		return nil, err
	}
	return toTransaction(&out), nil
}

// GetTransaction fetches the current state of a transaction.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*models.CheckoutTransaction, error) {
	var out transactionEnvelope
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(transactionID), nil, &out); err != nil {
		return nil, err
	}
	return toTransaction(&out), nil
}

func toTransaction(env *transactionEnvelope) *models.CheckoutTransaction {
	txn := &models.CheckoutTransaction{TransactionID: env.Data.ID, Status: env.Data.Status}
	if env.Data.Checkout != nil {
		txn.CheckoutURL = env.Data.Checkout.URL
	}
	return txn
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
