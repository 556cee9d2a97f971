package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"livewall-backend-go/internal/models"
)

// HTTPNotifier posts completion pings to the backend's order completion endpoint.
type HTTPNotifier struct {
	BaseURL      string
	SessionToken string
	HTTPClient   *http.Client
}

// NewHTTPNotifier creates a notifier for the API at baseURL authenticated with a session token.
func NewHTTPNotifier(baseURL, sessionToken string) *HTTPNotifier {
	return &HTTPNotifier{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		SessionToken: sessionToken,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *HTTPNotifier) NotifyCompletion(ctx context.Context, orderReferenceID, transactionID string) error {
	body, err := json.Marshal(models.CompleteOrderRequest{OrderReferenceID: orderReferenceID, TransactionID: transactionID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/api/v1/orders/complete", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.SessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.SessionToken)
	}

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order completion endpoint returned %d", resp.StatusCode)
	}
	return nil
}
