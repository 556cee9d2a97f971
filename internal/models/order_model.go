package models

import "time"

// Order status values.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Order is a pending or completed purchase of one or more wallpapers.
type Order struct {
	ID            string     `json:"id" firestore:"-"`
	UserID        string     `json:"userId" firestore:"userId"`
	UserEmail     string     `json:"userEmail" firestore:"userEmail"`
	WallpaperIDs  []string   `json:"wallpaperIds" firestore:"wallpaperIds"`
	Amount        int64      `json:"amount" firestore:"amount"` // cents
	Currency      string     `json:"currency" firestore:"currency"`
	Status        string     `json:"status" firestore:"status"`
	TransactionID string     `json:"transactionId,omitempty" firestore:"transactionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}

// CheckoutItem is one line of a hosted checkout.
type CheckoutItem struct {
	PriceID     string `json:"priceId"`
	Quantity    int    `json:"quantity"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CheckoutTransactionRequest asks the payment provider for a hosted checkout transaction.
type CheckoutTransactionRequest struct {
	Items         []CheckoutItem
	CustomerEmail string
	CustomData    map[string]string
}

// CheckoutTransaction is a provider-side transaction and the URL of its hosted checkout.
type CheckoutTransaction struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	CheckoutURL   string `json:"checkoutUrl,omitempty"`
}
