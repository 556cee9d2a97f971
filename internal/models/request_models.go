package models

// CreateOrderRequest represents the request body for creating an order.
type CreateOrderRequest struct {
	ItemIDs   []string `json:"itemIds"`
	UserEmail string   `json:"userEmail"`
}

// CompleteOrderRequest is sent by the client when the hosted checkout reports completion.
// It is best-effort; the billing webhook stays authoritative.
type CompleteOrderRequest struct {
	OrderReferenceID string `json:"orderReferenceId"`
	TransactionID    string `json:"transactionId"`
}

// GenerateImageRequest represents the request body for AI image generation.
type GenerateImageRequest struct {
	Prompt *string `json:"prompt"`
}

// CreateCheckoutRequest opens a hosted checkout for the subscription price (default)
// or a specific price, optionally correlated to a pending order.
type CreateCheckoutRequest struct {
	PriceID string `json:"priceId,omitempty"`
	OrderID string `json:"orderId,omitempty"`
}

// FirebaseSignInRequest exchanges a Firebase ID token for a session.
type FirebaseSignInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// UploadWallpaperInput is the validated form of a wallpaper upload.
type UploadWallpaperInput struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	Price       int64 // cents
	IsPremium   bool
	IsLive      bool
	Filename    string
	ContentType string
	Content     []byte
}

// ListWallpapersParams filters and pages the wallpaper catalogue.
type ListWallpapersParams struct {
	Category string
	Limit    int
	Offset   int
}
