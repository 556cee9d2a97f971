package core

import (
	"context"

	"livewall-backend-go/internal/models"
)

// UserService is the identity bridge between external identities and user records.
type UserService interface {
	// SignIn returns the user for identity, creating it with defaults on first sign-in.
	// The boolean reports whether the record was created by this call.
	SignIn(ctx context.Context, identity models.Identity) (*models.User, bool, error)
	// MaterializeSession builds the session view for a signed session token. It never fails.
	MaterializeSession(ctx context.Context, claims models.SessionClaims) models.Session
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// BillingService reconciles provider notifications and opens hosted checkouts.
type BillingService interface {
	HandleWebhook(ctx context.Context, signatureHeader string, rawBody []byte) (*WebhookResult, error)
	CreateCheckout(ctx context.Context, session models.Session, req models.CreateCheckoutRequest) (*models.CheckoutTransaction, error)
}

// GenerationService runs the AI wallpaper generation flow.
type GenerationService interface {
	Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error)
}

// WallpaperService covers the wallpaper catalogue.
type WallpaperService interface {
	List(ctx context.Context, params models.ListWallpapersParams) ([]*models.Wallpaper, error)
	Get(ctx context.Context, wallpaperID string) (*models.Wallpaper, error)
	Upload(ctx context.Context, creator models.Session, input models.UploadWallpaperInput) (*models.Wallpaper, error)
	Like(ctx context.Context, wallpaperID string) error
	// Download returns the wallpaper after enforcing the premium gate. session may be nil.
	Download(ctx context.Context, session *models.Session, wallpaperID string) (*models.Wallpaper, error)
}

// OrderService covers order creation and client-reported completion.
type OrderService interface {
	Create(ctx context.Context, session models.Session, req models.CreateOrderRequest) (*CreateOrderResult, error)
	Complete(ctx context.Context, session models.Session, req models.CompleteOrderRequest) (*models.Order, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Order, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// ImageGenerator is the opaque text-to-image capability.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*models.GeneratedImage, error)
}

// CheckoutGateway creates provider-side checkout transactions.
type CheckoutGateway interface {
	CreateTransaction(ctx context.Context, req models.CheckoutTransactionRequest) (*models.CheckoutTransaction, error)
}

// EventPublisher publishes domain events. messagequeue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}
