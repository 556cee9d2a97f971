package db

import (
	"context"

	"livewall-backend-go/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// GetByEmail returns the first user with the given email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create fails with ErrAlreadyExists when user.ID is taken.
	Create(ctx context.Context, user *models.User) error
	// UpdateSubscription overwrites the billing fields of an existing user.
	UpdateSubscription(ctx context.Context, userID string, change models.SubscriptionChange) error
	// IncrementAIImagesGenerated atomically adds one to the user's generation counter.
	IncrementAIImagesGenerated(ctx context.Context, userID string) error
}

// WallpaperRepository defines the interface for wallpaper data storage operations.
type WallpaperRepository interface {
	Create(ctx context.Context, wallpaper *models.Wallpaper) (string, error) // Returns new wallpaper ID
	GetByID(ctx context.Context, wallpaperID string) (*models.Wallpaper, error)
	List(ctx context.Context, params models.ListWallpapersParams) ([]*models.Wallpaper, error)
	IncrementCounter(ctx context.Context, wallpaperID, field string) error
}

// OrderRepository defines the interface for order data storage operations.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) (string, error) // Returns new order ID
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	MarkCompleted(ctx context.Context, orderID, transactionID string) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}

// AssetStore persists binary assets (uploaded or generated images) and returns a URL
// that clients can load them from.
type AssetStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}
