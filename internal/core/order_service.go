package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

var (
	ErrInvalidOrder    = errors.New("invalid order request")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderForbidden  = errors.New("order belongs to another user")
	ErrItemUnavailable = errors.New("wallpaper in order not found")
)

const orderCurrency = "USD"

// CreateOrderResult is what the client needs to open the hosted checkout.
type CreateOrderResult struct {
	OrderID     string                `json:"orderId"`
	Items       []models.CheckoutItem `json:"items"`
	TotalAmount int64                 `json:"totalAmount"`
}

type orderService struct {
	orderRepo     db.OrderRepository
	wallpaperRepo db.WallpaperRepository
	audit         AuditService
	logger        *zap.Logger
	priceID       string
	now           func() time.Time
}

// NewOrderService creates an OrderService. priceID is the provider price used for every
// checkout line.
func NewOrderService(orderRepo db.OrderRepository, wallpaperRepo db.WallpaperRepository, audit AuditService, priceID string, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		wallpaperRepo: wallpaperRepo,
		audit:         audit,
		logger:        logger,
		priceID:       priceID,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create prices the requested wallpapers and stores a pending order.
func (s *orderService) Create(ctx context.Context, session models.Session, req models.CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: itemIds must not be empty", ErrInvalidOrder)
	}
	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		email = session.Email
	}
	if email == "" {
		return nil, fmt.Errorf("%w: userEmail is required", ErrInvalidOrder)
	}

	wallpapers := make([]*models.Wallpaper, len(req.ItemIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range req.ItemIDs {
		g.Go(func() error {
			wallpaper, err := s.wallpaperRepo.GetByID(gctx, id)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrItemUnavailable, id)
				}
				return fmt.Errorf("failed to load wallpaper '%s': %w", id, err)
			}
			wallpapers[i] = wallpaper
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	items := make([]models.CheckoutItem, 0, len(wallpapers))
	for _, wallpaper := range wallpapers {
		total += wallpaper.Price
		items = append(items, models.CheckoutItem{
			PriceID:     s.priceID,
			Quantity:    1,
			Name:        wallpaper.Title,
			Description: wallpaper.Description,
		})
	}

	now := s.now()
	order := &models.Order{
		UserID:       session.ID,
		UserEmail:    email,
		WallpaperIDs: append([]string(nil), req.ItemIDs...),
		Amount:       total,
		Currency:     orderCurrency,
		Status:       models.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	orderID, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Created pending order", zap.String("orderID", orderID), zap.String("userID", session.ID), zap.Int64("amount", total))
	return &CreateOrderResult{OrderID: orderID, Items: items, TotalAmount: total}, nil
}

// Complete records a client-reported checkout completion. Completing an already
// completed order is a no-op.
func (s *orderService) Complete(ctx context.Context, session models.Session, req models.CompleteOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.OrderReferenceID) == "" || strings.TrimSpace(req.TransactionID) == "" {
		return nil, fmt.Errorf("%w: orderReferenceId and transactionId are required", ErrInvalidOrder)
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderReferenceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, req.OrderReferenceID)
		}
		return nil, fmt.Errorf("failed to get order '%s': %w", req.OrderReferenceID, err)
	}
	if order.UserID != session.ID {
		return nil, ErrOrderForbidden
	}
	if order.Status == models.OrderStatusCompleted {
		return order, nil
	}

	if err := s.orderRepo.MarkCompleted(ctx, order.ID, req.TransactionID); err != nil {
		return nil, fmt.Errorf("failed to complete order '%s': %w", order.ID, err)
	}
	recordAudit(ctx, s.audit, s.logger, models.AuditLog{
		UserID:     session.ID,
		Action:     models.AuditActionOrderCompleted,
		TargetType: "ORDER",
		TargetID:   order.ID,
		Source:     "api",
		Details:    map[string]interface{}{"transactionId": req.TransactionID},
	})

	completedAt := s.now()
	order.Status = models.OrderStatusCompleted
	order.TransactionID = req.TransactionID
	order.CompletedAt = &completedAt
	return order, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user '%s': %w", userID, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}
