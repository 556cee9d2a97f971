package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"livewall-backend-go/internal/models"
)

const ordersCollection = "orders"

type firestoreOrderRepository struct {
	client *firestore.Client
}

// NewFirestoreOrderRepository creates a new Firestore-backed OrderRepository.
func NewFirestoreOrderRepository(client *firestore.Client) OrderRepository {
	return &firestoreOrderRepository{client: client}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *models.Order) (string, error) {
	docRef, _, err := r.client.Collection(ordersCollection).Add(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = docRef.ID
	return docRef.ID, nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	docSnap, err := r.client.Collection(ordersCollection).Doc(orderID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("order with ID '%s' not found: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order '%s': %w", orderID, err)
	}
	return decodeOrder(docSnap)
}

func (r *firestoreOrderRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	iter := r.client.Collection(ordersCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var orders []*models.Order
	for {
		docSnap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list orders for user '%s': %w", userID, err)
		}
		order, err := decodeOrder(docSnap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// MarkCompleted sets status=completed and records the transaction reference.
func (r *firestoreOrderRepository) MarkCompleted(ctx context.Context, orderID, transactionID string) error {
	_, err := r.client.Collection(ordersCollection).Doc(orderID).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.OrderStatusCompleted},
		{Path: "transactionId", Value: transactionID},
		{Path: "completedAt", Value: time.Now().UTC()},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("order with ID '%s' not found: %w", orderID, ErrNotFound)
		}
		return fmt.Errorf("failed to complete order '%s': %w", orderID, err)
	}
	return nil
}

func decodeOrder(docSnap *firestore.DocumentSnapshot) (*models.Order, error) {
	var order models.Order
	if err := docSnap.DataTo(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order '%s': %w", docSnap.Ref.ID, err)
	}
	order.ID = docSnap.Ref.ID
	return &order, nil
}
