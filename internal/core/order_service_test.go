package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

func newOrderFixture(t *testing.T) (*db.MemoryStore, OrderService, []string) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	var ids []string
	for _, w := range []models.Wallpaper{
		{Title: "Lake", Description: "calm", Price: 199},
		{Title: "City", Description: "neon", Price: 350},
	} {
		id, err := store.Wallpapers().Create(ctx, &w)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	svc := NewOrderService(store.Orders(), store.Wallpapers(), NewAuditService(store.Audit()), "pri_wall", zap.NewNop())
	return store, svc, ids
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	store, svc, ids := newOrderFixture(t)
	session := models.Session{ID: "u1", Email: "jane@example.com"}

	res, err := svc.Create(ctx, session, models.CreateOrderRequest{ItemIDs: ids})
	require.NoError(t, err)
	assert.EqualValues(t, 549, res.TotalAmount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, models.CheckoutItem{PriceID: "pri_wall", Quantity: 1, Name: "Lake", Description: "calm"}, res.Items[0])

	order, err := store.Orders().GetByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "jane@example.com", order.UserEmail)
	assert.Equal(t, ids, order.WallpaperIDs)

	_, err = svc.Create(ctx, session, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = svc.Create(ctx, session, models.CreateOrderRequest{ItemIDs: []string{ids[0], "missing"}})
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestCompleteOrder(t *testing.T) {
	ctx := context.Background()
	store, svc, ids := newOrderFixture(t)
	owner := models.Session{ID: "u1", Email: "jane@example.com"}
	res, err := svc.Create(ctx, owner, models.CreateOrderRequest{ItemIDs: ids[:1]})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, models.Session{ID: "u2"}, models.CompleteOrderRequest{OrderReferenceID: res.OrderID, TransactionID: "txn_1"})
	assert.ErrorIs(t, err, ErrOrderForbidden)

	_, err = svc.Complete(ctx, owner, models.CompleteOrderRequest{OrderReferenceID: "missing", TransactionID: "txn_1"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.Complete(ctx, owner, models.CompleteOrderRequest{OrderReferenceID: res.OrderID})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	order, err := svc.Complete(ctx, owner, models.CompleteOrderRequest{OrderReferenceID: res.OrderID, TransactionID: "txn_1"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	again, err := svc.Complete(ctx, owner, models.CompleteOrderRequest{OrderReferenceID: res.OrderID, TransactionID: "txn_2"})
	require.NoError(t, err)
	assert.Equal(t, "txn_1", again.TransactionID, "completion is idempotent")
	assert.Len(t, store.AuditLogs(), 1)

	orders, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	empty, err := svc.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
