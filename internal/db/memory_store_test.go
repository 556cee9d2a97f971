package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livewall-backend-go/internal/models"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	_, err := users.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", SubscriptionStatus: "inactive"}))
	assert.ErrorIs(t, users.Create(ctx, &models.User{ID: "u1"}), ErrAlreadyExists)

	byEmail, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = users.GetByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsersUpdateSubscription(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com"}))

	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, users.UpdateSubscription(ctx, "u1", models.SubscriptionChange{
		Status:    "active",
		Reference: &models.SubscriptionReference{ID: "sub_1", EndDate: end},
	}))

	user, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "active", user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionID)
	assert.Equal(t, "sub_1", *user.SubscriptionID)
	assert.True(t, end.Equal(*user.SubscriptionEndDate))

	// Status-only change keeps the reference.
	require.NoError(t, users.UpdateSubscription(ctx, "u1", models.SubscriptionChange{Status: "past_due"}))
	user, _ = users.GetByID(ctx, "u1")
	assert.Equal(t, "past_due", user.SubscriptionStatus)
	assert.NotNil(t, user.SubscriptionID)

	require.NoError(t, users.UpdateSubscription(ctx, "u1", models.SubscriptionChange{Status: "canceled", ClearReference: true}))
	user, _ = users.GetByID(ctx, "u1")
	assert.Nil(t, user.SubscriptionID)
	assert.Nil(t, user.SubscriptionEndDate)

	assert.ErrorIs(t, users.UpdateSubscription(ctx, "missing", models.SubscriptionChange{Status: "active"}), ErrNotFound)
}

func TestMemoryUsersReturnsCopies(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()
	require.NoError(t, users.Create(ctx, &models.User{ID: "u1"}))

	user, _ := users.GetByID(ctx, "u1")
	user.AIImagesGenerated = 42

	require.NoError(t, users.IncrementAIImagesGenerated(ctx, "u1"))
	user, _ = users.GetByID(ctx, "u1")
	assert.EqualValues(t, 1, user.AIImagesGenerated)
}

func TestMemoryWallpapersList(t *testing.T) {
	ctx := context.Background()
	wallpapers := NewMemoryStore().Wallpapers()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, cat := range []string{"nature", "abstract", "nature"} {
		_, err := wallpapers.Create(ctx, &models.Wallpaper{Title: cat, Category: cat, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	all, err := wallpapers.List(ctx, models.ListWallpapersParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	nature, err := wallpapers.List(ctx, models.ListWallpapersParams{Category: "nature", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, nature, 2)

	paged, err := wallpapers.List(ctx, models.ListWallpapersParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, all[1].ID, paged[0].ID)

	empty, err := wallpapers.List(ctx, models.ListWallpapersParams{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, wallpapers.IncrementCounter(ctx, all[0].ID, models.WallpaperCounterLikes))
	liked, _ := wallpapers.GetByID(ctx, all[0].ID)
	assert.EqualValues(t, 1, liked.Likes)
	assert.Error(t, wallpapers.IncrementCounter(ctx, all[0].ID, "views"))
}

func TestMemoryOrders(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryStore().Orders()

	id, err := orders.Create(ctx, &models.Order{UserID: "u1", Amount: 500, Status: models.OrderStatusPending})
	require.NoError(t, err)

	require.NoError(t, orders.MarkCompleted(ctx, id, "txn_1"))
	order, err := orders.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, "txn_1", order.TransactionID)
	assert.NotNil(t, order.CompletedAt)

	list, err := orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, orders.MarkCompleted(ctx, "nope", "txn"), ErrNotFound)
}

func TestInlineAssetStore(t *testing.T) {
	u, err := NewInlineAssetStore().Put(context.Background(), "a.png", "image/png", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGk=", u)
}
