package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livewall-backend-go/internal/crypto"
	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/models"
)

const testWebhookSecret = "whsec_test"

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type billingFixture struct {
	store     *db.MemoryStore
	users     *countingUsers
	publisher *recordingPublisher
	gateway   *stubGateway
	svc       BillingService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	store := db.NewMemoryStore()
	require.NoError(t, store.Users().Create(context.Background(), &models.User{
		ID: "u1", Email: "jane@example.com", Name: "Jane", SubscriptionStatus: models.SubscriptionStatusInactive,
	}))
	users := &countingUsers{UserRepository: store.Users()}
	publisher := &recordingPublisher{}
	gateway := &stubGateway{}
	svc := NewBillingService(users, gateway, publisher, NewAuditService(store.Audit()), BillingConfig{
		WebhookSecret:    testWebhookSecret,
		WebhookTolerance: 5 * time.Minute,
		PriceID:          "pri_sub",
		EventsExchange:   "billing_events",
		Clock:            func() time.Time { return testNow },
	}, zap.NewNop())
	return &billingFixture{store: store, users: users, publisher: publisher, gateway: gateway, svc: svc}
}

func signed(body string) (string, []byte) {
	return crypto.Sign(testWebhookSecret, testNow, []byte(body)), []byte(body)
}

func (f *billingFixture) user(t *testing.T) *models.User {
	t.Helper()
	user, err := f.store.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	return user
}

const updatedEvent = `{
	"event_id": "evt_1",
	"event_type": "subscription.updated",
	"occurred_at": "2026-10-15T11:59:00Z",
	"data": {
		"id": "sub_42",
		"status": "active",
		"customer": {"email": "jane@example.com"},
		"current_billing_period": {"starts_at": "2026-10-15T00:00:00Z", "ends_at": "2026-11-15T00:00:00Z"}
	}
}`

func TestWebhookSubscriptionUpdatedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t)
	header, body := signed(updatedEvent)

	res, err := f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "u1", res.UserID)
	once := f.user(t)

	_, err = f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	twice := f.user(t)

	assert.Equal(t, "active", twice.SubscriptionStatus)
	require.NotNil(t, twice.SubscriptionID)
	assert.Equal(t, "sub_42", *twice.SubscriptionID)
	assert.True(t, time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC).Equal(*twice.SubscriptionEndDate))

	once.UpdatedAt, twice.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, once, twice)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, "billing_events", f.publisher.events[0].exchange)
	assert.Equal(t, SubscriptionChangedRoutingKey, f.publisher.events[0].routingKey)
}

func TestWebhookCanceledClearsReference(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t)
	header, body := signed(updatedEvent)
	_, err := f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)

	for _, payload := range []string{
		`{"event_id":"evt_2","event_type":"subscription.canceled","data":{"id":"sub_42","status":"canceled","customer":{"email":"jane@example.com"}}}`,
		`{"event_id":"evt_3","event_type":"subscription.canceled","data":{"id":"sub_42","customer":{"email":"jane@example.com"}}}`,
	} {
		header, body := signed(payload)
		res, err := f.svc.HandleWebhook(ctx, header, body)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, res.Outcome)

		user := f.user(t)
		assert.Equal(t, models.SubscriptionStatusCanceled, user.SubscriptionStatus)
		assert.Nil(t, user.SubscriptionID)
		assert.Nil(t, user.SubscriptionEndDate)
	}
}

func TestWebhookWithoutPeriodKeepsReferencePaired(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t)
	header, body := signed(`{"event_id":"evt_1","event_type":"subscription.created","data":{"id":"sub_1","status":"trialing","customer":{"email":"jane@example.com"}}}`)

	_, err := f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)

	user := f.user(t)
	assert.Equal(t, "trialing", user.SubscriptionStatus)
	assert.Nil(t, user.SubscriptionID)
	assert.Nil(t, user.SubscriptionEndDate)
}

func TestWebhookWithoutPeriodClearsPreviousReference(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t)
	header, body := signed(updatedEvent)
	_, err := f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	require.NotNil(t, f.user(t).SubscriptionID)

	header, body = signed(`{"event_id":"evt_2","event_type":"subscription.updated","data":{"id":"sub_99","status":"paused","customer":{"email":"jane@example.com"},"current_billing_period":null}}`)
	res, err := f.svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	user := f.user(t)
	assert.Equal(t, "paused", user.SubscriptionStatus)
	assert.Nil(t, user.SubscriptionID)
	assert.Nil(t, user.SubscriptionEndDate)
}

func TestWebhookInvalidSignatureNeverTouchesStore(t *testing.T) {
	ctx := context.Background()
	body := []byte(updatedEvent)
	headers := []string{
		"",
		"garbage",
		crypto.Sign("wrong-secret", testNow, body),
		crypto.Sign(testWebhookSecret, testNow.Add(-10*time.Minute), body),
	}
	for _, header := range headers {
		f := newBillingFixture(t)
		before := f.user(t)

		_, err := f.svc.HandleWebhook(ctx, header, body)
		assert.ErrorIs(t, err, ErrWebhookSignature)
		assert.Zero(t, f.users.Calls())
		assert.Equal(t, before, f.user(t))
		assert.Empty(t, f.publisher.events)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	f := newBillingFixture(t)
	for _, payload := range []string{`not json`, `{"data":{}}`} {
		header, body := signed(payload)
		_, err := f.svc.HandleWebhook(context.Background(), header, body)
		assert.ErrorIs(t, err, ErrWebhookPayload)
	}
	assert.Zero(t, f.users.Calls())
}

func TestWebhookAcknowledgesWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		outcome string
	}{
		{"unknown email", `{"event_id":"e","event_type":"subscription.updated","data":{"id":"sub_9","status":"active","customer":{"email":"nobody@example.com"},"current_billing_period":{"ends_at":"2026-11-15T00:00:00Z"}}}`, OutcomeUnknownCustomer},
		{"no customer", `{"event_id":"e","event_type":"subscription.updated","data":{"id":"sub_9","status":"active"}}`, OutcomeNoCustomer},
		{"unhandled type", `{"event_id":"e","event_type":"transaction.completed","data":{"id":"txn_1","customer":{"email":"jane@example.com"}}}`, OutcomeIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillingFixture(t)
			before := f.user(t)
			header, body := signed(tt.payload)

			res, err := f.svc.HandleWebhook(context.Background(), header, body)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, before, f.user(t))
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestWebhookStoreFailures(t *testing.T) {
	header, body := signed(updatedEvent)

	f := newBillingFixture(t)
	f.users.failGetByEmail = errStoreDown
	_, err := f.svc.HandleWebhook(context.Background(), header, body)
	assert.ErrorIs(t, err, ErrWebhookProcessing)

	f = newBillingFixture(t)
	f.users.failUpdate = errStoreDown
	_, err = f.svc.HandleWebhook(context.Background(), header, body)
	assert.ErrorIs(t, err, ErrWebhookProcessing)
	assert.Empty(t, f.publisher.events)
}

func TestWebhookPublishFailureIsBestEffort(t *testing.T) {
	f := newBillingFixture(t)
	f.publisher.err = errStoreDown
	header, body := signed(updatedEvent)

	res, err := f.svc.HandleWebhook(context.Background(), header, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.NotEmpty(t, f.store.AuditLogs())
}

func TestCreateCheckout(t *testing.T) {
	f := newBillingFixture(t)
	session := models.Session{ID: "u1", Email: "jane@example.com"}

	txn, err := f.svc.CreateCheckout(context.Background(), session, models.CreateCheckoutRequest{OrderID: "ord_1"})
	require.NoError(t, err)
	assert.Equal(t, "txn_123", txn.TransactionID)
	assert.Equal(t, "pri_sub", f.gateway.last.Items[0].PriceID)
	assert.Equal(t, "jane@example.com", f.gateway.last.CustomerEmail)
	assert.Equal(t, map[string]string{"userId": "u1", "orderId": "ord_1"}, f.gateway.last.CustomData)

	f.gateway.err = errStoreDown
	_, err = f.svc.CreateCheckout(context.Background(), session, models.CreateCheckoutRequest{PriceID: "pri_other"})
	assert.ErrorIs(t, err, ErrCheckoutProvider)
	assert.Equal(t, "pri_other", f.gateway.last.Items[0].PriceID)
}
