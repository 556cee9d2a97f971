package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"livewall-backend-go/internal/crypto"
	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/metrics"
	"livewall-backend-go/internal/models"
)

var (
	ErrWebhookSignature  = errors.New("billing webhook signature verification failed")
	ErrWebhookPayload    = errors.New("billing webhook payload is malformed")
	ErrWebhookProcessing = errors.New("billing webhook processing failed")
	ErrCheckoutProvider  = errors.New("payment provider operation failed")
	ErrPriceNotFound     = errors.New("price ID not configured")
)

// Reconciliation outcomes, also used as metric labels.
const (
	OutcomeApplied         = "applied"
	OutcomeNoCustomer      = "no_customer"
	OutcomeUnknownCustomer = "unknown_customer"
	OutcomeIgnored         = "ignored"
)

// SubscriptionChangedRoutingKey is the routing key of the domain event published
// after a subscription change is applied.
const SubscriptionChangedRoutingKey = "user.subscription.changed"

// WebhookResult describes how a verified notification was handled.
type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   string
	UserID    string
}

// BillingConfig carries the billing settings the service needs.
type BillingConfig struct {
	WebhookSecret    string
	WebhookTolerance time.Duration
	PriceID          string
	EventsExchange   string
	Clock            func() time.Time
}

type billingService struct {
	userRepo  db.UserRepository
	verifier  *crypto.SignatureVerifier
	gateway   CheckoutGateway
	publisher EventPublisher
	audit     AuditService
	logger    *zap.Logger
	priceID   string
	exchange  string
	now       func() time.Time
}

// NewBillingService creates the billing event reconciler and checkout entry point.
// gateway, publisher and audit may be nil.
func NewBillingService(
	userRepo db.UserRepository,
	gateway CheckoutGateway,
	publisher EventPublisher,
	audit AuditService,
	cfg BillingConfig,
	logger *zap.Logger,
) BillingService {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &billingService{
		userRepo:  userRepo,
		verifier:  crypto.NewSignatureVerifier(cfg.WebhookSecret, cfg.WebhookTolerance, now),
		gateway:   gateway,
		publisher: publisher,
		audit:     audit,
		logger:    logger,
		priceID:   cfg.PriceID,
		exchange:  cfg.EventsExchange,
		now:       now,
	}
}

// HandleWebhook verifies and applies one provider notification. Redelivery of the same
// event overwrites the same fields with the same values.
func (s *billingService) HandleWebhook(ctx context.Context, signatureHeader string, rawBody []byte) (*WebhookResult, error) {
	if err := s.verifier.Verify(signatureHeader, rawBody); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	var event models.BillingEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayload, err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrWebhookPayload)
	}

	result := &WebhookResult{EventID: event.EventID, EventType: event.EventType}
	logger := s.logger.With(zap.String("eventID", event.EventID), zap.String("eventType", event.EventType))

	change, handled := subscriptionChangeFor(&event)
	if !handled {
		result.Outcome = OutcomeIgnored
		metrics.ReconciliationOutcomes.WithLabelValues(result.Outcome).Inc()
		logger.Debug("Ignoring unhandled billing event type")
		return result, nil
	}

	email := event.CustomerEmail()
	if email == "" {
		result.Outcome = OutcomeNoCustomer
		metrics.ReconciliationOutcomes.WithLabelValues(result.Outcome).Inc()
		logger.Info("Billing event carries no customer email; acknowledging without changes")
		return result, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			result.Outcome = OutcomeUnknownCustomer
			metrics.ReconciliationOutcomes.WithLabelValues(result.Outcome).Inc()
			logger.Warn("Billing event references an email with no user record")
			recordAudit(ctx, s.audit, logger, models.AuditLog{
				Action:  models.AuditActionEventUnmatched,
				Source:  "webhook",
				Details: map[string]interface{}{"eventId": event.EventID, "eventType": event.EventType},
			})
			return result, nil
		}
		return nil, fmt.Errorf("%w: lookup customer: %v", ErrWebhookProcessing, err)
	}
	result.UserID = user.ID

	if err := s.userRepo.UpdateSubscription(ctx, user.ID, change); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Record vanished between lookup and write; nothing left to reconcile.
			result.Outcome = OutcomeUnknownCustomer
			metrics.ReconciliationOutcomes.WithLabelValues(result.Outcome).Inc()
			logger.Warn("User record disappeared before subscription update", zap.String("userID", user.ID))
			return result, nil
		}
		return nil, fmt.Errorf("%w: update user %s: %v", ErrWebhookProcessing, user.ID, err)
	}

	result.Outcome = OutcomeApplied
	metrics.ReconciliationOutcomes.WithLabelValues(result.Outcome).Inc()
	logger.Info("Applied subscription change",
		zap.String("userID", user.ID), zap.String("subscriptionStatus", change.Status))

	s.afterApplied(ctx, logger, &event, user, change)
	return result, nil
}

// subscriptionChangeFor maps an event to the overwrite it implies. The id and end date always
// reflect the latest event: written when the payload carries both, cleared otherwise.
func subscriptionChangeFor(event *models.BillingEvent) (models.SubscriptionChange, bool) {
	switch event.EventType {
	case models.EventSubscriptionCreated, models.EventSubscriptionUpdated:
		change := models.SubscriptionChange{Status: event.Data.Status}
		if change.Status == "" {
			change.Status = models.SubscriptionStatusInactive
		}
		if end := event.PeriodEnd(); event.Data.ID != "" && end != nil {
			change.Reference = &models.SubscriptionReference{ID: event.Data.ID, EndDate: end.UTC()}
		} else {
			change.ClearReference = true
		}
		return change, true
	case models.EventSubscriptionCanceled:
		status := event.Data.Status
		if status == "" {
			status = models.SubscriptionStatusCanceled
		}
		return models.SubscriptionChange{Status: status, ClearReference: true}, true
	default:
		return models.SubscriptionChange{}, false
	}
}

func (s *billingService) afterApplied(ctx context.Context, logger *zap.Logger, event *models.BillingEvent, user *models.User, change models.SubscriptionChange) {
	recordAudit(ctx, s.audit, logger, models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionSubscriptionReconciled,
		TargetType: "USER",
		TargetID:   user.ID,
		Source:     "webhook",
		Details: map[string]interface{}{
			"eventId":            event.EventID,
			"eventType":          event.EventType,
			"subscriptionStatus": change.Status,
		},
	})

	if s.publisher == nil {
		return
	}
	changed := models.SubscriptionChangedEvent{
		UserID:             user.ID,
		Email:              user.Email,
		EventID:            event.EventID,
		EventType:          event.EventType,
		SubscriptionStatus: change.Status,
		Timestamp:          s.now().UTC(),
	}
	if change.Reference != nil {
		changed.SubscriptionID = change.Reference.ID
		end := change.Reference.EndDate
		changed.EndDate = &end
	}
	if err := s.publisher.Publish(ctx, s.exchange, SubscriptionChangedRoutingKey, changed); err != nil {
		logger.Warn("Failed to publish subscription change event", zap.Error(err))
	}
}

// CreateCheckout opens a provider-side transaction for the configured subscription price
// (or the requested one) tagged with the user and order for correlation.
func (s *billingService) CreateCheckout(ctx context.Context, session models.Session, req models.CreateCheckoutRequest) (*models.CheckoutTransaction, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no payment provider configured", ErrCheckoutProvider)
	}
	priceID := req.PriceID
	if priceID == "" {
		priceID = s.priceID
	}
	if priceID == "" {
		return nil, ErrPriceNotFound
	}

	customData := map[string]string{"userId": session.ID}
	if req.OrderID != "" {
		customData["orderId"] = req.OrderID
	}

	txn, err := s.gateway.CreateTransaction(ctx, models.CheckoutTransactionRequest{
		Items:         []models.CheckoutItem{{PriceID: priceID, Quantity: 1}},
		CustomerEmail: session.Email,
		CustomData:    customData,
	})
	if err != nil {
		s.logger.Error("Payment provider rejected checkout transaction", zap.String("userID", session.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCheckoutProvider, err)
	}
	return txn, nil
}
