package models

import (
	"encoding/json"
	"time"
)

// Billing event types the reconciler acts on.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
)

// BillingEvent is the envelope of a payment provider notification.
type BillingEvent struct {
	EventID    string           `json:"event_id"`
	EventType  string           `json:"event_type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       BillingEventData `json:"data"`
}

// BillingEventData holds the fields of the event payload the application reads.
// Only subscription events populate all of them.
type BillingEventData struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer *struct {
		Email string `json:"email"`
	} `json:"customer,omitempty"`
	CurrentBillingPeriod *struct {
		StartsAt *time.Time `json:"starts_at"`
		EndsAt   *time.Time `json:"ends_at"`
	} `json:"current_billing_period,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
}

// CustomerEmail returns the customer email carried by the event, or "".
func (e *BillingEvent) CustomerEmail() string {
	if e.Data.Customer == nil {
		return ""
	}
	return e.Data.Customer.Email
}

// PeriodEnd returns the end of the current billing period, or nil.
func (e *BillingEvent) PeriodEnd() *time.Time {
	if e.Data.CurrentBillingPeriod == nil {
		return nil
	}
	return e.Data.CurrentBillingPeriod.EndsAt
}

// SubscriptionChangedEvent is published after the reconciler mutates a user record.
type SubscriptionChangedEvent struct {
	UserID             string     `json:"userId"`
	Email              string     `json:"email"`
	EventID            string     `json:"eventId"`
	EventType          string     `json:"eventType"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	SubscriptionID     string     `json:"subscriptionId,omitempty"`
	EndDate            *time.Time `json:"subscriptionEndDate,omitempty"`
	Timestamp          time.Time  `json:"timestamp"`
}
