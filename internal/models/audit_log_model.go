package models

import "time"

// Audit actions.
const (
	AuditActionSubscriptionReconciled = "SUBSCRIPTION_RECONCILED"
	AuditActionEventUnmatched         = "BILLING_EVENT_UNMATCHED"
	AuditActionOrderCompleted         = "ORDER_COMPLETED"
	AuditActionImageGenerated         = "AI_IMAGE_GENERATED"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId,omitempty" firestore:"userId,omitempty"` // Affected or acting user; empty for unmatched events
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // "USER", "ORDER", "WALLPAPER"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Source     string                 `json:"source,omitempty" firestore:"source,omitempty"` // "webhook", "api"
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
