package models

import "time"

// Subscription status values the application itself writes or branches on.
// Any other provider-defined value (paused, trialing, ...) is stored verbatim.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusInactive = "inactive"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// User represents a marketplace user record. The document ID is the stable subject
// of the external identity (Google "sub" or Firebase UID).
type User struct {
	ID                  string     `json:"id" firestore:"-"`
	Email               string     `json:"email" firestore:"email"`
	Name                string     `json:"name" firestore:"name"`
	Avatar              string     `json:"avatar" firestore:"avatar"`
	IsCreator           bool       `json:"isCreator" firestore:"isCreator"`
	TotalEarnings       int64      `json:"totalEarnings" firestore:"totalEarnings"` // cents
	TotalSales          int64      `json:"totalSales" firestore:"totalSales"`
	SubscriptionStatus  string     `json:"subscriptionStatus" firestore:"subscriptionStatus"`
	SubscriptionID      *string    `json:"subscriptionId,omitempty" firestore:"subscriptionId,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty" firestore:"subscriptionEndDate,omitempty"`
	AIImagesGenerated   int64      `json:"aiImagesGenerated" firestore:"aiImagesGenerated"`
	CreatedAt           time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// SubscriptionReference is the provider-side subscription a user is tracked against.
// ID and EndDate always travel together.
type SubscriptionReference struct {
	ID      string
	EndDate time.Time
}

// SubscriptionChange is an overwrite applied to a user's billing fields.
//   - Reference != nil sets subscriptionId and subscriptionEndDate together.
//   - ClearReference deletes both.
//   - Neither leaves the pair untouched.
type SubscriptionChange struct {
	Status         string
	Reference      *SubscriptionReference
	ClearReference bool
}

// Identity is a verified external identity as returned by an identity provider.
type Identity struct {
	Subject  string
	Email    string
	Name     string
	Picture  string
	Provider string // "google", "firebase"
}
