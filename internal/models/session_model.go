package models

// Session is the user view exposed to the rest of the application. It is built by the
// identity bridge on every session read and carries the entitlement fields so that
// downstream code does not query the user store again.
type Session struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Image              string `json:"image"`
	IsCreator          bool   `json:"isCreator"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

// SessionClaims is what a signed session token carries.
type SessionClaims struct {
	Subject string
	Name    string
	Email   string
	Picture string
}
