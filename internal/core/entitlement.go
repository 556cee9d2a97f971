package core

import "livewall-backend-go/internal/models"

const (
	// QuotaCycleLength is the number of generations in one pricing cycle.
	QuotaCycleLength = 14
	// PremiumGenerationsPerCycle is how many generations at the start of a cycle are priced.
	PremiumGenerationsPerCycle = 10
)

// StatusGrantsPremium reports whether a subscription status unlocks premium capabilities.
// Only "active" does; every other provider status (past_due, trialing, paused, ...) does not.
func StatusGrantsPremium(status string) bool {
	return status == models.SubscriptionStatusActive
}

// IsSubscribed reports whether the user holds an active subscription.
func IsSubscribed(user *models.User) bool {
	return user != nil && StatusGrantsPremium(user.SubscriptionStatus)
}

// PricingDecision is the outcome of the quota cycle for one generation.
type PricingDecision struct {
	Premium  bool
	Position int64
}

// DecidePricing applies the quota cycle to the counter value read before the generation.
func DecidePricing(aiImagesGenerated int64) PricingDecision {
	if aiImagesGenerated < 0 {
		aiImagesGenerated = 0
	}
	position := aiImagesGenerated % QuotaCycleLength
	return PricingDecision{Premium: position < PremiumGenerationsPerCycle, Position: position}
}
