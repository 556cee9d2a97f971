package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"livewall-backend-go/internal/models"
)

func TestIsSubscribed(t *testing.T) {
	statuses := map[string]bool{
		"active":   true,
		"inactive": false,
		"canceled": false,
		"past_due": false,
		"paused":   false,
		"trialing": false,
		"Active":   false,
		"":         false,
	}
	for status, want := range statuses {
		assert.Equal(t, want, IsSubscribed(&models.User{SubscriptionStatus: status}), "status %q", status)
	}
	assert.False(t, IsSubscribed(nil))
}

func TestDecidePricingCycles(t *testing.T) {
	for count := int64(0); count < 3*QuotaCycleLength; count++ {
		offset := count % 14
		want := offset < 10
		assert.Equal(t, want, DecidePricing(count).Premium, "counter %d", count)
	}

	assert.True(t, DecidePricing(9).Premium)
	assert.False(t, DecidePricing(10).Premium)
	assert.False(t, DecidePricing(13).Premium)
	assert.True(t, DecidePricing(14).Premium)
	assert.True(t, DecidePricing(23).Premium)
	assert.False(t, DecidePricing(24).Premium)
	assert.EqualValues(t, 0, DecidePricing(28).Position)
}
