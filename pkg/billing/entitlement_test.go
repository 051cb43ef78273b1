package billing

import (
	"testing"
	"time"

	"github.com/famloop/backend/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{models.StatusActive, true},
		{models.StatusTrialing, true},
		{models.StatusPastDue, true},
		{models.StatusInactive, false},
		{models.StatusCanceled, false},
		{models.StatusIncomplete, false},
		{"unpaid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(&models.Subscription{Status: tt.status}))
		})
	}
}

func TestIsActive_Nil(t *testing.T) {
	assert.False(t, IsActive(nil))
}

func TestEffectivePlan(t *testing.T) {
	c := NewCatalog(testConfig())

	// Active paid subscription resolves through the price
	sub := &models.Subscription{
		Status:  models.StatusActive,
		PriceID: strp("price_plus_monthly"),
	}
	assert.Equal(t, models.PlanFamilyPlus, c.EffectivePlan(sub))

	// A canceled subscription entitles only free regardless of price
	sub.Status = models.StatusCanceled
	assert.Equal(t, models.PlanFree, c.EffectivePlan(sub))

	// Trialing counts as entitled
	sub.Status = models.StatusTrialing
	assert.Equal(t, models.PlanFamilyPlus, c.EffectivePlan(sub))

	// Active with an unknown price degrades to free
	assert.Equal(t, models.PlanFree, c.EffectivePlan(&models.Subscription{
		Status:  models.StatusActive,
		PriceID: strp("price_deleted_long_ago"),
	}))

	assert.Equal(t, models.PlanFree, c.EffectivePlan(nil))
}

func TestSerialize_Nil(t *testing.T) {
	c := NewCatalog(testConfig())
	out := c.Serialize(nil)

	assert.Equal(t, models.PlanFree, out.Plan)
	assert.Equal(t, models.StatusInactive, out.Status)
	assert.False(t, out.IsActive)
	assert.Nil(t, out.PriceID)
	assert.Nil(t, out.CurrentPeriodEnd)
	assert.False(t, out.CancelAtPeriodEnd)
}

func TestSerialize(t *testing.T) {
	c := NewCatalog(testConfig())
	periodEnd := time.Now().Add(30 * 24 * time.Hour).UTC()

	out := c.Serialize(&models.Subscription{
		Status:            models.StatusActive,
		PriceID:           strp("price_pro_monthly"),
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: true,
	})

	assert.Equal(t, models.PlanFamilyPro, out.Plan)
	assert.Equal(t, models.StatusActive, out.Status)
	assert.True(t, out.IsActive)
	assert.Equal(t, "price_pro_monthly", *out.PriceID)
	assert.Equal(t, periodEnd, *out.CurrentPeriodEnd)
	assert.True(t, out.CancelAtPeriodEnd)
}

func TestSerialize_StalePlanColumnIgnored(t *testing.T) {
	// The stored plan column never leaks into the serialized view
	c := NewCatalog(testConfig())

	out := c.Serialize(&models.Subscription{
		Plan:    models.PlanFamilyPro,
		Status:  models.StatusCanceled,
		PriceID: strp("price_pro_monthly"),
	})

	assert.Equal(t, models.PlanFree, out.Plan)
	assert.False(t, out.IsActive)
}
