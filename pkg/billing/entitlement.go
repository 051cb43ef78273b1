package billing

import "github.com/famloop/backend/pkg/models"

// IsActive reports whether a subscription grants paid access. A past_due
// subscription still counts; the grace period ends only when Stripe moves the
// subscription to canceled or unpaid.
func IsActive(sub *models.Subscription) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case models.StatusActive, models.StatusTrialing, models.StatusPastDue:
		return true
	}
	return false
}

// EffectivePlan derives the plan a subscription actually entitles its owner
// to. The stored plan column is a cached convenience value and is never
// consulted here: an inactive paid subscription reports free.
func (c *Catalog) EffectivePlan(sub *models.Subscription) string {
	if !IsActive(sub) {
		return models.PlanFree
	}
	return c.PriceToPlan(sub.PriceID)
}

// Serialize converts a subscription row into its API representation, deriving
// plan and is_active through the entitlement resolver. A nil subscription
// serializes to the free/inactive default.
func (c *Catalog) Serialize(sub *models.Subscription) models.SubscriptionOut {
	if sub == nil {
		return models.SubscriptionOut{
			Plan:   models.PlanFree,
			Status: models.StatusInactive,
		}
	}

	return models.SubscriptionOut{
		Plan:              c.EffectivePlan(sub),
		Status:            sub.Status,
		PriceID:           sub.PriceID,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		IsActive:          IsActive(sub),
	}
}
