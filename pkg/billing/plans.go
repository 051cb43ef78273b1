package billing

import (
	"github.com/famloop/backend/config"
	"github.com/famloop/backend/pkg/models"
)

// Catalog provides the static plan definitions. Price IDs come from the
// injected configuration, so paid plans may carry empty IDs in environments
// where Stripe prices are not provisioned.
type Catalog struct {
	config *config.Config
}

// NewCatalog creates a plan catalog backed by the given configuration
func NewCatalog(cfg *config.Config) *Catalog {
	return &Catalog{config: cfg}
}

func intPtr(v int) *int {
	return &v
}

// Plans returns the full ordered plan catalog
func (c *Catalog) Plans() []models.PlanInfo {
	return []models.PlanInfo{
		{
			Name:              models.PlanFree,
			Label:             "Free",
			Description:       "Basic chores and calendar for one household",
			MonthlyPriceCents: intPtr(0),
			AnnualPriceCents:  intPtr(0),
			Currency:          "usd",
			MaxChildren:       intPtr(2),
			MaxFamilies:       intPtr(1),
		},
		{
			Name:              models.PlanFamilyPlus,
			Label:             "Family Plus",
			Description:       "Up to 6 kids, recurring chores, rewards, calendar sharing",
			MonthlyPriceCents: intPtr(1000),
			AnnualPriceCents:  intPtr(9600),
			Currency:          "usd",
			PriceMonthlyID:    c.config.StripePriceFamilyPlusMonthly,
			PriceAnnualID:     c.config.StripePriceFamilyPlusAnnual,
			MaxChildren:       intPtr(6),
			MaxFamilies:       intPtr(1),
		},
		{
			Name:              models.PlanFamilyPro,
			Label:             "Family Pro",
			Description:       "Unlimited kids and integrations, priority support",
			MonthlyPriceCents: intPtr(1800),
			AnnualPriceCents:  intPtr(17280),
			Currency:          "usd",
			PriceMonthlyID:    c.config.StripePriceFamilyProMonthly,
			PriceAnnualID:     c.config.StripePriceFamilyProAnnual,
			// nil MaxChildren means unlimited
			MaxFamilies: intPtr(1),
		},
	}
}

// Available returns the plans exposed to the frontend. Free is always
// included; paid plans only when at least one Stripe price ID is configured.
func (c *Catalog) Available() []models.PlanInfo {
	var plans []models.PlanInfo
	for _, plan := range c.Plans() {
		if plan.Name == models.PlanFree {
			plans = append(plans, plan)
			continue
		}
		if plan.PriceMonthlyID != "" || plan.PriceAnnualID != "" {
			plans = append(plans, plan)
		}
	}
	return plans
}

// PriceToPlan maps a Stripe price ID to a plan name. Unknown or missing
// price IDs fall back to free rather than erroring, so billing keeps working
// when a price is deleted or belongs to another environment.
func (c *Catalog) PriceToPlan(priceID *string) string {
	if priceID == nil || *priceID == "" {
		return models.PlanFree
	}

	for _, plan := range c.Plans() {
		if plan.PriceMonthlyID == *priceID && plan.PriceMonthlyID != "" {
			return plan.Name
		}
		if plan.PriceAnnualID == *priceID && plan.PriceAnnualID != "" {
			return plan.Name
		}
	}
	return models.PlanFree
}

// PlanLimits returns the seat limits for a plan name. Unknown plans get the
// free tier limits.
func (c *Catalog) PlanLimits(plan string) models.PlanLimits {
	var free models.PlanInfo
	for _, p := range c.Plans() {
		if p.Name == plan {
			return models.PlanLimits{MaxChildren: p.MaxChildren, MaxFamilies: p.MaxFamilies}
		}
		if p.Name == models.PlanFree {
			free = p
		}
	}
	return models.PlanLimits{MaxChildren: free.MaxChildren, MaxFamilies: free.MaxFamilies}
}

// ValidPriceIDs returns the set of configured price IDs across available plans
func (c *Catalog) ValidPriceIDs() map[string]bool {
	valid := make(map[string]bool)
	for _, plan := range c.Available() {
		if plan.PriceMonthlyID != "" {
			valid[plan.PriceMonthlyID] = true
		}
		if plan.PriceAnnualID != "" {
			valid[plan.PriceAnnualID] = true
		}
	}
	return valid
}
