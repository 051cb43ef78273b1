package billing

import (
	"testing"

	"github.com/famloop/backend/config"
	"github.com/famloop/backend/pkg/models"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	return &config.Config{
		StripePriceFamilyPlusMonthly: "price_plus_monthly",
		StripePriceFamilyPlusAnnual:  "price_plus_annual",
		StripePriceFamilyProMonthly:  "price_pro_monthly",
		StripePriceFamilyProAnnual:   "price_pro_annual",
	}
}

func strp(s string) *string {
	return &s
}

func TestCatalog_Plans(t *testing.T) {
	c := NewCatalog(testConfig())
	plans := c.Plans()

	assert.Len(t, plans, 3)
	assert.Equal(t, models.PlanFree, plans[0].Name)
	assert.Equal(t, models.PlanFamilyPlus, plans[1].Name)
	assert.Equal(t, models.PlanFamilyPro, plans[2].Name)

	assert.Equal(t, 1000, *plans[1].MonthlyPriceCents)
	assert.Equal(t, 9600, *plans[1].AnnualPriceCents)
	assert.Equal(t, 1800, *plans[2].MonthlyPriceCents)
	assert.Equal(t, 17280, *plans[2].AnnualPriceCents)

	// Free allows 2 children, Plus 6, Pro unlimited
	assert.Equal(t, 2, *plans[0].MaxChildren)
	assert.Equal(t, 6, *plans[1].MaxChildren)
	assert.Nil(t, plans[2].MaxChildren)
}

func TestCatalog_PriceToPlan(t *testing.T) {
	c := NewCatalog(testConfig())

	tests := []struct {
		name    string
		priceID *string
		want    string
	}{
		{"nil price", nil, models.PlanFree},
		{"empty price", strp(""), models.PlanFree},
		{"unknown price", strp("price_from_another_env"), models.PlanFree},
		{"plus monthly", strp("price_plus_monthly"), models.PlanFamilyPlus},
		{"plus annual", strp("price_plus_annual"), models.PlanFamilyPlus},
		{"pro monthly", strp("price_pro_monthly"), models.PlanFamilyPro},
		{"pro annual", strp("price_pro_annual"), models.PlanFamilyPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.PriceToPlan(tt.priceID))
		})
	}
}

func TestCatalog_PriceToPlan_UnconfiguredPrices(t *testing.T) {
	// With no price IDs configured an empty-string match must not map paid
	// plans onto the empty incoming price
	c := NewCatalog(&config.Config{})

	assert.Equal(t, models.PlanFree, c.PriceToPlan(strp("price_plus_monthly")))
	assert.Equal(t, models.PlanFree, c.PriceToPlan(strp("")))
}

func TestCatalog_Available(t *testing.T) {
	// All prices configured: every plan is purchasable
	c := NewCatalog(testConfig())
	available := c.Available()
	assert.Len(t, available, 3)

	// Only Plus configured: Pro is hidden, free always present
	c = NewCatalog(&config.Config{StripePriceFamilyPlusMonthly: "price_plus_monthly"})
	available = c.Available()
	assert.Len(t, available, 2)
	assert.Equal(t, models.PlanFree, available[0].Name)
	assert.Equal(t, models.PlanFamilyPlus, available[1].Name)

	// Nothing configured: free only
	c = NewCatalog(&config.Config{})
	available = c.Available()
	assert.Len(t, available, 1)
	assert.Equal(t, models.PlanFree, available[0].Name)
}

func TestCatalog_PlanLimits(t *testing.T) {
	c := NewCatalog(testConfig())

	free := c.PlanLimits(models.PlanFree)
	assert.Equal(t, 2, *free.MaxChildren)
	assert.Equal(t, 1, *free.MaxFamilies)

	plus := c.PlanLimits(models.PlanFamilyPlus)
	assert.Equal(t, 6, *plus.MaxChildren)

	pro := c.PlanLimits(models.PlanFamilyPro)
	assert.Nil(t, pro.MaxChildren, "pro children limit should be unlimited")

	// Unknown plan names degrade to free limits
	unknown := c.PlanLimits("enterprise")
	assert.Equal(t, 2, *unknown.MaxChildren)
}

func TestCatalog_ValidPriceIDs(t *testing.T) {
	c := NewCatalog(testConfig())
	valid := c.ValidPriceIDs()

	assert.True(t, valid["price_plus_monthly"])
	assert.True(t, valid["price_pro_annual"])
	assert.False(t, valid["price_from_another_env"])
	assert.False(t, valid[""])
}
