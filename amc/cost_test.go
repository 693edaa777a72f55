package amc_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/amc-engine/amc"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func TestComputeCost_SumsAllContributions(t *testing.T) {
	order := &amc.Order{
		BaseCost: decp("10000"),
		AMCRate:  amc.Rate{Percentage: decp("15")},
		Customizations: []amc.Customization{
			{ID: "c1", Cost: decp("2000")},
			{ID: "c2", Cost: decp("500.50")},
		},
		Licenses: []amc.License{
			{ID: "l1", TotalLicense: decp("10"), Rate: amc.Rate{Amount: decp("100")}},
		},
	}

	cost := amc.ComputeCost(order, nil)

	assert.Equal(t, "13500.5", cost.TotalCost.String())
	assert.Equal(t, "15", cost.RateApplied.String())
	assert.Equal(t, "2025.08", cost.RateAmount.String())
}

func TestComputeCost_ClientOverride(t *testing.T) {
	order := &amc.Order{BaseCost: decp("1000"), AMCRate: amc.Rate{Percentage: decp("15")}}
	client := &amc.Client{ID: "cl", AMCPercentage: decp("20")}

	cost := amc.ComputeCost(order, client)

	assert.True(t, cost.RateApplied.Equal(dec("20")))
	assert.True(t, cost.RateAmount.Equal(dec("200")))
}

func TestComputeCost_MissingFieldsAreZero(t *testing.T) {
	// GIVEN: An order where every numeric field is missing or negative
	order := &amc.Order{
		Customizations: []amc.Customization{{ID: "c1"}, {ID: "c2", Cost: decp("-50")}},
		Licenses: []amc.License{
			{ID: "l1"},
			{ID: "l2", TotalLicense: decp("3")},
			{ID: "l3", Rate: amc.Rate{Amount: decp("40")}},
		},
	}

	cost := amc.ComputeCost(order, &amc.Client{})

	assert.True(t, cost.TotalCost.IsZero())
	assert.True(t, cost.RateApplied.IsZero())
	assert.True(t, cost.RateAmount.IsZero())
	assert.False(t, cost.RateAmount.IsNegative())
}

func TestComputeCost_NilOrder(t *testing.T) {
	cost := amc.ComputeCost(nil, nil)
	assert.True(t, cost.TotalCost.IsZero())
	assert.True(t, cost.RateAmount.IsZero())
}

func TestComputeCost_Deterministic(t *testing.T) {
	order := &amc.Order{BaseCost: decp("333.33"), AMCRate: amc.Rate{Percentage: decp("18")}}
	first := amc.ComputeCost(order, nil)
	second := amc.ComputeCost(order, nil)
	assert.True(t, first.TotalCost.Equal(second.TotalCost))
	assert.True(t, first.RateAmount.Equal(second.RateAmount))
	assert.Equal(t, "60", first.RateAmount.String())
}
