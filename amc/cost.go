package amc

import "github.com/shopspring/decimal"

// =============================================================================
// AMC COST CALCULATOR
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Cost is the billing basis captured on each generated payment.
type Cost struct {
	TotalCost   decimal.Decimal
	RateApplied decimal.Decimal
	RateAmount  decimal.Decimal
}

// ComputeCost returns the cost basis for a period generated now:
//
//	total  = base + sum(customization.cost) + sum(license.total_license * license.rate.amount)
//	rate   = client override, else order.amc_rate.percentage
//	amount = total * rate / 100, rounded to cents
//
// Missing or negative contributions count as zero.
func ComputeCost(order *Order, client *Client) Cost {
	if order == nil {
		return Cost{TotalCost: decimal.Zero, RateApplied: decimal.Zero, RateAmount: decimal.Zero}
	}

	total := orZero(order.BaseCost)
	for _, c := range order.Customizations {
		total = total.Add(orZero(c.Cost))
	}
	for _, l := range order.Licenses {
		total = total.Add(orZero(l.TotalLicense).Mul(orZero(l.Rate.Amount)))
	}

	rate := orZero(order.AMCRate.Percentage)
	if client != nil && client.AMCPercentage != nil {
		rate = orZero(client.AMCPercentage)
	}

	return Cost{
		TotalCost:   total,
		RateApplied: rate,
		RateAmount:  total.Mul(rate).Div(hundred).Round(2),
	}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil || d.IsNegative() {
		return decimal.Zero
	}
	return *d
}
