package shared

import "github.com/shopspring/decimal"

// Decimal precision applied across the engine. Quantities and unit costs
// keep four places so weighted averages survive repeated blending;
// customer-facing amounts and percentages keep two.
const (
	CurrencyPlaces   = 2
	CostPlaces       = 4
	QuantityPlaces   = 4
	PercentagePlaces = 2
)

// RoundCurrency rounds a customer-facing amount to currency precision
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// RoundCost rounds a unit cost to cost precision
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostPlaces)
}

// RoundQuantity rounds a quantity to quantity precision
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// RoundPercentage rounds a percentage to percentage precision
func RoundPercentage(d decimal.Decimal) decimal.Decimal {
	return d.Round(PercentagePlaces)
}

// Percent converts a percentage value to its multiplier, e.g. 25 -> 0.25
func Percent(d decimal.Decimal) decimal.Decimal {
	return d.Div(decimal.NewFromInt(100))
}

// ApplyMarkup returns cost * (1 + markup%/100) rounded to currency precision
func ApplyMarkup(cost, markupPercent decimal.Decimal) decimal.Decimal {
	return RoundCurrency(cost.Mul(decimal.NewFromInt(1).Add(Percent(markupPercent))))
}
