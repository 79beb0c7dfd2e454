package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// PriceMethod is the strategy a base price uses to compute its effective
// selling price
type PriceMethod string

const (
	// PriceMethodFixed stores the selling price directly
	PriceMethodFixed PriceMethod = "FIXED"

	// PriceMethodMarkup applies a stored markup percentage over cost
	PriceMethodMarkup PriceMethod = "MARKUP"

	// PriceMethodAuto applies the location's default markup over cost
	PriceMethodAuto PriceMethod = "AUTO"
)

// IsValid checks if the price method is valid
func (m PriceMethod) IsValid() bool {
	switch m {
	case PriceMethodFixed, PriceMethodMarkup, PriceMethodAuto:
		return true
	default:
		return false
	}
}

// String returns the string representation of the method
func (m PriceMethod) String() string {
	return string(m)
}

// ParsePriceMethod parses a string into a PriceMethod
func ParsePriceMethod(s string) (PriceMethod, error) {
	m := PriceMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid price method: %s", s)
	}
	return m, nil
}

// BasePrice is the standard selling price of a product at a location.
// EffectivePrice caches the computed value; for MARKUP and AUTO methods it
// is rewritten whenever the underlying cost moves enough to matter.
type BasePrice struct {
	ID               uint
	LocationID       uint
	ProductID        uint
	Method           PriceMethod
	BasePrice        decimal.Decimal // used by FIXED
	MarkupPercentage decimal.Decimal // used by MARKUP
	EffectivePrice   decimal.Decimal
	IsActive         bool
	UpdatedAt        time.Time
}

// ComputeEffective derives the effective price from the method, the given
// cost and the location's default markup, rounded to currency precision
func (p *BasePrice) ComputeEffective(cost, locationDefaultMarkup decimal.Decimal) decimal.Decimal {
	switch p.Method {
	case PriceMethodFixed:
		return shared.RoundCurrency(p.BasePrice)
	case PriceMethodMarkup:
		return shared.ApplyMarkup(cost, p.MarkupPercentage)
	case PriceMethodAuto:
		return shared.ApplyMarkup(cost, locationDefaultMarkup)
	default:
		return decimal.Zero
	}
}

// Validate checks the base price invariants
func (p *BasePrice) Validate() error {
	if !p.Method.IsValid() {
		return &ErrInvalidPrice{Field: "method", Reason: fmt.Sprintf("invalid price method: %s", p.Method)}
	}
	if p.BasePrice.IsNegative() {
		return &ErrInvalidPrice{Field: "base_price", Reason: "price cannot be negative"}
	}
	if p.MarkupPercentage.IsNegative() {
		return &ErrInvalidPrice{Field: "markup_percentage", Reason: "markup cannot be negative"}
	}
	return nil
}
