package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupPrice is a price granted to a customer price group, optionally
// gated on a minimum quantity
type GroupPrice struct {
	ID          uint
	LocationID  uint
	ProductID   uint
	PriceGroup  string
	MinQuantity decimal.Decimal
	Price       decimal.Decimal
	IsActive    bool
}

// StepPrice is a quantity-break price; the best match is the record with
// the largest MinQuantity not exceeding the requested quantity
type StepPrice struct {
	ID          uint
	LocationID  uint
	ProductID   uint
	MinQuantity decimal.Decimal
	Price       decimal.Decimal
	IsActive    bool
}

// Promotion is a time-boxed promotional price, optionally restricted to a
// customer group and a quantity band
type Promotion struct {
	ID               uint
	LocationID       uint
	ProductID        uint
	StartDate        time.Time
	EndDate          time.Time
	PromotionalPrice decimal.Decimal
	MinQuantity      *decimal.Decimal
	MaxQuantity      *decimal.Decimal
	CustomerGroup    string // empty means no group restriction
	Priority         int
	IsActive         bool
}

// AppliesTo reports whether the promotion covers the request: the date is
// inside the window, the quantity inside the band, and the customer (when
// given) belongs to the required group.
func (p *Promotion) AppliesTo(date time.Time, quantity decimal.Decimal, customer *Customer) bool {
	if !p.IsActive {
		return false
	}
	if date.Before(p.StartDate) || date.After(p.EndDate) {
		return false
	}
	if p.MinQuantity != nil && quantity.LessThan(*p.MinQuantity) {
		return false
	}
	if p.MaxQuantity != nil && quantity.GreaterThan(*p.MaxQuantity) {
		return false
	}
	if p.CustomerGroup != "" {
		if customer == nil || !customer.BelongsTo(p.CustomerGroup) {
			return false
		}
	}
	return true
}

// PackagingPrice prices a packaging unit at a location with its own
// method, analogous to a base price. The per-unit price of a barcode
// bound to the packaging is PackagingPrice / ConversionFactor.
type PackagingPrice struct {
	ID               uint
	LocationID       uint
	PackagingUnit    string
	ProductID        uint
	Method           PriceMethod
	Price            decimal.Decimal
	MarkupPercentage decimal.Decimal
	EffectivePrice   decimal.Decimal
	IsActive         bool
}

// Barcode links a scanned code to a product and optionally to a specific
// packaging with a conversion factor into base units
type Barcode struct {
	Code             string
	ProductID        uint
	PackagingUnit    string // empty when the barcode targets the base unit
	ConversionFactor decimal.Decimal
}

// HasPackaging reports whether the barcode is bound to a packaging
func (b *Barcode) HasPackaging() bool {
	return b.PackagingUnit != "" && b.ConversionFactor.IsPositive()
}

// Customer is the slice of the customer the pricing engine needs: its
// price group for group prices and its group memberships for promotion
// eligibility
type Customer struct {
	ID         uint
	Code       string
	PriceGroup string
	Groups     []string
}

// BelongsTo reports whether the customer belongs to the named group
func (c *Customer) BelongsTo(group string) bool {
	if c.PriceGroup == group {
		return true
	}
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}
