package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitType classifies how a product is measured
type UnitType string

const (
	UnitTypePiece  UnitType = "PIECE"
	UnitTypeWeight UnitType = "WEIGHT"
	UnitTypeVolume UnitType = "VOLUME"
	UnitTypeLength UnitType = "LENGTH"
)

// IsValid checks if the unit type is valid
func (u UnitType) IsValid() bool {
	switch u {
	case UnitTypePiece, UnitTypeWeight, UnitTypeVolume, UnitTypeLength:
		return true
	default:
		return false
	}
}

// String returns the string representation of the unit type
func (u UnitType) String() string {
	return string(u)
}

// LifecycleStatus is a product's administrative state
type LifecycleStatus string

const (
	LifecycleNew          LifecycleStatus = "NEW"
	LifecycleActive       LifecycleStatus = "ACTIVE"
	LifecyclePhaseOut     LifecycleStatus = "PHASE_OUT"
	LifecycleDiscontinued LifecycleStatus = "DISCONTINUED"
)

// IsValid checks if the lifecycle status is valid
func (s LifecycleStatus) IsValid() bool {
	switch s {
	case LifecycleNew, LifecycleActive, LifecyclePhaseOut, LifecycleDiscontinued:
		return true
	default:
		return false
	}
}

// String returns the string representation of the lifecycle status
func (s LifecycleStatus) String() string {
	return string(s)
}

// AllowsSale reports whether products in this state may be sold.
// PHASE_OUT products may still be sold to drain remaining stock.
func (s LifecycleStatus) AllowsSale() bool {
	return s == LifecycleActive || s == LifecyclePhaseOut
}

// AllowsPurchase reports whether products in this state may be purchased
func (s LifecycleStatus) AllowsPurchase() bool {
	return s == LifecycleNew || s == LifecycleActive
}

// Product is a sellable or purchasable article
type Product struct {
	ID              uint
	Code            string
	Name            string
	BaseUnit        string
	UnitType        UnitType
	TaxGroup        string
	TaxRate         decimal.Decimal
	LifecycleStatus LifecycleStatus
	SalesBlocked    bool
	PurchaseBlocked bool
	TrackBatches    bool
	TrackSerials    bool
}

// NewProduct creates a product with validation.
// A piece-unit product that tracks batches may not also track serials.
func NewProduct(code, name, baseUnit string, unitType UnitType, taxGroup string, taxRate decimal.Decimal) (*Product, error) {
	if code == "" {
		return nil, &ErrInvalidEntity{Entity: "product", Field: "code", Reason: "code cannot be empty"}
	}
	if name == "" {
		return nil, &ErrInvalidEntity{Entity: "product", Field: "name", Reason: "name cannot be empty"}
	}
	if !unitType.IsValid() {
		return nil, &ErrInvalidEntity{Entity: "product", Field: "unit_type", Reason: fmt.Sprintf("invalid unit type: %s", unitType)}
	}
	if taxRate.IsNegative() {
		return nil, &ErrInvalidEntity{Entity: "product", Field: "tax_rate", Reason: "tax rate cannot be negative"}
	}
	return &Product{
		Code:            code,
		Name:            name,
		BaseUnit:        baseUnit,
		UnitType:        unitType,
		TaxGroup:        taxGroup,
		TaxRate:         taxRate,
		LifecycleStatus: LifecycleNew,
	}, nil
}

// EnableBatchTracking turns on batch tracking, enforcing the
// batch/serial exclusivity invariant for piece-unit products
func (p *Product) EnableBatchTracking() error {
	if p.UnitType == UnitTypePiece && p.TrackSerials {
		return &ErrInvalidEntity{
			Entity: "product",
			Field:  "track_batches",
			Reason: "piece products cannot track both batches and serials",
		}
	}
	p.TrackBatches = true
	return nil
}

// EnableSerialTracking turns on serial tracking, enforcing the same
// exclusivity invariant
func (p *Product) EnableSerialTracking() error {
	if p.UnitType == UnitTypePiece && p.TrackBatches {
		return &ErrInvalidEntity{
			Entity: "product",
			Field:  "track_serials",
			Reason: "piece products cannot track both batches and serials",
		}
	}
	p.TrackSerials = true
	return nil
}

// SetLifecycleStatus updates the lifecycle status with validation
func (p *Product) SetLifecycleStatus(s LifecycleStatus) error {
	if !s.IsValid() {
		return &ErrInvalidEntity{Entity: "product", Field: "lifecycle_status", Reason: fmt.Sprintf("invalid status: %s", s)}
	}
	p.LifecycleStatus = s
	return nil
}

// AllowsFractionalQuantity reports whether non-integer quantities are legal
func (p *Product) AllowsFractionalQuantity() bool {
	return p.UnitType != UnitTypePiece
}

// String returns a human-readable representation
func (p *Product) String() string {
	return fmt.Sprintf("Product[%s %s, %s]", p.Code, p.Name, p.LifecycleStatus)
}
