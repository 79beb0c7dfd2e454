package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Item is the balance cache for one (location, product) pair: a derived
// aggregate of every movement for that key. It may be deleted and rebuilt
// from the ledger at any time; only reservations are not ledger-derived
// and must survive refreshes.
type Item struct {
	LocationID       uint
	ProductID        uint
	CurrentQty       decimal.Decimal
	ReservedQty      decimal.Decimal
	AvgCost          decimal.Decimal
	LastPurchaseCost *decimal.Decimal
	LastPurchaseDate *time.Time
	LastSalePrice    *decimal.Decimal
	LastSaleDate     *time.Time
	MinStockLevel    decimal.Decimal
	MaxStockLevel    decimal.Decimal
	UpdatedAt        time.Time
}

// AvailableQty returns the quantity not held by reservations
func (i *Item) AvailableQty() decimal.Decimal {
	return i.CurrentQty.Sub(i.ReservedQty)
}

// CanFulfill reports whether the requested quantity can be taken,
// considering the location's negative-stock policy
func (i *Item) CanFulfill(required decimal.Decimal, allowNegative bool) bool {
	if allowNegative {
		return true
	}
	return i.AvailableQty().GreaterThanOrEqual(required)
}

// Shortage returns how much of the requested quantity is not available,
// zero when fully coverable
func (i *Item) Shortage(required decimal.Decimal) decimal.Decimal {
	short := required.Sub(i.AvailableQty())
	if short.IsNegative() {
		return decimal.Zero
	}
	return short
}

// Reserve increments the reservation. The caller must hold the row lock
// and have re-checked availability.
func (i *Item) Reserve(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return &ErrInvalidMovement{Field: "quantity", Reason: "reservation quantity must be positive"}
	}
	i.ReservedQty = i.ReservedQty.Add(qty)
	return nil
}

// Release decrements the reservation, failing when not enough is reserved
func (i *Item) Release(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return &ErrInvalidMovement{Field: "quantity", Reason: "release quantity must be positive"}
	}
	if i.ReservedQty.LessThan(qty) {
		return &ErrInsufficientReserved{
			LocationID: i.LocationID,
			ProductID:  i.ProductID,
			Reserved:   i.ReservedQty,
			Requested:  qty,
		}
	}
	i.ReservedQty = i.ReservedQty.Sub(qty)
	return nil
}

// IsEmpty reports whether the row carries no state worth keeping
func (i *Item) IsEmpty() bool {
	return i.CurrentQty.IsZero() && i.ReservedQty.IsZero()
}

// String returns a human-readable representation
func (i *Item) String() string {
	return fmt.Sprintf("Item[loc=%d product=%d qty=%s reserved=%s avg_cost=%s]",
		i.LocationID, i.ProductID, i.CurrentQty, i.ReservedQty, i.AvgCost)
}
