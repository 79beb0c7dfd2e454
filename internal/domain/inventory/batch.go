package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Batch number prefixes for batches the system invented because the
// receipt carried none
const (
	AutoBatchPrefix    = "AUTO_"
	UnknownBatchPrefix = "UNKNOWN_"
)

// Batch is the batch cache for one (location, product, batch, expiry)
// key: the FIFO record of one receiving lot. Derived from the ledger and
// deleted once fully consumed.
type Batch struct {
	LocationID     uint
	ProductID      uint
	BatchNumber    string
	ExpiryDate     *time.Time
	ReceivedQty    decimal.Decimal
	RemainingQty   decimal.Decimal
	CostPrice      decimal.Decimal
	ReceivedDate   time.Time
	IsUnknownBatch bool
	ConversionDate *time.Time
	UpdatedAt      time.Time
}

// IsUnknownBatchNumber reports whether the batch number was generated by
// the system rather than supplied by a supplier
func IsUnknownBatchNumber(batchNumber string) bool {
	return strings.HasPrefix(batchNumber, AutoBatchPrefix) ||
		strings.HasPrefix(batchNumber, UnknownBatchPrefix)
}

// AutoBatchNumber builds the generated batch number for a receipt without
// one: "AUTO_{product}_{yymmdd}_{location}"
func AutoBatchNumber(productCode string, date time.Time, locationCode string) string {
	return fmt.Sprintf("%s%s_%s_%s", AutoBatchPrefix, productCode, date.Format("060102"), locationCode)
}

// IsExpired reports whether the batch is past its expiry at the given time
func (b *Batch) IsExpired(at time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(at)
}

// IsConsumed reports whether nothing remains in the lot
func (b *Batch) IsConsumed() bool {
	return b.RemainingQty.LessThanOrEqual(decimal.Zero)
}

// Validate checks the batch cache invariants
func (b *Batch) Validate() error {
	if b.BatchNumber == "" {
		return &ErrInvalidMovement{Field: "batch_number", Reason: "batch number cannot be empty"}
	}
	if b.RemainingQty.IsNegative() {
		return &ErrInvalidMovement{Field: "remaining_qty", Reason: fmt.Sprintf("remaining quantity cannot be negative, got %s", b.RemainingQty)}
	}
	if b.RemainingQty.GreaterThan(b.ReceivedQty) {
		return &ErrInvalidMovement{Field: "remaining_qty", Reason: fmt.Sprintf("remaining %s exceeds received %s", b.RemainingQty, b.ReceivedQty)}
	}
	return nil
}

// String returns a human-readable representation
func (b *Batch) String() string {
	return fmt.Sprintf("Batch[loc=%d product=%d batch=%s remaining=%s/%s cost=%s]",
		b.LocationID, b.ProductID, b.BatchNumber, b.RemainingQty, b.ReceivedQty, b.CostPrice)
}

// SortBatchesFIFO orders batches for consumption: expiry ascending with
// nil expiries last, then received date ascending, then batch number.
func SortBatchesFIFO(batches []*Batch) {
	sort.SliceStable(batches, func(x, y int) bool {
		a, b := batches[x], batches[y]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.BatchNumber < b.BatchNumber
	})
}
