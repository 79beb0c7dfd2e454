package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Stable result codes produced by the inventory components
const (
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInsufficientBatchStock = "INSUFFICIENT_BATCH_STOCK"
	CodeInsufficientAvailable  = "INSUFFICIENT_AVAILABLE"
	CodeInsufficientReserved   = "INSUFFICIENT_RESERVED"
	CodeAvailabilityError      = "AVAILABILITY_ERROR"
	CodeNoStock                = "NO_STOCK"
)

// ErrInvalidMovement represents validation errors for movements and caches
type ErrInvalidMovement struct {
	Field  string
	Reason string
}

func (e *ErrInvalidMovement) Error() string {
	return fmt.Sprintf("invalid movement: %s - %s", e.Field, e.Reason)
}

// ErrMovementNotFound represents errors when a movement cannot be found
type ErrMovementNotFound struct {
	ID string
}

func (e *ErrMovementNotFound) Error() string {
	return fmt.Sprintf("movement not found: id=%s", e.ID)
}

// ErrItemNotFound represents errors when no balance cache row exists
type ErrItemNotFound struct {
	LocationID uint
	ProductID  uint
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("inventory item not found: location=%d, product=%d", e.LocationID, e.ProductID)
}

// ErrBatchNotFound represents errors when no batch cache row exists
type ErrBatchNotFound struct {
	LocationID  uint
	ProductID   uint
	BatchNumber string
}

func (e *ErrBatchNotFound) Error() string {
	return fmt.Sprintf("batch not found: location=%d, product=%d, batch=%s", e.LocationID, e.ProductID, e.BatchNumber)
}

// ErrInsufficientStock represents errors when available stock cannot cover
// a requested quantity
type ErrInsufficientStock struct {
	LocationID uint
	ProductID  uint
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock: location=%d, product=%d, available=%s, requested=%s",
		e.LocationID, e.ProductID, e.Available, e.Requested)
}

// ErrInsufficientReserved represents errors when a release exceeds the
// reserved quantity
type ErrInsufficientReserved struct {
	LocationID uint
	ProductID  uint
	Reserved   decimal.Decimal
	Requested  decimal.Decimal
}

func (e *ErrInsufficientReserved) Error() string {
	return fmt.Sprintf("insufficient reserved: location=%d, product=%d, reserved=%s, requested=%s",
		e.LocationID, e.ProductID, e.Reserved, e.Requested)
}
