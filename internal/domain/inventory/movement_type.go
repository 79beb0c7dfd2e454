package inventory

import "fmt"

// MovementType represents the type of stock movement.
// Direction is encoded in the type; quantities are always positive.
type MovementType string

const (
	// MovementTypeIn represents stock entering a location
	MovementTypeIn MovementType = "IN"

	// MovementTypeOut represents stock leaving a location
	MovementTypeOut MovementType = "OUT"

	// MovementTypeTransferIn is the destination leg of a transfer
	MovementTypeTransferIn MovementType = "TRANSFER_IN"

	// MovementTypeTransferOut is the source leg of a transfer
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"

	// MovementTypeAdjustmentIn is a positive inventory correction
	MovementTypeAdjustmentIn MovementType = "ADJUSTMENT_IN"

	// MovementTypeAdjustmentOut is a negative inventory correction
	MovementTypeAdjustmentOut MovementType = "ADJUSTMENT_OUT"

	// MovementTypeProduction represents stock produced on site
	MovementTypeProduction MovementType = "PRODUCTION"
)

// AllMovementTypes returns all valid movement types
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementTypeIn,
		MovementTypeOut,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
		MovementTypeAdjustmentIn,
		MovementTypeAdjustmentOut,
		MovementTypeProduction,
	}
}

// String returns the string representation of the MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut,
		MovementTypeTransferIn, MovementTypeTransferOut,
		MovementTypeAdjustmentIn, MovementTypeAdjustmentOut,
		MovementTypeProduction:
		return true
	default:
		return false
	}
}

// IsIncoming reports whether the movement adds stock at its location.
// Transfer destination legs count as incoming.
func (t MovementType) IsIncoming() bool {
	switch t {
	case MovementTypeIn, MovementTypeTransferIn, MovementTypeAdjustmentIn, MovementTypeProduction:
		return true
	default:
		return false
	}
}

// IsOutgoing reports whether the movement removes stock at its location.
// Transfer source legs count as outgoing.
func (t MovementType) IsOutgoing() bool {
	switch t {
	case MovementTypeOut, MovementTypeTransferOut, MovementTypeAdjustmentOut:
		return true
	default:
		return false
	}
}

// AffectsAverageCost reports whether the movement's cost participates in
// the weighted average cost of its location. Transfer destination legs
// carry the source location's cost and count as receipts there.
func (t MovementType) AffectsAverageCost() bool {
	switch t {
	case MovementTypeIn, MovementTypeTransferIn, MovementTypeProduction:
		return true
	default:
		return false
	}
}

// Opposite returns the movement type of a compensating reversal
func (t MovementType) Opposite() (MovementType, error) {
	switch t {
	case MovementTypeIn:
		return MovementTypeOut, nil
	case MovementTypeOut:
		return MovementTypeIn, nil
	case MovementTypeTransferIn:
		return MovementTypeTransferOut, nil
	case MovementTypeTransferOut:
		return MovementTypeTransferIn, nil
	case MovementTypeAdjustmentIn:
		return MovementTypeAdjustmentOut, nil
	case MovementTypeAdjustmentOut:
		return MovementTypeAdjustmentIn, nil
	case MovementTypeProduction:
		return MovementTypeOut, nil
	default:
		return "", fmt.Errorf("unknown movement type: %s", t)
	}
}

// ParseMovementType parses a string into a MovementType
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid movement type: %s", s)
	}
	return t, nil
}
