package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// MovementID uniquely identifies a movement record
type MovementID struct {
	value string
}

// NewMovementID generates a new random movement ID
func NewMovementID() MovementID {
	return MovementID{value: uuid.NewString()}
}

// ParseMovementID parses a string into a MovementID
func ParseMovementID(s string) (MovementID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return MovementID{}, fmt.Errorf("invalid movement id %q: %w", s, err)
	}
	return MovementID{value: s}, nil
}

// String returns the string representation of the ID
func (id MovementID) String() string {
	return id.value
}

// IsZero reports whether the ID is unset
func (id MovementID) IsZero() bool {
	return id.value == ""
}
