package shared

import (
	"time"

	"github.com/google/uuid"
)

// OperationContext carries per-request context (acting user, timestamp,
// correlation id) explicitly through every operation.
//
// There is no ambient "current user": whoever invokes a service passes the
// context along, and everything written during the operation (movements,
// approval log rows, numbering allocations) is attributable to it.
type OperationContext struct {
	// Actor is the identifier of the acting user ("" for system jobs)
	Actor string

	// Timestamp is the business time of the operation
	Timestamp time.Time

	// CorrelationID links all records written by one logical operation
	CorrelationID string
}

// NewOperationContext creates a context for the given actor at the given time
func NewOperationContext(actor string, timestamp time.Time) OperationContext {
	return OperationContext{
		Actor:         actor,
		Timestamp:     timestamp,
		CorrelationID: uuid.NewString(),
	}
}

// SystemContext creates a context for background work not tied to a user
func SystemContext(clock Clock) OperationContext {
	return NewOperationContext("system", clock.Now())
}

// IsValid returns true if the context has a timestamp and correlation id
func (c OperationContext) IsValid() bool {
	return !c.Timestamp.IsZero() && c.CorrelationID != ""
}

// String returns a human-readable representation of the context
func (c OperationContext) String() string {
	return c.Actor + ":" + c.CorrelationID
}
