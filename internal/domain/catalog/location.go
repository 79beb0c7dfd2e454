package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchTrackingMode controls whether a location requires batch numbers on
// incoming stock
type BatchTrackingMode string

const (
	// BatchTrackingDisabled means the location never records batches
	BatchTrackingDisabled BatchTrackingMode = "DISABLED"

	// BatchTrackingOptional records batches when provided
	BatchTrackingOptional BatchTrackingMode = "OPTIONAL"

	// BatchTrackingEnforced requires a batch on every batch-tracked receipt
	BatchTrackingEnforced BatchTrackingMode = "ENFORCED"
)

// IsValid checks if the batch tracking mode is valid
func (m BatchTrackingMode) IsValid() bool {
	switch m {
	case BatchTrackingDisabled, BatchTrackingOptional, BatchTrackingEnforced:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode
func (m BatchTrackingMode) String() string {
	return string(m)
}

// ParseBatchTrackingMode parses a string into a BatchTrackingMode
func ParseBatchTrackingMode(s string) (BatchTrackingMode, error) {
	m := BatchTrackingMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid batch tracking mode: %s", s)
	}
	return m, nil
}

// Location is a physical stock-keeping site. Movements, caches, prices and
// documents all reference a location by its ID.
type Location struct {
	ID                      uint
	Code                    string
	Name                    string
	AllowNegativeStock      bool
	DefaultMarkupPercentage decimal.Decimal
	BatchTrackingMode       BatchTrackingMode
}

// NewLocation creates a location with validation
func NewLocation(code, name string, allowNegative bool, defaultMarkup decimal.Decimal, mode BatchTrackingMode) (*Location, error) {
	if code == "" {
		return nil, &ErrInvalidEntity{Entity: "location", Field: "code", Reason: "code cannot be empty"}
	}
	if name == "" {
		return nil, &ErrInvalidEntity{Entity: "location", Field: "name", Reason: "name cannot be empty"}
	}
	if !mode.IsValid() {
		return nil, &ErrInvalidEntity{Entity: "location", Field: "batch_tracking_mode", Reason: fmt.Sprintf("invalid mode: %s", mode)}
	}
	if defaultMarkup.IsNegative() {
		return nil, &ErrInvalidEntity{Entity: "location", Field: "default_markup_percentage", Reason: "markup cannot be negative"}
	}
	return &Location{
		Code:                    code,
		Name:                    name,
		AllowNegativeStock:      allowNegative,
		DefaultMarkupPercentage: defaultMarkup,
		BatchTrackingMode:       mode,
	}, nil
}

// TracksBatches reports whether incoming stock at this location should carry
// a batch for a product that tracks batches
func (l *Location) TracksBatches(p *Product) bool {
	if l.BatchTrackingMode == BatchTrackingDisabled {
		return false
	}
	return p.TrackBatches
}

// RequiresBatch reports whether a batch number is mandatory (auto-generated
// when absent) for incoming stock of the given product
func (l *Location) RequiresBatch(p *Product) bool {
	return l.BatchTrackingMode == BatchTrackingEnforced && p.TrackBatches
}

// String returns a human-readable representation
func (l *Location) String() string {
	return fmt.Sprintf("Location[%s %s]", l.Code, l.Name)
}
