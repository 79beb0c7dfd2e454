package inventory

import "fmt"

// SourceKind identifies the kind of document or operation that produced a
// movement. Together with the source document number it supports reversal
// lookups and audit queries.
type SourceKind string

const (
	// SourceKindPurchaseOrder represents receipts from purchase orders
	SourceKindPurchaseOrder SourceKind = "PURCHASE_ORDER"

	// SourceKindDeliveryReceipt represents receipts from delivery documents
	SourceKindDeliveryReceipt SourceKind = "DELIVERY_RECEIPT"

	// SourceKindSale represents customer-facing sales
	SourceKindSale SourceKind = "SALE"

	// SourceKindTransfer represents inter-location transfers
	SourceKindTransfer SourceKind = "TRANSFER"

	// SourceKindAdjustment represents manual inventory corrections
	SourceKindAdjustment SourceKind = "ADJUSTMENT"

	// SourceKindCycleCount represents stocktake corrections
	SourceKindCycleCount SourceKind = "CYCLE_COUNT"

	// SourceKindProduction represents on-site production output
	SourceKindProduction SourceKind = "PRODUCTION"

	// SourceKindReversal represents compensating movements reversing a
	// previously written movement
	SourceKindReversal SourceKind = "REVERSAL"
)

// AllSourceKinds returns all valid source kinds
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceKindPurchaseOrder,
		SourceKindDeliveryReceipt,
		SourceKindSale,
		SourceKindTransfer,
		SourceKindAdjustment,
		SourceKindCycleCount,
		SourceKindProduction,
		SourceKindReversal,
	}
}

// String returns the string representation of the SourceKind
func (k SourceKind) String() string {
	return string(k)
}

// IsValid checks if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindPurchaseOrder, SourceKindDeliveryReceipt, SourceKindSale,
		SourceKindTransfer, SourceKindAdjustment, SourceKindCycleCount,
		SourceKindProduction, SourceKindReversal:
		return true
	default:
		return false
	}
}

// IsSale reports whether the movement originates from a customer sale,
// which makes it eligible for automatic sale-price resolution
func (k SourceKind) IsSale() bool {
	return k == SourceKindSale
}

// ParseSourceKind parses a string into a SourceKind
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid source kind: %s", s)
	}
	return k, nil
}

// Source pairs a source kind with the document number that produced a
// movement
type Source struct {
	Kind   SourceKind
	Number string
}

// NewSource creates a source reference with validation
func NewSource(kind SourceKind, number string) (Source, error) {
	if !kind.IsValid() {
		return Source{}, fmt.Errorf("invalid source kind: %s", kind)
	}
	if number == "" {
		return Source{}, fmt.Errorf("source document number cannot be empty")
	}
	return Source{Kind: kind, Number: number}, nil
}

// String returns a human-readable representation
func (s Source) String() string {
	return fmt.Sprintf("%s/%s", s.Kind, s.Number)
}
