package pricing

import "fmt"

// Result codes produced by the pricing resolver
const (
	CodePriceNotFound = "PRICE_NOT_FOUND"
)

// Price source tags reported with every resolution
const (
	SourcePromotion     = "PROMOTION"
	SourceGroupPrice    = "GROUP_PRICE"
	SourceStepPrice     = "STEP_PRICE"
	SourceBasePrice     = "BASE_PRICE"
	SourceCostMarkup    = "COST_MARKUP_FALLBACK"
	SourcePackaging     = "PACKAGING_PRICE"
	SourceNone          = "NONE"
)

// ErrInvalidPrice represents validation errors for price records
type ErrInvalidPrice struct {
	Field  string
	Reason string
}

func (e *ErrInvalidPrice) Error() string {
	return fmt.Sprintf("invalid price record: %s - %s", e.Field, e.Reason)
}

// ErrPriceNotFound represents errors when no price record exists
type ErrPriceNotFound struct {
	LocationID uint
	ProductID  uint
}

func (e *ErrPriceNotFound) Error() string {
	return fmt.Sprintf("no price found: location=%d, product=%d", e.LocationID, e.ProductID)
}
