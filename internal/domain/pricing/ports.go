package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceRepository defines persistence operations for all price record
// kinds. Lookups are scoped by (location, product) and return only active
// records unless stated otherwise.
type PriceRepository interface {
	// FindBasePrice retrieves the active base price, or ErrPriceNotFound
	FindBasePrice(ctx context.Context, locationID, productID uint) (*BasePrice, error)

	// SaveBasePrice creates or updates a base price
	SaveBasePrice(ctx context.Context, price *BasePrice) error

	// ListMarkupBasePrices retrieves active MARKUP-method base prices for
	// the pair, for cost-change propagation
	ListMarkupBasePrices(ctx context.Context, locationID, productID uint) ([]*BasePrice, error)

	// FindGroupPrices retrieves active group prices for the customer's
	// price group with MinQuantity <= quantity, best (lowest) price first
	FindGroupPrices(ctx context.Context, locationID, productID uint, priceGroup string, quantity decimal.Decimal) ([]*GroupPrice, error)

	// SaveGroupPrice creates or updates a group price
	SaveGroupPrice(ctx context.Context, price *GroupPrice) error

	// FindStepPrices retrieves active step prices for the pair ordered by
	// MinQuantity descending
	FindStepPrices(ctx context.Context, locationID, productID uint) ([]*StepPrice, error)

	// SaveStepPrice creates or updates a step price
	SaveStepPrice(ctx context.Context, price *StepPrice) error

	// FindActivePromotions retrieves promotions whose window contains the
	// date, ordered by promotional price ascending then priority descending
	FindActivePromotions(ctx context.Context, locationID, productID uint, date time.Time) ([]*Promotion, error)

	// SavePromotion creates or updates a promotion
	SavePromotion(ctx context.Context, promotion *Promotion) error

	// DeletePromotion removes a promotion
	DeletePromotion(ctx context.Context, id uint) error

	// FindPackagingPrice retrieves the active packaging price for the
	// packaging unit at the location, or ErrPriceNotFound
	FindPackagingPrice(ctx context.Context, locationID uint, packagingUnit string, productID uint) (*PackagingPrice, error)

	// SavePackagingPrice creates or updates a packaging price
	SavePackagingPrice(ctx context.Context, price *PackagingPrice) error

	// FindBarcode retrieves a barcode by its code
	FindBarcode(ctx context.Context, code string) (*Barcode, error)

	// SaveBarcode creates or updates a barcode
	SaveBarcode(ctx context.Context, barcode *Barcode) error
}

// CustomerRepository defines lookups for the pricing-relevant slice of
// customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*Customer, error)
	FindByCode(ctx context.Context, code string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
