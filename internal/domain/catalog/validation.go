package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// Validation result codes for the product validation contract
const (
	CodeSalesBlocked        = "SALES_BLOCKED"
	CodePurchaseBlocked     = "PURCHASE_BLOCKED"
	CodeLifecycleRestricted = "LIFECYCLE_RESTRICTED"
	CodeFractionalPieces    = "FRACTIONAL_PIECES"
)

// ProductValidator is the product validation contract the movement
// processor consumes. Stock-level checks (INSUFFICIENT_STOCK, NO_STOCK)
// belong to the inventory service; this contract covers product policy.
type ProductValidator interface {
	ValidateSale(product *Product, quantity decimal.Decimal, location *Location) shared.Result
	ValidatePurchase(product *Product, quantity decimal.Decimal) shared.Result
}

// PolicyValidator is the default ProductValidator implementation, applying
// blocked flags, lifecycle restrictions and unit-type quantity rules.
type PolicyValidator struct{}

// NewPolicyValidator creates the default product validator
func NewPolicyValidator() *PolicyValidator {
	return &PolicyValidator{}
}

// ValidateSale checks whether the product may be sold in the given quantity
func (v *PolicyValidator) ValidateSale(product *Product, quantity decimal.Decimal, location *Location) shared.Result {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", quantity)
	}
	if product.SalesBlocked {
		return shared.Fail(CodeSalesBlocked, "product %s is blocked for sale", product.Code)
	}
	if !product.LifecycleStatus.AllowsSale() {
		return shared.FailData(CodeLifecycleRestricted,
			"product "+product.Code+" cannot be sold in lifecycle status "+product.LifecycleStatus.String(),
			map[string]interface{}{"lifecycle_status": product.LifecycleStatus.String()})
	}
	if !product.AllowsFractionalQuantity() && !quantity.Equal(quantity.Truncate(0)) {
		return shared.Fail(CodeFractionalPieces, "product %s is sold in whole pieces, got %s", product.Code, quantity)
	}
	return shared.Ok(nil)
}

// ValidatePurchase checks whether the product may be purchased in the
// given quantity
func (v *PolicyValidator) ValidatePurchase(product *Product, quantity decimal.Decimal) shared.Result {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", quantity)
	}
	if product.PurchaseBlocked {
		return shared.Fail(CodePurchaseBlocked, "product %s is blocked for purchase", product.Code)
	}
	if !product.LifecycleStatus.AllowsPurchase() {
		return shared.FailData(CodeLifecycleRestricted,
			"product "+product.Code+" cannot be purchased in lifecycle status "+product.LifecycleStatus.String(),
			map[string]interface{}{"lifecycle_status": product.LifecycleStatus.String()})
	}
	if !product.AllowsFractionalQuantity() && !quantity.Equal(quantity.Truncate(0)) {
		return shared.Fail(CodeFractionalPieces, "product %s is purchased in whole pieces, got %s", product.Code, quantity)
	}
	return shared.Ok(nil)
}
