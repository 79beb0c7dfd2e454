package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// Movement is the aggregate root representing one immutable stock change.
// Movements are the single source of truth: balance and batch caches are
// derived from them and may be rebuilt at any time.
//
// Invariants:
//   - quantity is strictly positive (direction lives in the type)
//   - cost price is never negative
//   - sale price appears only on outgoing movements
//   - transfer legs carry the counterparty location, which must differ
//     from the movement's own location
type Movement struct {
	id            MovementID
	locationID    uint
	productID     uint
	movementType  MovementType
	quantity      decimal.Decimal
	costPrice     decimal.Decimal
	salePrice     *decimal.Decimal
	profitAmount  *decimal.Decimal
	profitMargin  *decimal.Decimal
	batchNumber   string
	expiryDate    *time.Time
	source        Source
	counterpartID *uint  // other location of a transfer leg
	transferRef   string // groups the legs of one transfer
	reason        string
	movementDate  time.Time
	createdAt     time.Time
	createdBy     string
}

// NewMovement creates a movement with validation. Profit fields are
// derived here so the ledger stays a pure data store: when both a sale
// price and a cost are present, profit = sale - cost and the margin is
// profit/sale as a percentage.
func NewMovement(
	locationID uint,
	productID uint,
	movementType MovementType,
	quantity decimal.Decimal,
	costPrice decimal.Decimal,
	salePrice *decimal.Decimal,
	batchNumber string,
	expiryDate *time.Time,
	source Source,
	reason string,
	opCtx shared.OperationContext,
	now time.Time,
) (*Movement, error) {
	m := &Movement{
		id:           NewMovementID(),
		locationID:   locationID,
		productID:    productID,
		movementType: movementType,
		quantity:     quantity,
		costPrice:    costPrice,
		salePrice:    salePrice,
		batchNumber:  batchNumber,
		expiryDate:   expiryDate,
		source:       source,
		reason:       reason,
		movementDate: opCtx.Timestamp,
		createdAt:    now,
		createdBy:    opCtx.Actor,
	}
	if m.movementDate.IsZero() {
		m.movementDate = now
	}
	m.deriveProfit()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WithTransfer marks the movement as one leg of a transfer. Must be called
// before the movement is persisted.
func (m *Movement) WithTransfer(counterpartLocationID uint, transferRef string) error {
	if m.movementType != MovementTypeTransferIn && m.movementType != MovementTypeTransferOut {
		return &ErrInvalidMovement{Field: "movement_type", Reason: "only transfer legs carry a counterparty location"}
	}
	if counterpartLocationID == m.locationID {
		return &ErrInvalidMovement{Field: "counterpart_location", Reason: "transfer source and destination must differ"}
	}
	m.counterpartID = &counterpartLocationID
	m.transferRef = transferRef
	return nil
}

// ReconstructMovement reconstructs a movement from persistence.
// This bypasses validation and is used only by the repository.
func ReconstructMovement(
	id MovementID,
	locationID uint,
	productID uint,
	movementType MovementType,
	quantity decimal.Decimal,
	costPrice decimal.Decimal,
	salePrice *decimal.Decimal,
	profitAmount *decimal.Decimal,
	profitMargin *decimal.Decimal,
	batchNumber string,
	expiryDate *time.Time,
	source Source,
	counterpartID *uint,
	transferRef string,
	reason string,
	movementDate time.Time,
	createdAt time.Time,
	createdBy string,
) *Movement {
	return &Movement{
		id:            id,
		locationID:    locationID,
		productID:     productID,
		movementType:  movementType,
		quantity:      quantity,
		costPrice:     costPrice,
		salePrice:     salePrice,
		profitAmount:  profitAmount,
		profitMargin:  profitMargin,
		batchNumber:   batchNumber,
		expiryDate:    expiryDate,
		source:        source,
		counterpartID: counterpartID,
		transferRef:   transferRef,
		reason:        reason,
		movementDate:  movementDate,
		createdAt:     createdAt,
		createdBy:     createdBy,
	}
}

// deriveProfit computes profit amount and margin when both sides are known
func (m *Movement) deriveProfit() {
	if m.salePrice == nil || !m.movementType.IsOutgoing() {
		return
	}
	profit := m.salePrice.Sub(m.costPrice)
	m.profitAmount = &profit
	if m.salePrice.IsPositive() {
		margin := shared.RoundPercentage(profit.Div(*m.salePrice).Mul(decimal.NewFromInt(100)))
		m.profitMargin = &margin
	}
}

// Validate checks that the movement satisfies all invariants
func (m *Movement) Validate() error {
	if !m.movementType.IsValid() {
		return &ErrInvalidMovement{Field: "movement_type", Reason: fmt.Sprintf("invalid movement type: %s", m.movementType)}
	}
	if m.quantity.LessThanOrEqual(decimal.Zero) {
		return &ErrInvalidMovement{Field: "quantity", Reason: fmt.Sprintf("quantity must be strictly positive, got %s", m.quantity)}
	}
	if m.costPrice.IsNegative() {
		return &ErrInvalidMovement{Field: "cost_price", Reason: fmt.Sprintf("cost price cannot be negative, got %s", m.costPrice)}
	}
	if m.salePrice != nil {
		if m.salePrice.IsNegative() {
			return &ErrInvalidMovement{Field: "sale_price", Reason: fmt.Sprintf("sale price cannot be negative, got %s", m.salePrice)}
		}
		if !m.movementType.IsOutgoing() {
			return &ErrInvalidMovement{Field: "sale_price", Reason: "sale price is permitted only on outgoing movements"}
		}
	}
	if !m.source.Kind.IsValid() {
		return &ErrInvalidMovement{Field: "source_kind", Reason: fmt.Sprintf("invalid source kind: %s", m.source.Kind)}
	}
	if m.locationID == 0 {
		return &ErrInvalidMovement{Field: "location", Reason: "location is required"}
	}
	if m.productID == 0 {
		return &ErrInvalidMovement{Field: "product", Reason: "product is required"}
	}
	return nil
}

// Getters (all fields are immutable)

func (m *Movement) ID() MovementID                 { return m.id }
func (m *Movement) LocationID() uint               { return m.locationID }
func (m *Movement) ProductID() uint                { return m.productID }
func (m *Movement) Type() MovementType             { return m.movementType }
func (m *Movement) Quantity() decimal.Decimal      { return m.quantity }
func (m *Movement) CostPrice() decimal.Decimal     { return m.costPrice }
func (m *Movement) SalePrice() *decimal.Decimal    { return m.salePrice }
func (m *Movement) ProfitAmount() *decimal.Decimal { return m.profitAmount }
func (m *Movement) ProfitMargin() *decimal.Decimal { return m.profitMargin }
func (m *Movement) BatchNumber() string            { return m.batchNumber }
func (m *Movement) ExpiryDate() *time.Time         { return m.expiryDate }
func (m *Movement) Source() Source                 { return m.source }
func (m *Movement) CounterpartLocationID() *uint   { return m.counterpartID }
func (m *Movement) TransferRef() string            { return m.transferRef }
func (m *Movement) Reason() string                 { return m.reason }
func (m *Movement) MovementDate() time.Time        { return m.movementDate }
func (m *Movement) CreatedAt() time.Time           { return m.createdAt }
func (m *Movement) CreatedBy() string              { return m.createdBy }

// HasBatch reports whether the movement carries a batch number
func (m *Movement) HasBatch() bool {
	return m.batchNumber != ""
}

// SignedQuantity returns the quantity with direction applied
func (m *Movement) SignedQuantity() decimal.Decimal {
	if m.movementType.IsOutgoing() {
		return m.quantity.Neg()
	}
	return m.quantity
}

// String provides a human-readable representation
func (m *Movement) String() string {
	return fmt.Sprintf("Movement[%s, loc=%d, product=%d, type=%s, qty=%s, cost=%s]",
		m.id.String(), m.locationID, m.productID, m.movementType, m.quantity, m.costPrice)
}
