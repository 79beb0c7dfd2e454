package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// avgCostChangeThreshold is the relative average-cost change beyond which
// markup-method base prices are recomputed
var avgCostChangeThreshold = decimal.NewFromFloat(0.05)

// errRollback aborts the enclosing transaction when an operation produced
// a failed result; the result itself carries the domain code
var errRollback = errors.New("rollback")

// Cost source tags reported with smart cost resolution
const (
	CostSourceManual   = "MANUAL"
	CostSourceBatch    = "BATCH"
	CostSourceAverage  = "INVENTORY_ITEM_AVG_COST"
	CostSourceLastBuy  = "LAST_PURCHASE_COST"
	CostSourceFallback = "FALLBACK_ZERO"
)

// MovementProcessor is the only writer of the movement ledger. Every
// operation runs in a single transaction, acquires balance locks before
// batch locks (and source rows before destination rows for transfers),
// appends movements, and refreshes the affected caches before commit.
//
// The processor is not idempotent; reversals are the supported
// compensating action.
type MovementProcessor struct {
	uow       ports.UnitOfWork
	refresher *RefreshService
	validator catalog.ProductValidator
	resolver  SalePriceResolver
	markup    MarkupUpdater
	metrics   MetricsRecorder
	logger    *zap.Logger
	clock     shared.Clock
}

// NewMovementProcessor creates a movement processor. Resolver and markup
// may be nil when pricing is not wired (adjust-only deployments).
func NewMovementProcessor(
	uow ports.UnitOfWork,
	refresher *RefreshService,
	validator catalog.ProductValidator,
	resolver SalePriceResolver,
	markup MarkupUpdater,
	metrics MetricsRecorder,
	logger *zap.Logger,
	clock shared.Clock,
) *MovementProcessor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &MovementProcessor{
		uow:       uow,
		refresher: refresher,
		validator: validator,
		resolver:  resolver,
		markup:    markup,
		metrics:   metrics,
		logger:    logger,
		clock:     clock,
	}
}

// IncomingParams describes a stock receipt
type IncomingParams struct {
	LocationID  uint
	ProductID   uint
	Quantity    decimal.Decimal
	CostPrice   decimal.Decimal
	Source      inventory.Source
	BatchNumber string
	ExpiryDate  *time.Time
	Reason      string
}

// OutgoingParams describes a stock issue
type OutgoingParams struct {
	LocationID  uint
	ProductID   uint
	Quantity    decimal.Decimal
	Source      inventory.Source
	CostPrice   *decimal.Decimal
	BatchNumber string
	ExpiryDate  *time.Time
	SalePrice   *decimal.Decimal
	Customer    *pricing.Customer
	DisableFIFO bool
	Reason      string
}

// TransferParams describes an inter-location transfer
type TransferParams struct {
	FromLocationID uint
	ToLocationID   uint
	ProductID      uint
	Quantity       decimal.Decimal
	Source         inventory.Source
	BatchNumber    string
	CostPrice      *decimal.Decimal
	Reason         string
}

// AdjustmentParams describes a signed inventory correction
type AdjustmentParams struct {
	LocationID  uint
	ProductID   uint
	SignedQty   decimal.Decimal
	Reason      string
	CostPrice   *decimal.Decimal
	BatchNumber string
	ExpiryDate  *time.Time
	CycleCount  bool
}

// run executes fn in a unit of work, rolling back when the result failed
func (p *MovementProcessor) run(ctx context.Context, fn func(ctx context.Context, r ports.Repos) shared.Result) shared.Result {
	var res shared.Result
	err := p.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		res = fn(ctx, r)
		if !res.OK {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		p.logger.Error("movement transaction failed", zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "transaction failed: %v", err)
	}
	return res
}

// CreateIncoming records a stock receipt
func (p *MovementProcessor) CreateIncoming(ctx context.Context, opCtx shared.OperationContext, params IncomingParams) shared.Result {
	res := p.run(ctx, func(ctx context.Context, r ports.Repos) shared.Result {
		return p.CreateIncomingTx(ctx, r, opCtx, params)
	})
	p.metrics.MovementProcessed(inventory.MovementTypeIn.String(), res.Code)
	return res
}

// CreateIncomingTx is CreateIncoming inside an existing transaction
// scope, for callers composing larger units of work (document side
// effects).
func (p *MovementProcessor) CreateIncomingTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, params IncomingParams) shared.Result {
	if params.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", params.Quantity)
	}
	if params.CostPrice.IsNegative() {
		return shared.Fail(shared.CodeValidation, "cost price cannot be negative, got %s", params.CostPrice)
	}

	location, product, res := p.loadPair(ctx, r, params.LocationID, params.ProductID)
	if !res.OK {
		return res
	}

	if vres := p.validator.ValidatePurchase(product, params.Quantity); !vres.OK {
		return shared.FailData(shared.CodeValidation, vres.Message,
			map[string]interface{}{"validation_code": vres.Code})
	}

	batch := params.BatchNumber
	if location.TracksBatches(product) && batch == "" {
		batch = inventory.AutoBatchNumber(product.Code, opCtx.Timestamp, location.Code)
	}

	// Read the pre-refresh average cost for change detection
	preAvg := decimal.Zero
	if item, err := r.Items.Find(ctx, location.ID, product.ID); err == nil {
		preAvg = item.AvgCost
	}

	movement, err := inventory.NewMovement(
		location.ID, product.ID, inventory.MovementTypeIn,
		params.Quantity, shared.RoundCost(params.CostPrice), nil,
		batch, params.ExpiryDate, params.Source, params.Reason,
		opCtx, p.clock.Now(),
	)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}
	if err := r.Movements.Create(ctx, movement); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to write movement: %v", err)
	}

	item, warn := p.refreshAfterWrite(ctx, r, movement)

	// Cost-change propagation: a >5% move of the average cost rewrites
	// markup-method base prices for the pair.
	if item != nil && p.markup != nil && avgCostMoved(preAvg, item.AvgCost) {
		if err := p.markup.UpdateMarkupPrices(ctx, r, location.ID, product.ID, item.AvgCost); err != nil {
			p.logger.Warn("markup price recompute failed",
				zap.Uint("location", location.ID), zap.Uint("product", product.ID), zap.Error(err))
		}
	}

	data := map[string]interface{}{
		"movement_id":  movement.ID().String(),
		"batch_number": batch,
		"quantity":     params.Quantity.String(),
	}
	if item != nil {
		data["current_qty"] = item.CurrentQty.String()
		data["avg_cost"] = item.AvgCost.String()
	}
	if warn {
		data["cache_refresh_warning"] = true
	}
	return shared.Ok(data)
}

// avgCostMoved reports whether the average cost changed by more than the
// propagation threshold
func avgCostMoved(before, after decimal.Decimal) bool {
	if before.IsZero() {
		return after.IsPositive()
	}
	change := after.Sub(before).Abs().Div(before)
	return change.GreaterThan(avgCostChangeThreshold)
}

// CreateOutgoing records a stock issue, allocating across batches in FIFO
// order when the location tracks batches for the product
func (p *MovementProcessor) CreateOutgoing(ctx context.Context, opCtx shared.OperationContext, params OutgoingParams) shared.Result {
	res := p.run(ctx, func(ctx context.Context, r ports.Repos) shared.Result {
		return p.CreateOutgoingTx(ctx, r, opCtx, params)
	})
	p.metrics.MovementProcessed(inventory.MovementTypeOut.String(), res.Code)
	return res
}

// CreateOutgoingTx is CreateOutgoing inside an existing transaction scope
func (p *MovementProcessor) CreateOutgoingTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, params OutgoingParams) shared.Result {
	if params.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", params.Quantity)
	}

	location, product, res := p.loadPair(ctx, r, params.LocationID, params.ProductID)
	if !res.OK {
		return res
	}

	if vres := p.validator.ValidateSale(product, params.Quantity, location); !vres.OK {
		return shared.FailData(shared.CodeValidation, vres.Message,
			map[string]interface{}{"validation_code": vres.Code})
	}

	salePrice := params.SalePrice
	if salePrice == nil && params.Source.Kind.IsSale() && p.resolver != nil {
		price, source, err := p.resolver.SalePrice(ctx, r, location.ID, product.ID, params.Customer, params.Quantity, opCtx.Timestamp)
		if err != nil {
			p.logger.Warn("sale price resolution failed",
				zap.Uint("location", location.ID), zap.Uint("product", product.ID), zap.Error(err))
		} else if price.IsPositive() {
			salePrice = &price
			p.logger.Debug("sale price resolved", zap.String("source", source), zap.String("price", price.String()))
		}
	}

	movements, res := p.buildOutgoing(ctx, r, opCtx, location, product, params, inventory.MovementTypeOut, salePrice)
	if !res.OK {
		return res
	}

	ids := make([]string, 0, len(movements))
	allocations := make([]map[string]interface{}, 0, len(movements))
	for _, m := range movements {
		if err := r.Movements.Create(ctx, m); err != nil {
			return shared.Fail(shared.CodeInternalError, "failed to write movement: %v", err)
		}
		ids = append(ids, m.ID().String())
		allocations = append(allocations, map[string]interface{}{
			"batch_number": m.BatchNumber(),
			"quantity":     m.Quantity().String(),
			"cost_price":   m.CostPrice().String(),
		})
	}

	item, warn := p.refreshAfterWrite(ctx, r, movements...)

	data := map[string]interface{}{
		"movement_ids": ids,
		"allocations":  allocations,
	}
	if salePrice != nil {
		data["sale_price"] = salePrice.String()
	}
	if item != nil {
		data["current_qty"] = item.CurrentQty.String()
	}
	if warn {
		data["cache_refresh_warning"] = true
	}
	return shared.Ok(data)
}

// buildOutgoing assembles the outgoing movements for an issue: a FIFO
// batch allocation when the location tracks batches and no manual batch
// or cost was given, a single movement at the smart cost otherwise. The
// balance row is locked before any batch row.
func (p *MovementProcessor) buildOutgoing(
	ctx context.Context,
	r ports.Repos,
	opCtx shared.OperationContext,
	location *catalog.Location,
	product *catalog.Product,
	params OutgoingParams,
	movementType inventory.MovementType,
	salePrice *decimal.Decimal,
) ([]*inventory.Movement, shared.Result) {
	item := p.lockItem(ctx, r, location.ID, product.ID)

	useFIFO := location.TracksBatches(product) &&
		params.BatchNumber == "" && params.CostPrice == nil && !params.DisableFIFO

	if useFIFO {
		return p.allocateFIFO(ctx, r, opCtx, location, product, params, movementType, salePrice, item)
	}

	if !location.AllowNegativeStock {
		current := decimal.Zero
		if item != nil {
			current = item.CurrentQty
		}
		if current.LessThan(params.Quantity) {
			return nil, shared.FailData(inventory.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock at %s for %s: available %s, required %s",
					location.Code, product.Code, current, params.Quantity),
				map[string]interface{}{
					"available": current.String(),
					"required":  params.Quantity.String(),
					"shortage":  params.Quantity.Sub(current).String(),
				})
		}
	}

	cost, costSource := p.smartCost(ctx, r, item, location.ID, product.ID, params.CostPrice, params.BatchNumber, params.ExpiryDate)
	if costSource == CostSourceFallback {
		p.logger.Warn("no cost source for outgoing movement, using zero",
			zap.Uint("location", location.ID), zap.Uint("product", product.ID))
	}

	movement, err := inventory.NewMovement(
		location.ID, product.ID, movementType,
		params.Quantity, cost, salePrice,
		params.BatchNumber, params.ExpiryDate, params.Source, params.Reason,
		opCtx, p.clock.Now(),
	)
	if err != nil {
		return nil, shared.Fail(shared.CodeValidation, "%v", err)
	}
	return []*inventory.Movement{movement}, shared.Ok(nil)
}

// allocateFIFO splits the requested quantity across the pair's batches in
// FIFO order. Each allocation becomes its own movement carrying the
// batch's cost and the shared sale price.
func (p *MovementProcessor) allocateFIFO(
	ctx context.Context,
	r ports.Repos,
	opCtx shared.OperationContext,
	location *catalog.Location,
	product *catalog.Product,
	params OutgoingParams,
	movementType inventory.MovementType,
	salePrice *decimal.Decimal,
	item *inventory.Item,
) ([]*inventory.Movement, shared.Result) {
	batches, err := r.Batches.FindAvailable(ctx, location.ID, product.ID)
	if err != nil {
		return nil, shared.Fail(shared.CodeInternalError, "failed to read batches: %v", err)
	}

	available := decimal.Zero
	for _, b := range batches {
		available = available.Add(b.RemainingQty)
	}
	if available.LessThan(params.Quantity) && !location.AllowNegativeStock {
		return nil, shared.FailData(inventory.CodeInsufficientBatchStock,
			fmt.Sprintf("insufficient batch stock at %s for %s: available %s, required %s",
				location.Code, product.Code, available, params.Quantity),
			map[string]interface{}{
				"available": available.String(),
				"required":  params.Quantity.String(),
				"shortage":  params.Quantity.Sub(available).String(),
			})
	}

	var movements []*inventory.Movement
	left := params.Quantity
	for _, b := range batches {
		if !left.IsPositive() {
			break
		}
		take := decimal.Min(left, b.RemainingQty)
		movement, err := inventory.NewMovement(
			location.ID, product.ID, movementType,
			take, b.CostPrice, salePrice,
			b.BatchNumber, b.ExpiryDate, params.Source, params.Reason,
			opCtx, p.clock.Now(),
		)
		if err != nil {
			return nil, shared.Fail(shared.CodeValidation, "%v", err)
		}
		movements = append(movements, movement)
		left = left.Sub(take)
	}

	// Remainder with negative stock allowed: one more movement without a
	// batch at the smart cost
	if left.IsPositive() {
		cost, _ := p.smartCost(ctx, r, item, location.ID, product.ID, nil, "", nil)
		movement, err := inventory.NewMovement(
			location.ID, product.ID, movementType,
			left, cost, salePrice,
			"", nil, params.Source, params.Reason,
			opCtx, p.clock.Now(),
		)
		if err != nil {
			return nil, shared.Fail(shared.CodeValidation, "%v", err)
		}
		movements = append(movements, movement)
	}
	return movements, shared.Ok(nil)
}

// CreateTransfer moves stock between locations. Source rows are locked
// and written before any destination row; both sides commit or neither
// does.
func (p *MovementProcessor) CreateTransfer(ctx context.Context, opCtx shared.OperationContext, params TransferParams) shared.Result {
	res := p.run(ctx, func(ctx context.Context, r ports.Repos) shared.Result {
		return p.CreateTransferTx(ctx, r, opCtx, params)
	})
	p.metrics.MovementProcessed(inventory.MovementTypeTransferOut.String(), res.Code)
	return res
}

// CreateTransferTx is CreateTransfer inside an existing transaction scope
func (p *MovementProcessor) CreateTransferTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, params TransferParams) shared.Result {
	if params.FromLocationID == params.ToLocationID {
		return shared.Fail(shared.CodeValidation, "transfer source and destination must differ")
	}
	if params.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", params.Quantity)
	}

	from, product, res := p.loadPair(ctx, r, params.FromLocationID, params.ProductID)
	if !res.OK {
		return res
	}
	to, err := r.Locations.FindByID(ctx, params.ToLocationID)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "destination location %d not found", params.ToLocationID)
	}

	transferRef := uuid.NewString()

	// Source side first: locks and legs at the origin
	outParams := OutgoingParams{
		LocationID:  from.ID,
		ProductID:   product.ID,
		Quantity:    params.Quantity,
		Source:      params.Source,
		CostPrice:   params.CostPrice,
		BatchNumber: params.BatchNumber,
		Reason:      params.Reason,
	}
	outLegs, legRes := p.buildOutgoing(ctx, r, opCtx, from, product, outParams, inventory.MovementTypeTransferOut, nil)
	if !legRes.OK {
		return legRes
	}

	var inLegs []*inventory.Movement
	for _, out := range outLegs {
		if err := out.WithTransfer(to.ID, transferRef); err != nil {
			return shared.Fail(shared.CodeValidation, "%v", err)
		}
		in, err := inventory.NewMovement(
			to.ID, product.ID, inventory.MovementTypeTransferIn,
			out.Quantity(), out.CostPrice(), nil,
			out.BatchNumber(), out.ExpiryDate(), params.Source, params.Reason,
			opCtx, p.clock.Now(),
		)
		if err != nil {
			return shared.Fail(shared.CodeValidation, "%v", err)
		}
		if err := in.WithTransfer(from.ID, transferRef); err != nil {
			return shared.Fail(shared.CodeValidation, "%v", err)
		}
		inLegs = append(inLegs, in)
	}

	for _, m := range outLegs {
		if err := r.Movements.Create(ctx, m); err != nil {
			return shared.Fail(shared.CodeInternalError, "failed to write transfer leg: %v", err)
		}
	}
	_, warnOut := p.refreshAfterWrite(ctx, r, outLegs...)

	// Destination side only after the source is fully locked and written
	for _, m := range inLegs {
		if err := r.Movements.Create(ctx, m); err != nil {
			return shared.Fail(shared.CodeInternalError, "failed to write transfer leg: %v", err)
		}
	}
	p.lockItem(ctx, r, to.ID, product.ID)
	_, warnIn := p.refreshAfterWrite(ctx, r, inLegs...)

	ids := make([]string, 0, len(outLegs)+len(inLegs))
	for _, m := range append(outLegs, inLegs...) {
		ids = append(ids, m.ID().String())
	}
	data := map[string]interface{}{
		"transfer_ref": transferRef,
		"movement_ids": ids,
		"legs":         len(outLegs),
	}
	if warnOut || warnIn {
		data["cache_refresh_warning"] = true
	}
	return shared.Ok(data)
}

// CreateAdjustment records a signed inventory correction. Adjustments are
// allowed regardless of product lifecycle so stocktakes can reconcile.
func (p *MovementProcessor) CreateAdjustment(ctx context.Context, opCtx shared.OperationContext, params AdjustmentParams) shared.Result {
	res := p.run(ctx, func(ctx context.Context, r ports.Repos) shared.Result {
		return p.CreateAdjustmentTx(ctx, r, opCtx, params)
	})
	movementType := inventory.MovementTypeAdjustmentIn
	if params.SignedQty.IsNegative() {
		movementType = inventory.MovementTypeAdjustmentOut
	}
	p.metrics.MovementProcessed(movementType.String(), res.Code)
	return res
}

// CreateAdjustmentTx is CreateAdjustment inside an existing transaction
// scope
func (p *MovementProcessor) CreateAdjustmentTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, params AdjustmentParams) shared.Result {
	if params.SignedQty.IsZero() {
		return shared.Fail(shared.CodeInvalidQuantity, "adjustment quantity cannot be zero")
	}
	if params.Reason == "" {
		return shared.Fail(shared.CodeValidation, "adjustment requires a reason")
	}

	location, product, res := p.loadPair(ctx, r, params.LocationID, params.ProductID)
	if !res.OK {
		return res
	}

	sourceKind := inventory.SourceKindAdjustment
	if params.CycleCount {
		sourceKind = inventory.SourceKindCycleCount
	}
	source, err := inventory.NewSource(sourceKind, opCtx.CorrelationID)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}

	item := p.lockItem(ctx, r, location.ID, product.ID)
	quantity := params.SignedQty.Abs()

	movementType := inventory.MovementTypeAdjustmentIn
	if params.SignedQty.IsNegative() {
		movementType = inventory.MovementTypeAdjustmentOut
		if !location.AllowNegativeStock {
			current := decimal.Zero
			if item != nil {
				current = item.CurrentQty
			}
			if current.LessThan(quantity) {
				return shared.FailData(inventory.CodeInsufficientStock,
					fmt.Sprintf("adjustment would drive stock negative at %s for %s", location.Code, product.Code),
					map[string]interface{}{
						"available": current.String(),
						"required":  quantity.String(),
					})
			}
		}
	}

	cost, costSource := p.smartCost(ctx, r, item, location.ID, product.ID, params.CostPrice, params.BatchNumber, params.ExpiryDate)
	if costSource == CostSourceFallback {
		p.logger.Warn("no cost source for adjustment, using zero",
			zap.Uint("location", location.ID), zap.Uint("product", product.ID))
	}

	movement, err := inventory.NewMovement(
		location.ID, product.ID, movementType,
		quantity, cost, nil,
		params.BatchNumber, params.ExpiryDate, source, params.Reason,
		opCtx, p.clock.Now(),
	)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}
	if err := r.Movements.Create(ctx, movement); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to write movement: %v", err)
	}

	refreshed, warn := p.refreshAfterWrite(ctx, r, movement)

	data := map[string]interface{}{
		"movement_id": movement.ID().String(),
		"type":        movementType.String(),
		"cost_source": costSource,
	}
	if refreshed != nil {
		data["current_qty"] = refreshed.CurrentQty.String()
	}
	if warn {
		data["cache_refresh_warning"] = true
	}
	return shared.Ok(data)
}

// Reverse creates the compensating movement for a previously written
// movement. Reversal succeeds even when it drives the balance negative.
// Transfer legs are reversed individually.
func (p *MovementProcessor) Reverse(ctx context.Context, opCtx shared.OperationContext, movementID inventory.MovementID, reason string) shared.Result {
	res := p.run(ctx, func(ctx context.Context, r ports.Repos) shared.Result {
		return p.ReverseTx(ctx, r, opCtx, movementID, reason)
	})
	p.metrics.MovementProcessed("REVERSAL", res.Code)
	return res
}

// ReverseTx is Reverse inside an existing transaction scope
func (p *MovementProcessor) ReverseTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, movementID inventory.MovementID, reason string) shared.Result {
	original, err := r.Movements.FindByID(ctx, movementID)
	if err != nil {
		var notFound *inventory.ErrMovementNotFound
		if errors.As(err, &notFound) {
			return shared.Fail(shared.CodeItemNotFound, "movement %s not found", movementID)
		}
		return shared.Fail(shared.CodeInternalError, "failed to read movement: %v", err)
	}
	if original.Source().Kind == inventory.SourceKindReversal {
		return shared.Fail(shared.CodeValidation, "movement %s is itself a reversal", movementID)
	}

	// Transfer legs compensate with plain IN/OUT records: the transfer
	// pairing is not reproduced, each leg reverses on its own.
	var reverseType inventory.MovementType
	switch original.Type() {
	case inventory.MovementTypeTransferOut:
		reverseType = inventory.MovementTypeIn
	case inventory.MovementTypeTransferIn:
		reverseType = inventory.MovementTypeOut
	default:
		reverseType, err = original.Type().Opposite()
		if err != nil {
			return shared.Fail(shared.CodeValidation, "%v", err)
		}
	}

	source, err := inventory.NewSource(inventory.SourceKindReversal, original.Source().Number)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}

	p.lockItem(ctx, r, original.LocationID(), original.ProductID())

	reversal, err := inventory.NewMovement(
		original.LocationID(), original.ProductID(), reverseType,
		original.Quantity(), original.CostPrice(), nil,
		original.BatchNumber(), original.ExpiryDate(), source,
		fmt.Sprintf("reversal of movement %s: %s", original.ID(), reason),
		opCtx, p.clock.Now(),
	)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}
	if err := r.Movements.Create(ctx, reversal); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to write reversal: %v", err)
	}

	item, warn := p.refreshAfterWrite(ctx, r, reversal)

	data := map[string]interface{}{
		"movement_id":          reversal.ID().String(),
		"reversed_movement_id": original.ID().String(),
	}
	if item != nil {
		data["current_qty"] = item.CurrentQty.String()
	}
	if warn {
		data["cache_refresh_warning"] = true
	}
	return shared.Ok(data)
}

// ReverseBySourceTx reverses every movement written by one source document,
// newest first. Used when a document transition undoes its inventory
// effects.
func (p *MovementProcessor) ReverseBySourceTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, source inventory.Source, reason string) shared.Result {
	movements, err := r.Movements.FindBySource(ctx, source)
	if err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to read movements for %s: %v", source, err)
	}

	reversed := make([]string, 0, len(movements))
	for i := len(movements) - 1; i >= 0; i-- {
		m := movements[i]
		if m.Source().Kind == inventory.SourceKindReversal {
			continue
		}
		res := p.ReverseTx(ctx, r, opCtx, m.ID(), reason)
		if !res.OK {
			return res
		}
		reversed = append(reversed, m.ID().String())
	}
	return shared.Ok(map[string]interface{}{"reversed_movement_ids": reversed})
}

// loadPair loads and validates the location and product of an operation
func (p *MovementProcessor) loadPair(ctx context.Context, r ports.Repos, locationID, productID uint) (*catalog.Location, *catalog.Product, shared.Result) {
	location, err := r.Locations.FindByID(ctx, locationID)
	if err != nil {
		return nil, nil, shared.Fail(shared.CodeValidation, "location %d not found", locationID)
	}
	product, err := r.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, shared.Fail(shared.CodeValidation, "product %d not found", productID)
	}
	return location, product, shared.Ok(nil)
}

// lockItem acquires the balance row lock, returning nil when no row
// exists yet (first movement for the pair)
func (p *MovementProcessor) lockItem(ctx context.Context, r ports.Repos, locationID, productID uint) *inventory.Item {
	item, err := r.Items.FindForUpdate(ctx, locationID, productID)
	if err != nil {
		return nil
	}
	return item
}

// smartCost resolves the cost for an outgoing or adjustment movement:
// manual override, then the specified batch's stored cost, then the
// average cost, then the last purchase cost, then zero.
func (p *MovementProcessor) smartCost(
	ctx context.Context,
	r ports.Repos,
	item *inventory.Item,
	locationID, productID uint,
	manual *decimal.Decimal,
	batchNumber string,
	expiryDate *time.Time,
) (decimal.Decimal, string) {
	if manual != nil {
		return shared.RoundCost(*manual), CostSourceManual
	}
	if batchNumber != "" {
		batch, err := r.Batches.Find(ctx, inventory.BatchKey{
			LocationID:  locationID,
			ProductID:   productID,
			BatchNumber: batchNumber,
			ExpiryDate:  expiryDate,
		})
		if err == nil {
			return batch.CostPrice, CostSourceBatch
		}
	}
	if item != nil {
		if item.AvgCost.IsPositive() {
			return item.AvgCost, CostSourceAverage
		}
		if item.LastPurchaseCost != nil && item.LastPurchaseCost.IsPositive() {
			return *item.LastPurchaseCost, CostSourceLastBuy
		}
	}
	return decimal.Zero, CostSourceFallback
}

// refreshAfterWrite refreshes the balance cache first and each affected
// batch cache second. Movements are the truth: a refresh failure is
// logged and surfaced as a warning, never rolled back.
func (p *MovementProcessor) refreshAfterWrite(ctx context.Context, r ports.Repos, movements ...*inventory.Movement) (*inventory.Item, bool) {
	if len(movements) == 0 {
		return nil, false
	}

	warn := false
	var item *inventory.Item

	type pairKey struct{ loc, prod uint }
	refreshedPairs := make(map[pairKey]bool)
	for _, m := range movements {
		key := pairKey{m.LocationID(), m.ProductID()}
		if refreshedPairs[key] {
			continue
		}
		refreshedPairs[key] = true
		refreshed, err := p.refresher.RefreshItem(ctx, r, m.LocationID(), m.ProductID())
		if err != nil {
			warn = true
			p.logger.Error("balance cache refresh failed",
				zap.Uint("location", m.LocationID()), zap.Uint("product", m.ProductID()), zap.Error(err))
			continue
		}
		if item == nil {
			item = refreshed
		}
	}

	refreshedBatches := make(map[string]bool)
	for _, m := range movements {
		if !m.HasBatch() {
			continue
		}
		key := inventory.BatchKey{
			LocationID:  m.LocationID(),
			ProductID:   m.ProductID(),
			BatchNumber: m.BatchNumber(),
			ExpiryDate:  m.ExpiryDate(),
		}
		mapKey := fmt.Sprintf("%d/%d/%s", key.LocationID, key.ProductID, key.BatchNumber)
		if key.ExpiryDate != nil {
			mapKey += "@" + key.ExpiryDate.Format("2006-01-02")
		}
		if refreshedBatches[mapKey] {
			continue
		}
		refreshedBatches[mapKey] = true
		if _, err := p.refresher.RefreshBatch(ctx, r, key); err != nil {
			warn = true
			p.logger.Error("batch cache refresh failed",
				zap.Uint("location", key.LocationID), zap.Uint("product", key.ProductID),
				zap.String("batch", key.BatchNumber), zap.Error(err))
		}
	}
	return item, warn
}
