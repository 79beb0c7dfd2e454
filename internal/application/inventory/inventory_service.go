package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// InventoryService answers availability questions and manages
// reservations over the balance caches. Reads are advisory snapshots;
// reservations re-check availability under the row lock so two
// concurrent holds can never oversubscribe the same stock.
type InventoryService struct {
	uow     ports.UnitOfWork
	metrics MetricsRecorder
	logger  *zap.Logger
	clock   shared.Clock
}

// NewInventoryService creates an inventory service
func NewInventoryService(uow ports.UnitOfWork, metrics MetricsRecorder, logger *zap.Logger, clock shared.Clock) *InventoryService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &InventoryService{uow: uow, metrics: metrics, logger: logger, clock: clock}
}

// ValidateAvailability checks whether the requested quantity can be taken
// from the pair's unreserved balance. Advisory: the answer may be stale by
// the time a movement is attempted.
func (s *InventoryService) ValidateAvailability(ctx context.Context, r ports.Repos, locationID, productID uint, required decimal.Decimal) shared.Result {
	if required.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", required)
	}

	location, err := r.Locations.FindByID(ctx, locationID)
	if err != nil {
		return shared.Fail(inventory.CodeAvailabilityError, "location %d not found", locationID)
	}

	item, err := r.Items.Find(ctx, locationID, productID)
	if err != nil {
		var notFound *inventory.ErrItemNotFound
		if !errors.As(err, &notFound) {
			return shared.Fail(inventory.CodeAvailabilityError, "failed to read balance: %v", err)
		}
		if location.AllowNegativeStock {
			return shared.Ok(map[string]interface{}{
				"available": "0",
				"required":  required.String(),
			})
		}
		return shared.FailData(inventory.CodeNoStock,
			fmt.Sprintf("no stock at location %d for product %d", locationID, productID),
			map[string]interface{}{
				"available": "0",
				"required":  required.String(),
			})
	}

	if !item.CanFulfill(required, location.AllowNegativeStock) {
		return shared.FailData(inventory.CodeInsufficientAvailable,
			fmt.Sprintf("insufficient available stock: available %s, required %s", item.AvailableQty(), required),
			map[string]interface{}{
				"available": item.AvailableQty().String(),
				"required":  required.String(),
				"shortage":  item.Shortage(required).String(),
			})
	}
	return shared.Ok(map[string]interface{}{
		"available": item.AvailableQty().String(),
		"required":  required.String(),
	})
}

// ValidateBatchAvailability enumerates the pair's batches in FIFO order
// up to the requested quantity and reports per-batch allocation
// proposals. Expired batches are flagged, not skipped; the caller
// decides whether expired stock may ship.
func (s *InventoryService) ValidateBatchAvailability(ctx context.Context, r ports.Repos, locationID, productID uint, required decimal.Decimal) shared.Result {
	if required.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", required)
	}

	batches, err := r.Batches.ListAvailable(ctx, locationID, productID)
	if err != nil {
		return shared.Fail(inventory.CodeAvailabilityError, "failed to read batches: %v", err)
	}
	if len(batches) == 0 {
		return shared.FailData(inventory.CodeNoStock,
			fmt.Sprintf("no batch stock at location %d for product %d", locationID, productID),
			map[string]interface{}{"required": required.String()})
	}

	now := s.clock.Now()
	total := decimal.Zero
	remaining := required
	proposals := make([]map[string]interface{}, 0, len(batches))
	for _, batch := range batches {
		total = total.Add(batch.RemainingQty)
		if remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		take := decimal.Min(remaining, batch.RemainingQty)
		proposal := map[string]interface{}{
			"batch_number": batch.BatchNumber,
			"quantity":     take.String(),
			"cost_price":   batch.CostPrice.String(),
			"expired":      batch.IsExpired(now),
		}
		if batch.ExpiryDate != nil {
			proposal["expiry_date"] = batch.ExpiryDate.Format("2006-01-02")
		}
		proposals = append(proposals, proposal)
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return shared.FailData(inventory.CodeInsufficientBatchStock,
			fmt.Sprintf("batch stock holds %s, required %s", total, required),
			map[string]interface{}{
				"available": total.String(),
				"required":  required.String(),
				"shortage":  remaining.String(),
				"proposals": proposals,
			})
	}
	return shared.Ok(map[string]interface{}{
		"available": total.String(),
		"required":  required.String(),
		"proposals": proposals,
	})
}

// ValidateBatch checks whether one specific batch holds the requested
// quantity
func (s *InventoryService) ValidateBatch(ctx context.Context, r ports.Repos, key inventory.BatchKey, required decimal.Decimal) shared.Result {
	if required.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", required)
	}

	batch, err := r.Batches.Find(ctx, key)
	if err != nil {
		var notFound *inventory.ErrBatchNotFound
		if errors.As(err, &notFound) {
			return shared.FailData(inventory.CodeNoStock,
				fmt.Sprintf("batch %s not found at location %d", key.BatchNumber, key.LocationID),
				map[string]interface{}{"batch_number": key.BatchNumber})
		}
		return shared.Fail(inventory.CodeAvailabilityError, "failed to read batch: %v", err)
	}

	if batch.RemainingQty.LessThan(required) {
		return shared.FailData(inventory.CodeInsufficientBatchStock,
			fmt.Sprintf("batch %s holds %s, required %s", key.BatchNumber, batch.RemainingQty, required),
			map[string]interface{}{
				"batch_number": key.BatchNumber,
				"available":    batch.RemainingQty.String(),
				"required":     required.String(),
			})
	}
	return shared.Ok(map[string]interface{}{
		"batch_number": key.BatchNumber,
		"available":    batch.RemainingQty.String(),
	})
}

// Reserve places a hold on unreserved stock. The check and the increment
// run under the balance row lock in one transaction. The reason is
// recorded in the log stream, not on the balance row.
func (s *InventoryService) Reserve(ctx context.Context, locationID, productID uint, qty decimal.Decimal, reason string) shared.Result {
	res := s.mutateReservation(ctx, locationID, productID, qty, true)
	if res.OK {
		s.logger.Info("stock reserved",
			zap.Uint("location", locationID), zap.Uint("product", productID),
			zap.String("qty", qty.String()), zap.String("reason", reason))
		res.Data["reason"] = reason
	}
	s.metrics.ReservationChanged("reserve", res.Code)
	return res
}

// Release returns previously reserved stock. Releasing more than is held
// fails the whole call.
func (s *InventoryService) Release(ctx context.Context, locationID, productID uint, qty decimal.Decimal) shared.Result {
	res := s.mutateReservation(ctx, locationID, productID, qty, false)
	s.metrics.ReservationChanged("release", res.Code)
	return res
}

func (s *InventoryService) mutateReservation(ctx context.Context, locationID, productID uint, qty decimal.Decimal, reserve bool) shared.Result {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.Fail(shared.CodeInvalidQuantity, "quantity must be positive, got %s", qty)
	}

	var res shared.Result
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		item, err := r.Items.FindForUpdate(ctx, locationID, productID)
		if err != nil {
			var notFound *inventory.ErrItemNotFound
			if errors.As(err, &notFound) {
				res = shared.Fail(shared.CodeItemNotFound,
					"no balance row at location %d for product %d", locationID, productID)
				return errRollback
			}
			return err
		}

		if reserve {
			location, err := r.Locations.FindByID(ctx, locationID)
			if err != nil {
				return err
			}
			if !item.CanFulfill(qty, location.AllowNegativeStock) {
				res = shared.FailData(inventory.CodeInsufficientAvailable,
					fmt.Sprintf("cannot reserve %s: only %s available", qty, item.AvailableQty()),
					map[string]interface{}{
						"available": item.AvailableQty().String(),
						"required":  qty.String(),
					})
				return errRollback
			}
			if err := item.Reserve(qty); err != nil {
				return err
			}
		} else {
			if err := item.Release(qty); err != nil {
				var short *inventory.ErrInsufficientReserved
				if errors.As(err, &short) {
					res = shared.FailData(inventory.CodeInsufficientReserved,
						err.Error(),
						map[string]interface{}{
							"reserved": short.Reserved.String(),
							"required": short.Requested.String(),
						})
					return errRollback
				}
				return err
			}
		}

		item.UpdatedAt = s.clock.Now()
		if err := r.Items.Upsert(ctx, item); err != nil {
			return err
		}
		res = shared.Ok(map[string]interface{}{
			"reserved_qty":  item.ReservedQty.String(),
			"available_qty": item.AvailableQty().String(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		s.logger.Error("reservation update failed",
			zap.Uint("location", locationID), zap.Uint("product", productID), zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "reservation update failed: %v", err)
	}
	return res
}

// CostForLocation resolves the current cost of a product at a location
// with a source tag: average cost when present, then last purchase cost,
// then zero.
func (s *InventoryService) CostForLocation(ctx context.Context, r ports.Repos, locationID, productID uint) (decimal.Decimal, string, error) {
	item, err := r.Items.Find(ctx, locationID, productID)
	if err != nil {
		var notFound *inventory.ErrItemNotFound
		if errors.As(err, &notFound) {
			return decimal.Zero, CostSourceFallback, nil
		}
		return decimal.Zero, "", fmt.Errorf("failed to read balance: %w", err)
	}
	if item.AvgCost.IsPositive() {
		return item.AvgCost, CostSourceAverage, nil
	}
	if item.LastPurchaseCost != nil && item.LastPurchaseCost.IsPositive() {
		return *item.LastPurchaseCost, CostSourceLastBuy, nil
	}
	return decimal.Zero, CostSourceFallback, nil
}

// ExpiringBatches lists batches at a location expiring within the horizon
func (s *InventoryService) ExpiringBatches(ctx context.Context, r ports.Repos, locationID uint, horizon time.Duration) ([]*inventory.Batch, error) {
	cutoff := s.clock.Now().Add(horizon)
	return r.Batches.ListExpiring(ctx, locationID, cutoff)
}

// Movements runs a filtered ledger query
func (s *InventoryService) Movements(ctx context.Context, r ports.Repos, opts inventory.QueryOptions) ([]*inventory.Movement, error) {
	return r.Movements.Query(ctx, opts)
}

// ProfitSummary aggregates sold quantity, revenue, cost and profit over
// the outgoing movements matching the options
func (s *InventoryService) ProfitSummary(ctx context.Context, r ports.Repos, opts inventory.QueryOptions) (*inventory.ProfitSummary, error) {
	return r.Movements.ProfitSummary(ctx, opts)
}
