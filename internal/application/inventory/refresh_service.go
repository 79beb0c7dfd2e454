package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// rebuildParallelism bounds the number of concurrent per-key transactions
// during a full rebuild
const rebuildParallelism = 8

// RefreshService rebuilds balance and batch caches from the movement
// ledger. Each refresh is a pure derivation of the movements for one key;
// running it twice produces identical state. Reservations are not
// ledger-derived and are preserved from the prior row.
type RefreshService struct {
	uow    ports.UnitOfWork
	logger *zap.Logger
	clock  shared.Clock
}

// NewRefreshService creates a refresh service
func NewRefreshService(uow ports.UnitOfWork, logger *zap.Logger, clock shared.Clock) *RefreshService {
	return &RefreshService{uow: uow, logger: logger, clock: clock}
}

// RefreshItem rebuilds the balance cache for one (location, product) pair
// inside the caller's transaction scope. The cache row is locked for the
// duration of the update. Returns the refreshed item, or nil when the key
// has no movements and the row was removed.
func (s *RefreshService) RefreshItem(ctx context.Context, r ports.Repos, locationID, productID uint) (*inventory.Item, error) {
	prior, err := r.Items.FindForUpdate(ctx, locationID, productID)
	if err != nil {
		var notFound *inventory.ErrItemNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to lock item row: %w", err)
		}
		prior = nil
	}

	movements, err := r.Movements.FindForKey(ctx, locationID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read movements: %w", err)
	}

	if len(movements) == 0 {
		if prior == nil {
			return nil, nil
		}
		// A row with live reservations is kept with zeroed quantities
		// rather than silently dropping the reservations.
		if prior.ReservedQty.IsPositive() {
			prior.CurrentQty = decimal.Zero
			prior.AvgCost = decimal.Zero
			prior.UpdatedAt = s.clock.Now()
			if err := r.Items.Upsert(ctx, prior); err != nil {
				return nil, fmt.Errorf("failed to zero item row: %w", err)
			}
			return prior, nil
		}
		if err := r.Items.Delete(ctx, locationID, productID); err != nil {
			return nil, fmt.Errorf("failed to delete empty item row: %w", err)
		}
		return nil, nil
	}

	item := s.deriveItem(locationID, productID, movements)
	if prior != nil {
		item.ReservedQty = prior.ReservedQty
		item.MinStockLevel = prior.MinStockLevel
		item.MaxStockLevel = prior.MaxStockLevel
	}
	item.UpdatedAt = s.clock.Now()

	if err := r.Items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to upsert item row: %w", err)
	}
	return item, nil
}

// deriveItem computes the balance aggregate from the key's movements
func (s *RefreshService) deriveItem(locationID, productID uint, movements []*inventory.Movement) *inventory.Item {
	item := &inventory.Item{
		LocationID:  locationID,
		ProductID:   productID,
		CurrentQty:  decimal.Zero,
		ReservedQty: decimal.Zero,
		AvgCost:     decimal.Zero,
	}

	costWeight := decimal.Zero
	costQty := decimal.Zero

	for _, m := range movements {
		item.CurrentQty = item.CurrentQty.Add(m.SignedQuantity())

		if m.Type().AffectsAverageCost() {
			costWeight = costWeight.Add(m.Quantity().Mul(m.CostPrice()))
			costQty = costQty.Add(m.Quantity())
		}

		if m.Type() == inventory.MovementTypeIn {
			cost := m.CostPrice()
			date := m.MovementDate()
			item.LastPurchaseCost = &cost
			item.LastPurchaseDate = &date
		}
		if m.Type() == inventory.MovementTypeOut && m.SalePrice() != nil {
			price := *m.SalePrice()
			date := m.MovementDate()
			item.LastSalePrice = &price
			item.LastSaleDate = &date
		}
	}

	// avg_cost is zero when nothing is on hand or nothing was received
	if !item.CurrentQty.IsZero() && costQty.IsPositive() {
		item.AvgCost = shared.RoundCost(costWeight.Div(costQty))
	}
	return item
}

// RefreshBatch rebuilds one batch cache row inside the caller's
// transaction scope. A fully consumed batch row is deleted.
func (s *RefreshService) RefreshBatch(ctx context.Context, r ports.Repos, key inventory.BatchKey) (*inventory.Batch, error) {
	movements, err := r.Movements.FindForBatch(ctx, key.LocationID, key.ProductID, key.BatchNumber, key.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch movements: %w", err)
	}

	received := decimal.Zero
	consumed := decimal.Zero
	var batch *inventory.Batch

	for _, m := range movements {
		if m.Type().IsIncoming() {
			received = received.Add(m.Quantity())
			if batch == nil {
				batch = &inventory.Batch{
					LocationID:     key.LocationID,
					ProductID:      key.ProductID,
					BatchNumber:    key.BatchNumber,
					ExpiryDate:     key.ExpiryDate,
					CostPrice:      m.CostPrice(),
					ReceivedDate:   m.MovementDate(),
					IsUnknownBatch: inventory.IsUnknownBatchNumber(key.BatchNumber),
				}
			}
		} else if m.Type().IsOutgoing() {
			consumed = consumed.Add(m.Quantity())
		}
	}

	if batch == nil || consumed.GreaterThanOrEqual(received) {
		if err := r.Batches.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to delete consumed batch row: %w", err)
		}
		return nil, nil
	}

	batch.ReceivedQty = received
	batch.RemainingQty = received.Sub(consumed)
	batch.UpdatedAt = s.clock.Now()

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if err := r.Batches.Upsert(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to upsert batch row: %w", err)
	}
	return batch, nil
}

// RebuildAll re-derives every cache row from the ledger. Keys are
// processed in bounded parallel transactions; pairs never share rows so
// the per-key locking discipline holds.
func (s *RefreshService) RebuildAll(ctx context.Context) error {
	var keys []inventory.ItemKey
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		keys, err = r.Movements.ListKeys(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list ledger keys: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildParallelism)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			return s.uow.Execute(gctx, func(ctx context.Context, r ports.Repos) error {
				if _, err := s.RefreshItem(ctx, r, key.LocationID, key.ProductID); err != nil {
					return err
				}
				return s.refreshBatchesForKey(ctx, r, key)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("cache rebuild failed: %w", err)
	}
	s.logger.Info("cache rebuild complete", zap.Int("keys", len(keys)))
	return nil
}

// refreshBatchesForKey rebuilds every batch row referenced by the key's
// movements
func (s *RefreshService) refreshBatchesForKey(ctx context.Context, r ports.Repos, key inventory.ItemKey) error {
	movements, err := r.Movements.FindForKey(ctx, key.LocationID, key.ProductID)
	if err != nil {
		return err
	}
	seen := make(map[string]inventory.BatchKey)
	for _, m := range movements {
		if !m.HasBatch() {
			continue
		}
		bk := inventory.BatchKey{
			LocationID:  key.LocationID,
			ProductID:   key.ProductID,
			BatchNumber: m.BatchNumber(),
			ExpiryDate:  m.ExpiryDate(),
		}
		mapKey := bk.BatchNumber
		if bk.ExpiryDate != nil {
			mapKey += "@" + bk.ExpiryDate.Format("2006-01-02")
		}
		seen[mapKey] = bk
	}
	for _, bk := range seen {
		if _, err := s.RefreshBatch(ctx, r, bk); err != nil {
			return err
		}
	}
	return nil
}
