package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GORM batch repository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Find retrieves one batch cache row
func (r *GormBatchRepository) Find(ctx context.Context, key inventory.BatchKey) (*inventory.Batch, error) {
	return r.find(ctx, r.db, key)
}

// FindForUpdate retrieves the row holding a row-level exclusive lock
func (r *GormBatchRepository) FindForUpdate(ctx context.Context, key inventory.BatchKey) (*inventory.Batch, error) {
	return r.find(ctx, forUpdate(r.db), key)
}

func (r *GormBatchRepository) find(ctx context.Context, db *gorm.DB, key inventory.BatchKey) (*inventory.Batch, error) {
	query := db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND batch_number = ?",
			key.LocationID, key.ProductID, key.BatchNumber)
	if key.ExpiryDate != nil {
		query = query.Where("expiry_date = ?", *key.ExpiryDate)
	} else {
		query = query.Where("expiry_date IS NULL")
	}

	var model BatchModel
	result := query.First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &inventory.ErrBatchNotFound{
				LocationID:  key.LocationID,
				ProductID:   key.ProductID,
				BatchNumber: key.BatchNumber,
			}
		}
		return nil, fmt.Errorf("failed to find batch: %w", result.Error)
	}
	return r.modelToEntity(&model), nil
}

// FindAvailable retrieves all batches with remaining quantity for the
// pair in FIFO order, locking each row for the enclosing transaction
func (r *GormBatchRepository) FindAvailable(ctx context.Context, locationID, productID uint) ([]*inventory.Batch, error) {
	return r.listAvailable(ctx, forUpdate(r.db), locationID, productID)
}

// ListAvailable is FindAvailable without row locks, for read-side
// availability checks
func (r *GormBatchRepository) ListAvailable(ctx context.Context, locationID, productID uint) ([]*inventory.Batch, error) {
	return r.listAvailable(ctx, r.db, locationID, productID)
}

func (r *GormBatchRepository) listAvailable(ctx context.Context, db *gorm.DB, locationID, productID uint) ([]*inventory.Batch, error) {
	var models []BatchModel
	result := db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND remaining_qty > 0", locationID, productID).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find available batches: %w", result.Error)
	}

	batches := make([]*inventory.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, r.modelToEntity(&models[i]))
	}
	// FIFO ordering with nil expiries last is easier to express in code
	// than portably in SQL
	inventory.SortBatchesFIFO(batches)
	return batches, nil
}

// Upsert creates or replaces the row
func (r *GormBatchRepository) Upsert(ctx context.Context, batch *inventory.Batch) error {
	model := r.entityToModel(batch)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "location_id"}, {Name: "product_id"},
			{Name: "batch_number"}, {Name: "expiry_date"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"received_qty", "remaining_qty", "cost_price", "received_date",
			"is_unknown_batch", "conversion_date", "updated_at",
		}),
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert batch: %w", result.Error)
	}
	return nil
}

// Delete removes the row
func (r *GormBatchRepository) Delete(ctx context.Context, key inventory.BatchKey) error {
	query := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND batch_number = ?",
			key.LocationID, key.ProductID, key.BatchNumber)
	if key.ExpiryDate != nil {
		query = query.Where("expiry_date = ?", *key.ExpiryDate)
	} else {
		query = query.Where("expiry_date IS NULL")
	}
	if err := query.Delete(&BatchModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

// ListExpiring retrieves batches with remaining stock whose expiry falls
// before the cutoff, soonest first
func (r *GormBatchRepository) ListExpiring(ctx context.Context, locationID uint, cutoff time.Time) ([]*inventory.Batch, error) {
	var models []BatchModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND remaining_qty > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?",
			locationID, cutoff).
		Order("expiry_date ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list expiring batches: %w", result.Error)
	}

	batches := make([]*inventory.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, r.modelToEntity(&models[i]))
	}
	return batches, nil
}

func (r *GormBatchRepository) modelToEntity(model *BatchModel) *inventory.Batch {
	return &inventory.Batch{
		LocationID:     model.LocationID,
		ProductID:      model.ProductID,
		BatchNumber:    model.BatchNumber,
		ExpiryDate:     model.ExpiryDate,
		ReceivedQty:    model.ReceivedQty,
		RemainingQty:   model.RemainingQty,
		CostPrice:      model.CostPrice,
		ReceivedDate:   model.ReceivedDate,
		IsUnknownBatch: model.IsUnknownBatch,
		ConversionDate: model.ConversionDate,
		UpdatedAt:      model.UpdatedAt,
	}
}

func (r *GormBatchRepository) entityToModel(batch *inventory.Batch) *BatchModel {
	return &BatchModel{
		LocationID:     batch.LocationID,
		ProductID:      batch.ProductID,
		BatchNumber:    batch.BatchNumber,
		ExpiryDate:     batch.ExpiryDate,
		ReceivedQty:    batch.ReceivedQty,
		RemainingQty:   batch.RemainingQty,
		CostPrice:      batch.CostPrice,
		ReceivedDate:   batch.ReceivedDate,
		IsUnknownBatch: batch.IsUnknownBatch,
		ConversionDate: batch.ConversionDate,
		UpdatedAt:      batch.UpdatedAt,
	}
}
