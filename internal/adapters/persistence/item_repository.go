package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM item repository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Find retrieves the balance cache row
func (r *GormItemRepository) Find(ctx context.Context, locationID, productID uint) (*inventory.Item, error) {
	return r.find(ctx, r.db, locationID, productID)
}

// FindForUpdate retrieves the row holding a row-level exclusive lock for
// the rest of the enclosing transaction
func (r *GormItemRepository) FindForUpdate(ctx context.Context, locationID, productID uint) (*inventory.Item, error) {
	return r.find(ctx, forUpdate(r.db), locationID, productID)
}

func (r *GormItemRepository) find(ctx context.Context, db *gorm.DB, locationID, productID uint) (*inventory.Item, error) {
	var model ItemModel
	result := db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &inventory.ErrItemNotFound{LocationID: locationID, ProductID: productID}
		}
		return nil, fmt.Errorf("failed to find item: %w", result.Error)
	}
	return r.modelToEntity(&model), nil
}

// Upsert creates or replaces the row
func (r *GormItemRepository) Upsert(ctx context.Context, item *inventory.Item) error {
	model := r.entityToModel(item)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "product_id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert item: %w", result.Error)
	}
	return nil
}

// Delete removes the row
func (r *GormItemRepository) Delete(ctx context.Context, locationID, productID uint) error {
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		Delete(&ItemModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	return nil
}

// ListByLocation retrieves all rows for one location
func (r *GormItemRepository) ListByLocation(ctx context.Context, locationID uint) ([]*inventory.Item, error) {
	var models []ItemModel
	result := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("product_id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list items: %w", result.Error)
	}

	items := make([]*inventory.Item, 0, len(models))
	for i := range models {
		items = append(items, r.modelToEntity(&models[i]))
	}
	return items, nil
}

func (r *GormItemRepository) modelToEntity(model *ItemModel) *inventory.Item {
	return &inventory.Item{
		LocationID:       model.LocationID,
		ProductID:        model.ProductID,
		CurrentQty:       model.CurrentQty,
		ReservedQty:      model.ReservedQty,
		AvgCost:          model.AvgCost,
		LastPurchaseCost: model.LastPurchaseCost,
		LastPurchaseDate: model.LastPurchaseDate,
		LastSalePrice:    model.LastSalePrice,
		LastSaleDate:     model.LastSaleDate,
		MinStockLevel:    model.MinStockLevel,
		MaxStockLevel:    model.MaxStockLevel,
		UpdatedAt:        model.UpdatedAt,
	}
}

func (r *GormItemRepository) entityToModel(item *inventory.Item) *ItemModel {
	return &ItemModel{
		LocationID:       item.LocationID,
		ProductID:        item.ProductID,
		CurrentQty:       item.CurrentQty,
		ReservedQty:      item.ReservedQty,
		AvgCost:          item.AvgCost,
		LastPurchaseCost: item.LastPurchaseCost,
		LastPurchaseDate: item.LastPurchaseDate,
		LastSalePrice:    item.LastSalePrice,
		LastSaleDate:     item.LastSaleDate,
		MinStockLevel:    item.MinStockLevel,
		MaxStockLevel:    item.MaxStockLevel,
		UpdatedAt:        item.UpdatedAt,
	}
}
