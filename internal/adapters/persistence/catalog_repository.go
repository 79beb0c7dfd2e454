package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GORM location repository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, location *catalog.Location) error {
	model := &LocationModel{
		ID:                      location.ID,
		Code:                    location.Code,
		Name:                    location.Name,
		AllowNegativeStock:      location.AllowNegativeStock,
		DefaultMarkupPercentage: location.DefaultMarkupPercentage,
		BatchTrackingMode:       location.BatchTrackingMode.String(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	location.ID = model.ID
	return nil
}

// FindByID retrieves a location by ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uint) (*catalog.Location, error) {
	var model LocationModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &catalog.ErrLocationNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to find location: %w", result.Error)
	}
	return locationModelToEntity(&model)
}

// FindByCode retrieves a location by code
func (r *GormLocationRepository) FindByCode(ctx context.Context, code string) (*catalog.Location, error) {
	var model LocationModel
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &catalog.ErrLocationNotFound{Code: code}
		}
		return nil, fmt.Errorf("failed to find location: %w", result.Error)
	}
	return locationModelToEntity(&model)
}

// List retrieves all locations
func (r *GormLocationRepository) List(ctx context.Context) ([]*catalog.Location, error) {
	var models []LocationModel
	if err := r.db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	locations := make([]*catalog.Location, 0, len(models))
	for i := range models {
		entity, err := locationModelToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		locations = append(locations, entity)
	}
	return locations, nil
}

func locationModelToEntity(model *LocationModel) (*catalog.Location, error) {
	mode, err := catalog.ParseBatchTrackingMode(model.BatchTrackingMode)
	if err != nil {
		return nil, fmt.Errorf("location %s: %w", model.Code, err)
	}
	return &catalog.Location{
		ID:                      model.ID,
		Code:                    model.Code,
		Name:                    model.Name,
		AllowNegativeStock:      model.AllowNegativeStock,
		DefaultMarkupPercentage: model.DefaultMarkupPercentage,
		BatchTrackingMode:       mode,
	}, nil
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := &ProductModel{
		ID:              product.ID,
		Code:            product.Code,
		Name:            product.Name,
		BaseUnit:        product.BaseUnit,
		UnitType:        product.UnitType.String(),
		TaxGroup:        product.TaxGroup,
		TaxRate:         product.TaxRate,
		LifecycleStatus: product.LifecycleStatus.String(),
		SalesBlocked:    product.SalesBlocked,
		PurchaseBlocked: product.PurchaseBlocked,
		TrackBatches:    product.TrackBatches,
		TrackSerials:    product.TrackSerials,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	product.ID = model.ID
	return nil
}

// FindByID retrieves a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*catalog.Product, error) {
	var model ProductModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &catalog.ErrProductNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}
	return productModelToEntity(&model), nil
}

// FindByCode retrieves a product by code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var model ProductModel
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &catalog.ErrProductNotFound{Code: code}
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}
	return productModelToEntity(&model), nil
}

// List retrieves all products
func (r *GormProductRepository) List(ctx context.Context) ([]*catalog.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]*catalog.Product, 0, len(models))
	for i := range models {
		products = append(products, productModelToEntity(&models[i]))
	}
	return products, nil
}

func productModelToEntity(model *ProductModel) *catalog.Product {
	return &catalog.Product{
		ID:              model.ID,
		Code:            model.Code,
		Name:            model.Name,
		BaseUnit:        model.BaseUnit,
		UnitType:        catalog.UnitType(model.UnitType),
		TaxGroup:        model.TaxGroup,
		TaxRate:         model.TaxRate,
		LifecycleStatus: catalog.LifecycleStatus(model.LifecycleStatus),
		SalesBlocked:    model.SalesBlocked,
		PurchaseBlocked: model.PurchaseBlocked,
		TrackBatches:    model.TrackBatches,
		TrackSerials:    model.TrackSerials,
	}
}
