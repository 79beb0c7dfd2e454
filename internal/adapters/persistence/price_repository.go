package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
)

// GormPriceRepository implements PriceRepository using GORM
type GormPriceRepository struct {
	db *gorm.DB
}

// NewGormPriceRepository creates a new GORM price repository
func NewGormPriceRepository(db *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: db}
}

// FindBasePrice retrieves the active base price for the pair
func (r *GormPriceRepository) FindBasePrice(ctx context.Context, locationID, productID uint) (*pricing.BasePrice, error) {
	var model BasePriceModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND is_active = ?", locationID, productID, true).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &pricing.ErrPriceNotFound{LocationID: locationID, ProductID: productID}
		}
		return nil, fmt.Errorf("failed to find base price: %w", result.Error)
	}
	return basePriceModelToEntity(&model), nil
}

// SaveBasePrice creates or updates a base price
func (r *GormPriceRepository) SaveBasePrice(ctx context.Context, price *pricing.BasePrice) error {
	model := &BasePriceModel{
		ID:               price.ID,
		LocationID:       price.LocationID,
		ProductID:        price.ProductID,
		Method:           price.Method.String(),
		BasePrice:        price.BasePrice,
		MarkupPercentage: price.MarkupPercentage,
		EffectivePrice:   price.EffectivePrice,
		IsActive:         price.IsActive,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save base price: %w", err)
	}
	price.ID = model.ID
	return nil
}

// ListMarkupBasePrices retrieves active MARKUP-method base prices for the
// pair, for cost-change propagation
func (r *GormPriceRepository) ListMarkupBasePrices(ctx context.Context, locationID, productID uint) ([]*pricing.BasePrice, error) {
	var models []BasePriceModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND is_active = ? AND method = ?",
			locationID, productID, true, pricing.PriceMethodMarkup.String()).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list markup prices: %w", result.Error)
	}
	prices := make([]*pricing.BasePrice, 0, len(models))
	for i := range models {
		prices = append(prices, basePriceModelToEntity(&models[i]))
	}
	return prices, nil
}

// FindGroupPrices retrieves active group prices for the price group with
// MinQuantity <= quantity, cheapest first
func (r *GormPriceRepository) FindGroupPrices(ctx context.Context, locationID, productID uint, priceGroup string, quantity decimal.Decimal) ([]*pricing.GroupPrice, error) {
	var models []GroupPriceModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND price_group = ? AND is_active = ? AND min_quantity <= ?",
			locationID, productID, priceGroup, true, quantity).
		Order("price ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find group prices: %w", result.Error)
	}

	prices := make([]*pricing.GroupPrice, 0, len(models))
	for _, model := range models {
		prices = append(prices, &pricing.GroupPrice{
			ID:          model.ID,
			LocationID:  model.LocationID,
			ProductID:   model.ProductID,
			PriceGroup:  model.PriceGroup,
			MinQuantity: model.MinQuantity,
			Price:       model.Price,
			IsActive:    model.IsActive,
		})
	}
	return prices, nil
}

// SaveGroupPrice creates or updates a group price
func (r *GormPriceRepository) SaveGroupPrice(ctx context.Context, price *pricing.GroupPrice) error {
	model := &GroupPriceModel{
		ID:          price.ID,
		LocationID:  price.LocationID,
		ProductID:   price.ProductID,
		PriceGroup:  price.PriceGroup,
		MinQuantity: price.MinQuantity,
		Price:       price.Price,
		IsActive:    price.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save group price: %w", err)
	}
	price.ID = model.ID
	return nil
}

// FindStepPrices retrieves active step prices for the pair ordered by
// MinQuantity descending
func (r *GormPriceRepository) FindStepPrices(ctx context.Context, locationID, productID uint) ([]*pricing.StepPrice, error) {
	var models []StepPriceModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND is_active = ?", locationID, productID, true).
		Order("min_quantity DESC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find step prices: %w", result.Error)
	}

	prices := make([]*pricing.StepPrice, 0, len(models))
	for _, model := range models {
		prices = append(prices, &pricing.StepPrice{
			ID:          model.ID,
			LocationID:  model.LocationID,
			ProductID:   model.ProductID,
			MinQuantity: model.MinQuantity,
			Price:       model.Price,
			IsActive:    model.IsActive,
		})
	}
	return prices, nil
}

// SaveStepPrice creates or updates a step price
func (r *GormPriceRepository) SaveStepPrice(ctx context.Context, price *pricing.StepPrice) error {
	model := &StepPriceModel{
		ID:          price.ID,
		LocationID:  price.LocationID,
		ProductID:   price.ProductID,
		MinQuantity: price.MinQuantity,
		Price:       price.Price,
		IsActive:    price.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save step price: %w", err)
	}
	price.ID = model.ID
	return nil
}

// FindActivePromotions retrieves promotions whose window contains the
// date, ordered by promotional price ascending then priority descending
func (r *GormPriceRepository) FindActivePromotions(ctx context.Context, locationID, productID uint, date time.Time) ([]*pricing.Promotion, error) {
	var models []PromotionModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?",
			locationID, productID, true, date, date).
		Order("promotional_price ASC, priority DESC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find promotions: %w", result.Error)
	}

	promotions := make([]*pricing.Promotion, 0, len(models))
	for _, model := range models {
		promotions = append(promotions, &pricing.Promotion{
			ID:               model.ID,
			LocationID:       model.LocationID,
			ProductID:        model.ProductID,
			StartDate:        model.StartDate,
			EndDate:          model.EndDate,
			PromotionalPrice: model.PromotionalPrice,
			MinQuantity:      model.MinQuantity,
			MaxQuantity:      model.MaxQuantity,
			CustomerGroup:    model.CustomerGroup,
			Priority:         model.Priority,
			IsActive:         model.IsActive,
		})
	}
	return promotions, nil
}

// SavePromotion creates or updates a promotion
func (r *GormPriceRepository) SavePromotion(ctx context.Context, promotion *pricing.Promotion) error {
	model := &PromotionModel{
		ID:               promotion.ID,
		LocationID:       promotion.LocationID,
		ProductID:        promotion.ProductID,
		StartDate:        promotion.StartDate,
		EndDate:          promotion.EndDate,
		PromotionalPrice: promotion.PromotionalPrice,
		MinQuantity:      promotion.MinQuantity,
		MaxQuantity:      promotion.MaxQuantity,
		CustomerGroup:    promotion.CustomerGroup,
		Priority:         promotion.Priority,
		IsActive:         promotion.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save promotion: %w", err)
	}
	promotion.ID = model.ID
	return nil
}

// DeletePromotion removes a promotion
func (r *GormPriceRepository) DeletePromotion(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&PromotionModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	return nil
}

// FindPackagingPrice retrieves the active packaging price for the
// packaging unit at the location
func (r *GormPriceRepository) FindPackagingPrice(ctx context.Context, locationID uint, packagingUnit string, productID uint) (*pricing.PackagingPrice, error) {
	var model PackagingPriceModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND packaging_unit = ? AND product_id = ? AND is_active = ?",
			locationID, packagingUnit, productID, true).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &pricing.ErrPriceNotFound{LocationID: locationID, ProductID: productID}
		}
		return nil, fmt.Errorf("failed to find packaging price: %w", result.Error)
	}
	return &pricing.PackagingPrice{
		ID:               model.ID,
		LocationID:       model.LocationID,
		PackagingUnit:    model.PackagingUnit,
		ProductID:        model.ProductID,
		Method:           pricing.PriceMethod(model.Method),
		Price:            model.Price,
		MarkupPercentage: model.MarkupPercentage,
		EffectivePrice:   model.EffectivePrice,
		IsActive:         model.IsActive,
	}, nil
}

// SavePackagingPrice creates or updates a packaging price
func (r *GormPriceRepository) SavePackagingPrice(ctx context.Context, price *pricing.PackagingPrice) error {
	model := &PackagingPriceModel{
		ID:               price.ID,
		LocationID:       price.LocationID,
		PackagingUnit:    price.PackagingUnit,
		ProductID:        price.ProductID,
		Method:           price.Method.String(),
		Price:            price.Price,
		MarkupPercentage: price.MarkupPercentage,
		EffectivePrice:   price.EffectivePrice,
		IsActive:         price.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save packaging price: %w", err)
	}
	price.ID = model.ID
	return nil
}

// FindBarcode retrieves a barcode by its code
func (r *GormPriceRepository) FindBarcode(ctx context.Context, code string) (*pricing.Barcode, error) {
	var model BarcodeModel
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("barcode not found: %s", code)
		}
		return nil, fmt.Errorf("failed to find barcode: %w", result.Error)
	}
	return &pricing.Barcode{
		Code:             model.Code,
		ProductID:        model.ProductID,
		PackagingUnit:    model.PackagingUnit,
		ConversionFactor: model.ConversionFactor,
	}, nil
}

// SaveBarcode creates or updates a barcode
func (r *GormPriceRepository) SaveBarcode(ctx context.Context, barcode *pricing.Barcode) error {
	model := &BarcodeModel{
		Code:             barcode.Code,
		ProductID:        barcode.ProductID,
		PackagingUnit:    barcode.PackagingUnit,
		ConversionFactor: barcode.ConversionFactor,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save barcode: %w", result.Error)
	}
	return nil
}

func basePriceModelToEntity(model *BasePriceModel) *pricing.BasePrice {
	return &pricing.BasePrice{
		ID:               model.ID,
		LocationID:       model.LocationID,
		ProductID:        model.ProductID,
		Method:           pricing.PriceMethod(model.Method),
		BasePrice:        model.BasePrice,
		MarkupPercentage: model.MarkupPercentage,
		EffectivePrice:   model.EffectivePrice,
		IsActive:         model.IsActive,
		UpdatedAt:        model.UpdatedAt,
	}
}
