package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
)

// GormNumberingRepository implements ConfigRepository using GORM
type GormNumberingRepository struct {
	db *gorm.DB
}

// NewGormNumberingRepository creates a new GORM numbering repository
func NewGormNumberingRepository(db *gorm.DB) *GormNumberingRepository {
	return &GormNumberingRepository{db: db}
}

// Save creates or updates a configuration
func (r *GormNumberingRepository) Save(ctx context.Context, config *numbering.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	model := numberingEntityToModel(config)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save numbering config: %w", err)
	}
	config.ID = model.ID
	return nil
}

// FindByID retrieves a configuration
func (r *GormNumberingRepository) FindByID(ctx context.Context, id uint) (*numbering.Config, error) {
	return r.findByID(ctx, r.db, id)
}

// FindForUpdate retrieves the configuration holding a row-level exclusive
// lock for the rest of the enclosing transaction
func (r *GormNumberingRepository) FindForUpdate(ctx context.Context, id uint) (*numbering.Config, error) {
	return r.findByID(ctx, forUpdate(r.db), id)
}

func (r *GormNumberingRepository) findByID(ctx context.Context, db *gorm.DB, id uint) (*numbering.Config, error) {
	var model NumberingConfigModel
	result := db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &numbering.ErrConfigNotFound{}
		}
		return nil, fmt.Errorf("failed to find numbering config: %w", result.Error)
	}
	return numberingModelToEntity(&model), nil
}

// Select resolves the configuration for an allocation: a user preference
// wins over a location assignment, which wins over the type default.
func (r *GormNumberingRepository) Select(ctx context.Context, documentType string, locationID *uint, userName string) (*numbering.Config, error) {
	if userName != "" {
		config, err := r.selectOne(ctx, "document_type = ? AND user_name = ?", documentType, userName)
		if err != nil {
			return nil, err
		}
		if config != nil {
			return config, nil
		}
	}
	if locationID != nil {
		config, err := r.selectOne(ctx, "document_type = ? AND location_id = ? AND user_name = ''", documentType, *locationID)
		if err != nil {
			return nil, err
		}
		if config != nil {
			return config, nil
		}
	}
	config, err := r.selectOne(ctx, "document_type = ? AND location_id IS NULL AND user_name = ''", documentType)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, &numbering.ErrConfigNotFound{DocumentType: documentType}
	}
	return config, nil
}

func (r *GormNumberingRepository) selectOne(ctx context.Context, cond string, args ...interface{}) (*numbering.Config, error) {
	var model NumberingConfigModel
	result := r.db.WithContext(ctx).Where(cond, args...).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select numbering config: %w", result.Error)
	}
	return numberingModelToEntity(&model), nil
}

func numberingModelToEntity(model *NumberingConfigModel) *numbering.Config {
	return &numbering.Config{
		ID:            model.ID,
		DocumentType:  model.DocumentType,
		NumberingType: numbering.NumberingType(model.NumberingType),
		Prefix:        model.Prefix,
		DigitsCount:   model.DigitsCount,
		CurrentNumber: model.CurrentNumber,
		MaxNumber:     model.MaxNumber,
		ResetYearly:   model.ResetYearly,
		LastResetYear: model.LastResetYear,
		LocationID:    model.LocationID,
		UserName:      model.UserName,
	}
}

func numberingEntityToModel(config *numbering.Config) *NumberingConfigModel {
	return &NumberingConfigModel{
		ID:            config.ID,
		DocumentType:  config.DocumentType,
		NumberingType: config.NumberingType.String(),
		Prefix:        config.Prefix,
		DigitsCount:   config.DigitsCount,
		CurrentNumber: config.CurrentNumber,
		MaxNumber:     config.MaxNumber,
		ResetYearly:   config.ResetYearly,
		LastResetYear: config.LastResetYear,
		LocationID:    config.LocationID,
		UserName:      config.UserName,
	}
}
