package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GORM customer repository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID retrieves a customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uint) (*pricing.Customer, error) {
	var model CustomerModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("customer not found: id=%d", id)
		}
		return nil, fmt.Errorf("failed to find customer: %w", result.Error)
	}
	return customerModelToEntity(&model)
}

// FindByCode retrieves a customer by code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*pricing.Customer, error) {
	var model CustomerModel
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("customer not found: code=%s", code)
		}
		return nil, fmt.Errorf("failed to find customer: %w", result.Error)
	}
	return customerModelToEntity(&model)
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *pricing.Customer) error {
	groupsJSON, err := json.Marshal(customer.Groups)
	if err != nil {
		return fmt.Errorf("failed to marshal customer groups: %w", err)
	}
	model := &CustomerModel{
		ID:         customer.ID,
		Code:       customer.Code,
		PriceGroup: customer.PriceGroup,
		Groups:     string(groupsJSON),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	customer.ID = model.ID
	return nil
}

func customerModelToEntity(model *CustomerModel) (*pricing.Customer, error) {
	var groups []string
	if model.Groups != "" {
		if err := json.Unmarshal([]byte(model.Groups), &groups); err != nil {
			return nil, fmt.Errorf("failed to unmarshal customer groups: %w", err)
		}
	}
	return &pricing.Customer{
		ID:         model.ID,
		Code:       model.Code,
		PriceGroup: model.PriceGroup,
		Groups:     groups,
	}, nil
}
