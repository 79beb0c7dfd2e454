package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

// GormMovementRepository implements MovementRepository using GORM. The
// ledger is append-only: the repository exposes no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GORM movement repository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement record
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.Movement) error {
	model := r.entityToModel(movement)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create movement: %w", err)
	}
	return nil
}

// FindByID retrieves a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id inventory.MovementID) (*inventory.Movement, error) {
	var model MovementModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &inventory.ErrMovementNotFound{ID: id.String()}
		}
		return nil, fmt.Errorf("failed to find movement: %w", result.Error)
	}
	return r.modelToEntity(&model)
}

// FindForKey retrieves all movements for one (location, product) pair
// ordered by movement date then creation time
func (r *GormMovementRepository) FindForKey(ctx context.Context, locationID, productID uint) ([]*inventory.Movement, error) {
	var models []MovementModel
	result := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		Order("movement_date ASC, created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find movements for key: %w", result.Error)
	}
	return r.modelsToEntities(models)
}

// FindForBatch retrieves all movements for one batch key
func (r *GormMovementRepository) FindForBatch(ctx context.Context, locationID, productID uint, batchNumber string, expiryDate *time.Time) ([]*inventory.Movement, error) {
	query := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ? AND batch_number = ?", locationID, productID, batchNumber)
	if expiryDate != nil {
		query = query.Where("expiry_date = ?", *expiryDate)
	} else {
		query = query.Where("expiry_date IS NULL")
	}

	var models []MovementModel
	result := query.Order("movement_date ASC, created_at ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find movements for batch: %w", result.Error)
	}
	return r.modelsToEntities(models)
}

// FindBySource retrieves all movements written by one source document
func (r *GormMovementRepository) FindBySource(ctx context.Context, source inventory.Source) ([]*inventory.Movement, error) {
	var models []MovementModel
	result := r.db.WithContext(ctx).
		Where("source_kind = ? AND source_number = ?", source.Kind.String(), source.Number).
		Order("movement_date ASC, created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find movements by source: %w", result.Error)
	}
	return r.modelsToEntities(models)
}

// Query retrieves movements matching the options
func (r *GormMovementRepository) Query(ctx context.Context, opts inventory.QueryOptions) ([]*inventory.Movement, error) {
	query := r.applyFilters(r.db.WithContext(ctx), opts)

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "movement_date ASC"
	}
	query = query.Order(orderBy).Order("created_at ASC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []MovementModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	return r.modelsToEntities(models)
}

// Count returns the number of movements matching the options
func (r *GormMovementRepository) Count(ctx context.Context, opts inventory.QueryOptions) (int, error) {
	var count int64
	query := r.applyFilters(r.db.WithContext(ctx).Model(&MovementModel{}), opts)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return int(count), nil
}

// ProfitSummary aggregates sold quantity, revenue, cost and profit over
// outgoing movements with a sale price matching the options
func (r *GormMovementRepository) ProfitSummary(ctx context.Context, opts inventory.QueryOptions) (*inventory.ProfitSummary, error) {
	var row struct {
		SoldQty decimal.Decimal
		Revenue decimal.Decimal
		Cost    decimal.Decimal
	}

	query := r.applyFilters(r.db.WithContext(ctx).Model(&MovementModel{}), opts).
		Where("movement_type IN ?", []string{
			inventory.MovementTypeOut.String(),
			inventory.MovementTypeTransferOut.String(),
			inventory.MovementTypeAdjustmentOut.String(),
		}).
		Where("sale_price IS NOT NULL")

	err := query.Select(
		"COALESCE(SUM(quantity), 0) AS sold_qty, " +
			"COALESCE(SUM(quantity * sale_price), 0) AS revenue, " +
			"COALESCE(SUM(quantity * cost_price), 0) AS cost").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate profit: %w", err)
	}

	summary := &inventory.ProfitSummary{
		SoldQty: row.SoldQty,
		Revenue: row.Revenue,
		Cost:    row.Cost,
		Profit:  row.Revenue.Sub(row.Cost),
	}
	if summary.Revenue.IsPositive() {
		hundred := decimal.NewFromInt(100)
		summary.MarginPercentage = summary.Profit.Div(summary.Revenue).Mul(hundred).Round(2)
	} else {
		summary.MarginPercentage = decimal.Zero
	}
	return summary, nil
}

// ListKeys returns every distinct (location, product) pair in the ledger
func (r *GormMovementRepository) ListKeys(ctx context.Context) ([]inventory.ItemKey, error) {
	var rows []struct {
		LocationID uint
		ProductID  uint
	}
	err := r.db.WithContext(ctx).Model(&MovementModel{}).
		Distinct("location_id", "product_id").
		Order("location_id, product_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger keys: %w", err)
	}

	keys := make([]inventory.ItemKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, inventory.ItemKey{LocationID: row.LocationID, ProductID: row.ProductID})
	}
	return keys, nil
}

// applyFilters builds the WHERE clause from the query options
func (r *GormMovementRepository) applyFilters(query *gorm.DB, opts inventory.QueryOptions) *gorm.DB {
	if opts.LocationID != nil {
		query = query.Where("location_id = ?", *opts.LocationID)
	}
	if opts.ProductID != nil {
		query = query.Where("product_id = ?", *opts.ProductID)
	}
	if opts.MovementType != nil {
		query = query.Where("movement_type = ?", opts.MovementType.String())
	}
	if opts.SourceKind != nil {
		query = query.Where("source_kind = ?", opts.SourceKind.String())
	}
	if opts.SourceNumber != nil {
		query = query.Where("source_number = ?", *opts.SourceNumber)
	}
	if opts.BatchNumber != nil {
		query = query.Where("batch_number = ?", *opts.BatchNumber)
	}
	if opts.StartDate != nil {
		query = query.Where("movement_date >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("movement_date <= ?", *opts.EndDate)
	}
	return query
}

func (r *GormMovementRepository) modelsToEntities(models []MovementModel) ([]*inventory.Movement, error) {
	movements := make([]*inventory.Movement, 0, len(models))
	for i := range models {
		entity, err := r.modelToEntity(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert movement %s: %w", models[i].ID, err)
		}
		movements = append(movements, entity)
	}
	return movements, nil
}

// modelToEntity converts a database model to the domain entity
func (r *GormMovementRepository) modelToEntity(model *MovementModel) (*inventory.Movement, error) {
	id, err := inventory.ParseMovementID(model.ID)
	if err != nil {
		return nil, err
	}
	movementType, err := inventory.ParseMovementType(model.MovementType)
	if err != nil {
		return nil, err
	}
	sourceKind, err := inventory.ParseSourceKind(model.SourceKind)
	if err != nil {
		return nil, err
	}

	return inventory.ReconstructMovement(
		id,
		model.LocationID,
		model.ProductID,
		movementType,
		model.Quantity,
		model.CostPrice,
		model.SalePrice,
		model.ProfitAmount,
		model.ProfitMargin,
		model.BatchNumber,
		model.ExpiryDate,
		inventory.Source{Kind: sourceKind, Number: model.SourceNumber},
		model.CounterpartLocationID,
		model.TransferRef,
		model.Reason,
		model.MovementDate,
		model.CreatedAt,
		model.CreatedBy,
	), nil
}

// entityToModel converts a domain entity to the database model
func (r *GormMovementRepository) entityToModel(m *inventory.Movement) *MovementModel {
	return &MovementModel{
		ID:                    m.ID().String(),
		LocationID:            m.LocationID(),
		ProductID:             m.ProductID(),
		MovementType:          m.Type().String(),
		Quantity:              m.Quantity(),
		CostPrice:             m.CostPrice(),
		SalePrice:             m.SalePrice(),
		ProfitAmount:          m.ProfitAmount(),
		ProfitMargin:          m.ProfitMargin(),
		BatchNumber:           m.BatchNumber(),
		ExpiryDate:            m.ExpiryDate(),
		SourceKind:            m.Source().Kind.String(),
		SourceNumber:          m.Source().Number,
		CounterpartLocationID: m.CounterpartLocationID(),
		TransferRef:           m.TransferRef(),
		Reason:                m.Reason(),
		MovementDate:          m.MovementDate(),
		CreatedAt:             m.CreatedAt(),
		CreatedBy:             m.CreatedBy(),
	}
}
