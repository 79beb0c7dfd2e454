package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
)

// GormUnitOfWork implements UnitOfWork over a GORM database. Execute runs
// the function inside one transaction with every repository bound to it;
// a returned error rolls back all writes and releases all row locks.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a unit of work over the database handle
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, r ports.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepos(tx))
	})
}

// NewRepos builds the repository bundle bound to one database handle.
// Pass a transaction to scope every repository to it.
func NewRepos(db *gorm.DB) ports.Repos {
	return ports.Repos{
		Locations:     NewGormLocationRepository(db),
		Products:      NewGormProductRepository(db),
		Movements:     NewGormMovementRepository(db),
		Items:         NewGormItemRepository(db),
		Batches:       NewGormBatchRepository(db),
		Prices:        NewGormPriceRepository(db),
		Customers:     NewGormCustomerRepository(db),
		Documents:     NewGormDocumentRepository(db),
		DocumentTypes: NewGormDocumentTypeRepository(db),
		ApprovalRules: NewGormApprovalRuleRepository(db),
		ApprovalLogs:  NewGormApprovalLogRepository(db),
		Numbering:     NewGormNumberingRepository(db),
	}
}
