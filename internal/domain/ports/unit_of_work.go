package ports

import (
	"context"

	"github.com/andrescamacho/stockcore-go/internal/domain/approval"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
)

// Repos bundles every repository bound to one transaction scope. Services
// receive a Repos both standalone (auto-commit reads) and inside a unit
// of work (all writes of one operation commit or roll back together).
type Repos struct {
	Locations     catalog.LocationRepository
	Products      catalog.ProductRepository
	Movements     inventory.MovementRepository
	Items         inventory.ItemRepository
	Batches       inventory.BatchRepository
	Prices        pricing.PriceRepository
	Customers     pricing.CustomerRepository
	Documents     document.DocumentRepository
	DocumentTypes document.DocumentTypeRepository
	ApprovalRules approval.RuleRepository
	ApprovalLogs  approval.LogRepository
	Numbering     numbering.ConfigRepository
}

// UnitOfWork runs a function inside a single database transaction. Row
// locks taken through the Repos' FindForUpdate methods are held until the
// function returns; an error rolls back every write.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
